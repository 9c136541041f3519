package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/recipebox/internal/shortlink"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore is a PostgreSQL implementation of the short link and recipe
// repositories.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}

func (p *PostgresStore) Exists(ctx context.Context, slug shortlink.Slug) (bool, error) {
	var exists bool

	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM short_links WHERE slug = $1)`,
		string(slug),
	).Scan(&exists)

	return exists, err
}

func (p *PostgresStore) Save(ctx context.Context, link *shortlink.ShortLink) error {
	query := `
		INSERT INTO short_links (slug, recipe_id, redirect_url, short_link_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := p.pool.Exec(ctx, query,
		string(link.Slug),
		link.RecipeID,
		link.RedirectURL,
		link.ShortLinkURL,
		link.CreatedAt,
	)

	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return shortlink.ErrSlugTaken
	case pgForeignKeyViolation:
		return shortlink.ErrNotFound
	}

	return err
}

func (p *PostgresStore) GetBySlug(ctx context.Context, slug shortlink.Slug) (*shortlink.ShortLink, error) {
	query := `
		SELECT slug, recipe_id, redirect_url, short_link_url, created_at, last_resolved_at
		FROM short_links
		WHERE slug = $1
	`

	var link shortlink.ShortLink

	var code string

	err := p.pool.QueryRow(ctx, query, string(slug)).Scan(
		&code,
		&link.RecipeID,
		&link.RedirectURL,
		&link.ShortLinkURL,
		&link.CreatedAt,
		&link.LastResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortlink.ErrNotFound
		}

		return nil, err
	}

	link.Slug = shortlink.Slug(code)

	return &link, nil
}

func (p *PostgresStore) MarkResolved(ctx context.Context, slug shortlink.Slug, at time.Time) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE short_links SET last_resolved_at = $2 WHERE slug = $1`,
		string(slug), at,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortlink.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) Prune(ctx context.Context, cutoff time.Time) ([]shortlink.Slug, error) {
	rows, err := p.pool.Query(ctx, `
		DELETE FROM short_links
		WHERE COALESCE(last_resolved_at, created_at) < $1
		RETURNING slug
	`, cutoff)
	if err != nil {
		return nil, err
	}

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	slugs := make([]shortlink.Slug, 0, len(codes))
	for _, c := range codes {
		slugs = append(slugs, shortlink.Slug(c))
	}

	return slugs, nil
}

// Compile-time check.
var _ shortlink.Repository = (*PostgresStore)(nil)
