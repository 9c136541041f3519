package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/recipebox/internal/shortlink"
)

// RedisCacheRepository wraps a shortlink.Repository with Redis caching for
// reads. Only the immutable fields of a link are cached; resolution
// bookkeeping always goes to the underlying store.
type RedisCacheRepository struct {
	store  shortlink.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortlink.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "shortlink:",
		ttl:    ttl,
	}
}

// Exists reports a cache hit as taken and falls back to the store.
func (r *RedisCacheRepository) Exists(ctx context.Context, slug shortlink.Slug) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+string(slug)).Result()
	if err == nil && n > 0 {
		return true, nil
	}

	return r.store.Exists(ctx, slug)
}

// Save stores a link in the underlying store and updates the cache.
func (r *RedisCacheRepository) Save(ctx context.Context, link *shortlink.ShortLink) error {
	if err := r.store.Save(ctx, link); err != nil {
		return err
	}

	r.cacheLink(ctx, link)

	return nil
}

// GetBySlug retrieves a link, checking the cache first.
func (r *RedisCacheRepository) GetBySlug(ctx context.Context, slug shortlink.Slug) (*shortlink.ShortLink, error) {
	if link, err := r.getFromCache(ctx, slug); err == nil {
		return link, nil
	}

	link, err := r.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

// MarkResolved records the resolution in the store. A link the store no
// longer has, e.g. one removed with its recipe, is evicted from the cache.
func (r *RedisCacheRepository) MarkResolved(ctx context.Context, slug shortlink.Slug, at time.Time) error {
	err := r.store.MarkResolved(ctx, slug, at)
	if errors.Is(err, shortlink.ErrNotFound) {
		_ = r.client.Del(ctx, r.prefix+string(slug)).Err()
	}

	return err
}

// Prune deletes expired links from the store and evicts them from the cache.
func (r *RedisCacheRepository) Prune(ctx context.Context, cutoff time.Time) ([]shortlink.Slug, error) {
	deleted, err := r.store.Prune(ctx, cutoff)
	if err != nil || len(deleted) == 0 {
		return deleted, err
	}

	keys := make([]string, 0, len(deleted))
	for _, slug := range deleted {
		keys = append(keys, r.prefix+string(slug))
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return deleted, err
	}

	return deleted, nil
}

var errCacheMiss = errors.New("cache miss")

func (r *RedisCacheRepository) getFromCache(ctx context.Context, slug shortlink.Slug) (*shortlink.ShortLink, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+string(slug)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, errCacheMiss
	}

	recipeID, err := strconv.ParseInt(result["recipe_id"], 10, 64)
	if err != nil {
		return nil, err
	}

	var createdAt time.Time

	if ts, ok := result["created_at"]; ok {
		if nanos, err := strconv.ParseInt(ts, 10, 64); err == nil {
			createdAt = time.Unix(0, nanos)
		}
	}

	return &shortlink.ShortLink{
		Slug:         slug,
		RecipeID:     recipeID,
		RedirectURL:  result["redirect_url"],
		ShortLinkURL: result["short_link_url"],
		CreatedAt:    createdAt,
	}, nil
}

func (r *RedisCacheRepository) cacheLink(ctx context.Context, link *shortlink.ShortLink) {
	pipe := r.client.Pipeline()
	key := r.prefix + string(link.Slug)

	pipe.HSet(ctx, key, map[string]any{
		"recipe_id":      link.RecipeID,
		"redirect_url":   link.RedirectURL,
		"short_link_url": link.ShortLinkURL,
		"created_at":     link.CreatedAt.UnixNano(),
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

// Compile-time check.
var _ shortlink.Repository = (*RedisCacheRepository)(nil)
