package shortlink

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds slug draws for a single link.
const DefaultMaxAttempts = 1000

// RecipeChecker reports whether a recipe exists.
type RecipeChecker interface {
	RecipeExists(ctx context.Context, id int64) (bool, error)
}

// Service creates and resolves short links.
type Service struct {
	store        Repository
	recipes      RecipeChecker
	generateSlug SlugGenerator
	maxAttempts  int
	logger       *zap.Logger
	now          func() time.Time
}

// NewService creates a short link service. A non-positive maxAttempts uses
// DefaultMaxAttempts.
func NewService(
	store Repository,
	recipes RecipeChecker,
	generator SlugGenerator,
	maxAttempts int,
	logger *zap.Logger,
) *Service {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Service{
		store:        store,
		recipes:      recipes,
		generateSlug: generator,
		maxAttempts:  maxAttempts,
		logger:       logger,
		now:          time.Now,
	}
}

// Create persists a new short link for the recipe.
//
// The existence check before the insert only avoids pointless writes; the
// unique constraint on slug decides, and a lost race is retried with a fresh
// slug out of the same attempt budget.
func (s *Service) Create(ctx context.Context, recipeID int64, urls URLBuilder) (*ShortLink, error) {
	ok, err := s.recipes.RecipeExists(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrNotFound
	}

	redirectURL := urls.Absolute(RecipePath(recipeID))

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		slug := Slug(s.generateSlug())

		taken, err := s.store.Exists(ctx, slug)
		if err != nil {
			return nil, err
		}

		if taken {
			continue
		}

		link := &ShortLink{
			Slug:         slug,
			RecipeID:     recipeID,
			RedirectURL:  redirectURL,
			ShortLinkURL: urls.Absolute(SlugPath(slug)),
			CreatedAt:    s.now(),
		}

		err = s.store.Save(ctx, link)
		if errors.Is(err, ErrSlugTaken) {
			s.logger.Warn("slug collision on insert, retrying",
				zap.String("slug", string(slug)),
				zap.Int("attempt", attempt),
			)

			continue
		}

		if err != nil {
			return nil, err
		}

		return link, nil
	}

	s.logger.Error("slug space exhausted",
		zap.Int64("recipe_id", recipeID),
		zap.Int("attempts", s.maxAttempts),
	)

	return nil, ErrSlugSpaceExhausted
}

// Resolve returns the link stored for slug. The redirect target is the URL
// frozen at creation time. A link that disappears between the read and the
// resolution bookkeeping, as when a cached copy outlives its recipe, is not
// found.
func (s *Service) Resolve(ctx context.Context, slug Slug) (*ShortLink, error) {
	link, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := s.store.MarkResolved(ctx, slug, s.now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}

		s.logger.Warn("failed to record short link resolution",
			zap.String("slug", string(slug)),
			zap.Error(err),
		)
	}

	return link, nil
}

// Prune removes links unused for longer than retention. A non-positive
// retention keeps links forever.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int, error) {
	if retention <= 0 {
		return 0, nil
	}

	deleted, err := s.store.Prune(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, err
	}

	s.logger.Info("pruned short links",
		zap.Int("count", len(deleted)),
		zap.Duration("retention", retention),
	)

	return len(deleted), nil
}
