package shortlink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/serroba/recipebox/internal/recipes"
)

// Slug is the random identifier embedded in a short URL.
type Slug string

// ShortLink maps a slug to the recipe page it redirects to. Everything but
// LastResolvedAt is immutable once saved.
type ShortLink struct {
	Slug           Slug
	RecipeID       int64
	RedirectURL    string
	ShortLinkURL   string
	CreatedAt      time.Time
	LastResolvedAt *time.Time
}

var (
	ErrNotFound = recipes.ErrNotFound

	// ErrSlugTaken is returned by a Repository when an insert hits the unique
	// constraint on slug.
	ErrSlugTaken = errors.New("slug already taken")

	ErrSlugSpaceExhausted = errors.New("slug space exhausted")
)

// Repository persists short links. Save must be atomic and report a duplicate
// slug as ErrSlugTaken.
type Repository interface {
	Exists(ctx context.Context, slug Slug) (bool, error)
	Save(ctx context.Context, link *ShortLink) error
	GetBySlug(ctx context.Context, slug Slug) (*ShortLink, error)
	MarkResolved(ctx context.Context, slug Slug, at time.Time) error
	// Prune deletes links whose last resolution (or creation, if never
	// resolved) is before cutoff and returns the deleted slugs.
	Prune(ctx context.Context, cutoff time.Time) ([]Slug, error)
}

// URLBuilder turns a path into an absolute URL for the current request.
type URLBuilder interface {
	Absolute(path string) string
}

// BaseURL is a URLBuilder with a fixed scheme and host.
type BaseURL string

func (b BaseURL) Absolute(path string) string {
	return strings.TrimRight(string(b), "/") + path
}

// RecipePath is the canonical page of a recipe.
func RecipePath(recipeID int64) string {
	return fmt.Sprintf("/recipes/%d", recipeID)
}

// SlugPath is the redirect endpoint for a slug.
func SlugPath(slug Slug) string {
	return "/" + string(slug)
}
