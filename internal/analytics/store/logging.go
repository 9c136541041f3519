package store

import (
	"context"

	"github.com/serroba/recipebox/internal/analytics"
	"go.uber.org/zap"
)

// Logging is an analytics.Store that only writes events to the log.
type Logging struct {
	logger *zap.Logger
}

// NewLogging creates a log-only analytics store.
func NewLogging(logger *zap.Logger) *Logging {
	return &Logging{logger: logger}
}

func (l *Logging) SaveShortLinkCreated(_ context.Context, event *analytics.ShortLinkCreatedEvent) error {
	l.logger.Info("short link created",
		zap.String("slug", event.Slug),
		zap.Int64("recipeId", event.RecipeID),
		zap.String("shortLinkUrl", event.ShortLinkURL),
		zap.Time("createdAt", event.CreatedAt),
	)

	return nil
}

func (l *Logging) SaveShortLinkResolved(_ context.Context, event *analytics.ShortLinkResolvedEvent) error {
	l.logger.Info("short link resolved",
		zap.String("slug", event.Slug),
		zap.Int64("recipeId", event.RecipeID),
		zap.Time("resolvedAt", event.ResolvedAt),
		zap.String("referrer", event.Referrer),
	)

	return nil
}

func (l *Logging) SaveShoppingListDownloaded(_ context.Context, event *analytics.ShoppingListDownloadedEvent) error {
	l.logger.Info("shopping list downloaded",
		zap.Int64("userId", event.UserID),
		zap.Int("lines", event.Lines),
		zap.Int("pages", event.Pages),
	)

	return nil
}

var _ analytics.Store = (*Logging)(nil)
