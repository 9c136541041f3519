package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/recipebox/internal/analytics"
	"github.com/serroba/recipebox/internal/analytics/store"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logging := store.NewLogging(zap.New(core))
	ctx := context.Background()

	assert.NoError(t, logging.SaveShortLinkCreated(ctx, &analytics.ShortLinkCreatedEvent{
		Slug: "abc", RecipeID: 1, CreatedAt: time.Now(),
	}))
	assert.NoError(t, logging.SaveShortLinkResolved(ctx, &analytics.ShortLinkResolvedEvent{
		Slug: "abc", RecipeID: 1, Referrer: "https://example.com",
	}))
	assert.NoError(t, logging.SaveShoppingListDownloaded(ctx, &analytics.ShoppingListDownloadedEvent{
		UserID: 2, Lines: 4, Pages: 1,
	}))

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "short link created", entries[0].Message)
		assert.Equal(t, "short link resolved", entries[1].Message)
		assert.Equal(t, "shopping list downloaded", entries[2].Message)
		assert.Equal(t, int64(2), entries[2].ContextMap()["userId"])
	}
}
