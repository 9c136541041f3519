package store

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/recipebox/internal/analytics"
)

// Key layout of the counters kept by RedisCounters.
const (
	KeyShortLinkCreated  = "analytics:shortlink:created"
	KeyShortLinkResolved = "analytics:shortlink:resolved"
	KeyShoppingLists     = "analytics:shopping_list:downloads"
)

// RedisCounters aggregates analytics events into Redis hashes: created and
// resolved counts per recipe, downloads per user. Every event is also passed
// to next.
type RedisCounters struct {
	client *redis.Client
	next   analytics.Store
}

// NewRedisCounters creates a counting store in front of next.
func NewRedisCounters(client *redis.Client, next analytics.Store) *RedisCounters {
	return &RedisCounters{client: client, next: next}
}

func (r *RedisCounters) SaveShortLinkCreated(ctx context.Context, event *analytics.ShortLinkCreatedEvent) error {
	if err := r.incr(ctx, KeyShortLinkCreated, event.RecipeID); err != nil {
		return err
	}

	return r.next.SaveShortLinkCreated(ctx, event)
}

func (r *RedisCounters) SaveShortLinkResolved(ctx context.Context, event *analytics.ShortLinkResolvedEvent) error {
	if err := r.incr(ctx, KeyShortLinkResolved, event.RecipeID); err != nil {
		return err
	}

	return r.next.SaveShortLinkResolved(ctx, event)
}

func (r *RedisCounters) SaveShoppingListDownloaded(
	ctx context.Context, event *analytics.ShoppingListDownloadedEvent,
) error {
	if err := r.incr(ctx, KeyShoppingLists, event.UserID); err != nil {
		return err
	}

	return r.next.SaveShoppingListDownloaded(ctx, event)
}

// Count returns the counter of id under key.
func (r *RedisCounters) Count(ctx context.Context, key string, id int64) (int64, error) {
	n, err := r.client.HGet(ctx, key, strconv.FormatInt(id, 10)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	return n, err
}

func (r *RedisCounters) incr(ctx context.Context, key string, id int64) error {
	return r.client.HIncrBy(ctx, key, strconv.FormatInt(id, 10), 1).Err()
}

var _ analytics.Store = (*RedisCounters)(nil)
