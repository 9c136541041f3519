package analytics_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/serroba/recipebox/internal/analytics"
	"github.com/serroba/recipebox/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingStore struct {
	mu          sync.Mutex
	created     []*analytics.ShortLinkCreatedEvent
	resolved    []*analytics.ShortLinkResolvedEvent
	downloaded  []*analytics.ShoppingListDownloadedEvent
	correlation []string
	received    chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{received: make(chan struct{}, 10)}
}

func (s *recordingStore) SaveShortLinkCreated(ctx context.Context, event *analytics.ShortLinkCreatedEvent) error {
	s.mu.Lock()
	s.created = append(s.created, event)
	s.correlation = append(s.correlation, messaging.CorrelationIDFromContext(ctx))
	s.mu.Unlock()
	s.received <- struct{}{}

	return nil
}

func (s *recordingStore) SaveShortLinkResolved(_ context.Context, event *analytics.ShortLinkResolvedEvent) error {
	s.mu.Lock()
	s.resolved = append(s.resolved, event)
	s.mu.Unlock()
	s.received <- struct{}{}

	return nil
}

func (s *recordingStore) SaveShoppingListDownloaded(
	_ context.Context, event *analytics.ShoppingListDownloadedEvent,
) error {
	s.mu.Lock()
	s.downloaded = append(s.downloaded, event)
	s.mu.Unlock()
	s.received <- struct{}{}

	return nil
}

func (s *recordingStore) wait(t *testing.T, n int) {
	t.Helper()

	for range n {
		select {
		case <-s.received:
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for events")
		}
	}
}

func startPipeline(t *testing.T, store analytics.Store) *analytics.Publishers {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	group := messaging.NewConsumerGroup(pubSub, zap.NewNop())
	analytics.RegisterConsumers(group, pubSub, store, zap.NewNop())

	require.NoError(t, group.Start(context.Background()))
	t.Cleanup(func() { _ = group.Shutdown() })

	return analytics.NewPublishers(pubSub)
}

func TestPublishersAndConsumers(t *testing.T) {
	t.Run("routes every event to its store method", func(t *testing.T) {
		store := newRecordingStore()
		pubs := startPipeline(t, store)
		ctx := context.Background()

		require.NoError(t, pubs.ShortLinkCreated(ctx, &analytics.ShortLinkCreatedEvent{Slug: "abc", RecipeID: 1}))
		require.NoError(t, pubs.ShortLinkResolved(ctx, &analytics.ShortLinkResolvedEvent{Slug: "abc", RecipeID: 1}))
		require.NoError(t, pubs.ShoppingListDownloaded(ctx, &analytics.ShoppingListDownloadedEvent{UserID: 7, Lines: 3}))

		store.wait(t, 3)

		store.mu.Lock()
		defer store.mu.Unlock()

		require.Len(t, store.created, 1)
		assert.Equal(t, "abc", store.created[0].Slug)
		require.Len(t, store.resolved, 1)
		assert.Equal(t, int64(1), store.resolved[0].RecipeID)
		require.Len(t, store.downloaded, 1)
		assert.Equal(t, 3, store.downloaded[0].Lines)
	})

	t.Run("carries the request correlation id", func(t *testing.T) {
		store := newRecordingStore()
		pubs := startPipeline(t, store)
		ctx := messaging.ContextWithCorrelationID(context.Background(), "req-1")

		require.NoError(t, pubs.ShortLinkCreated(ctx, &analytics.ShortLinkCreatedEvent{Slug: "abc"}))

		store.wait(t, 1)

		store.mu.Lock()
		defer store.mu.Unlock()

		assert.Equal(t, []string{"req-1"}, store.correlation)
	})
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return errors.New("broker down") }
func (failingPublisher) Close() error                              { return nil }

func TestNewPublishers(t *testing.T) {
	t.Run("surfaces publisher errors", func(t *testing.T) {
		pubs := analytics.NewPublishers(failingPublisher{})

		err := pubs.ShoppingListDownloaded(context.Background(), &analytics.ShoppingListDownloadedEvent{UserID: 1})

		assert.Error(t, err)
	})

	t.Run("discard publishers accept everything", func(t *testing.T) {
		pubs := analytics.DiscardPublishers()

		assert.NoError(t, pubs.ShortLinkCreated(context.Background(), &analytics.ShortLinkCreatedEvent{}))
		assert.NoError(t, pubs.ShortLinkResolved(context.Background(), &analytics.ShortLinkResolvedEvent{}))
		assert.NoError(t, pubs.ShoppingListDownloaded(context.Background(), &analytics.ShoppingListDownloadedEvent{}))
	})
}
