package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/serroba/recipebox/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	messages   []*message.Message
	topic      string
	publishErr error
	closeErr   error
	closes     int
}

func (m *mockPublisher) Publish(topic string, msgs ...*message.Message) error {
	if m.publishErr != nil {
		return m.publishErr
	}

	m.topic = topic
	m.messages = append(m.messages, msgs...)

	return nil
}

func (m *mockPublisher) Close() error {
	m.closes++

	return m.closeErr
}

type publishTestEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestNewPublishFunc(t *testing.T) {
	t.Run("publishes event successfully", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[publishTestEvent](mock, "test.topic")

		event := &publishTestEvent{ID: "123", Name: "test"}

		err := publish(context.Background(), event)

		require.NoError(t, err)
		assert.Equal(t, "test.topic", mock.topic)
		assert.Len(t, mock.messages, 1)
		assert.JSONEq(t, `{"id":"123","name":"test"}`, string(mock.messages[0].Payload))
		assert.Equal(t, "test.topic", mock.messages[0].Metadata.Get(messaging.MetadataTopic))
		assert.Empty(t, middleware.MessageCorrelationID(mock.messages[0]))
	})

	t.Run("attaches correlation id from context", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[publishTestEvent](mock, "test.topic")
		ctx := messaging.ContextWithCorrelationID(context.Background(), "req-42")

		err := publish(ctx, &publishTestEvent{ID: "1"})

		require.NoError(t, err)
		require.Len(t, mock.messages, 1)
		assert.Equal(t, "req-42", middleware.MessageCorrelationID(mock.messages[0]))
	})

	t.Run("discard drops events", func(t *testing.T) {
		publish := messaging.Discard[publishTestEvent]()

		assert.NoError(t, publish(context.Background(), &publishTestEvent{ID: "1"}))
	})

	t.Run("returns error when publish fails", func(t *testing.T) {
		mock := &mockPublisher{publishErr: errors.New("publish error")}
		publish := messaging.NewPublishFunc[publishTestEvent](mock, "test.topic")

		err := publish(context.Background(), &publishTestEvent{ID: "123"})

		require.ErrorContains(t, err, "publish test.topic")
		assert.ErrorIs(t, err, mock.publishErr)
	})
}

func TestPublisherGroup(t *testing.T) {
	t.Run("returns underlying publisher", func(t *testing.T) {
		mock := &mockPublisher{}
		group := messaging.NewPublisherGroup(mock)

		assert.Equal(t, mock, group.Publisher())
	})

	t.Run("closes the publisher once", func(t *testing.T) {
		mock := &mockPublisher{}
		group := messaging.NewPublisherGroup(mock)

		require.NoError(t, group.Shutdown())
		require.NoError(t, group.Shutdown())
		assert.Equal(t, 1, mock.closes)
	})

	t.Run("returns error when close fails", func(t *testing.T) {
		mock := &mockPublisher{closeErr: errors.New("close error")}
		group := messaging.NewPublisherGroup(mock)

		require.EqualError(t, group.Shutdown(), "close error")
		require.EqualError(t, group.Shutdown(), "close error")
	})
}
