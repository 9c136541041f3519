package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.uber.org/zap"
)

// ErrConsumerStarted is returned when Start is called twice.
var ErrConsumerStarted = errors.New("consumer already started")

// Handler processes a single event. The context carries the correlation id of
// the message.
type Handler[T any] func(ctx context.Context, event *T) error

// Consumer decodes JSON messages from one topic into T and passes them to a
// handler. Handled messages are acked, failed ones nacked for redelivery.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
) *Consumer[T] {
	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger.With(zap.String("topic", topic)),
		done:       make(chan struct{}),
	}
}

func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and processes messages in the background until ctx is
// cancelled, the subscription closes or Shutdown is called.
func (c *Consumer[T]) Start(ctx context.Context) error {
	if c.cancel != nil {
		return ErrConsumerStarted
	}

	ctx, cancel := context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		cancel()

		return fmt.Errorf("subscribe %s: %w", c.topic, err)
	}

	c.cancel = cancel

	go c.run(ctx, msgs)

	return nil
}

func (c *Consumer[T]) run(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			if c.process(ctx, msg) {
				msg.Ack()
			} else {
				msg.Nack()
			}
		}
	}
}

// process reports whether msg should be acked.
func (c *Consumer[T]) process(ctx context.Context, msg *message.Message) (ack bool) {
	correlationID := middleware.MessageCorrelationID(msg)
	logger := c.logger.With(
		zap.String("message_id", msg.UUID),
		zap.String("correlation_id", correlationID),
	)

	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		logger.Error("dropping malformed event", zap.Error(err))

		return true
	}

	if correlationID != "" {
		ctx = ContextWithCorrelationID(ctx, correlationID)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panicked", zap.Any("panic", r))

			ack = false
		}
	}()

	if err := c.handler(ctx, &event); err != nil {
		logger.Error("failed to handle event", zap.Error(err))

		return false
	}

	logger.Debug("processed event")

	return true
}

// Shutdown stops the consumer and waits for the in-flight message.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}
