package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// ErrGroupStarted is returned when Start is called on a running group.
var ErrGroupStarted = errors.New("consumer group already started")

// Runnable represents a component that can be started and shutdown.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup runs the analytics consumers that share one subscriber.
type ConsumerGroup struct {
	subscriber message.Subscriber
	logger     *zap.Logger

	mu        sync.Mutex
	consumers []Runnable
	running   bool
	closed    bool
}

func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a consumer. Consumers added after Start are not started.
func (g *ConsumerGroup) Add(consumer Runnable) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.consumers = append(g.consumers, consumer)
}

// Start starts every consumer. If one fails, the ones already started are
// shut down again.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return ErrGroupStarted
	}

	topics := make([]string, 0, len(g.consumers))

	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.consumers[j].Shutdown()
			}

			return fmt.Errorf("start consumer %d: %w", i, err)
		}

		if t, ok := consumer.(interface{ Topic() string }); ok {
			topics = append(topics, t.Topic())
		}
	}

	g.running = true
	g.logger.Info("consumer group started", zap.Strings("topics", topics))

	return nil
}

// Shutdown stops the consumers and closes the subscriber. Repeated calls are
// no-ops.
func (g *ConsumerGroup) Shutdown() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}

	g.closed = true

	var errs []error

	if g.running {
		g.logger.Info("shutting down consumer group")

		for _, consumer := range g.consumers {
			if err := consumer.Shutdown(); err != nil {
				errs = append(errs, err)
			}
		}

		g.running = false
	}

	if err := g.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}

	return errors.Join(errs...)
}
