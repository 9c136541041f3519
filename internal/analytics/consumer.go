package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/recipebox/internal/messaging"
	"go.uber.org/zap"
)

// RegisterConsumers adds one consumer per analytics topic to group, each
// persisting its events to store.
func RegisterConsumers(
	group *messaging.ConsumerGroup,
	subscriber message.Subscriber,
	store Store,
	logger *zap.Logger,
) {
	group.Add(messaging.NewConsumer[ShortLinkCreatedEvent](subscriber, TopicShortLinkCreated, store.SaveShortLinkCreated, logger))
	group.Add(messaging.NewConsumer[ShortLinkResolvedEvent](subscriber, TopicShortLinkResolved, store.SaveShortLinkResolved, logger))
	group.Add(messaging.NewConsumer[ShoppingListDownloadedEvent](
		subscriber, TopicShoppingListDownloaded, store.SaveShoppingListDownloaded, logger,
	))
}
