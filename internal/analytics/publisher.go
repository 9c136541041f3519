package analytics

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/recipebox/internal/messaging"
)

const (
	TopicShortLinkCreated       = "shortlink.created"
	TopicShortLinkResolved      = "shortlink.resolved"
	TopicShoppingListDownloaded = "shopping_list.downloaded"
)

// Publishers bundles the typed publish functions used by the HTTP layer.
type Publishers struct {
	ShortLinkCreated       messaging.Publish[ShortLinkCreatedEvent]
	ShortLinkResolved      messaging.Publish[ShortLinkResolvedEvent]
	ShoppingListDownloaded messaging.Publish[ShoppingListDownloadedEvent]
}

// NewPublishers binds every analytics topic to publisher.
func NewPublishers(publisher message.Publisher) *Publishers {
	return &Publishers{
		ShortLinkCreated:       messaging.NewPublishFunc[ShortLinkCreatedEvent](publisher, TopicShortLinkCreated),
		ShortLinkResolved:      messaging.NewPublishFunc[ShortLinkResolvedEvent](publisher, TopicShortLinkResolved),
		ShoppingListDownloaded: messaging.NewPublishFunc[ShoppingListDownloadedEvent](publisher, TopicShoppingListDownloaded),
	}
}

// DiscardPublishers returns publishers that drop every event.
func DiscardPublishers() *Publishers {
	return &Publishers{
		ShortLinkCreated:       messaging.Discard[ShortLinkCreatedEvent](),
		ShortLinkResolved:      messaging.Discard[ShortLinkResolvedEvent](),
		ShoppingListDownloaded: messaging.Discard[ShoppingListDownloadedEvent](),
	}
}
