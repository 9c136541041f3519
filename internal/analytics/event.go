package analytics

import "time"

// ShortLinkCreatedEvent is emitted when a recipe gets a new short link.
type ShortLinkCreatedEvent struct {
	Slug         string    `json:"slug"`
	RecipeID     int64     `json:"recipeId"`
	ShortLinkURL string    `json:"shortLinkUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	UserID       int64     `json:"userId,omitempty"`
	ClientIP     string    `json:"clientIp"`
	UserAgent    string    `json:"userAgent"`
}

// ShortLinkResolvedEvent is emitted when a short link redirects a visitor.
type ShortLinkResolvedEvent struct {
	Slug       string    `json:"slug"`
	RecipeID   int64     `json:"recipeId"`
	ResolvedAt time.Time `json:"resolvedAt"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	Referrer   string    `json:"referrer,omitempty"`
}

// ShoppingListDownloadedEvent is emitted after a shopping list PDF is served.
type ShoppingListDownloadedEvent struct {
	UserID       int64     `json:"userId"`
	Lines        int       `json:"lines"`
	Pages        int       `json:"pages"`
	DownloadedAt time.Time `json:"downloadedAt"`
	ClientIP     string    `json:"clientIp"`
}
