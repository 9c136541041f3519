package handlers

import (
	"context"

	"github.com/serroba/recipebox/internal/shortlink"
)

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata for identity, link building and
// analytics.
type RequestMeta struct {
	RequestID string
	ClientIP  string
	UserAgent string
	Referrer  string
	// UserID is the authenticated user asserted by the gateway, 0 for anonymous.
	UserID int64
	Scheme string
	Host   string
}

// Authenticated reports whether the request carries a user identity.
func (m RequestMeta) Authenticated() bool {
	return m.UserID > 0
}

// URLBuilder returns a builder rooted at the scheme and host the client used,
// or fallback when the host is unknown.
func (m RequestMeta) URLBuilder(fallback shortlink.URLBuilder) shortlink.URLBuilder {
	if m.Host == "" {
		return fallback
	}

	scheme := m.Scheme
	if scheme == "" {
		scheme = "http"
	}

	return shortlink.BaseURL(scheme + "://" + m.Host)
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}
