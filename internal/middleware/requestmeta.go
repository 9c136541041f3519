package middleware

import (
	"net"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/serroba/recipebox/internal/handlers"
	"github.com/serroba/recipebox/internal/messaging"
)

const (
	HeaderRequestID = "X-Request-ID"
	// HeaderUserID carries the user id asserted by the authenticating gateway.
	HeaderUserID = "X-User-ID"
)

// RequestMetaConfig decides which client-supplied headers are believed.
type RequestMetaConfig struct {
	// TrustProxy enables X-Forwarded-Proto, X-Forwarded-Host,
	// X-Forwarded-For and X-Real-IP. Enable it only behind a proxy that
	// overwrites them.
	TrustProxy bool
	// AllowedHosts lists the hosts links may be built on, with or without a
	// port. Requests for any other host get links on the configured base URL.
	AllowedHosts []string
}

func (c RequestMetaConfig) allowed(host string) bool {
	host = strings.ToLower(host)

	name := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		name = h
	}

	for _, a := range c.AllowedHosts {
		if a = strings.ToLower(a); a == host || a == name {
			return true
		}
	}

	return false
}

// RequestMeta is a middleware that adds request id, identity, client and link
// building data to the request context.
func RequestMeta(_ huma.API, cfg RequestMetaConfig) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		requestID := ctx.Header(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx.SetHeader(HeaderRequestID, requestID)

		meta := handlers.RequestMeta{
			RequestID: requestID,
			ClientIP:  clientIP(ctx, cfg.TrustProxy),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
			UserID:    userID(ctx),
			Scheme:    scheme(ctx, cfg.TrustProxy),
		}

		// an empty host makes handlers fall back to the configured base URL
		if h := host(ctx, cfg.TrustProxy); cfg.allowed(h) {
			meta.Host = h
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		newCtx = messaging.ContextWithCorrelationID(newCtx, requestID)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

// userID returns the gateway-asserted user id. Malformed values are anonymous.
func userID(ctx huma.Context) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(ctx.Header(HeaderUserID)), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}

	return id
}

func scheme(ctx huma.Context, trustProxy bool) string {
	if trustProxy {
		switch proto := strings.ToLower(firstValue(ctx.Header("X-Forwarded-Proto"))); proto {
		case "http", "https":
			return proto
		}
	}

	if ctx.TLS() != nil {
		return "https"
	}

	return "http"
}

func host(ctx huma.Context, trustProxy bool) string {
	if fwd := firstValue(ctx.Header("X-Forwarded-Host")); trustProxy && fwd != "" {
		return fwd
	}

	return ctx.Host()
}

// clientIP extracts the client IP, from proxy headers when they are trusted.
func clientIP(ctx huma.Context, trustProxy bool) string {
	if trustProxy {
		if xff := firstValue(ctx.Header("X-Forwarded-For")); xff != "" {
			return xff
		}

		if xri := strings.TrimSpace(ctx.Header("X-Real-IP")); xri != "" {
			return xri
		}
	}

	addr := ctx.RemoteAddr()

	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return ip
}

// firstValue returns the first entry of a comma separated header.
func firstValue(v string) string {
	if idx := strings.Index(v, ","); idx != -1 {
		v = v[:idx]
	}

	return strings.TrimSpace(v)
}
