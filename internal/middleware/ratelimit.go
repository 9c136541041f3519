package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/recipebox/internal/handlers"
	"github.com/serroba/recipebox/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimiter returns a Huma middleware that applies policy-based rate
// limiting. It must run after RequestMeta.
//
// Per-endpoint configuration can be provided via operation metadata using
// ratelimit.MetadataKey. This allows endpoints to:
//   - Disable rate limiting entirely (Disabled: true)
//   - Override the scope detection (Scope: ratelimit.ScopeRender)
//   - Define custom limits (Limits: []ratelimit.LimitConfig{...})
func RateLimiter(
	api huma.API,
	limiter *ratelimit.Limiter,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		var path string
		if op := ctx.Operation(); op != nil {
			path = op.Path
		}

		cfg := ratelimit.EndpointConfigFor(ctx.Operation())
		if cfg != nil && cfg.Disabled {
			next(ctx)

			return
		}

		meta := handlers.RequestMetaFromContext(ctx.Context())
		key := clientKey(meta)

		var (
			exceeded *ratelimit.LimitExceeded
			err      error
		)

		if cfg != nil && len(cfg.Limits) > 0 {
			// custom limits share counters per route template, not per path value
			exceeded, err = limiter.AllowCustom(ctx.Context(), key, path, cfg.Limits)
		} else {
			exceeded, err = limiter.Allow(ctx.Context(), key, ratelimit.ResolveScopes(ctx.Method(), cfg))
		}

		if err != nil {
			logger.Error("rate limit check failed", zap.String("path", path), zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if exceeded != nil {
			logger.Warn("rate limit exceeded",
				zap.String("path", path),
				zap.String("method", ctx.Method()),
				zap.String("scope", string(exceeded.Scope)),
				zap.Int64("count", exceeded.Count),
				zap.Int64("max", exceeded.Config.Max),
				zap.Duration("window", exceeded.Config.Window),
				zap.String("client_ip", meta.ClientIP),
				zap.Int64("user_id", meta.UserID),
			)

			ctx.SetHeader("Retry-After", strconv.Itoa(int(exceeded.Config.Window.Seconds())))
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, exceeded.Error())

			return
		}

		next(ctx)
	}
}

// clientKey identifies the caller: the user id when authenticated, otherwise a
// hash of IP and User-Agent.
func clientKey(meta handlers.RequestMeta) string {
	if meta.Authenticated() {
		return "user:" + strconv.FormatInt(meta.UserID, 10)
	}

	hash := sha256.Sum256([]byte(meta.ClientIP + "|" + meta.UserAgent))

	return "anon:" + hex.EncodeToString(hash[:])
}
