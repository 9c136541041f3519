package ratelimit

import (
	"context"
	"fmt"
)

// LimitExceeded describes the limit a request ran into.
type LimitExceeded struct {
	Scope  Scope
	Config LimitConfig
	Count  int64
}

func (e *LimitExceeded) Error() string {
	return fmt.Sprintf("rate limit exceeded: %s scope, %d/%d requests in %s",
		e.Scope, e.Count, e.Config.Max, e.Config.Window)
}

// Limiter enforces a Policy on top of a sliding-window Store.
type Limiter struct {
	store  Store
	policy *Policy
}

// NewLimiter creates a policy-based rate limiter.
func NewLimiter(store Store, policy *Policy) *Limiter {
	return &Limiter{store: store, policy: policy}
}

// Allow records a request from clientKey against every limit of scopes and
// returns the first exceeded limit, or nil when the request may proceed.
func (l *Limiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (*LimitExceeded, error) {
	for _, scope := range scopes {
		if exceeded, err := l.check(ctx, clientKey, scope, l.policy.Limits[scope]); exceeded != nil || err != nil {
			return exceeded, err
		}
	}

	return nil, nil
}

// AllowCustom applies endpoint-specific limits keyed by the route template.
func (l *Limiter) AllowCustom(
	ctx context.Context, clientKey, route string, limits []LimitConfig,
) (*LimitExceeded, error) {
	return l.check(ctx, clientKey+":custom:"+route, Scope(route), limits)
}

func (l *Limiter) check(ctx context.Context, keyPrefix string, scope Scope, limits []LimitConfig) (*LimitExceeded, error) {
	for _, limit := range limits {
		key := fmt.Sprintf("%s:%s:%d", keyPrefix, scope, limit.Window.Milliseconds())

		count, err := l.store.Record(ctx, key, limit.Window)
		if err != nil {
			return nil, err
		}

		if count > limit.Max {
			return &LimitExceeded{Scope: scope, Config: limit, Count: count}, nil
		}
	}

	return nil, nil
}
