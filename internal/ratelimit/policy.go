package ratelimit

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Scope categorizes a request for rate limiting purposes.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeRead   Scope = "read"
	ScopeWrite  Scope = "write"
	// ScopeRender covers endpoints that build documents on the fly.
	ScopeRender Scope = "render"
)

// MetadataKey is the key used to store rate limit config in operation metadata.
const MetadataKey = "rateLimit"

// LimitConfig allows Max requests per Window.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps scopes to the limits enforced for them.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// DefaultPolicy returns the limits used when no policy is configured.
func DefaultPolicy() *Policy {
	return &Policy{
		Limits: map[Scope][]LimitConfig{
			ScopeGlobal: {{Window: time.Minute, Max: 600}},
			ScopeRead:   {{Window: time.Minute, Max: 300}},
			ScopeWrite:  {{Window: time.Minute, Max: 60}, {Window: time.Hour, Max: 1000}},
			ScopeRender: {{Window: time.Minute, Max: 10}},
		},
	}
}

// EndpointConfig is attached to huma operations through Metadata.
// Scope replaces method-based detection; Limits, when set, replace the policy
// limits for the endpoint entirely.
type EndpointConfig struct {
	Scope    Scope
	Limits   []LimitConfig
	Disabled bool
}

// EndpointConfigFor extracts the EndpointConfig from operation metadata.
func EndpointConfigFor(op *huma.Operation) *EndpointConfig {
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}

// ResolveScopes returns the scopes that apply to a request.
func ResolveScopes(method string, cfg *EndpointConfig) []Scope {
	if cfg != nil && cfg.Scope != "" {
		return []Scope{ScopeGlobal, cfg.Scope}
	}

	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return []Scope{ScopeGlobal, ScopeRead}
	default:
		return []Scope{ScopeGlobal, ScopeWrite}
	}
}
