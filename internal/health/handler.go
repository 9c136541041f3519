package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/recipebox/internal/ratelimit"
)

// DefaultTimeout bounds each dependency ping.
const DefaultTimeout = 2 * time.Second

// Checker pings a backing service. *pgxpool.Pool satisfies it directly.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker.
type RedisChecker struct {
	client *redis.Client
}

func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Dependency is a named backing service.
type Dependency struct {
	Name    string
	Checker Checker
}

// Handler reports the status of the configured dependencies. With none the
// service runs fully in memory and is always healthy.
type Handler struct {
	deps    []Dependency
	timeout time.Duration
}

func NewHandler(deps ...Dependency) *Handler {
	return &Handler{deps: deps, timeout: DefaultTimeout}
}

// WithTimeout returns a copy of h that gives each ping at most d.
func (h *Handler) WithTimeout(d time.Duration) *Handler {
	return &Handler{deps: h.deps, timeout: d}
}

type Response struct {
	Body struct {
		Status       string            `json:"status"       enum:"ok,degraded"`
		Dependencies map[string]string `json:"dependencies"`
	}
}

// Check pings every dependency concurrently.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]string, len(h.deps))
	)

	for _, dep := range h.deps {
		wg.Add(1)

		go func() {
			defer wg.Done()

			pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			status := "healthy"
			if err := dep.Checker.Ping(pingCtx); err != nil {
				status = "unhealthy"
			}

			mu.Lock()
			results[dep.Name] = status
			mu.Unlock()
		}()
	}

	wg.Wait()

	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Dependencies = results

	for _, status := range results {
		if status != "healthy" {
			resp.Body.Status = "degraded"
		}
	}

	return resp, nil
}

func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Service health",
		Tags:        []string{"Health"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, h.Check)
}
