package container

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/recipebox/internal/analytics"
	analyticsstore "github.com/serroba/recipebox/internal/analytics/store"
	"github.com/serroba/recipebox/internal/config"
	"github.com/serroba/recipebox/internal/handlers"
	"github.com/serroba/recipebox/internal/health"
	"github.com/serroba/recipebox/internal/messaging"
	"github.com/serroba/recipebox/internal/middleware"
	"github.com/serroba/recipebox/internal/ratelimit"
	"github.com/serroba/recipebox/internal/recipes"
	"github.com/serroba/recipebox/internal/shopping"
	"github.com/serroba/recipebox/internal/shortlink"
	"github.com/serroba/recipebox/internal/store"
	"go.uber.org/zap"
)

// ConsumerGroupName is the Redis stream consumer group of the analytics consumer.
const ConsumerGroupName = "analytics"

type Options struct {
	Port          int    `default:"8888"          help:"Port to listen on"                                          short:"p"`
	BaseURL       string `default:""              help:"Public base URL used when the request host is unknown"`
	SlugLength    int    `default:"6"             help:"Length of generated short link slugs, 5 to 255"              short:"s"`
	MaxAttempts   int    `default:"1000"          help:"Slug draws before short link creation gives up"`
	DatabaseURL   string `default:""              help:"Postgres connection string, empty keeps data in memory"`
	RedisAddr     string `default:""              help:"Redis address, empty disables caching and event streaming" short:"r"`
	CacheTTL      string `default:"1h"            help:"Short link cache TTL, 0 caches without expiry"`
	LinkRetention string `default:"0"             help:"Delete short links unused for this long, 0 keeps them"`
	LayoutFile    string `default:""              help:"Shopping list PDF layout file (yaml, toml or json)"`
	ListHeader    string `default:"Shopping list" help:"Shopping list PDF header"`
	LogFormat     string `default:"console"       help:"Log format: console or json"`
	CORSOrigins   string `default:"*"             help:"Comma-separated allowed CORS origins"`
	AllowedHosts  string `default:""              help:"Comma-separated hosts short links may be built on, besides the base URL host"`
	TrustProxy    bool   `default:"false"         help:"Trust X-Forwarded-* and X-Real-IP headers from a reverse proxy"`
}

// BaseURLFor returns the configured public base URL or a localhost default.
func (o *Options) BaseURLFor() shortlink.BaseURL {
	if o.BaseURL != "" {
		return shortlink.BaseURL(o.BaseURL)
	}

	return shortlink.BaseURL(fmt.Sprintf("http://localhost:%d", o.Port))
}

// RequestMetaConfig returns the header trust settings. The base URL host is
// always allowed.
func (o *Options) RequestMetaConfig() middleware.RequestMetaConfig {
	hosts := config.SplitList(o.AllowedHosts)

	if u, err := url.Parse(string(o.BaseURLFor())); err == nil && u.Host != "" {
		hosts = append(hosts, u.Host)
	}

	return middleware.RequestMetaConfig{TrustProxy: o.TrustProxy, AllowedHosts: hosts}
}

// Redis holds the optional Redis client.
type Redis struct {
	Client *redis.Client
}

// Enabled reports whether a Redis address was configured.
func (r *Redis) Enabled() bool {
	return r.Client != nil
}

func (r *Redis) Shutdown() error {
	if r.Client == nil {
		return nil
	}

	return r.Client.Close()
}

// Postgres holds the optional connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// Enabled reports whether a database URL was configured.
func (p *Postgres) Enabled() bool {
	return p.Pool != nil
}

func (p *Postgres) Shutdown() error {
	if p.Pool != nil {
		p.Pool.Close()
	}

	return nil
}

// LoggerPackage provides a zap logger in the configured format.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the Redis connection, verified with a ping.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.RedisAddr == "" {
			return &Redis{}, nil
		}

		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("connect redis %s: %w", opts.RedisAddr, err)
		}

		return &Redis{Client: client}, nil
	})
}

// PostgresPackage provides the Postgres pool, verified with a ping.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.DatabaseURL == "" {
			return &Postgres{}, nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		return &Postgres{Pool: pool}, nil
	})
}

// RepositoryPackage provides the recipe store and the short link repository,
// Postgres-backed when configured and in memory otherwise. Short link reads
// are cached in Redis when it is enabled.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (recipes.Store, error) {
		if pg := do.MustInvoke[*Postgres](i); pg.Enabled() {
			return store.NewPostgresStore(pg.Pool), nil
		}

		do.MustInvoke[*zap.Logger](i).Warn("no database configured, data is kept in memory")

		return store.NewMemoryStore(), nil
	})

	do.Provide(i, func(i *do.Injector) (shortlink.Repository, error) {
		recipeStore := do.MustInvoke[recipes.Store](i)

		base, ok := recipeStore.(shortlink.Repository)
		if !ok {
			return nil, fmt.Errorf("recipe store %T cannot store short links", recipeStore)
		}

		r := do.MustInvoke[*Redis](i)
		if !r.Enabled() {
			return base, nil
		}

		ttl, err := config.ParseDuration("cache-ttl", do.MustInvoke[*Options](i).CacheTTL)
		if err != nil {
			return nil, err
		}

		return store.NewRedisCacheRepository(base, r.Client, ttl), nil
	})
}

// ServicePackage provides the recipe, short link and shopping list services.
func ServicePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*recipes.Service, error) {
		return recipes.NewService(do.MustInvoke[recipes.Store](i), do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortlink.Service, error) {
		opts := do.MustInvoke[*Options](i)

		generator, err := shortlink.NewSlugGenerator(opts.SlugLength)
		if err != nil {
			return nil, err
		}

		return shortlink.NewService(
			do.MustInvoke[shortlink.Repository](i),
			do.MustInvoke[recipes.Store](i),
			generator,
			opts.MaxAttempts,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*shopping.Service, error) {
		opts := do.MustInvoke[*Options](i)

		layout, err := config.LoadLayout(opts.LayoutFile)
		if err != nil {
			return nil, err
		}

		renderer, err := shopping.NewRenderer(layout)
		if err != nil {
			return nil, err
		}

		return shopping.NewService(
			do.MustInvoke[recipes.Store](i),
			renderer,
			opts.ListHeader,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// RateLimitPackage provides the limiter, sharing counters through Redis when
// it is enabled.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*ratelimit.Limiter, error) {
		var rlStore ratelimit.Store = store.NewRateLimitMemoryStore()

		if r := do.MustInvoke[*Redis](i); r.Enabled() {
			rlStore = store.NewRateLimitRedisStore(r.Client)
		}

		return ratelimit.NewLimiter(rlStore, ratelimit.DefaultPolicy()), nil
	})
}

// LocalPubSubPackage provides the in-process pub/sub used without Redis.
func LocalPubSubPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*gochannel.GoChannel, error) {
		logger := messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i))

		return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger), nil
	})
}

// PublisherGroupPackage provides the analytics publishers, streaming to Redis
// when it is enabled.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		r := do.MustInvoke[*Redis](i)
		if !r.Enabled() {
			return messaging.NewPublisherGroup(do.MustInvoke[*gochannel.GoChannel](i)), nil
		}

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client:     r.Client,
				Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
			},
			messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i)),
		)
		if err != nil {
			return nil, fmt.Errorf("create redis stream publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (*analytics.Publishers, error) {
		return analytics.NewPublishers(do.MustInvoke[*messaging.PublisherGroup](i).Publisher()), nil
	})
}

// ConsumerGroupPackage provides the analytics consumers. With Redis they read
// the streams as the analytics consumer group and keep counters; without it
// they log events published in-process.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		r := do.MustInvoke[*Redis](i)

		var (
			subscriber message.Subscriber
			sink       analytics.Store = analyticsstore.NewLogging(logger)
		)

		if r.Enabled() {
			sub, err := redisstream.NewSubscriber(
				redisstream.SubscriberConfig{
					Client:        r.Client,
					Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
					ConsumerGroup: ConsumerGroupName,
				},
				messaging.NewZapLogger(logger),
			)
			if err != nil {
				return nil, fmt.Errorf("create redis stream subscriber: %w", err)
			}

			subscriber = sub
			sink = analyticsstore.NewRedisCounters(r.Client, sink)
		} else {
			subscriber = do.MustInvoke[*gochannel.GoChannel](i)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		analytics.RegisterConsumers(group, subscriber, sink, logger)

		return group, nil
	})
}

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		opts := do.MustInvoke[*Options](i)

		router := chi.NewMux()
		router.Use(
			chimiddleware.Recoverer,
			chimiddleware.StripSlashes,
			cors.Handler(cors.Options{
				AllowedOrigins: config.SplitList(opts.CORSOrigins),
				AllowedMethods: []string{
					http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
				},
				AllowedHeaders: []string{"Accept", "Content-Type", middleware.HeaderUserID, middleware.HeaderRequestID},
				ExposedHeaders: []string{"Content-Disposition", "Location", "Retry-After", middleware.HeaderRequestID},
				MaxAge:         300,
			}),
		)

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)
		opts := do.MustInvoke[*Options](i)

		api := humachi.New(router, huma.DefaultConfig("Recipebox", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestMeta(api, opts.RequestMetaConfig()),
			middleware.RateLimiter(api, do.MustInvoke[*ratelimit.Limiter](i), logger),
		)

		handler := handlers.NewHandler(
			do.MustInvoke[*recipes.Service](i),
			do.MustInvoke[*shortlink.Service](i),
			do.MustInvoke[*shopping.Service](i),
			do.MustInvoke[*analytics.Publishers](i),
			opts.BaseURLFor(),
			logger,
		)

		handlers.RegisterRoutes(api, handler)
		health.RegisterRoutes(api, health.NewHandler(healthDependencies(i)...))

		return api, nil
	})
}

func healthDependencies(i *do.Injector) []health.Dependency {
	var deps []health.Dependency

	if pg := do.MustInvoke[*Postgres](i); pg.Enabled() {
		deps = append(deps, health.Dependency{Name: "postgres", Checker: pg.Pool})
	}

	if r := do.MustInvoke[*Redis](i); r.Enabled() {
		deps = append(deps, health.Dependency{Name: "redis", Checker: health.NewRedisChecker(r.Client)})
	}

	return deps
}

// ServerPackages registers everything the HTTP server needs.
func ServerPackages(i *do.Injector) {
	LoggerPackage(i)
	RedisPackage(i)
	PostgresPackage(i)
	RepositoryPackage(i)
	ServicePackage(i)
	RateLimitPackage(i)
	LocalPubSubPackage(i)
	PublisherGroupPackage(i)
	ConsumerGroupPackage(i)
	HTTPPackage(i)
}
