package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"delivery-tracking/internal/config"
	"delivery-tracking/internal/events"
	"delivery-tracking/internal/gateway/places"
	"delivery-tracking/internal/gateway/routing"
	"delivery-tracking/internal/http/handlers"
	"delivery-tracking/internal/http/middleware/ratelimit"
	"delivery-tracking/internal/http/router"
	"delivery-tracking/internal/logx"
	"delivery-tracking/internal/registry"
	"delivery-tracking/internal/repository"
	"delivery-tracking/internal/service/delivery"
	"delivery-tracking/internal/service/location"
	"delivery-tracking/internal/service/tracking"
	"delivery-tracking/internal/transport/kafka"
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error)
	logFatalf func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect: connectDbWithRetry,
		logFatalf: log.Fatalf,
	}
}

// WithDBConnect sets the database connection function
func (b *ContainerBuilder) WithDBConnect(
	fn func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

// MustBuildWorker builds the dispatch-worker container
func (b *ContainerBuilder) MustBuildWorker(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err == nil {
		err = registerWorker(container)
	}
	if err != nil {
		b.logFatalf("failed to build worker container: %v", err)
	}
	return container
}

// build builds and returns a new dig container
func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, b.dbConnect); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerStore(container); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if err := registerGateways(container); err != nil {
		return nil, fmt.Errorf("gateways: %w", err)
	}
	if err := registerEvents(container); err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns a new dig container
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

// MustBuildWorkerContainer builds and returns the dispatch-worker container
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuildWorker(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		config.Load,
		NewLogger,
		newMetrics,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
	)
}

func registerDb(
	container *dig.Container,
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) error {
	providerDB := func(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
		return dbConnect(ctx, cfg.DB.DSN(), 10, time.Second)
	}
	return provideAll(container, providerDB)
}

func registerStore(container *dig.Container) error {
	return provideAll(container, newStore)
}

// newStore picks the registry backend: Redis when configured, otherwise the
// in-process store.
func newStore(ctx context.Context, cfg *config.Config, logger logx.Logger) (trackerStore, storeCloser, error) {
	opts := registry.Options{
		LocationTTL:   cfg.Tracking.LocationTTL,
		PathBound:     cfg.Tracking.PathBound,
		PathRetention: cfg.Tracking.PathRetention,
	}
	if cfg.Redis.Addr == "" {
		logger.Info("location registry: in-process store")
		return registry.NewMemoryStore(opts), func() error { return nil }, nil
	}
	client, err := registry.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("redis connect: %w", err)
	}
	logger.Info("location registry: redis store", logx.String("addr", cfg.Redis.Addr))
	return registry.NewRedisStore(client, opts), client.Close, nil
}

type routingIn struct {
	dig.In
	Cfg       *config.Config
	Logger    logx.Logger
	Fallbacks prometheus.Counter `name:"routing_fallback_total"`
}

func newRoutingGateway(in routingIn) *routing.Gateway {
	rcfg := routing.Config{Timeout: in.Cfg.Routing.Timeout}
	if in.Cfg.Routing.BaseURL == "" {
		in.Logger.Info("routing provider not configured, using local estimator")
		return routing.NewGateway(nil, in.Logger, in.Fallbacks, rcfg)
	}
	client := &http.Client{Timeout: in.Cfg.Routing.Timeout}
	p := routing.NewProviderClient(in.Cfg.Routing.BaseURL, in.Cfg.Routing.APIKey, client)
	return routing.NewGateway(p, in.Logger, in.Fallbacks, rcfg)
}

type placesIn struct {
	dig.In
	Cfg     *config.Config
	Logger  logx.Logger
	Retries prometheus.Counter `name:"gateway_retries_total"`
}

func newPlacesGateway(in placesIn) *places.RetryingGateway {
	client := &http.Client{Timeout: in.Cfg.Places.Timeout}
	gw := places.NewHTTPGateway(in.Cfg.Places.BaseURL, client)
	return places.NewRetryingGateway(gw, in.Logger, in.Retries, places.RetryConfig{})
}

func registerGateways(container *dig.Container) error {
	return provideAll(container,
		newRoutingGateway,
		newPlacesGateway,
	)
}

type dispatcherIn struct {
	dig.In
	Producer *kafka.Producer
	Logger   logx.Logger
	Dropped  prometheus.Counter `name:"tracking_events_dropped_total"`
}

func registerEvents(container *dig.Container) error {
	return provideAll(container,
		func(cfg *config.Config) (*kafka.Producer, error) {
			return kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		},
		func(in dispatcherIn) *events.Dispatcher {
			return events.NewDispatcher(in.Producer, in.Logger, in.Dropped, 256)
		},
	)
}

type locationIn struct {
	dig.In
	Store  trackerStore
	Sink   *events.Dispatcher
	Logger logx.Logger
	Stale  prometheus.Counter `name:"stale_location_reports_total"`
	Cfg    *config.Config
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		repository.NewOrderRepo,
		func(in locationIn) *location.Service {
			return location.NewService(in.Store, in.Sink, in.Logger, in.Stale, location.Config{
				DefaultRadiusMeters: in.Cfg.Tracking.SearchRadiusMeters,
			})
		},
		func(repo *repository.OrderRepo, store trackerStore, sink *events.Dispatcher, logger logx.Logger, cfg *config.Config) *delivery.Service {
			return delivery.NewService(repo, store, sink, logger, cfg.Tracking.PathRetention)
		},
		func(repo *repository.OrderRepo, store trackerStore, rt *routing.Gateway, pl *places.RetryingGateway, logger logx.Logger, cfg *config.Config) *tracking.Service {
			return tracking.NewService(repo, store, rt, pl, logger, tracking.Config{
				FreshnessThreshold: cfg.Tracking.FreshnessThreshold,
				SnapshotCacheTTL:   cfg.Tracking.SnapshotCacheTTL,
			})
		},
	)
}

func registerHTTP(container *dig.Container) error {
	routerProvider := func(
		logger logx.Logger,
		base *handlers.Handlers,
		loc *handlers.LocationHandler,
		del *handlers.DeliveryHandler,
		trk *handlers.TrackingHandler,
		rl *ratelimit.Middleware,
	) http.Handler {
		return router.New(router.Deps{
			Logger:    logger,
			Base:      base,
			Location:  loc,
			Delivery:  del,
			Tracking:  trk,
			RateLimit: rl,
		})
	}
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		handlers.New,
		handlers.NewLocationUsecase,
		handlers.NewLocationHandler,
		handlers.NewDeliveryUsecase,
		handlers.NewDeliveryHandler,
		handlers.NewTrackingUsecase,
		handlers.NewTrackingHandler,
		routerProvider,
		serverProvider,
	)
}
