package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	"delivery-tracking/internal/config"
	"delivery-tracking/internal/domain"
	"delivery-tracking/internal/http/handlers"
	"delivery-tracking/internal/http/middleware/ratelimit"
	"delivery-tracking/internal/logx"
	"delivery-tracking/internal/transport/kafka"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:     8080,
		Tracking: config.DefaultTracking(),
		Routing:  config.DefaultRouting(),
		RateLimit: config.RateLimit{
			Enabled: true,
			Rate:    2,
			Burst:   5,
		},
	}
}

func testLocation() domain.CourierLocation {
	return domain.CourierLocation{
		CourierID:  "c-1",
		Latitude:   40,
		Longitude:  -75,
		Available:  true,
		ReportedAt: time.Now().UTC(),
	}
}

// setupTestContainer wires the full graph with a stub config and a stub pool;
// Redis and Kafka stay unconfigured so no external connection is attempted.
func setupTestContainer(t *testing.T) *dig.Container {
	t.Helper()

	c := dig.New()

	providers := []struct {
		name     string
		provider any
	}{
		{"context", func() context.Context { return context.Background() }},
		{"logger", func() logx.Logger { return logx.Nop() }},
		{"config", testConfig},
		{"pgxpool", func() *pgxpool.Pool { return &pgxpool.Pool{} }},
		{"metrics", newMetrics},
		{"clock", newRateLimitClock},
		{"limiter", newRateLimiter},
		{"ratelimit", newRateLimitMiddleware},
	}

	for _, p := range providers {
		err := c.Provide(p.provider)
		require.NoErrorf(t, err, "provide %s", p.name)
	}

	require.NoError(t, registerStore(c))
	require.NoError(t, registerGateways(c))
	require.NoError(t, registerEvents(c))
	require.NoError(t, registerService(c))
	require.NoError(t, registerHTTP(c))
	require.NoError(t, registerWorker(c))

	return c
}

func verifyServer(t *testing.T, srv *http.Server) {
	t.Helper()

	require.NotNil(t, srv, "http.Server is nil")
	require.Equal(t, ":8080", srv.Addr)
	require.Greater(t, srv.ReadHeaderTimeout, time.Duration(0))
	require.Greater(t, srv.ReadTimeout, time.Duration(0))
	require.Greater(t, srv.WriteTimeout, time.Duration(0))
	require.Greater(t, srv.IdleTimeout, time.Duration(0))
}

func TestContainer_ProvidesHTTPServerAndHandlers(t *testing.T) {
	t.Parallel()

	c := setupTestContainer(t)

	err := c.Invoke(func(
		srv *http.Server,
		base *handlers.Handlers,
		locationHandler *handlers.LocationHandler,
		deliveryHandler *handlers.DeliveryHandler,
		trackingHandler *handlers.TrackingHandler,
	) {
		verifyServer(t, srv)
		require.NotNil(t, base)
		require.NotNil(t, locationHandler)
		require.NotNil(t, deliveryHandler)
		require.NotNil(t, trackingHandler)
	})
	require.NoError(t, err)
}

func TestContainer_StoreIsInProcessWithoutRedis(t *testing.T) {
	t.Parallel()

	c := setupTestContainer(t)

	err := c.Invoke(func(store trackerStore) {
		require.NotNil(t, store)
		require.NoError(t, store.Report(context.Background(), testLocation()))
	})
	require.NoError(t, err)
}

func TestContainer_ConsumerNilWithoutBrokers(t *testing.T) {
	t.Parallel()

	c := setupTestContainer(t)

	err := c.Invoke(func(consumer *kafka.Consumer) {
		require.Nil(t, consumer)
	})
	require.NoError(t, err)
}

func TestNewRateLimiter_DisabledIsNop(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RateLimit.Enabled = false

	l := newRateLimiter(cfg, ratelimit.RealClock{})
	require.IsType(t, ratelimit.NopLimiter{}, l)
	require.True(t, l.Allow("anything"))
}

func TestNewRateLimiter_EnabledEnforcesBurst(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RateLimit.Rate = 1
	cfg.RateLimit.Burst = 1

	l := newRateLimiter(cfg, ratelimit.RealClock{})
	require.True(t, l.Allow("c-1"))
	require.False(t, l.Allow("c-1"))
}

func TestProvideAll_Success(t *testing.T) {
	t.Parallel()

	c := dig.New()

	err := provideAll(c,
		func() context.Context { return context.Background() },
		func() time.Duration { return 3 * time.Second },
	)
	require.NoError(t, err)

	err = c.Invoke(func(ctx context.Context, d time.Duration) {
		require.NotNil(t, ctx)
		require.Equal(t, 3*time.Second, d)
	})
	require.NoError(t, err)
}

func TestProvideAll_InvalidProvider(t *testing.T) {
	t.Parallel()

	c := dig.New()

	type bad struct{}
	err := provideAll(c, bad{})
	require.Error(t, err)
}

func TestRegisterDb_UsesDbConnectAndProvidesPool(t *testing.T) {
	t.Parallel()

	c := dig.New()
	ctx := context.Background()

	cfg := testConfig()
	cfg.DB = config.DB{
		Host: "localhost",
		Port: "5432",
		User: "user",
		Pass: "pass",
		Name: "db",
	}

	require.NoError(t, c.Provide(func() context.Context { return ctx }))
	require.NoError(t, c.Provide(func() *config.Config { return cfg }))

	stubPool := &pgxpool.Pool{}

	stubConnect := func(
		gotCtx context.Context,
		dsn string,
		retries int,
		delay time.Duration,
	) (*pgxpool.Pool, error) {
		require.Equal(t, ctx, gotCtx)
		require.Equal(t, cfg.DB.DSN(), dsn)
		require.Equal(t, 10, retries)
		require.Equal(t, time.Second, delay)
		return stubPool, nil
	}

	err := registerDb(c, stubConnect)
	require.NoError(t, err)

	err = c.Invoke(func(pool *pgxpool.Pool) {
		require.Equal(t, stubPool, pool)
	})
	require.NoError(t, err)
}

func TestContainerBuilder_MustBuild_NoFatalOnValidGraph(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	builder := NewContainerBuilder().
		WithDBConnect(func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error) {
			return &pgxpool.Pool{}, nil
		}).
		WithLogFatalf(func(format string, args ...interface{}) {
			require.FailNowf(t, "logFatalf must not be called", format, args...)
		})

	c := builder.MustBuild(ctx)
	require.NotNil(t, c)
}
