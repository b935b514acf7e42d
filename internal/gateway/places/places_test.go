package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"delivery-tracking/internal/apperr"
	"delivery-tracking/internal/domain"
	testlog "delivery-tracking/internal/testutil"
)

func TestHTTPGateway_RestaurantLocation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/restaurants/rest-1/location", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"latitude": 55.751, "longitude": 37.617}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, srv.Client())
	point, err := g.RestaurantLocation(context.Background(), "rest-1")
	require.NoError(t, err)
	require.Equal(t, domain.GeoPoint{Latitude: 55.751, Longitude: 37.617}, point)
}

func TestHTTPGateway_RestaurantLocationNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, srv.Client())
	_, err := g.RestaurantLocation(context.Background(), "missing")
	require.ErrorIs(t, err, apperr.NotFound)
}

func TestHTTPGateway_RejectsInvalidPoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"latitude": 123.0, "longitude": 37.617}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, srv.Client())
	_, err := g.RestaurantLocation(context.Background(), "rest-1")
	require.Error(t, err)
}

type fakeGateway struct {
	restaurantFn func(context.Context, string) (domain.GeoPoint, error)
}

func (f *fakeGateway) RestaurantLocation(ctx context.Context, id string) (domain.GeoPoint, error) {
	return f.restaurantFn(ctx, id)
}

func noSleep(context.Context, time.Duration) bool { return true }

type counterStub struct{ n int64 }

func (c *counterStub) Inc()         { atomic.AddInt64(&c.n, 1) }
func (c *counterStub) Count() int64 { return atomic.LoadInt64(&c.n) }

func TestRetryingGateway_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	rec := testlog.New()

	var calls int32
	next := &fakeGateway{
		restaurantFn: func(context.Context, string) (domain.GeoPoint, error) {
			switch atomic.AddInt32(&calls, 1) {
			case 1, 2:
				return domain.GeoPoint{}, &StatusError{Code: http.StatusBadGateway}
			default:
				return domain.GeoPoint{Latitude: 55.75, Longitude: 37.61}, nil
			}
		},
	}
	ctr := &counterStub{}
	g := NewRetryingGateway(next, rec.Logger(), ctr, RetryConfig{MaxAttempts: 5})
	require.NotNil(t, g)
	g.sleep = noSleep

	point, err := g.RestaurantLocation(context.Background(), "rest-1")
	require.NoError(t, err)
	require.Equal(t, domain.GeoPoint{Latitude: 55.75, Longitude: 37.61}, point)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	require.Equal(t, int64(2), ctr.Count())
}

func TestRetryingGateway_NoRetryOnNotFound(t *testing.T) {
	t.Parallel()

	rec := testlog.New()

	var calls int32
	next := &fakeGateway{
		restaurantFn: func(context.Context, string) (domain.GeoPoint, error) {
			atomic.AddInt32(&calls, 1)
			return domain.GeoPoint{}, apperr.NotFound
		},
	}
	ctr := &counterStub{}
	g := NewRetryingGateway(next, rec.Logger(), ctr, RetryConfig{MaxAttempts: 5})

	_, err := g.RestaurantLocation(context.Background(), "rest-1")
	require.ErrorIs(t, err, apperr.NotFound)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Equal(t, int64(0), ctr.Count())
}

func TestRetryingGateway_StopsOnMaxAttempts(t *testing.T) {
	t.Parallel()

	rec := testlog.New()

	var calls int32
	next := &fakeGateway{
		restaurantFn: func(context.Context, string) (domain.GeoPoint, error) {
			atomic.AddInt32(&calls, 1)
			return domain.GeoPoint{}, &StatusError{Code: http.StatusServiceUnavailable}
		},
	}
	g := NewRetryingGateway(next, rec.Logger(), nil, RetryConfig{MaxAttempts: 3})
	g.sleep = noSleep

	_, err := g.RestaurantLocation(context.Background(), "rest-1")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetryingGateway_ZeroConfigCallsGateway(t *testing.T) {
	t.Parallel()

	var calls int32
	next := &fakeGateway{
		restaurantFn: func(context.Context, string) (domain.GeoPoint, error) {
			atomic.AddInt32(&calls, 1)
			return domain.GeoPoint{Latitude: 55.75, Longitude: 37.61}, nil
		},
	}
	g := NewRetryingGateway(next, testlog.New().Logger(), nil, RetryConfig{})

	point, err := g.RestaurantLocation(context.Background(), "rest-1")
	require.NoError(t, err)
	require.Equal(t, domain.GeoPoint{Latitude: 55.75, Longitude: 37.61}, point)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetryingGateway_ZeroConfigRetriesToDefault(t *testing.T) {
	t.Parallel()

	var calls int32
	next := &fakeGateway{
		restaurantFn: func(context.Context, string) (domain.GeoPoint, error) {
			atomic.AddInt32(&calls, 1)
			return domain.GeoPoint{}, &StatusError{Code: http.StatusBadGateway}
		},
	}
	g := NewRetryingGateway(next, testlog.New().Logger(), nil, RetryConfig{})
	g.sleep = noSleep

	_, err := g.RestaurantLocation(context.Background(), "rest-1")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetryingGateway_NilNext(t *testing.T) {
	t.Parallel()

	require.Nil(t, NewRetryingGateway(nil, testlog.New().Logger(), nil, RetryConfig{MaxAttempts: 3}))
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	require.True(t, isRetryable(&StatusError{Code: http.StatusInternalServerError}))
	require.True(t, isRetryable(&StatusError{Code: http.StatusTooManyRequests}))
	require.True(t, isRetryable(context.DeadlineExceeded))
	require.False(t, isRetryable(&StatusError{Code: http.StatusBadRequest}))
	require.False(t, isRetryable(apperr.NotFound))
}
