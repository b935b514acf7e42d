package places

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"delivery-tracking/internal/domain"
	"delivery-tracking/internal/logx"
)

type gateway interface {
	RestaurantLocation(context.Context, string) (domain.GeoPoint, error)
}

type counter interface {
	Inc()
}

// RetryConfig bounds retry behaviour of RetryingGateway. Zero fields take
// the package defaults.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 100 * time.Millisecond
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = 2 * time.Second
	}
	return c
}

// RetryingGateway retries transient places failures with exponential backoff.
type RetryingGateway struct {
	next    gateway
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
	sleep   func(context.Context, time.Duration) bool
}

// NewRetryingGateway wraps next with retries. Returns nil when next is nil.
func NewRetryingGateway(next gateway, logger logx.Logger, retries counter, cfg RetryConfig) *RetryingGateway {
	if next == nil {
		return nil
	}
	return &RetryingGateway{next: next, logger: logger, retries: retries, cfg: cfg.withDefaults(), sleep: sleepWithContext}
}

// RestaurantLocation retries the wrapped lookup on transient failures.
func (g *RetryingGateway) RestaurantLocation(ctx context.Context, restaurantID string) (domain.GeoPoint, error) {
	return g.do(ctx, "RestaurantLocation", func() (domain.GeoPoint, error) {
		return g.next.RestaurantLocation(ctx, restaurantID)
	})
}

func (g *RetryingGateway) do(ctx context.Context, method string, call func() (domain.GeoPoint, error)) (domain.GeoPoint, error) {
	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		point, err := call()
		if err == nil {
			return point, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == g.cfg.MaxAttempts || !isRetryable(err) {
			break
		}

		delay := backoff(g.cfg.BaseDelay, g.cfg.MaxDelay, attempt)
		if g.retries != nil {
			g.retries.Inc()
		}
		g.logger.Warn("places gateway retry",
			logx.String("method", method),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		if !g.sleep(ctx, delay) {
			break
		}
	}
	return domain.GeoPoint{}, lastErr
}

// isRetryable treats server errors, throttling and network timeouts as
// transient. Missing ids and bad payloads are not retried.
func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= http.StatusInternalServerError ||
			statusErr.Code == http.StatusTooManyRequests
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
