// Package ratelimit throttles the courier location-report path. Limiting is
// keyed per courier so one noisy device cannot starve the rest.
package ratelimit

import (
	"io"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"delivery-tracking/internal/logx"
)

// Middleware rejects requests above the configured rate with 429.
type Middleware struct {
	logger  logx.Logger
	counter prometheus.Counter
	limiter Limiter
	keyFn   KeyFunc
}

// New creates a Middleware. A nil limiter allows everything; a nil keyFn
// falls back to the client IP.
func New(logger logx.Logger, counter prometheus.Counter, limiter Limiter, keyFn KeyFunc) *Middleware {
	if limiter == nil {
		limiter = NopLimiter{}
	}
	if keyFn == nil {
		keyFn = ClientIPKey
	}
	return &Middleware{
		logger:  logger,
		counter: counter,
		limiter: limiter,
		keyFn:   keyFn,
	}
}

// Handler returns chi-style middleware.
func (m *Middleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := m.keyFn(r)

			if !m.limiter.Allow(key) {
				if m.counter != nil {
					m.counter.Inc()
				}
				m.logger.Warn("rate limit exceeded",
					logx.String("key", key),
					logx.String("method", r.Method),
					logx.String("path", r.URL.Path),
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				if _, err := io.WriteString(w, `{"error":"too many requests"}`); err != nil {
					// the client may have hung up mid-response
					m.logger.Debug("rate limit response write failed",
						logx.String("key", key),
						logx.Err(err),
					)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CourierIDKey keys the limiter by the {id} URL parameter, falling back to
// the client IP when the route carries none.
func CourierIDKey(r *http.Request) string {
	if id := chi.URLParam(r, "id"); id != "" {
		return id
	}
	return ClientIPKey(r)
}

// ClientIPKey keys the limiter by the remote address.
func ClientIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
