package app

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"delivery-tracking/internal/metrics"
)

type metricsOut struct {
	dig.Out

	RateLimitExceeded prometheus.Counter `name:"rate_limit_exceeded_total"`
	GatewayRetries    prometheus.Counter `name:"gateway_retries_total"`
	RoutingFallbacks  prometheus.Counter `name:"routing_fallback_total"`
	StaleReports      prometheus.Counter `name:"stale_location_reports_total"`
	EventsDropped     prometheus.Counter `name:"tracking_events_dropped_total"`
}

func newMetrics() metricsOut {
	return metricsOut{
		RateLimitExceeded: registerCounter(metrics.NewRateLimitExceededTotal()),
		GatewayRetries:    registerCounter(metrics.NewGatewayRetriesTotal()),
		RoutingFallbacks:  registerCounter(metrics.NewRoutingFallbackTotal()),
		StaleReports:      registerCounter(metrics.NewStaleLocationReportsTotal()),
		EventsDropped:     registerCounter(metrics.NewEventsDroppedTotal()),
	}
}

// registerCounter reuses the already-registered collector so rebuilding the
// container (tests do) does not panic on duplicate registration.
func registerCounter(c prometheus.Counter) prometheus.Counter {
	err := prometheus.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
			return existing
		}
	}
	panic(err)
}
