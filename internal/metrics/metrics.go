package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a counter for HTTP requests rejected by rate limiting.
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewGatewayRetriesTotal returns a counter for retry attempts performed by gateways.
func NewGatewayRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_retries_total",
		Help: "Total number of retry attempts performed by gateways",
	})
}

// NewRoutingFallbackTotal returns a counter for route estimates served by the
// local estimator because the provider failed or timed out.
func NewRoutingFallbackTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "routing_fallback_total",
		Help: "Total number of route estimates computed by the fallback estimator",
	})
}

// NewStaleLocationReportsTotal returns a counter for dropped out-of-order location reports.
func NewStaleLocationReportsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stale_location_reports_total",
		Help: "Total number of location reports dropped as older than the stored one",
	})
}

// NewEventsDroppedTotal returns a counter for outbound events dropped by the dispatcher.
func NewEventsDroppedTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracking_events_dropped_total",
		Help: "Total number of outbound domain events dropped before publication",
	})
}
