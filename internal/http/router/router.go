package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"delivery-tracking/internal/http/handlers"
	mw "delivery-tracking/internal/http/middleware"
	"delivery-tracking/internal/http/middleware/ratelimit"
	"delivery-tracking/internal/logx"
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger    logx.Logger
	Base      *handlers.Handlers
	Location  *handlers.LocationHandler
	Delivery  *handlers.DeliveryHandler
	Tracking  *handlers.TrackingHandler
	RateLimit *ratelimit.Middleware
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Observability(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(15 * time.Second))

	r.Get("/ping", d.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/courier/{id}/location", func(r chi.Router) {
		if d.RateLimit != nil {
			r.With(d.RateLimit.Handler()).Post("/", d.Location.Report)
		} else {
			r.Post("/", d.Location.Report)
		}
		r.Get("/", d.Location.Get)
	})
	r.Get("/couriers/nearby", d.Location.Nearby)

	r.Route("/delivery/{orderID}", func(r chi.Router) {
		r.Post("/status", d.Delivery.Transition)
		r.Get("/history", d.Delivery.History)
		r.Get("/tracking", d.Tracking.Snapshot)
		r.Post("/location", d.Tracking.AppendPoint)
		r.Get("/path", d.Tracking.Path)
		r.Get("/route", d.Tracking.Route)
	})

	r.NotFound(http.HandlerFunc(d.Base.NotFound))

	return r
}
