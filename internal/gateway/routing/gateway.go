package routing

import (
	"context"
	"time"

	"delivery-tracking/internal/domain"
	"delivery-tracking/internal/geo"
	"delivery-tracking/internal/logx"
)

type provider interface {
	Route(ctx context.Context, from, to domain.GeoPoint, avoidTolls bool) (domain.RouteEstimate, error)
}

type counter interface {
	Inc()
}

// Config stores routing gateway settings.
type Config struct {
	Timeout       time.Duration // hard bound on the provider round-trip
	TrafficFactor float64       // fallback traffic multiplier
}

// Gateway produces a RouteEstimate for a leg, falling back to the local
// estimator on any provider failure. A degraded estimate is always preferable
// to no estimate, so EstimateRoute never fails.
type Gateway struct {
	provider  provider
	logger    logx.Logger
	fallbacks counter
	cfg       Config
}

// NewGateway wires a provider into the degrading gateway. A nil provider
// means every estimate is computed locally.
func NewGateway(p provider, logger logx.Logger, fallbacks counter, cfg Config) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.TrafficFactor <= 0 {
		cfg.TrafficFactor = geo.DefaultTrafficFactor
	}
	return &Gateway{provider: p, logger: logger, fallbacks: fallbacks, cfg: cfg}
}

// EstimateRoute returns the best available estimate for one leg. The provider
// call is bounded by the configured timeout; it is abandoned, not retried, on
// failure so a degraded provider cannot stall or amplify load.
func (g *Gateway) EstimateRoute(ctx context.Context, from, to domain.GeoPoint, avoidTolls bool) domain.RouteEstimate {
	if g.provider != nil {
		provCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		est, err := g.provider.Route(provCtx, from, to, avoidTolls)
		cancel()
		if err == nil {
			return est
		}
		if g.fallbacks != nil {
			g.fallbacks.Inc()
		}
		g.logger.Warn("routing provider failed, using estimator",
			logx.Err(err),
			logx.Float64("from_lat", from.Latitude),
			logx.Float64("to_lat", to.Latitude),
		)
	}
	return g.estimate(from, to)
}

func (g *Gateway) estimate(from, to domain.GeoPoint) domain.RouteEstimate {
	distKm := geo.DistanceKm(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	minutes := geo.EstimateMinutes(distKm, g.cfg.TrafficFactor)
	return domain.RouteEstimate{
		DistanceMeters:  distKm * 1000,
		DurationSeconds: minutes * 60,
		Polyline:        []domain.GeoPoint{from, to},
		Provenance:      domain.ProvenanceFallback,
	}
}
