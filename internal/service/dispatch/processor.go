// Package dispatch assigns couriers to orders that became ready for pickup,
// driven by order lifecycle events.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"delivery-tracking/internal/apperr"
	"delivery-tracking/internal/domain"
	"delivery-tracking/internal/logx"
)

// Config bounds the candidate search.
type Config struct {
	SearchRadiusMeters float64
	CandidateLimit     int
}

func (c Config) withDefaults() Config {
	if c.SearchRadiusMeters <= 0 {
		c.SearchRadiusMeters = 5000
	}
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = 10
	}
	return c
}

// Processor handles order events.
type Processor struct {
	orders   orderStore
	couriers courierIndex
	places   placeResolver
	delivery transitioner
	logger   logx.Logger
	cfg      Config
	factory  *actionFactory
	now      func() time.Time
}

// NewProcessor creates a dispatch processor.
func NewProcessor(orders orderStore, couriers courierIndex, places placeResolver, delivery transitioner, logger logx.Logger, cfg Config) *Processor {
	p := &Processor{
		orders:   orders,
		couriers: couriers,
		places:   places,
		delivery: delivery,
		logger:   logger,
		cfg:      cfg.withDefaults(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	p.factory = newActionFactory(p.onReady, p.onCancelled)
	return p
}

// Handle processes a single order event. Statuses without an action are
// ignored.
func (p *Processor) Handle(ctx context.Context, e Event) error {
	fn, ok := p.factory.get(e.Status)
	if !ok {
		return nil
	}
	return fn(ctx, e)
}

func (p *Processor) onReady(ctx context.Context, e Event) error {
	ord, err := p.orders.Get(ctx, e.OrderID)
	if err != nil {
		return err
	}
	if ord == nil {
		p.logger.Warn("dispatch skipped, order missing", logx.String("order_id", e.OrderID))
		return nil
	}
	if ord.CourierID != "" {
		return nil
	}

	restaurantID := ord.RestaurantID
	if restaurantID == "" {
		restaurantID = strings.TrimSpace(e.RestaurantID)
	}
	if restaurantID == "" {
		p.logger.Warn("dispatch skipped, no restaurant", logx.String("order_id", e.OrderID))
		return nil
	}

	pickup, err := p.places.RestaurantLocation(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, apperr.NotFound) {
			p.logger.Warn("dispatch skipped, restaurant unknown",
				logx.String("order_id", e.OrderID),
				logx.String("restaurant_id", restaurantID),
			)
			return nil
		}
		return fmt.Errorf("restaurant location: %w", err)
	}

	candidates, err := p.couriers.FindNearby(ctx, pickup.Latitude, pickup.Longitude, p.cfg.SearchRadiusMeters, p.cfg.CandidateLimit)
	if err != nil {
		return fmt.Errorf("nearby couriers: %w", err)
	}

	for _, cand := range candidates {
		active, err := p.couriers.ActiveOrders(ctx, cand.CourierID)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			continue
		}

		ok, err := p.orders.AssignCourier(ctx, ord.ID, cand.CourierID)
		if err != nil {
			return err
		}
		if !ok {
			// another worker assigned it first
			return nil
		}

		if err := p.couriers.AddActiveOrder(ctx, cand.CourierID, ord.ID); err != nil {
			p.logger.Warn("active order add failed",
				logx.String("order_id", ord.ID),
				logx.String("courier_id", cand.CourierID),
				logx.Err(err),
			)
		}

		change := domain.StatusChange{
			OrderID:   ord.ID,
			Status:    domain.StatusReadyForPickup,
			Actor:     domain.ActorSystem,
			Notes:     "courier assigned: " + cand.CourierID,
			ChangedAt: p.now(),
		}
		if err := p.orders.InsertStatusChange(ctx, change); err != nil {
			p.logger.Warn("assignment note failed",
				logx.String("order_id", ord.ID),
				logx.Err(err),
			)
		}

		p.logger.Info("courier assigned",
			logx.String("event", "courier_assigned"),
			logx.String("order_id", ord.ID),
			logx.String("courier_id", cand.CourierID),
			logx.Float64("distance_m", cand.DistanceMeters),
		)
		return nil
	}

	p.logger.Warn("no courier available",
		logx.String("order_id", e.OrderID),
		logx.Int("candidates", len(candidates)),
	)
	return nil
}

func (p *Processor) onCancelled(ctx context.Context, e Event) error {
	_, err := p.delivery.Transition(ctx, e.OrderID, domain.StatusCancelled, domain.ActorSystem, "cancelled upstream")
	if errors.Is(err, apperr.NotFound) || errors.Is(err, apperr.InvalidTransition) {
		return nil
	}
	return err
}
