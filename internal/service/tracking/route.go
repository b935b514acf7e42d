package tracking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"delivery-tracking/internal/apperr"
	"delivery-tracking/internal/domain"
)

// RouteLeg is one segment of the delivery route with its own estimate.
type RouteLeg struct {
	Name            string            `json:"name"`
	From            domain.GeoPoint   `json:"from"`
	To              domain.GeoPoint   `json:"to"`
	DistanceMeters  float64           `json:"distance_meters"`
	DurationSeconds float64           `json:"duration_seconds"`
	Minutes         int               `json:"minutes"`
	Provenance      domain.Provenance `json:"provenance"`
	Polyline        []domain.GeoPoint `json:"polyline,omitempty"`
}

// RouteDetail is the full remaining route of a delivery.
type RouteDetail struct {
	OrderID             string     `json:"order_id"`
	CourierID           string     `json:"courier_id"`
	Legs                []RouteLeg `json:"legs"`
	TotalDistanceMeters float64    `json:"total_distance_meters"`
	TotalMinutes        int        `json:"total_minutes"`
	PickupBufferMinutes int        `json:"pickup_buffer_minutes"`
	GeneratedAt         time.Time  `json:"generated_at"`
}

// RouteDetail computes the remaining legs of the delivery: before pickup a
// courier-to-restaurant leg plus a restaurant-to-customer leg with a fixed
// pickup buffer, after pickup the single courier-to-customer leg. Each leg
// degrades independently to the local estimator.
func (s *Service) RouteDetail(ctx context.Context, orderID string) (*RouteDetail, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: empty order id", apperr.Invalid)
	}

	ord, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, apperr.NotFound
	}
	if !ord.Status.Active() {
		return nil, fmt.Errorf("%w: delivery not active", apperr.NotFound)
	}
	if ord.CourierID == "" {
		return nil, fmt.Errorf("%w: no courier assigned", apperr.NotFound)
	}

	position, err := s.courierPosition(ctx, ord)
	if err != nil {
		return nil, err
	}

	detail := &RouteDetail{
		OrderID:     ord.ID,
		CourierID:   ord.CourierID,
		GeneratedAt: s.now(),
	}

	switch ord.Status {
	case domain.StatusReadyForPickup:
		pickup, err := s.places.RestaurantLocation(ctx, ord.RestaurantID)
		if err != nil {
			return nil, fmt.Errorf("restaurant location: %w", err)
		}
		detail.Legs = append(detail.Legs,
			s.leg(ctx, "to_restaurant", position, pickup),
			s.leg(ctx, "to_customer", pickup, ord.DeliveryPoint),
		)
		detail.PickupBufferMinutes = s.cfg.PickupBufferMinutes
	case domain.StatusOutForDelivery:
		detail.Legs = append(detail.Legs, s.leg(ctx, "to_customer", position, ord.DeliveryPoint))
	}

	for _, l := range detail.Legs {
		detail.TotalDistanceMeters += l.DistanceMeters
		detail.TotalMinutes += l.Minutes
	}
	detail.TotalMinutes += detail.PickupBufferMinutes

	return detail, nil
}

func (s *Service) leg(ctx context.Context, name string, from, to domain.GeoPoint) RouteLeg {
	est := s.router.EstimateRoute(ctx, from, to, false)
	return RouteLeg{
		Name:            name,
		From:            from,
		To:              to,
		DistanceMeters:  est.DistanceMeters,
		DurationSeconds: est.DurationSeconds,
		Minutes:         est.Minutes(),
		Provenance:      est.Provenance,
		Polyline:        est.Polyline,
	}
}

func (s *Service) courierPosition(ctx context.Context, ord *domain.DeliveryOrder) (domain.GeoPoint, error) {
	loc, err := s.store.Get(ctx, ord.CourierID)
	if err == nil && loc != nil {
		return domain.GeoPoint{Latitude: loc.Latitude, Longitude: loc.Longitude}, nil
	}

	points, perr := s.store.PathRecent(ctx, ord.ID, 1)
	if perr == nil && len(points) > 0 {
		last := points[len(points)-1]
		return domain.GeoPoint{Latitude: last.Latitude, Longitude: last.Longitude}, nil
	}
	if err != nil {
		return domain.GeoPoint{}, err
	}
	return domain.GeoPoint{}, fmt.Errorf("%w: courier position unknown", apperr.NotFound)
}
