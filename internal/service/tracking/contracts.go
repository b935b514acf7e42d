package tracking

import (
	"context"
	"time"

	"delivery-tracking/internal/domain"
)

// orderRepository defines the durable-store reads on the tracking path.
type orderRepository interface {
	Get(ctx context.Context, orderID string) (*domain.DeliveryOrder, error)
	UpdateEstimatedDelivery(ctx context.Context, orderID string, eta time.Time) error
}

// trackerStore is the registry surface used by the aggregator.
type trackerStore interface {
	Report(ctx context.Context, loc domain.CourierLocation) error
	Get(ctx context.Context, courierID string) (*domain.CourierLocation, error)
	AppendPath(ctx context.Context, orderID string, p domain.PathPoint) error
	PathRecent(ctx context.Context, orderID string, limit int) ([]domain.PathPoint, error)
	CacheSnapshot(ctx context.Context, snap domain.TrackingSnapshot, ttl time.Duration) error
	CachedSnapshot(ctx context.Context, orderID string) (*domain.TrackingSnapshot, error)
	InvalidateSnapshot(ctx context.Context, orderID string) error
}

// routeEstimator produces a best-effort route estimate; it never fails.
type routeEstimator interface {
	EstimateRoute(ctx context.Context, from, to domain.GeoPoint, avoidTolls bool) domain.RouteEstimate
}

// placeResolver resolves a restaurant id to its pickup point.
type placeResolver interface {
	RestaurantLocation(ctx context.Context, restaurantID string) (domain.GeoPoint, error)
}
