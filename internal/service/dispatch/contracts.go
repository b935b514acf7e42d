package dispatch

import (
	"context"

	"delivery-tracking/internal/domain"
)

// orderStore defines the durable-store operations used during assignment.
type orderStore interface {
	Get(ctx context.Context, orderID string) (*domain.DeliveryOrder, error)
	AssignCourier(ctx context.Context, orderID, courierID string) (bool, error)
	InsertStatusChange(ctx context.Context, ch domain.StatusChange) error
}

// courierIndex is the subset of the location registry used to pick a courier.
type courierIndex interface {
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyCourier, error)
	ActiveOrders(ctx context.Context, courierID string) ([]string, error)
	AddActiveOrder(ctx context.Context, courierID, orderID string) error
}

// placeResolver resolves a restaurant id to its pickup point.
type placeResolver interface {
	RestaurantLocation(ctx context.Context, restaurantID string) (domain.GeoPoint, error)
}

// transitioner applies delivery status transitions on behalf of the system.
type transitioner interface {
	Transition(ctx context.Context, orderID string, to domain.DeliveryStatus, actor domain.Actor, notes string) (*domain.DeliveryOrder, error)
}
