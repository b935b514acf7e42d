package location

import (
	"context"

	"delivery-tracking/internal/domain"
	"delivery-tracking/internal/events"
)

// registryStore defines the registry operations used on the location path.
type registryStore interface {
	Report(ctx context.Context, loc domain.CourierLocation) error
	Get(ctx context.Context, courierID string) (*domain.CourierLocation, error)
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyCourier, error)
	ActiveOrders(ctx context.Context, courierID string) ([]string, error)
	AppendPath(ctx context.Context, orderID string, p domain.PathPoint) error
	InvalidateSnapshot(ctx context.Context, orderID string) error
}

// eventSink accepts outbound envelopes without blocking.
type eventSink interface {
	Enqueue(env events.Envelope) bool
}

type counter interface {
	Inc()
}
