package app

import (
	"context"
	"time"

	"delivery-tracking/internal/domain"
)

// trackerStore is the full registry surface. Both backends implement it; the
// services each declare the narrower slice they consume.
type trackerStore interface {
	Report(ctx context.Context, loc domain.CourierLocation) error
	Get(ctx context.Context, courierID string) (*domain.CourierLocation, error)
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyCourier, error)
	AppendPath(ctx context.Context, orderID string, p domain.PathPoint) error
	PathRecent(ctx context.Context, orderID string, limit int) ([]domain.PathPoint, error)
	ExpirePathAfter(ctx context.Context, orderID string, d time.Duration) error
	CacheSnapshot(ctx context.Context, snap domain.TrackingSnapshot, ttl time.Duration) error
	CachedSnapshot(ctx context.Context, orderID string) (*domain.TrackingSnapshot, error)
	InvalidateSnapshot(ctx context.Context, orderID string) error
	AddActiveOrder(ctx context.Context, courierID, orderID string) error
	RemoveActiveOrder(ctx context.Context, courierID, orderID string) error
	ActiveOrders(ctx context.Context, courierID string) ([]string, error)
}

// storeCloser releases the registry backend's connection, if any.
type storeCloser func() error
