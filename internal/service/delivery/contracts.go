package delivery

import (
	"context"
	"time"

	"delivery-tracking/internal/domain"
	"delivery-tracking/internal/events"
)

// orderRepository defines the durable-store operations required by the state
// machine.
type orderRepository interface {
	Get(ctx context.Context, orderID string) (*domain.DeliveryOrder, error)
	UpdateStatusCAS(ctx context.Context, orderID string, from, to domain.DeliveryStatus) (bool, error)
	InsertStatusChange(ctx context.Context, ch domain.StatusChange) error
	StatusHistory(ctx context.Context, orderID string) ([]domain.StatusChange, error)
}

// trackerStore is the subset of the location registry touched on transitions.
type trackerStore interface {
	RemoveActiveOrder(ctx context.Context, courierID, orderID string) error
	ExpirePathAfter(ctx context.Context, orderID string, d time.Duration) error
	InvalidateSnapshot(ctx context.Context, orderID string) error
}

// eventSink accepts outbound envelopes without blocking.
type eventSink interface {
	Enqueue(env events.Envelope) bool
}
