// Package events defines the outbound event envelope and an asynchronous
// dispatcher that decouples request handling from publishing.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"delivery-tracking/internal/domain"
)

// Event types emitted by the tracking core.
const (
	TypeLocationUpdated       = "courier.location_updated"
	TypeDeliveryStatusChanged = "delivery.status_changed"
)

// Envelope wraps a single outbound event.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// LocationUpdated is the payload of a courier.location_updated event.
type LocationUpdated struct {
	CourierID  string    `json:"courier_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Available  bool      `json:"available"`
	ReportedAt time.Time `json:"reported_at"`
}

// StatusChanged is the payload of a delivery.status_changed event.
type StatusChanged struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	Actor     string    `json:"actor"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewLocationUpdated builds an envelope for a fresh courier location.
func NewLocationUpdated(loc domain.CourierLocation) Envelope {
	payload, _ := json.Marshal(LocationUpdated{
		CourierID:  loc.CourierID,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		Available:  loc.Available,
		ReportedAt: loc.ReportedAt,
	})
	return Envelope{
		ID:         uuid.NewString(),
		Type:       TypeLocationUpdated,
		OccurredAt: loc.ReportedAt,
		Payload:    payload,
	}
}

// NewStatusChanged builds an envelope for a delivery status transition.
func NewStatusChanged(change domain.StatusChange) Envelope {
	payload, _ := json.Marshal(StatusChanged{
		OrderID:   change.OrderID,
		Status:    string(change.Status),
		Actor:     string(change.Actor),
		ChangedAt: change.ChangedAt,
	})
	return Envelope{
		ID:         uuid.NewString(),
		Type:       TypeDeliveryStatusChanged,
		OccurredAt: change.ChangedAt,
		Payload:    payload,
	}
}
