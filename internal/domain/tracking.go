package domain

import "time"

// PathPoint is one immutable position sample of a courier serving an order.
type PathPoint struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TrackingSnapshot is the derived, read-only answer to "where is my order".
// Recomputed on each read; never authoritative.
type TrackingSnapshot struct {
	OrderID           string
	Status            DeliveryStatus
	CourierID         string
	CourierPosition   *GeoPoint // nil when no position is known at all
	IsLive            bool      // false when the position is stale or absent
	ETAMinutes        int       // 0 when no estimate could be made
	ETAProvenance     Provenance
	Polyline          []GeoPoint
	EstimatedDelivery time.Time
	GeneratedAt       time.Time
}
