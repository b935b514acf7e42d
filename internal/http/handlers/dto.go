package handlers

import (
	"time"

	"delivery-tracking/internal/domain"
)

type reportLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Available *bool   `json:"available"`
}

type locationResponse struct {
	CourierID  string    `json:"courier_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Available  bool      `json:"available"`
	ReportedAt time.Time `json:"reported_at"`
}

type nearbyCourierResponse struct {
	locationResponse
	DistanceMeters float64 `json:"distance_meters"`
}

type transitionRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"`
	Notes  string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID                string          `json:"id"`
	CustomerID        string          `json:"customer_id"`
	RestaurantID      string          `json:"restaurant_id"`
	CourierID         string          `json:"courier_id,omitempty"`
	Status            string          `json:"status"`
	DeliveryPoint     domain.GeoPoint `json:"delivery_point"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery,omitempty"`
	UpdatedAt         *time.Time      `json:"updated_at,omitempty"`
}

type statusChangeResponse struct {
	Status    string    `json:"status"`
	Actor     string    `json:"actor"`
	Notes     string    `json:"notes,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

type appendPointRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type snapshotResponse struct {
	OrderID           string            `json:"order_id"`
	Status            string            `json:"status"`
	CourierID         string            `json:"courier_id,omitempty"`
	CourierPosition   *domain.GeoPoint  `json:"courier_position,omitempty"`
	IsLive            bool              `json:"is_live"`
	ETAMinutes        int               `json:"eta_minutes,omitempty"`
	ETAProvenance     string            `json:"eta_provenance,omitempty"`
	Polyline          []domain.GeoPoint `json:"polyline,omitempty"`
	EstimatedDelivery *time.Time        `json:"estimated_delivery,omitempty"`
	GeneratedAt       time.Time         `json:"generated_at"`
}

type pathResponse struct {
	OrderID string             `json:"order_id"`
	Points  []domain.PathPoint `json:"points"`
}
