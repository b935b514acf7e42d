package handlers

import (
	"time"

	"delivery-tracking/internal/domain"
)

func locationToResponse(loc *domain.CourierLocation) locationResponse {
	return locationResponse{
		CourierID:  loc.CourierID,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		Available:  loc.Available,
		ReportedAt: loc.ReportedAt,
	}
}

func nearbyToResponse(list []domain.NearbyCourier) []nearbyCourierResponse {
	out := make([]nearbyCourierResponse, 0, len(list))
	for _, c := range list {
		out = append(out, nearbyCourierResponse{
			locationResponse: locationToResponse(&c.CourierLocation),
			DistanceMeters:   c.DistanceMeters,
		})
	}
	return out
}

func orderToResponse(ord *domain.DeliveryOrder) orderResponse {
	return orderResponse{
		ID:                ord.ID,
		CustomerID:        ord.CustomerID,
		RestaurantID:      ord.RestaurantID,
		CourierID:         ord.CourierID,
		Status:            string(ord.Status),
		DeliveryPoint:     ord.DeliveryPoint,
		EstimatedDelivery: timePtr(ord.EstimatedDelivery),
		UpdatedAt:         timePtr(ord.UpdatedAt),
	}
}

func historyToResponse(history []domain.StatusChange) []statusChangeResponse {
	out := make([]statusChangeResponse, 0, len(history))
	for _, ch := range history {
		out = append(out, statusChangeResponse{
			Status:    string(ch.Status),
			Actor:     string(ch.Actor),
			Notes:     ch.Notes,
			ChangedAt: ch.ChangedAt,
		})
	}
	return out
}

func snapshotToResponse(snap *domain.TrackingSnapshot) snapshotResponse {
	return snapshotResponse{
		OrderID:           snap.OrderID,
		Status:            string(snap.Status),
		CourierID:         snap.CourierID,
		CourierPosition:   snap.CourierPosition,
		IsLive:            snap.IsLive,
		ETAMinutes:        snap.ETAMinutes,
		ETAProvenance:     string(snap.ETAProvenance),
		Polyline:          snap.Polyline,
		EstimatedDelivery: timePtr(snap.EstimatedDelivery),
		GeneratedAt:       snap.GeneratedAt,
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
