package handlers

import (
	"context"

	"delivery-tracking/internal/domain"
	"delivery-tracking/internal/service/delivery"
	"delivery-tracking/internal/service/location"
	"delivery-tracking/internal/service/tracking"
)

type locationUsecase interface {
	Report(ctx context.Context, courierID string, lat, lon float64, available bool) error
	Get(ctx context.Context, courierID string) (*domain.CourierLocation, error)
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyCourier, error)
}

// NewLocationUsecase wires a location.Service into a locationUsecase.
func NewLocationUsecase(svc *location.Service) locationUsecase {
	return svc
}

type deliveryUsecase interface {
	Transition(ctx context.Context, orderID string, to domain.DeliveryStatus, actor domain.Actor, notes string) (*domain.DeliveryOrder, error)
	History(ctx context.Context, orderID string) ([]domain.StatusChange, error)
}

// NewDeliveryUsecase wires a delivery.Service into a deliveryUsecase.
func NewDeliveryUsecase(svc *delivery.Service) deliveryUsecase {
	return svc
}

type trackingUsecase interface {
	GetSnapshot(ctx context.Context, orderID string) (*domain.TrackingSnapshot, error)
	AppendPoint(ctx context.Context, orderID string, lat, lon float64) error
	PathHistory(ctx context.Context, orderID string, limit int) ([]domain.PathPoint, error)
	RouteDetail(ctx context.Context, orderID string) (*tracking.RouteDetail, error)
}

// NewTrackingUsecase wires a tracking.Service into a trackingUsecase.
func NewTrackingUsecase(svc *tracking.Service) trackingUsecase {
	return svc
}
