package domain

import "time"

type (
	// DeliveryStatus represents the delivery lifecycle state of an order.
	DeliveryStatus string
	// Actor identifies who requested a status transition.
	Actor string
)

// Delivery lifecycle statuses. The upstream order-processing states
// (placed, confirmed, preparing) are read here but never transitioned.
const (
	StatusPlaced         DeliveryStatus = "placed"
	StatusConfirmed      DeliveryStatus = "confirmed"
	StatusPreparing      DeliveryStatus = "preparing"
	StatusReadyForPickup DeliveryStatus = "ready_for_pickup"
	StatusOutForDelivery DeliveryStatus = "out_for_delivery"
	StatusDelivered      DeliveryStatus = "delivered"
	StatusCancelled      DeliveryStatus = "cancelled"
)

// Transition actors.
const (
	ActorCourier Actor = "courier"
	ActorSystem  Actor = "system"
)

// transitions holds the legal delivery-status edges and the actors allowed
// to take each of them. delivered and cancelled are terminal.
var transitions = map[DeliveryStatus]map[DeliveryStatus][]Actor{
	StatusReadyForPickup: {
		StatusOutForDelivery: {ActorCourier, ActorSystem},
		StatusCancelled:      {ActorCourier, ActorSystem},
	},
	StatusOutForDelivery: {
		StatusDelivered: {ActorCourier, ActorSystem},
		StatusCancelled: {ActorCourier, ActorSystem},
	},
}

// Valid checks if the DeliveryStatus is one of the known lifecycle states.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case StatusPlaced, StatusConfirmed, StatusPreparing,
		StatusReadyForPickup, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is legal from s.
func (s DeliveryStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Active reports whether the order is in the live delivery window.
func (s DeliveryStatus) Active() bool {
	return s == StatusReadyForPickup || s == StatusOutForDelivery
}

// Valid checks if the Actor is known.
func (a Actor) Valid() bool {
	return a == ActorCourier || a == ActorSystem
}

// CanTransition reports whether actor may move a delivery from one status
// to another. Same-status re-application is not a transition and is handled
// by the caller as an idempotent no-op.
func CanTransition(from, to DeliveryStatus, actor Actor) bool {
	allowed, ok := transitions[from][to]
	if !ok {
		return false
	}
	for _, a := range allowed {
		if a == actor {
			return true
		}
	}
	return false
}

// GeoPoint is a plain latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DeliveryOrder is the subset of the durable order record consumed by the
// tracking core. The core reads it and conditionally writes back status,
// courier assignment and the delivery estimate.
type DeliveryOrder struct {
	ID                string
	CustomerID        string
	RestaurantID      string
	CourierID         string // empty until assigned
	Status            DeliveryStatus
	DeliveryPoint     GeoPoint
	EstimatedDelivery time.Time
	UpdatedAt         time.Time
}

// StatusChange is one immutable entry of an order's status-history log.
type StatusChange struct {
	OrderID   string
	Status    DeliveryStatus
	Actor     Actor
	Notes     string
	ChangedAt time.Time
}
