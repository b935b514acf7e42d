package kafka

import (
	"strings"
	"time"

	"delivery-tracking/internal/service/dispatch"
)

// EventDTO is the wire form of an order lifecycle event.
type EventDTO struct {
	OrderID      string    `json:"order_id"`
	Status       string    `json:"status"`
	RestaurantID string    `json:"restaurant_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToDomain converts EventDTO to dispatch.Event.
func ToDomain(dto EventDTO) dispatch.Event {
	return dispatch.Event{
		OrderID:      strings.TrimSpace(dto.OrderID),
		Status:       strings.TrimSpace(dto.Status),
		RestaurantID: strings.TrimSpace(dto.RestaurantID),
		CreatedAt:    dto.CreatedAt,
	}
}
