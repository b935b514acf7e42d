package dispatch

import "time"

// Event is a single order lifecycle event from the order service.
type Event struct {
	OrderID      string    `json:"order_id"`
	Status       string    `json:"status"`
	RestaurantID string    `json:"restaurant_id"`
	CreatedAt    time.Time `json:"created_at"`
}
