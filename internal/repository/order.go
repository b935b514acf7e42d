package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"delivery-tracking/internal/domain"
)

// OrderRepo reads and conditionally writes the durable order records the
// tracking core consumes. The relational schema is owned elsewhere; this is
// the narrow contract over it.
type OrderRepo struct{ db *pgxpool.Pool }

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(db *pgxpool.Pool) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `id, customer_id, restaurant_id, COALESCE(courier_id, ''), status,
       delivery_lat, delivery_lon,
       COALESCE(estimated_delivery_time, 'epoch'::timestamptz), updated_at`

// Get returns the order record, or nil when it does not exist.
func (r *OrderRepo) Get(ctx context.Context, orderID string) (*domain.DeliveryOrder, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)

	var o domain.DeliveryOrder
	err := row.Scan(&o.ID, &o.CustomerID, &o.RestaurantID, &o.CourierID, &o.Status,
		&o.DeliveryPoint.Latitude, &o.DeliveryPoint.Longitude,
		&o.EstimatedDelivery, &o.UpdatedAt)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %q: %w", orderID, err)
	}
	return &o, nil
}

// UpdateStatusCAS moves an order from one status to another in a single
// conditional write. It returns false when the order's current status no
// longer matches from, which means a concurrent transition won the race.
func (r *OrderRepo) UpdateStatusCAS(ctx context.Context, orderID string, from, to domain.DeliveryStatus) (bool, error) {
	q := `UPDATE orders SET status = $3, updated_at = now()`
	if to == domain.StatusDelivered {
		q += `, actual_delivery_time = now()`
	}
	q += ` WHERE id = $1 AND status = $2`

	ct, err := r.db.Exec(ctx, q, orderID, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("transition order %q %s->%s: %w", orderID, from, to, err)
	}
	return ct.RowsAffected() > 0, nil
}

// AssignCourier sets the courier on an unassigned ready order. Returns false
// when the order is already taken or no longer ready.
func (r *OrderRepo) AssignCourier(ctx context.Context, orderID, courierID string) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE orders
        SET courier_id = $2, updated_at = now()
        WHERE id = $1 AND status = $3 AND courier_id IS NULL
    `, orderID, courierID, string(domain.StatusReadyForPickup))
	if err != nil {
		return false, fmt.Errorf("assign courier %q to order %q: %w", courierID, orderID, err)
	}
	return ct.RowsAffected() > 0, nil
}

// UpdateEstimatedDelivery writes the latest delivery estimate back to the record.
func (r *OrderRepo) UpdateEstimatedDelivery(ctx context.Context, orderID string, eta time.Time) error {
	_, err := r.db.Exec(ctx, `
        UPDATE orders SET estimated_delivery_time = $2, updated_at = now() WHERE id = $1
    `, orderID, eta)
	if err != nil {
		return fmt.Errorf("update eta for order %q: %w", orderID, err)
	}
	return nil
}

// InsertStatusChange appends one immutable entry to the order's status-history log.
func (r *OrderRepo) InsertStatusChange(ctx context.Context, ch domain.StatusChange) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO delivery_status_history (order_id, status, actor, notes, changed_at)
        VALUES ($1, $2, $3, $4, $5)
    `, ch.OrderID, string(ch.Status), string(ch.Actor), ch.Notes, ch.ChangedAt)
	if err != nil {
		return fmt.Errorf("insert status change for order %q: %w", ch.OrderID, err)
	}
	return nil
}

// StatusHistory returns the order's status changes, oldest first.
func (r *OrderRepo) StatusHistory(ctx context.Context, orderID string) ([]domain.StatusChange, error) {
	rows, err := r.db.Query(ctx, `
        SELECT order_id, status, actor, notes, changed_at
        FROM delivery_status_history
        WHERE order_id = $1
        ORDER BY changed_at
    `, orderID)
	if err != nil {
		return nil, fmt.Errorf("status history for order %q: %w", orderID, err)
	}
	defer rows.Close()

	var out []domain.StatusChange
	for rows.Next() {
		var ch domain.StatusChange
		if err := rows.Scan(&ch.OrderID, &ch.Status, &ch.Actor, &ch.Notes, &ch.ChangedAt); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}
