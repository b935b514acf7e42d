// Package delivery enforces the delivery status lifecycle: actor-gated
// transitions, per-order compare-and-swap against the durable store and an
// append-only status history.
package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"delivery-tracking/internal/apperr"
	"delivery-tracking/internal/domain"
	"delivery-tracking/internal/events"
	"delivery-tracking/internal/logx"
)

// Service applies delivery status transitions.
type Service struct {
	repo          orderRepository
	store         trackerStore
	sink          eventSink
	logger        logx.Logger
	pathRetention time.Duration
	now           func() time.Time
}

// NewService creates a delivery state machine service.
func NewService(repo orderRepository, store trackerStore, sink eventSink, logger logx.Logger, pathRetention time.Duration) *Service {
	if pathRetention <= 0 {
		pathRetention = 24 * time.Hour
	}
	return &Service{
		repo:          repo,
		store:         store,
		sink:          sink,
		logger:        logger,
		pathRetention: pathRetention,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Transition moves an order to a new delivery status. Re-applying the current
// status is accepted and returns the unchanged record. Illegal edges fail
// with InvalidTransition and write nothing.
func (s *Service) Transition(ctx context.Context, orderID string, to domain.DeliveryStatus, actor domain.Actor, notes string) (*domain.DeliveryOrder, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: empty order id", apperr.Invalid)
	}
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", apperr.Invalid, to)
	}

	ord, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, apperr.NotFound
	}

	if ord.Status == to {
		return ord, nil
	}

	updated, wrote, err := s.apply(ctx, ord, to, actor)
	if err != nil {
		return nil, err
	}
	if !wrote {
		// a concurrent caller already landed this status
		return updated, nil
	}

	change := domain.StatusChange{
		OrderID:   orderID,
		Status:    to,
		Actor:     actor,
		Notes:     notes,
		ChangedAt: s.now(),
	}
	if err := s.repo.InsertStatusChange(ctx, change); err != nil {
		s.logger.Error("status history append failed",
			logx.String("order_id", orderID),
			logx.String("status", string(to)),
			logx.Err(err),
		)
	}

	s.afterTransition(ctx, updated, change)

	s.logger.Info("delivery status changed",
		logx.String("event", "delivery_status_changed"),
		logx.String("order_id", orderID),
		logx.String("from", string(ord.Status)),
		logx.String("to", string(to)),
		logx.String("actor", string(actor)),
	)

	return updated, nil
}

// apply performs the compare-and-swap write, retrying once when a concurrent
// transition moved the order to a state the requested edge is still legal
// from.
func (s *Service) apply(ctx context.Context, ord *domain.DeliveryOrder, to domain.DeliveryStatus, actor domain.Actor) (*domain.DeliveryOrder, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if !domain.CanTransition(ord.Status, to, actor) {
			return nil, false, fmt.Errorf("%w: %s -> %s by %s", apperr.InvalidTransition, ord.Status, to, actor)
		}

		ok, err := s.repo.UpdateStatusCAS(ctx, ord.ID, ord.Status, to)
		if err != nil {
			return nil, false, err
		}
		if ok {
			updated := *ord
			updated.Status = to
			updated.UpdatedAt = s.now()
			return &updated, true, nil
		}

		// lost the race, reload and re-validate
		reloaded, err := s.repo.Get(ctx, ord.ID)
		if err != nil {
			return nil, false, err
		}
		if reloaded == nil {
			return nil, false, apperr.NotFound
		}
		if reloaded.Status == to {
			return reloaded, false, nil
		}
		ord = reloaded
	}
	return nil, false, fmt.Errorf("%w: concurrent update on %s", apperr.InvalidTransition, ord.ID)
}

func (s *Service) afterTransition(ctx context.Context, ord *domain.DeliveryOrder, change domain.StatusChange) {
	if change.Status.Terminal() {
		if ord.CourierID != "" {
			if err := s.store.RemoveActiveOrder(ctx, ord.CourierID, ord.ID); err != nil {
				s.logger.Warn("active order remove failed",
					logx.String("order_id", ord.ID),
					logx.Err(err),
				)
			}
		}
		if err := s.store.ExpirePathAfter(ctx, ord.ID, s.pathRetention); err != nil {
			s.logger.Warn("path retention set failed",
				logx.String("order_id", ord.ID),
				logx.Err(err),
			)
		}
	}

	if err := s.store.InvalidateSnapshot(ctx, ord.ID); err != nil {
		s.logger.Warn("snapshot invalidate failed",
			logx.String("order_id", ord.ID),
			logx.Err(err),
		)
	}

	if s.sink != nil {
		s.sink.Enqueue(events.NewStatusChanged(change))
	}
}

// History returns the append-only status log of an order, oldest first.
func (s *Service) History(ctx context.Context, orderID string) ([]domain.StatusChange, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: empty order id", apperr.Invalid)
	}
	return s.repo.StatusHistory(ctx, orderID)
}
