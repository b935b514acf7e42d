// Package tracking is the customer-facing read path: it stitches the durable
// order record, the live registry position, the path history and a routing
// estimate into one snapshot, degrading instead of failing.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"delivery-tracking/internal/apperr"
	"delivery-tracking/internal/domain"
	"delivery-tracking/internal/logx"
)

// Config bounds snapshot freshness and caching.
type Config struct {
	FreshnessThreshold  time.Duration
	SnapshotCacheTTL    time.Duration
	DefaultPathLimit    int
	PickupBufferMinutes int
}

func (c Config) withDefaults() Config {
	if c.FreshnessThreshold <= 0 {
		c.FreshnessThreshold = 90 * time.Second
	}
	if c.SnapshotCacheTTL <= 0 {
		c.SnapshotCacheTTL = 10 * time.Second
	}
	if c.DefaultPathLimit <= 0 {
		c.DefaultPathLimit = 50
	}
	if c.PickupBufferMinutes <= 0 {
		c.PickupBufferMinutes = 5
	}
	return c
}

// Service assembles tracking snapshots.
type Service struct {
	repo   orderRepository
	store  trackerStore
	router routeEstimator
	places placeResolver
	logger logx.Logger
	cfg    Config
	now    func() time.Time
}

// NewService creates a tracking aggregator.
func NewService(repo orderRepository, store trackerStore, router routeEstimator, places placeResolver, logger logx.Logger, cfg Config) *Service {
	return &Service{
		repo:   repo,
		store:  store,
		router: router,
		places: places,
		logger: logger,
		cfg:    cfg.withDefaults(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetSnapshot answers "where is my order". It fails only when the order
// itself is unknown; registry misses and provider failures degrade fields.
func (s *Service) GetSnapshot(ctx context.Context, orderID string) (*domain.TrackingSnapshot, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: empty order id", apperr.Invalid)
	}

	if cached, err := s.store.CachedSnapshot(ctx, orderID); err != nil {
		s.logger.Warn("snapshot cache read failed", logx.String("order_id", orderID), logx.Err(err))
	} else if cached != nil {
		return cached, nil
	}

	ord, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, apperr.NotFound
	}

	now := s.now()
	snap := domain.TrackingSnapshot{
		OrderID:           ord.ID,
		Status:            ord.Status,
		CourierID:         ord.CourierID,
		EstimatedDelivery: ord.EstimatedDelivery,
		GeneratedAt:       now,
	}

	if ord.Status.Active() && ord.CourierID != "" {
		s.fillLivePosition(ctx, ord, &snap, now)
		s.fillEstimate(ctx, ord, &snap, now)
	}

	if err := s.store.CacheSnapshot(ctx, snap, s.cfg.SnapshotCacheTTL); err != nil {
		s.logger.Warn("snapshot cache write failed", logx.String("order_id", orderID), logx.Err(err))
	}
	return &snap, nil
}

// fillLivePosition resolves the courier position, falling back to the last
// recorded path point when the registry entry is gone.
func (s *Service) fillLivePosition(ctx context.Context, ord *domain.DeliveryOrder, snap *domain.TrackingSnapshot, now time.Time) {
	loc, err := s.store.Get(ctx, ord.CourierID)
	if err != nil {
		s.logger.Warn("registry read failed", logx.String("courier_id", ord.CourierID), logx.Err(err))
	}
	if loc != nil {
		snap.CourierPosition = &domain.GeoPoint{Latitude: loc.Latitude, Longitude: loc.Longitude}
		snap.IsLive = loc.Fresh(now, s.cfg.FreshnessThreshold)
		return
	}

	points, err := s.store.PathRecent(ctx, ord.ID, 1)
	if err != nil {
		s.logger.Warn("path read failed", logx.String("order_id", ord.ID), logx.Err(err))
		return
	}
	if len(points) > 0 {
		last := points[len(points)-1]
		snap.CourierPosition = &domain.GeoPoint{Latitude: last.Latitude, Longitude: last.Longitude}
		snap.IsLive = false
	}
}

// fillEstimate computes the ETA for the leg implied by the current status.
func (s *Service) fillEstimate(ctx context.Context, ord *domain.DeliveryOrder, snap *domain.TrackingSnapshot, now time.Time) {
	if snap.CourierPosition == nil {
		return
	}

	dest, ok := s.legDestination(ctx, ord)
	if !ok {
		return
	}

	est := s.router.EstimateRoute(ctx, *snap.CourierPosition, dest, false)
	snap.ETAMinutes = est.Minutes()
	snap.ETAProvenance = est.Provenance
	snap.Polyline = est.Polyline

	if snap.IsLive && snap.ETAMinutes > 0 {
		eta := now.Add(time.Duration(snap.ETAMinutes) * time.Minute)
		if ord.EstimatedDelivery.IsZero() || absDiff(eta, ord.EstimatedDelivery) > time.Minute {
			if err := s.repo.UpdateEstimatedDelivery(ctx, ord.ID, eta); err != nil {
				s.logger.Warn("eta update failed", logx.String("order_id", ord.ID), logx.Err(err))
			}
		}
		snap.EstimatedDelivery = eta
	}
}

func (s *Service) legDestination(ctx context.Context, ord *domain.DeliveryOrder) (domain.GeoPoint, bool) {
	switch ord.Status {
	case domain.StatusReadyForPickup:
		point, err := s.places.RestaurantLocation(ctx, ord.RestaurantID)
		if err != nil {
			s.logger.Warn("restaurant lookup failed",
				logx.String("order_id", ord.ID),
				logx.String("restaurant_id", ord.RestaurantID),
				logx.Err(err),
			)
			return domain.GeoPoint{}, false
		}
		return point, true
	case domain.StatusOutForDelivery:
		return ord.DeliveryPoint, true
	default:
		return domain.GeoPoint{}, false
	}
}

func absDiff(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}

// AppendPoint records a position sample on the order's trail and merges it
// into the courier's registry entry, preserving availability.
func (s *Service) AppendPoint(ctx context.Context, orderID string, lat, lon float64) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("%w: empty order id", apperr.Invalid)
	}
	if !domain.ValidCoordinates(lat, lon) {
		return fmt.Errorf("%w: lat=%f lon=%f", apperr.OutOfRange, lat, lon)
	}

	ord, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if ord == nil {
		return apperr.NotFound
	}
	if !ord.Status.Active() {
		return fmt.Errorf("%w: delivery not active", apperr.NotFound)
	}

	now := s.now()
	if err := s.store.AppendPath(ctx, orderID, domain.PathPoint{
		Latitude:   lat,
		Longitude:  lon,
		RecordedAt: now,
	}); err != nil {
		return err
	}

	if ord.CourierID != "" {
		available := false
		if cur, err := s.store.Get(ctx, ord.CourierID); err == nil && cur != nil {
			available = cur.Available
		}
		err := s.store.Report(ctx, domain.CourierLocation{
			CourierID:  ord.CourierID,
			Latitude:   lat,
			Longitude:  lon,
			Available:  available,
			ReportedAt: now,
		})
		if err != nil && !errors.Is(err, apperr.StaleWrite) {
			s.logger.Warn("registry merge failed",
				logx.String("courier_id", ord.CourierID),
				logx.Err(err),
			)
		}
	}

	if err := s.store.InvalidateSnapshot(ctx, orderID); err != nil {
		s.logger.Warn("snapshot invalidate failed", logx.String("order_id", orderID), logx.Err(err))
	}
	return nil
}

// PathHistory returns the most recent limit points of the order's trail,
// oldest first.
func (s *Service) PathHistory(ctx context.Context, orderID string, limit int) ([]domain.PathPoint, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: empty order id", apperr.Invalid)
	}
	if limit <= 0 {
		limit = s.cfg.DefaultPathLimit
	}

	ord, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, apperr.NotFound
	}

	return s.store.PathRecent(ctx, orderID, limit)
}
