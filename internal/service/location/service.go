// Package location is the write path of the courier registry: position
// reports, single-courier reads and the nearby radius query.
package location

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"delivery-tracking/internal/apperr"
	"delivery-tracking/internal/domain"
	"delivery-tracking/internal/events"
	"delivery-tracking/internal/logx"
)

// Config bounds the nearby query defaults.
type Config struct {
	DefaultRadiusMeters float64
	DefaultLimit        int
	MaxLimit            int
}

func (c Config) withDefaults() Config {
	if c.DefaultRadiusMeters <= 0 {
		c.DefaultRadiusMeters = 5000
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 10
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = 100
	}
	return c
}

// Service handles courier location reports and queries.
type Service struct {
	store        registryStore
	sink         eventSink
	logger       logx.Logger
	staleReports counter
	cfg          Config
	now          func() time.Time
}

// NewService creates a location service.
func NewService(store registryStore, sink eventSink, logger logx.Logger, staleReports counter, cfg Config) *Service {
	return &Service{
		store:        store,
		sink:         sink,
		logger:       logger,
		staleReports: staleReports,
		cfg:          cfg.withDefaults(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Report stores a courier position. Out-of-order reports are dropped
// silently. When the courier is serving active orders the point is also
// appended to each order's path.
func (s *Service) Report(ctx context.Context, courierID string, lat, lon float64, available bool) error {
	courierID = strings.TrimSpace(courierID)
	if courierID == "" {
		return fmt.Errorf("%w: empty courier id", apperr.Invalid)
	}
	if !domain.ValidCoordinates(lat, lon) {
		return fmt.Errorf("%w: lat=%f lon=%f", apperr.OutOfRange, lat, lon)
	}

	loc := domain.CourierLocation{
		CourierID:  courierID,
		Latitude:   lat,
		Longitude:  lon,
		Available:  available,
		ReportedAt: s.now(),
	}

	if err := s.store.Report(ctx, loc); err != nil {
		if errors.Is(err, apperr.StaleWrite) {
			if s.staleReports != nil {
				s.staleReports.Inc()
			}
			s.logger.Debug("stale location report dropped",
				logx.String("courier_id", courierID),
			)
			return nil
		}
		return err
	}

	s.recordPath(ctx, loc)

	if s.sink != nil {
		s.sink.Enqueue(events.NewLocationUpdated(loc))
	}
	return nil
}

func (s *Service) recordPath(ctx context.Context, loc domain.CourierLocation) {
	active, err := s.store.ActiveOrders(ctx, loc.CourierID)
	if err != nil {
		s.logger.Warn("active orders lookup failed",
			logx.String("courier_id", loc.CourierID),
			logx.Err(err),
		)
		return
	}

	point := domain.PathPoint{
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		RecordedAt: loc.ReportedAt,
	}
	for _, orderID := range active {
		if err := s.store.AppendPath(ctx, orderID, point); err != nil {
			s.logger.Warn("path append failed",
				logx.String("order_id", orderID),
				logx.Err(err),
			)
			continue
		}
		if err := s.store.InvalidateSnapshot(ctx, orderID); err != nil {
			s.logger.Warn("snapshot invalidate failed",
				logx.String("order_id", orderID),
				logx.Err(err),
			)
		}
	}
}

// Get returns the courier's last known position.
func (s *Service) Get(ctx context.Context, courierID string) (*domain.CourierLocation, error) {
	courierID = strings.TrimSpace(courierID)
	if courierID == "" {
		return nil, fmt.Errorf("%w: empty courier id", apperr.Invalid)
	}
	loc, err := s.store.Get(ctx, courierID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, apperr.NotFound
	}
	return loc, nil
}

// FindNearby returns available couriers around a point, nearest first.
// Zero radius and limit fall back to configured defaults.
func (s *Service) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyCourier, error) {
	if !domain.ValidCoordinates(lat, lon) {
		return nil, fmt.Errorf("%w: lat=%f lon=%f", apperr.OutOfRange, lat, lon)
	}
	if radiusMeters <= 0 {
		radiusMeters = s.cfg.DefaultRadiusMeters
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}
	return s.store.FindNearby(ctx, lat, lon, radiusMeters, limit)
}
