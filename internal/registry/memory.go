package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"delivery-tracking/internal/apperr"
	"delivery-tracking/internal/domain"
	"delivery-tracking/internal/geo"
)

// MemoryStore is the in-process registry backend. Courier entries live in a
// sync.Map so reports for different couriers never contend on a shared lock;
// radius scans walk a weakly consistent snapshot of the map.
type MemoryStore struct {
	opts Options
	now  func() time.Time

	couriers sync.Map // courier id -> *memEntry

	mu        sync.Mutex
	paths     map[string]*pathEntry
	snapshots map[string]snapEntry
	active    map[string]map[string]struct{}
}

type memEntry struct {
	loc       domain.CourierLocation
	expiresAt time.Time
}

type pathEntry struct {
	points    []domain.PathPoint
	expiresAt time.Time // zero while the delivery is active
}

type snapEntry struct {
	snap      domain.TrackingSnapshot
	expiresAt time.Time
}

// NewMemoryStore creates an in-process registry store.
func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		opts:      opts.withDefaults(),
		now:       func() time.Time { return time.Now().UTC() },
		paths:     make(map[string]*pathEntry),
		snapshots: make(map[string]snapEntry),
		active:    make(map[string]map[string]struct{}),
	}
}

// WithClock overrides the store's clock. Test hook.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Report stores the courier's freshest position. A report whose timestamp is
// older than the stored one is rejected with apperr.StaleWrite and changes
// nothing.
func (s *MemoryStore) Report(_ context.Context, loc domain.CourierLocation) error {
	entry := &memEntry{loc: loc, expiresAt: loc.ReportedAt.Add(s.opts.LocationTTL)}
	for {
		cur, loaded := s.couriers.LoadOrStore(loc.CourierID, entry)
		if !loaded {
			return nil
		}
		old := cur.(*memEntry)
		if loc.ReportedAt.Before(old.loc.ReportedAt) && old.expiresAt.After(s.now()) {
			return apperr.StaleWrite
		}
		if s.couriers.CompareAndSwap(loc.CourierID, cur, entry) {
			return nil
		}
	}
}

// Get returns the courier's last accepted report, or nil when the courier
// never reported or its entry expired.
func (s *MemoryStore) Get(_ context.Context, courierID string) (*domain.CourierLocation, error) {
	v, ok := s.couriers.Load(courierID)
	if !ok {
		return nil, nil
	}
	entry := v.(*memEntry)
	if !entry.expiresAt.After(s.now()) {
		s.couriers.CompareAndDelete(courierID, v)
		return nil, nil
	}
	loc := entry.loc
	return &loc, nil
}

// FindNearby scans available, unexpired couriers within radiusMeters of the
// query point and returns up to limit of them, nearest first. Equal distances
// are broken by the fresher report.
func (s *MemoryStore) FindNearby(_ context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyCourier, error) {
	now := s.now()
	out := make([]domain.NearbyCourier, 0, limit)

	s.couriers.Range(func(key, v any) bool {
		entry := v.(*memEntry)
		if !entry.expiresAt.After(now) {
			s.couriers.CompareAndDelete(key, v)
			return true
		}
		if !entry.loc.Available {
			return true
		}
		d := geo.DistanceKm(lat, lon, entry.loc.Latitude, entry.loc.Longitude) * 1000
		if d > radiusMeters {
			return true
		}
		out = append(out, domain.NearbyCourier{CourierLocation: entry.loc, DistanceMeters: d})
		return true
	})

	sortNearest(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AppendPath appends one point to the order's history, evicting the oldest
// points beyond the retention bound.
func (s *MemoryStore) AppendPath(_ context.Context, orderID string, p domain.PathPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.paths[orderID]
	if entry == nil || s.pathExpired(entry) {
		entry = &pathEntry{}
		s.paths[orderID] = entry
	}
	entry.points = append(entry.points, p)
	if over := len(entry.points) - s.opts.PathBound; over > 0 {
		entry.points = entry.points[over:]
	}
	// appending while active resets any pending retention window
	entry.expiresAt = time.Time{}
	return nil
}

// PathRecent returns the most recent limit points, oldest first.
func (s *MemoryStore) PathRecent(_ context.Context, orderID string, limit int) ([]domain.PathPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.paths[orderID]
	if entry == nil || s.pathExpired(entry) {
		return nil, nil
	}
	pts := entry.points
	if limit > 0 && len(pts) > limit {
		pts = pts[len(pts)-limit:]
	}
	out := make([]domain.PathPoint, len(pts))
	copy(out, pts)
	return out, nil
}

// ExpirePathAfter starts the retention countdown for an order's path.
func (s *MemoryStore) ExpirePathAfter(_ context.Context, orderID string, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry := s.paths[orderID]; entry != nil {
		entry.expiresAt = s.now().Add(d)
	}
	return nil
}

func (s *MemoryStore) pathExpired(e *pathEntry) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(s.now())
}

// CacheSnapshot stores a computed tracking snapshot with a short TTL.
func (s *MemoryStore) CacheSnapshot(_ context.Context, snap domain.TrackingSnapshot, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snap.OrderID] = snapEntry{snap: snap, expiresAt: s.now().Add(ttl)}
	return nil
}

// CachedSnapshot returns a previously cached snapshot, or nil when absent or expired.
func (s *MemoryStore) CachedSnapshot(_ context.Context, orderID string) (*domain.TrackingSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.snapshots[orderID]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.After(s.now()) {
		delete(s.snapshots, orderID)
		return nil, nil
	}
	snap := entry.snap
	return &snap, nil
}

// InvalidateSnapshot drops the cached snapshot for an order.
func (s *MemoryStore) InvalidateSnapshot(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, orderID)
	return nil
}

// AddActiveOrder records an in-flight delivery for a courier.
func (s *MemoryStore) AddActiveOrder(_ context.Context, courierID, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.active[courierID]
	if set == nil {
		set = make(map[string]struct{})
		s.active[courierID] = set
	}
	set[orderID] = struct{}{}
	return nil
}

// RemoveActiveOrder clears a delivery from the courier's working set.
func (s *MemoryStore) RemoveActiveOrder(_ context.Context, courierID, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set := s.active[courierID]; set != nil {
		delete(set, orderID)
		if len(set) == 0 {
			delete(s.active, courierID)
		}
	}
	return nil
}

// ActiveOrders lists the courier's in-flight deliveries.
func (s *MemoryStore) ActiveOrders(_ context.Context, courierID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.active[courierID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
