package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"delivery-tracking/internal/apperr"
	"delivery-tracking/internal/domain"
)

// RedisStore is the Redis-backed registry. Courier entries are hashes with a
// TTL, the geo index is a Redis geo set gated by availability, paths are
// bounded lists and snapshots are JSON values with a short TTL.
type RedisStore struct {
	client *redis.Client
	opts   Options
}

// NewRedisStore wraps a connected go-redis client.
func NewRedisStore(client *redis.Client, opts Options) *RedisStore {
	return &RedisStore{client: client, opts: opts.withDefaults()}
}

// NewRedisClient creates and pings a redis client.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

const geoIndexKey = "geo:couriers:active"

func locationKey(courierID string) string { return "courier:location:" + courierID }
func activeKey(courierID string) string   { return "courier:active:" + courierID }
func pathKey(orderID string) string       { return "order:path:" + orderID }
func snapshotKey(orderID string) string   { return "order:snapshot:" + orderID }

// reportScript applies a location report only when it is not older than the
// stored one, refreshes the TTL and maintains geo index membership in the
// same atomic step.
var reportScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'ts')
if cur and tonumber(cur) > tonumber(ARGV[4]) then
  return 0
end
redis.call('HSET', KEYS[1], 'lat', ARGV[2], 'lon', ARGV[3], 'ts', ARGV[4], 'avail', ARGV[5])
redis.call('PEXPIRE', KEYS[1], ARGV[6])
if ARGV[5] == '1' then
  redis.call('GEOADD', KEYS[2], ARGV[3], ARGV[2], ARGV[1])
else
  redis.call('ZREM', KEYS[2], ARGV[1])
end
return 1
`)

// Report stores the courier's freshest position, dropping out-of-order
// reports with apperr.StaleWrite.
func (s *RedisStore) Report(ctx context.Context, loc domain.CourierLocation) error {
	avail := "0"
	if loc.Available {
		avail = "1"
	}
	applied, err := reportScript.Run(ctx, s.client,
		[]string{locationKey(loc.CourierID), geoIndexKey},
		loc.CourierID,
		strconv.FormatFloat(loc.Latitude, 'f', -1, 64),
		strconv.FormatFloat(loc.Longitude, 'f', -1, 64),
		strconv.FormatInt(loc.ReportedAt.UnixMicro(), 10),
		avail,
		strconv.FormatInt(s.opts.LocationTTL.Milliseconds(), 10),
	).Int()
	if err != nil {
		return fmt.Errorf("report location %s: %w", loc.CourierID, err)
	}
	if applied == 0 {
		return apperr.StaleWrite
	}
	return nil
}

// Get returns the courier's last accepted report, or nil when the entry has
// expired or never existed.
func (s *RedisStore) Get(ctx context.Context, courierID string) (*domain.CourierLocation, error) {
	fields, err := s.client.HGetAll(ctx, locationKey(courierID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get location %s: %w", courierID, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return parseLocation(courierID, fields)
}

func parseLocation(courierID string, fields map[string]string) (*domain.CourierLocation, error) {
	lat, err := strconv.ParseFloat(fields["lat"], 64)
	if err != nil {
		return nil, fmt.Errorf("parse location %s: lat %q", courierID, fields["lat"])
	}
	lon, err := strconv.ParseFloat(fields["lon"], 64)
	if err != nil {
		return nil, fmt.Errorf("parse location %s: lon %q", courierID, fields["lon"])
	}
	ts, err := strconv.ParseInt(fields["ts"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse location %s: ts %q", courierID, fields["ts"])
	}
	return &domain.CourierLocation{
		CourierID:  courierID,
		Latitude:   lat,
		Longitude:  lon,
		Available:  fields["avail"] == "1",
		ReportedAt: time.UnixMicro(ts).UTC(),
	}, nil
}

// FindNearby radius-scans the geo index, nearest first with the fresher
// report winning at equal distance. Members whose hash entry has expired are
// dropped from the index lazily.
func (s *RedisStore) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyCourier, error) {
	locs, err := s.client.GeoSearchLocation(ctx, geoIndexKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Latitude:   lat,
			Longitude:  lon,
			Radius:     radiusMeters,
			RadiusUnit: "m",
			Sort:       "ASC",
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geo search: %w", err)
	}

	out := make([]domain.NearbyCourier, 0, len(locs))
	for _, m := range locs {
		loc, err := s.Get(ctx, m.Name)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			// entry TTL fired; membership is stale
			s.client.ZRem(ctx, geoIndexKey, m.Name)
			continue
		}
		if !loc.Available {
			continue
		}
		out = append(out, domain.NearbyCourier{CourierLocation: *loc, DistanceMeters: m.Dist})
	}
	sortNearest(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AppendPath pushes one point onto the order's path list, trims it to the
// bound and refreshes the retention window.
func (s *RedisStore) AppendPath(ctx context.Context, orderID string, p domain.PathPoint) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, pathKey(orderID), data)
	pipe.LTrim(ctx, pathKey(orderID), int64(-s.opts.PathBound), -1)
	pipe.Expire(ctx, pathKey(orderID), s.opts.PathRetention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append path %s: %w", orderID, err)
	}
	return nil
}

// PathRecent returns the most recent limit points, oldest first.
func (s *RedisStore) PathRecent(ctx context.Context, orderID string, limit int) ([]domain.PathPoint, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raw, err := s.client.LRange(ctx, pathKey(orderID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("path range %s: %w", orderID, err)
	}
	out := make([]domain.PathPoint, 0, len(raw))
	for _, item := range raw {
		var p domain.PathPoint
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			return nil, fmt.Errorf("path decode %s: %w", orderID, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// ExpirePathAfter starts the retention countdown for an order's path.
func (s *RedisStore) ExpirePathAfter(ctx context.Context, orderID string, d time.Duration) error {
	return s.client.Expire(ctx, pathKey(orderID), d).Err()
}

// CacheSnapshot stores a computed tracking snapshot with a short TTL.
func (s *RedisStore) CacheSnapshot(ctx context.Context, snap domain.TrackingSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, snapshotKey(snap.OrderID), data, ttl).Err()
}

// CachedSnapshot returns a previously cached snapshot, or nil when absent.
func (s *RedisStore) CachedSnapshot(ctx context.Context, orderID string) (*domain.TrackingSnapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(orderID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot get %s: %w", orderID, err)
	}
	var snap domain.TrackingSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("snapshot decode %s: %w", orderID, err)
	}
	return &snap, nil
}

// InvalidateSnapshot drops the cached snapshot for an order.
func (s *RedisStore) InvalidateSnapshot(ctx context.Context, orderID string) error {
	return s.client.Del(ctx, snapshotKey(orderID)).Err()
}

// AddActiveOrder records an in-flight delivery for a courier.
func (s *RedisStore) AddActiveOrder(ctx context.Context, courierID, orderID string) error {
	return s.client.SAdd(ctx, activeKey(courierID), orderID).Err()
}

// RemoveActiveOrder clears a delivery from the courier's working set.
func (s *RedisStore) RemoveActiveOrder(ctx context.Context, courierID, orderID string) error {
	return s.client.SRem(ctx, activeKey(courierID), orderID).Err()
}

// ActiveOrders lists the courier's in-flight deliveries.
func (s *RedisStore) ActiveOrders(ctx context.Context, courierID string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, activeKey(courierID)).Result()
	if err != nil {
		return nil, fmt.Errorf("active orders %s: %w", courierID, err)
	}
	return ids, nil
}
