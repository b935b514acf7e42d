// Package registry holds the ephemeral tracking state: the freshest position
// per courier with a geospatial index over available couriers, the bounded
// per-order path history, the tracking snapshot cache and the per-courier
// active-delivery working set.
//
// Two backends implement the same surface: RedisStore for production and
// MemoryStore for single-process deployments and tests. Consumers declare the
// subset they need as a local interface.
package registry

import (
	"sort"
	"time"

	"delivery-tracking/internal/domain"
)

// Options carries the retention knobs shared by both backends.
type Options struct {
	// LocationTTL expires a courier entry that is not refreshed.
	LocationTTL time.Duration
	// PathBound caps the number of retained path points per order; the
	// oldest points are evicted first.
	PathBound int
	// PathRetention keeps an order's path this long after its delivery
	// reaches a terminal status.
	PathRetention time.Duration
}

func (o Options) withDefaults() Options {
	if o.LocationTTL <= 0 {
		o.LocationTTL = 5 * time.Minute
	}
	if o.PathBound <= 0 {
		o.PathBound = 200
	}
	if o.PathRetention <= 0 {
		o.PathRetention = 24 * time.Hour
	}
	return o
}

// sortNearest orders candidates nearest first; at equal distance the fresher
// report wins. Both backends apply it so radius scans agree on ordering.
func sortNearest(out []domain.NearbyCourier) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceMeters != out[j].DistanceMeters {
			return out[i].DistanceMeters < out[j].DistanceMeters
		}
		return out[i].ReportedAt.After(out[j].ReportedAt)
	})
}
