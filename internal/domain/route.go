package domain

// Provenance tags where a route estimate came from.
type Provenance string

// Route estimate provenance values.
const (
	ProvenanceProvider Provenance = "provider"
	ProvenanceFallback Provenance = "fallback"
)

// RouteEstimate is a per-request distance/duration estimate for one leg.
// Never persisted; recomputed on every request.
type RouteEstimate struct {
	DistanceMeters  float64
	DurationSeconds float64
	Polyline        []GeoPoint // nil when the provider returned none
	Provenance      Provenance
}

// Minutes returns the estimate's duration rounded up to whole minutes.
func (e RouteEstimate) Minutes() int {
	if e.DurationSeconds <= 0 {
		return 0
	}
	return int((e.DurationSeconds + 59) / 60)
}
