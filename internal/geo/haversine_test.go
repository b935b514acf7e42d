package geo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"delivery-tracking/internal/geo"
)

func TestDistanceKm_ZeroForSamePoint(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 0, geo.DistanceKm(40.0, -75.0, 40.0, -75.0), 1e-9)
}

func TestDistanceKm_KnownPairs(t *testing.T) {
	t.Parallel()

	// One degree of latitude is about 111.19 km.
	require.InDelta(t, 111.19, geo.DistanceKm(0, 0, 1, 0), 0.1)

	// Moscow -> Saint Petersburg, roughly 634 km.
	d := geo.DistanceKm(55.7558, 37.6173, 59.9343, 30.3351)
	require.InDelta(t, 634, d, 5)
}

func TestDistanceKm_Symmetric(t *testing.T) {
	t.Parallel()

	a := geo.DistanceKm(40.0, -75.0, 40.1, -75.2)
	b := geo.DistanceKm(40.1, -75.2, 40.0, -75.0)
	require.InDelta(t, a, b, 1e-9)
	require.Greater(t, a, 0.0)
}

func TestEstimateMinutes(t *testing.T) {
	t.Parallel()

	// 30 km at 30 km/h is 60 minutes base; factor 1.0 plus fixed overhead.
	require.InDelta(t, 70, geo.EstimateMinutes(30, 1.0), 1e-9)

	// Default traffic factor applies when the factor is unset.
	require.InDelta(t, 60*geo.DefaultTrafficFactor+geo.FixedOverheadMinutes,
		geo.EstimateMinutes(30, 0), 1e-9)

	// Zero distance still costs the pickup/dropoff overhead.
	require.InDelta(t, geo.FixedOverheadMinutes, geo.EstimateMinutes(0, 1.5), 1e-9)
}
