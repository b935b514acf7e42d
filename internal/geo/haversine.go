// Package geo provides pure great-circle distance and travel-time math.
// No I/O, fully deterministic.
package geo

import "math"

const earthRadiusKm = 6371.0

// Urban travel assumptions used when no routing provider data is available.
const (
	// AvgUrbanSpeedKmh is the assumed average courier speed in a city.
	AvgUrbanSpeedKmh = 30.0
	// DefaultTrafficFactor scales travel time for typical traffic.
	DefaultTrafficFactor = 1.2
	// FixedOverheadMinutes covers pickup and dropoff handling.
	FixedOverheadMinutes = 10.0
)

// DistanceKm returns the great-circle distance between two points in kilometers.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// EstimateMinutes converts a distance into a travel-time estimate in minutes,
// applying the traffic multiplier and the fixed pickup/dropoff overhead.
// A trafficFactor <= 0 falls back to DefaultTrafficFactor.
func EstimateMinutes(distanceKm, trafficFactor float64) float64 {
	if trafficFactor <= 0 {
		trafficFactor = DefaultTrafficFactor
	}
	base := distanceKm / AvgUrbanSpeedKmh * 60
	return base*trafficFactor + FixedOverheadMinutes
}
