package domain

import "time"

// CourierLocation is the freshest known position of a courier. Owned by the
// location registry, overwritten on every accepted report and expired by TTL.
type CourierLocation struct {
	CourierID  string
	Latitude   float64
	Longitude  float64
	Available  bool
	ReportedAt time.Time
}

// NearbyCourier is a registry entry annotated with its distance from a query point.
type NearbyCourier struct {
	CourierLocation
	DistanceMeters float64
}

// ValidCoordinates reports whether lat/lon fall inside the WGS84 bounds.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Fresh reports whether the location was reported within maxAge of now.
func (l CourierLocation) Fresh(now time.Time, maxAge time.Duration) bool {
	return now.Sub(l.ReportedAt) <= maxAge
}
