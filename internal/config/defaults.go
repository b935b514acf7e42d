package config

import "time"

const defaultPort = 8080

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "myuser",
	Pass: "mypassword",
	Name: "tracking_db",
}

var defaultRedis = Redis{
	Addr: "", // in-process registry unless set
}

var defaultKafka = Kafka{
	EventsTopic: "tracking-events",
	OrdersTopic: "order-events",
	GroupID:     "tracking-dispatch",
}

var defaultRouting = Routing{
	BaseURL: "https://api.routing.example.net/v2/route",
	Timeout: 3 * time.Second,
}

var defaultPlaces = Places{
	BaseURL: "http://localhost:8081",
	Timeout: 2 * time.Second,
}

var defaultTracking = Tracking{
	LocationTTL:        5 * time.Minute,
	FreshnessThreshold: 90 * time.Second,
	SearchRadiusMeters: 5000,
	PathBound:          200,
	PathRetention:      24 * time.Hour,
	SnapshotCacheTTL:   10 * time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Rate:       2, // location reports per second per courier
	Burst:      5,
	TTL:        10 * time.Minute,
	MaxBuckets: 100000,
}

var defaultPprof = Pprof{}

// DefaultPort returns the default port.
func DefaultPort() int {
	return defaultPort
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// DefaultTracking returns the default tracking knobs.
func DefaultTracking() Tracking {
	return defaultTracking
}

// DefaultRouting returns the default routing provider settings.
func DefaultRouting() Routing {
	return defaultRouting
}
