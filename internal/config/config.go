package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// DB stores Postgres connection settings for the durable order store.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN builds a Postgres connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Redis stores connection settings for the location registry backend.
// An empty Addr selects the in-process registry instead.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Kafka stores event-bus settings. Empty brokers disable publishing and
// the dispatch worker.
type Kafka struct {
	Brokers     []string
	EventsTopic string
	OrdersTopic string
	GroupID     string
}

// Routing stores external routing provider settings.
type Routing struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Places stores restaurant/address service settings.
type Places struct {
	BaseURL string
	Timeout time.Duration
}

// Tracking stores the freshness, retention and search knobs of the core.
type Tracking struct {
	LocationTTL        time.Duration // registry entry expiry
	FreshnessThreshold time.Duration // older positions are flagged stale
	SearchRadiusMeters float64       // default nearby-courier radius
	PathBound          int           // max retained path points per order
	PathRetention      time.Duration // path kept this long after terminal status
	SnapshotCacheTTL   time.Duration // tracking snapshot cache expiry
}

// RateLimit stores the per-courier throttle on the location-report path.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Pprof stores debug server settings. An empty Addr disables it.
type Pprof struct {
	Addr string
	User string
	Pass string
}

// Config stores all service settings.
type Config struct {
	Port      int
	DB        DB
	Redis     Redis
	Kafka     Kafka
	Routing   Routing
	Places    Places
	Tracking  Tracking
	RateLimit RateLimit
	Pprof     Pprof
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:      envInt("PORT", DefaultPort()),
		DB:        defaultDB,
		Redis:     defaultRedis,
		Kafka:     defaultKafka,
		Routing:   defaultRouting,
		Places:    defaultPlaces,
		Tracking:  defaultTracking,
		RateLimit: defaultRateLimit,
		Pprof:     defaultPprof,
	}

	cfg.DB.Host = envStr("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envStr("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = envStr("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Pass = envStr("POSTGRES_PASSWORD", cfg.DB.Pass)
	cfg.DB.Name = envStr("POSTGRES_DB", cfg.DB.Name)

	cfg.Redis.Addr = envStr("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envStr("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envInt("REDIS_DB", cfg.Redis.DB)

	cfg.Kafka.Brokers = envList("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.EventsTopic = envStr("KAFKA_EVENTS_TOPIC", cfg.Kafka.EventsTopic)
	cfg.Kafka.OrdersTopic = envStr("KAFKA_ORDERS_TOPIC", cfg.Kafka.OrdersTopic)
	cfg.Kafka.GroupID = envStr("KAFKA_GROUP_ID", cfg.Kafka.GroupID)

	cfg.Routing.BaseURL = envStr("ROUTING_API_URL", cfg.Routing.BaseURL)
	cfg.Routing.APIKey = envStr("ROUTING_API_KEY", cfg.Routing.APIKey)
	cfg.Routing.Timeout = envDur("ROUTING_TIMEOUT", cfg.Routing.Timeout)

	cfg.Places.BaseURL = envStr("PLACES_API_URL", cfg.Places.BaseURL)
	cfg.Places.Timeout = envDur("PLACES_TIMEOUT", cfg.Places.Timeout)

	cfg.Tracking.LocationTTL = envDur("LOCATION_TTL", cfg.Tracking.LocationTTL)
	cfg.Tracking.FreshnessThreshold = envDur("LOCATION_FRESHNESS", cfg.Tracking.FreshnessThreshold)
	cfg.Tracking.SearchRadiusMeters = envFloat("SEARCH_RADIUS_METERS", cfg.Tracking.SearchRadiusMeters)
	cfg.Tracking.PathBound = envInt("PATH_BOUND", cfg.Tracking.PathBound)
	cfg.Tracking.PathRetention = envDur("PATH_RETENTION", cfg.Tracking.PathRetention)
	cfg.Tracking.SnapshotCacheTTL = envDur("SNAPSHOT_CACHE_TTL", cfg.Tracking.SnapshotCacheTTL)

	cfg.RateLimit.Enabled = envBool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.Rate = envFloat("RATE_LIMIT_RATE", cfg.RateLimit.Rate)
	cfg.RateLimit.Burst = envInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst)
	cfg.RateLimit.TTL = envDur("RATE_LIMIT_TTL", cfg.RateLimit.TTL)
	cfg.RateLimit.MaxBuckets = envInt("RATE_LIMIT_MAX_BUCKETS", cfg.RateLimit.MaxBuckets)

	cfg.Pprof.Addr = envStr("PPROF_ADDR", cfg.Pprof.Addr)
	cfg.Pprof.User = envStr("PPROF_USER", cfg.Pprof.User)
	cfg.Pprof.Pass = envStr("PPROF_PASS", cfg.Pprof.Pass)

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.Parse()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Routing.Timeout <= 0 {
		return fmt.Errorf("invalid routing timeout: %s", c.Routing.Timeout)
	}
	if c.Tracking.LocationTTL <= 0 {
		return fmt.Errorf("invalid location TTL: %s", c.Tracking.LocationTTL)
	}
	if c.Tracking.PathBound <= 0 {
		return fmt.Errorf("invalid path bound: %d", c.Tracking.PathBound)
	}
	if c.Tracking.SearchRadiusMeters <= 0 {
		return fmt.Errorf("invalid search radius: %f", c.Tracking.SearchRadiusMeters)
	}
	return nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
