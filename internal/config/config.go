package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultAddr            = ":8080"
	DefaultMaxBodyBytes    = 1 << 20
	DefaultTaskTopic       = "alertgate.tasks"
	DefaultRefreshInterval = 3 * time.Minute
	DefaultRatePerMinute   = 300
	DefaultSnapshotKey     = "alertgate:channels"
)

// Config holds the gateway runtime settings, loaded from the environment.
type Config struct {
	// HTTP server
	Addr         string
	MaxBodyBytes int64
	Debug        bool

	// Channel store and routing cache
	DatabaseURL          string
	CacheRefreshInterval time.Duration

	// Task dispatch
	KafkaBrokers []string
	TaskTopic    string

	// Per-channel ingestion rate limit; zero disables limiting
	RatePerMinute int

	// Optional snapshot persistence for warm starts
	RedisAddr   string
	SnapshotKey string
}

// Load reads the gateway configuration from environment variables.
// DATABASE_URL and KAFKA_BROKERS are required, everything else falls back
// to a default.
func Load() (Config, error) {
	cfg := Config{
		Addr:                 getEnv("ALERTGATE_ADDR", DefaultAddr),
		MaxBodyBytes:         getEnvInt64("ALERTGATE_MAX_BODY_BYTES", DefaultMaxBodyBytes),
		Debug:                getEnvBool("ALERTGATE_DEBUG", false),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		CacheRefreshInterval: getEnvDuration("ALERTGATE_CACHE_REFRESH_INTERVAL", DefaultRefreshInterval),
		TaskTopic:            getEnv("ALERTGATE_TASK_TOPIC", DefaultTaskTopic),
		RatePerMinute:        int(getEnvInt64("ALERTGATE_RATE_LIMIT_PER_MINUTE", DefaultRatePerMinute)),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		SnapshotKey:          getEnv("ALERTGATE_SNAPSHOT_KEY", DefaultSnapshotKey),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is not set")
	}
	cfg.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))
	if len(cfg.KafkaBrokers) == 0 {
		return Config{}, fmt.Errorf("KAFKA_BROKERS is not set")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.CacheRefreshInterval <= 0 {
		cfg.CacheRefreshInterval = DefaultRefreshInterval
	}
	return cfg, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
