package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process level configuration so main stays lean.
type Config struct {
	Addr          string
	JWTSigningKey string

	// PostgresDSN selects the postgres-backed stores when set; the in-memory
	// stores are used otherwise.
	PostgresDSN string

	Redis RedisConfig

	// EvaluatorTimeout bounds the zone lookup performed during geofence
	// evaluation. A lookup that exceeds it is treated as a collaborator
	// failure and the round is skipped.
	EvaluatorTimeout time.Duration

	// PipelineShards is the number of evaluation workers. Updates for one
	// child always land on the same shard to preserve per-child ordering.
	PipelineShards int

	// PipelineQueueSize is the per-shard buffer of pending evaluations.
	PipelineQueueSize int
}

// RedisConfig holds connection tuning for the presence/location cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:              envOr("CUSTODIA_ADDR", ":8080"),
		JWTSigningKey:     os.Getenv("JWT_SIGNING_KEY"),
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		EvaluatorTimeout:  envDuration("EVALUATOR_TIMEOUT", 3*time.Second),
		PipelineShards:    envInt("PIPELINE_SHARDS", 8),
		PipelineQueueSize: envInt("PIPELINE_QUEUE_SIZE", 256),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
	if cfg.JWTSigningKey == "" {
		// Development fallback; override in production.
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
