// Package config builds runtime configuration from environment variables so
// main stays lean. Every knob has a development default; production deploys
// override via VOUCH_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures the full service configuration.
type Server struct {
	Addr        string
	Environment string // "production" enforces the insight credential

	PostgresDSN string
	Redis       RedisConfig

	KafkaBrokers  []string
	KafkaGroup    string
	EventTopics   []string
	EmitTopic     string
	SweepInterval time.Duration

	JWTSigningKey string
	InternalToken string
	InsightToken  string

	MinK int
}

// RedisConfig holds the optional read-through cache settings. An empty URL
// disables Redis entirely.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Production reports whether optional credentials become mandatory.
func (s Server) Production() bool {
	return s.Environment == "production"
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:        envOr("VOUCH_ADDR", ":8080"),
		Environment: envOr("VOUCH_ENV", "development"),

		PostgresDSN: os.Getenv("VOUCH_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("VOUCH_REDIS_URL"),
			PoolSize:     envInt("VOUCH_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("VOUCH_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("VOUCH_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("VOUCH_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("VOUCH_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},

		KafkaBrokers:  splitList(envOr("VOUCH_KAFKA_BROKERS", "localhost:9092")),
		KafkaGroup:    envOr("VOUCH_KAFKA_GROUP", "vouch-consumer"),
		EventTopics:   splitList(envOr("VOUCH_EVENT_TOPICS", "platform.events")),
		EmitTopic:     envOr("VOUCH_EMIT_TOPIC", "vouch.lifecycle"),
		SweepInterval: envDuration("VOUCH_SWEEP_INTERVAL", time.Minute),

		// Development default; must be overridden in production.
		JWTSigningKey: envOr("VOUCH_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		InternalToken: os.Getenv("VOUCH_INTERNAL_TOKEN"),
		InsightToken:  os.Getenv("VOUCH_INSIGHT_TOKEN"),

		MinK: envInt("VOUCH_MIN_K", 5),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
