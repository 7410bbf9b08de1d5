package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	PostgresURL   string
	Redis         RedisConfig
	Kafka         KafkaConfig
	JWTSigningKey string
	AdminToken    string
	Locator       LocatorConfig
	SweepInterval time.Duration
}

// RedisConfig holds connection settings for the optional Redis geo index.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the notification publisher. An empty broker
// list disables Kafka and falls back to the in-process dispatcher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// LocatorConfig fixes the reference point donor searches measure distance
// from, typically the blood bank's coordinates.
type LocatorConfig struct {
	CenterLat float64
	CenterLon float64
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("BLOODLINK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		adminToken = "dev-admin-token"
	}

	sweepInterval := 15 * time.Minute
	if v := os.Getenv("EXPIRY_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			sweepInterval = d
		}
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = strings.Split(v, ",")
	}
	topic := os.Getenv("KAFKA_NOTIFICATIONS_TOPIC")
	if topic == "" {
		topic = "bloodlink.notifications"
	}

	return Server{
		Addr:        addr,
		PostgresURL: os.Getenv("POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka:         KafkaConfig{Brokers: brokers, Topic: topic},
		JWTSigningKey: jwtSigningKey,
		AdminToken:    adminToken,
		Locator: LocatorConfig{
			CenterLat: envFloat("LOCATOR_CENTER_LAT", 0),
			CenterLon: envFloat("LOCATOR_CENTER_LON", 0),
		},
		SweepInterval: sweepInterval,
	}
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
