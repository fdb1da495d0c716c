package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	LogLevel           string
	StoreDriver        string
	MongoURL           string
	MongoDatabase      string
	Postgres           PostgresConfig
	RedisURL           string
	CORSAllowedOrigins []string
	JWTSecret          string
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	FixupTimeout       time.Duration
	FixupMaxAttempts   int
	ReconcileInterval  time.Duration
}

// PostgresConfig holds the connection settings for the postgres driver
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", getEnv("PORT", "3000")))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	driver := strings.ToLower(getEnv("STORE_DRIVER", DriverMongo))
	switch driver {
	case DriverMongo, DriverPostgres, DriverRedis, DriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER: %q", driver)
	}

	pgPort, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid POSTGRES_PORT: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	requestTimeout, err := strconv.Atoi(getEnv("REQUEST_TIMEOUT_SECONDS", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT_SECONDS: %w", err)
	}

	fixupTimeout, err := strconv.Atoi(getEnv("FIXUP_TIMEOUT_SECONDS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid FIXUP_TIMEOUT_SECONDS: %w", err)
	}

	fixupAttempts, err := strconv.Atoi(getEnv("FIXUP_MAX_ATTEMPTS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid FIXUP_MAX_ATTEMPTS: %w", err)
	}
	if fixupAttempts < 1 {
		return nil, fmt.Errorf("invalid FIXUP_MAX_ATTEMPTS: must be at least 1")
	}

	reconcileMinutes, err := strconv.Atoi(getEnv("RECONCILE_INTERVAL_MINUTES", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_INTERVAL_MINUTES: %w", err)
	}

	return &Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		ServerPort:    port,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		StoreDriver:   driver,
		MongoURL:      getEnv("MONGODB_URL", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "hobbyapi"),
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     pgPort,
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Database: getEnv("POSTGRES_DB", "hobbyapi"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		RateLimitPerMinute: rateLimit,
		RequestTimeout:     time.Duration(requestTimeout) * time.Second,
		FixupTimeout:       time.Duration(fixupTimeout) * time.Second,
		FixupMaxAttempts:   fixupAttempts,
		ReconcileInterval:  time.Duration(reconcileMinutes) * time.Minute,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
