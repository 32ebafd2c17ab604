package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	SLA      SLAConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters. The key hashes are bcrypt
// digests of the service-account API keys for each role; an empty hash
// disables that role.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	AdminKeyHash          string
	ReaderKeyHash         string
}

// SLAConfig tunes the deadline engine.
type SLAConfig struct {
	AtRiskWindowMinutes    int
	MetricsCacheTTLSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:                  envString("APP_NAME", "nexusops-sla-service"),
			Env:                   envString("APP_ENV", "development"),
			Host:                  envString("APP_HOST", "0.0.0.0"),
			Port:                  envString("APP_PORT", "8080"),
			Version:               envString("APP_VERSION", "dev"),
			RequestTimeoutSeconds: envInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(envInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(envInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  envBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(envInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(envInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     envString("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		Logger: LoggerConfig{
			Level: envString("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             envString("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: envInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			AdminKeyHash:          os.Getenv("AUTH_ADMIN_KEY_HASH"),
			ReaderKeyHash:         os.Getenv("AUTH_READER_KEY_HASH"),
		},
		SLA: SLAConfig{
			AtRiskWindowMinutes:    envInt("SLA_AT_RISK_WINDOW_MINUTES", 30),
			MetricsCacheTTLSeconds: envInt("SLA_METRICS_CACHE_TTL_SECONDS", 60),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AtRiskWindow returns the breach lookahead window.
func (s SLAConfig) AtRiskWindow() time.Duration {
	if s.AtRiskWindowMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(s.AtRiskWindowMinutes) * time.Minute
}

// MetricsCacheTTL returns how long computed dashboard metrics stay cached.
func (s SLAConfig) MetricsCacheTTL() time.Duration {
	if s.MetricsCacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(s.MetricsCacheTTLSeconds) * time.Second
}

// Unset or unparsable variables fall back to the given default; config
// never fails on a bad optional value.
func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
