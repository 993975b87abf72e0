package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "contentforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator flags
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "CONTENTFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "CONTENTFORGE_CORS_ORIGIN")
	setDuration(&cfg.Server.RequestTimeout, "CONTENTFORGE_REQUEST_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "CONTENTFORGE_SHUTDOWN_TIMEOUT")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "CONTENTFORGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "CONTENTFORGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "CONTENTFORGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "CONTENTFORGE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "CONTENTFORGE_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "CONTENTFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "CONTENTFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "CONTENTFORGE_LOG_ASYNC")

	// Auth
	setBool(&cfg.Auth.Enabled, "CONTENTFORGE_AUTH_ENABLED")
	setString(&cfg.Auth.JWTSecret, "CONTENTFORGE_JWT_SECRET")
	setString(&cfg.Auth.Issuer, "CONTENTFORGE_JWT_ISSUER")
	setDuration(&cfg.Auth.TokenTTL, "CONTENTFORGE_TOKEN_TTL")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "CONTENTFORGE_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "CONTENTFORGE_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "CONTENTFORGE_CACHE_L2_TTL")
	setDuration(&cfg.Cache.TTL, "CONTENTFORGE_CACHE_TTL")

	setString(&cfg.DataManager.Mode, "CONTENTFORGE_DATAMANAGER_MODE")
	setInt(&cfg.Breaker.MaxFailures, "CONTENTFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "CONTENTFORGE_BREAKER_TIMEOUT")

	// Idempotency
	setString(&cfg.Idempotency.Bucket, "CONTENTFORGE_IDEMPOTENCY_BUCKET")
	setDuration(&cfg.Idempotency.TTL, "CONTENTFORGE_IDEMPOTENCY_TTL")

	// Rate limit
	setFloat64(&cfg.RateLimit.RPS, "CONTENTFORGE_RATE_LIMIT_RPS")
	setInt(&cfg.RateLimit.Burst, "CONTENTFORGE_RATE_LIMIT_BURST")

	// OTEL
	setBool(&cfg.OTEL.Enabled, "CONTENTFORGE_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "CONTENTFORGE_OTEL_INSECURE")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setFloat64(&cfg.OTEL.SampleRate, "CONTENTFORGE_OTEL_SAMPLE_RATE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	switch cfg.DataManager.Mode {
	case DataManagerSync:
	case DataManagerNATS:
		if cfg.NATS.URL == "" {
			return errors.New("datamanager.mode nats requires nats.url")
		}
	default:
		return fmt.Errorf("datamanager.mode must be %q or %q", DataManagerSync, DataManagerNATS)
	}
	if cfg.Auth.Enabled && len(cfg.Auth.JWTSecret) < 32 {
		return errors.New("auth.jwt_secret must be at least 32 bytes when auth is enabled")
	}
	if cfg.RateLimit.RPS < 0 || (cfg.RateLimit.RPS > 0 && cfg.RateLimit.Burst < 1) {
		return errors.New("rate_limit needs rps >= 0 and burst >= 1")
	}
	if cfg.OTEL.SampleRate < 0 || cfg.OTEL.SampleRate > 1 {
		return errors.New("otel.sample_rate must be between 0 and 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
