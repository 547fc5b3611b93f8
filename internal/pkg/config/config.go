// Package config loads service settings from the environment, after merging
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	GRPCAddr       string `validate:"required,hostname_port"`
	HTTPAddr       string `validate:"required,hostname_port"`
	ReconcilerAddr string `validate:"required"`
	SQLitePath     string `validate:"required"`
	// RedisAddr is optional. Empty keeps fingerprints in memory and disables
	// the per-order lock.
	RedisAddr string `validate:"omitempty,hostname_port"`

	FingerprintTTL   time.Duration `validate:"gte=0"`
	SettleDelay      time.Duration `validate:"gte=0"`
	QueueSize        int           `validate:"gte=1"`
	QueueMaxAttempts int           `validate:"gte=1"`

	LogLevel       string `validate:"oneof=debug info warn warning error"`
	ServiceName    string `validate:"required"`
	OTLPEndpoint   string
	TracingEnabled bool
}

// Load reads .env (a missing file is fine) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds and validates a Config from environment variables alone.
func FromEnv() (*Config, error) {
	var errs []error
	cfg := &Config{
		GRPCAddr:       getEnv("GRPC_ADDR", "localhost:50051"),
		HTTPAddr:       getEnv("HTTP_ADDR", "localhost:8080"),
		ReconcilerAddr: getEnv("RECONCILER_ADDR", "localhost:50051"),
		SQLitePath:     getEnv("SQLITE_PATH", "reconciler.db"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "pos-reconciler"),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
	cfg.FingerprintTTL = getDuration("FINGERPRINT_TTL", 24*time.Hour, &errs)
	cfg.SettleDelay = getDuration("SETTLE_DELAY", 300*time.Millisecond, &errs)
	cfg.QueueSize = getInt("QUEUE_SIZE", 256, &errs)
	cfg.QueueMaxAttempts = getInt("QUEUE_MAX_ATTEMPTS", 3, &errs)
	cfg.TracingEnabled = getBool("TRACING_ENABLED", false, &errs)

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func getInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getBool(key string, fallback bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}
