package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	RunMigrations      bool
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	NonceSecret        string
	NonceTTL           time.Duration
	CORSAllowedOrigins []string
	CartTTL            time.Duration
	TaxRateBPS         int
	// TaxesAfterDiscounts mirrors the storefront's tax ordering flag. When set,
	// the cart tax is added to the base the volume discount is taken from.
	TaxesAfterDiscounts bool
	CurrencyCode        string
	CurrencyMinorUnits  int32
	RateLimitWindow     time.Duration
	RateLimitMax        int
	AdminRateLimit      string
	IdempotencyTTL      time.Duration
	MaxBodyBytes        int64
	LogFormat           string
	LogLevel            string
	MetricsNamespace    string
	MetricsEnabled      bool
	MetricsBuckets      string
	TracingEnabled      bool
	TracingEndpoint     string
	TracingSampling     float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:              valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:         strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:            strings.TrimSpace(k.String("REDIS_URL")),
		RunMigrations:       parseBoolDefault(k.String("RUN_MIGRATIONS"), true),
		JWTSecret:           k.String("JWT_SECRET"),
		JWTIssuer:           valueOrDefault(k.String("JWT_ISSUER"), "toko-volume-discounts"),
		JWTAudience:         valueOrDefault(k.String("JWT_AUDIENCE"), "toko-admin"),
		NonceSecret:         k.String("NONCE_SECRET"),
		NonceTTL:            parseDuration(k.String("NONCE_TTL"), "24h"),
		CORSAllowedOrigins:  splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CartTTL:             parseDuration(k.String("CART_TTL"), "168h"),
		TaxRateBPS:          parseInt(k.String("PRICING_TAX_RATE_BPS"), 0),
		TaxesAfterDiscounts: parseBool(k.String("TAXES_AFTER_DISCOUNTS")),
		CurrencyCode:        valueOrDefault(k.String("CURRENCY_CODE"), "IDR"),
		CurrencyMinorUnits:  int32(parseInt(k.String("CURRENCY_MINOR_UNITS"), 0)),
		RateLimitWindow:     parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:        parseInt(k.String("RATE_LIMIT_MAX"), 120),
		AdminRateLimit:      valueOrDefault(k.String("ADMIN_RATE_LIMIT"), "60-M"),
		IdempotencyTTL:      parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		MaxBodyBytes:        int64(parseInt(k.String("MAX_BODY_BYTES"), 1<<20)),
		LogFormat:           valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:            valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace:    valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "toko"),
		MetricsEnabled:      parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
		MetricsBuckets:      strings.TrimSpace(k.String("OBS_METRICS_BUCKETS_MS")),
		TracingEnabled:      parseBoolDefault(k.String("OBS_ENABLE_TRACING"), false),
		TracingEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		TracingSampling:     parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
	}

	if strings.TrimSpace(cfg.NonceSecret) == "" {
		cfg.NonceSecret = cfg.JWTSecret
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.IsProduction() {
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required in production")
		}
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required in production")
		}
	}
	if cfg.CurrencyMinorUnits < 0 {
		cfg.CurrencyMinorUnits = 0
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	return parseBoolDefault(value, false)
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
