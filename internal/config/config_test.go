package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"JWT_SECRET":            "secret",
		"APP_ENV":               "",
		"DATABASE_URL":          "",
		"REDIS_URL":             "",
		"NONCE_SECRET":          "",
		"TAXES_AFTER_DISCOUNTS": "",
		"CART_TTL":              "",
		"PORT":                  "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "secret", cfg.NonceSecret)
	require.False(t, cfg.TaxesAfterDiscounts)
	require.Equal(t, 168*time.Hour, cfg.CartTTL)
	require.True(t, cfg.RunMigrations)
}

func TestLoadRequiresSecret(t *testing.T) {
	_, err := LoadForTests(map[string]string{"JWT_SECRET": ""})
	require.Error(t, err)
}

func TestLoadProductionRequiresBackends(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"JWT_SECRET":   "secret",
		"APP_ENV":      "production",
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379/0",
	})
	require.Error(t, err)
}

func TestLoadPolicyFlagAndFallbacks(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"JWT_SECRET":            "secret",
		"TAXES_AFTER_DISCOUNTS": "yes",
		"PRICING_TAX_RATE_BPS":  "1100",
		"NONCE_TTL":             "not-a-duration",
		"PORT":                  ":9090",
	})
	require.NoError(t, err)
	require.True(t, cfg.TaxesAfterDiscounts)
	require.Equal(t, 1100, cfg.TaxRateBPS)
	require.Equal(t, 24*time.Hour, cfg.NonceTTL)
	require.Equal(t, ":9090", cfg.HTTPAddr())
}
