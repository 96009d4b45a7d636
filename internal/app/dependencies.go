// Package app assembles the HTTP surface from the shared dependencies.
package app

import (
	"errors"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/toko-volume-discounts/internal/auth"
	"github.com/noah-isme/toko-volume-discounts/internal/cart"
	"github.com/noah-isme/toko-volume-discounts/internal/config"
	"github.com/noah-isme/toko-volume-discounts/internal/content"
	"github.com/noah-isme/toko-volume-discounts/internal/health"
	"github.com/noah-isme/toko-volume-discounts/internal/nonce"
	"github.com/noah-isme/toko-volume-discounts/internal/ratelimit"
)

// Dependencies enumerates the services shared by the storefront and admin routes.
type Dependencies struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Content content.Store
	Carts   cart.Store
	// Redis is optional; without it idempotency keys and the storefront
	// limiter are disabled and the admin limiter keeps its counters in memory.
	Redis        *redis.Client
	Validator    *validator.Validate
	LimiterStore limiter.Store
	Registry     *prometheus.Registry
	Auth         *auth.Service
	Nonces       *nonce.Issuer
	Tracing      bool
}

// NewDependencies fills in the services derivable from cfg around the given stores.
func NewDependencies(cfg *config.Config, logger zerolog.Logger, store content.Store, carts cart.Store, rdb *redis.Client) (Dependencies, error) {
	if cfg == nil {
		return Dependencies{}, errors.New("app: config is required")
	}
	authSvc, err := auth.NewService(auth.Config{
		Secret:    cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
		Audience:  cfg.JWTAudience,
		ClockSkew: 30 * time.Second,
	})
	if err != nil {
		return Dependencies{}, err
	}
	nonces, err := nonce.NewIssuer(cfg.NonceSecret, cfg.NonceTTL)
	if err != nil {
		return Dependencies{}, err
	}
	limiterStore, err := ratelimit.NewStore(rdb, "admin-limit")
	if err != nil {
		return Dependencies{}, err
	}
	return Dependencies{
		Config:       cfg,
		Logger:       logger,
		Content:      store,
		Carts:        carts,
		Redis:        rdb,
		Validator:    validator.New(),
		LimiterStore: limiterStore,
		Registry:     prometheus.NewRegistry(),
		Auth:         authSvc,
		Nonces:       nonces,
		Tracing:      cfg.TracingEnabled,
	}, nil
}

func (d Dependencies) healthChecks() map[string]health.Check {
	checks := map[string]health.Check{}
	if d.Content != nil {
		checks["content"] = d.Content.Ping
	}
	if d.Carts != nil {
		checks["sessions"] = d.Carts.Ping
	}
	return checks
}
