package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/toko-volume-discounts/internal/auth"
	"github.com/noah-isme/toko-volume-discounts/internal/cart"
	"github.com/noah-isme/toko-volume-discounts/internal/common"
	"github.com/noah-isme/toko-volume-discounts/internal/editor"
	"github.com/noah-isme/toko-volume-discounts/internal/health"
	"github.com/noah-isme/toko-volume-discounts/internal/obs"
	"github.com/noah-isme/toko-volume-discounts/internal/ratelimit"
	"github.com/noah-isme/toko-volume-discounts/internal/security"
	"github.com/noah-isme/toko-volume-discounts/internal/storefront"
	"github.com/noah-isme/toko-volume-discounts/internal/threshold"
	"github.com/noah-isme/toko-volume-discounts/internal/volume"
)

const serviceName = "toko-volume-discounts"

// NewRouter builds the HTTP handler serving the storefront, admin and ops routes.
func NewRouter(d Dependencies) (http.Handler, error) {
	if d.Config == nil || d.Content == nil || d.Carts == nil || d.Auth == nil || d.Nonces == nil {
		return nil, errors.New("app: incomplete dependencies")
	}
	cfg := d.Config

	var (
		httpMetrics   *obs.HTTPMetrics
		domainMetrics *obs.DomainMetrics
	)
	if cfg.MetricsEnabled && d.Registry != nil {
		d.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBuckets), d.Registry)
		domainMetrics = obs.NewDomainMetrics(cfg.MetricsNamespace, d.Registry)
	} else {
		domainMetrics = &obs.DomainMetrics{}
	}

	evaluator := volume.NewEvaluator(
		threshold.NewRepository(d.Content),
		volume.Config{TaxBPS: cfg.TaxRateBPS, TaxesAfterDiscounts: cfg.TaxesAfterDiscounts},
		obs.Component(d.Logger, "volume"),
		domainMetrics.Evaluations,
	)
	cartHandler := &storefront.Handler{
		Svc:        &cart.Service{Store: d.Carts, TTL: cfg.CartTTL},
		Evaluator:  evaluator,
		Validate:   d.Validator,
		Log:        obs.Component(d.Logger, "storefront"),
		TaxBps:     cfg.TaxRateBPS,
		Currency:   cfg.CurrencyCode,
		MinorUnits: cfg.CurrencyMinorUnits,
		Mutations:  domainMetrics.CartMutations,
	}
	editorHandler := &editor.Handler{
		Editor: editor.New(d.Content, d.Nonces, obs.Component(d.Logger, "editor"), domainMetrics.EditorSaves),
		Log:    obs.Component(d.Logger, "editor"),
	}

	adminLimit, err := ratelimit.FixedWindow(d.LimiterStore, cfg.AdminRateLimit, ratelimit.ByActor)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if d.Tracing {
		r.Use(obs.Tracing(serviceName))
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.IsProduction()}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)

	if httpMetrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}
	healthHandler := health.Handler{Checks: d.healthChecks(), Timeout: 500 * time.Millisecond}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	authMiddleware := auth.Middleware{Service: d.Auth}

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/carts", func(c chi.Router) {
			c.Use(authMiddleware.Authenticate)
			var writes []func(http.Handler) http.Handler
			if d.Redis != nil {
				storefrontLimit := ratelimit.Handler{
					Limiter: ratelimit.Limiter{Client: d.Redis, Prefix: "rl:carts:"},
					Config:  ratelimit.Config{Key: ratelimit.ByClientIP, Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
					OnError: func(err error) { d.Logger.Warn().Err(err).Msg("storefront rate limiter unavailable") },
				}
				c.Use(storefrontLimit.Middleware)
				writes = append(writes, common.Idem{R: d.Redis, TTL: cfg.IdempotencyTTL, Prefix: "idem:carts:"}.Middleware)
			}
			cartHandler.Routes(c, writes...)
		})

		v.Route("/admin/volume-discounts", func(a chi.Router) {
			a.Use(authMiddleware.RequireAuth)
			a.Use(auth.RequireCapability(auth.CapEditShopDiscounts))
			a.Use(adminLimit)
			a.Use(security.Headers{Enable: true, NoStore: true}.Middleware)
			editorHandler.Routes(a)
		})
	})

	return r, nil
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
