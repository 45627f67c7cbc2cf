package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jobquest/jobquest/internal/metrics"
	"github.com/jobquest/jobquest/internal/middleware"
)

// RouterConfig wires handlers and middleware into the HTTP surface.
type RouterConfig struct {
	Logger     *slog.Logger
	Production bool
	// Strict guards every mutating route with the session cookie. When
	// false only the per-user listings are guarded.
	Strict         bool
	AllowedOrigins []string
	MaxBodySize    int64

	Verifier  middleware.Verifier
	Limiter   middleware.IPLimiter
	RateLimit middleware.RateLimitConfig
	Metrics   metrics.Recorder
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler

	Root         *Handler
	Health       *HealthHandler
	Sessions     *SessionHandler
	Jobs         *JobHandler
	Applications *ApplicationHandler
	Stories      *StoryHandler
	Premium      *PremiumHandler
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Root == nil {
		cfg.Root = New()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Production))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))
	}
	r.Use(middleware.Instrument(cfg.Metrics))

	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Healthz)
		r.Get("/readyz", cfg.Health.Readyz)
	}
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	requireAuth := middleware.Auth(middleware.AuthConfig{
		Logger:   cfg.Logger,
		Verifier: cfg.Verifier,
		Metrics:  cfg.Metrics,
	})
	rateCfg := cfg.RateLimit
	rateCfg.Logger = cfg.Logger
	rateCfg.Limiter = cfg.Limiter
	limitWrites := middleware.RateLimitIP(rateCfg)

	// guardWrite applies the session guard to mutating routes in strict mode.
	guardWrite := func(r chi.Router) chi.Router {
		if cfg.Strict {
			return r.With(requireAuth)
		}
		return r
	}

	// Public reads
	r.Get("/", cfg.Root.Welcome)
	r.Get("/openapi.yaml", cfg.Root.OpenAPI)
	r.Get("/jobs", cfg.Jobs.List)
	r.Get("/jobs/{id}", cfg.Jobs.Get)
	r.Get("/stories", cfg.Stories.List)

	// Per-user listings are guarded in every mode.
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireOwner("email"))
		r.Get("/my-jobs", cfg.Jobs.ListMine)
		r.Get("/applications", cfg.Applications.ListMine)
	})

	if cfg.Strict {
		r.With(requireAuth, middleware.RequireOwner("email")).Get("/premium", cfg.Premium.Get)
	} else {
		r.Get("/premium", cfg.Premium.Get)
	}

	r.Group(func(r chi.Router) {
		r.Use(limitWrites)

		r.Post("/jwt", cfg.Sessions.Issue)
		r.Post("/logout", cfg.Sessions.Logout)

		w := guardWrite(r)
		w.Post("/", cfg.Jobs.Create)
		w.Patch("/{id}", cfg.Jobs.Upsert)
		w.Delete("/{id}", cfg.Jobs.Delete)
		w.Post("/application", cfg.Applications.Apply)
		w.Post("/create-payment-intent", cfg.Premium.CreatePaymentIntent)
		w.Post("/create-premium", cfg.Premium.Create)
	})

	// 404 and 405 handlers
	r.NotFound(cfg.Root.NotFound)
	r.MethodNotAllowed(cfg.Root.MethodNotAllowed)

	return r
}
