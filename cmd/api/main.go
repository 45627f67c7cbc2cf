// Package main is the entrypoint for the jobQuest API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/jobquest/jobquest/internal/auth"
	"github.com/jobquest/jobquest/internal/cache"
	"github.com/jobquest/jobquest/internal/config"
	"github.com/jobquest/jobquest/internal/handler"
	"github.com/jobquest/jobquest/internal/metrics"
	"github.com/jobquest/jobquest/internal/middleware"
	"github.com/jobquest/jobquest/internal/payment"
	"github.com/jobquest/jobquest/internal/repository"
	"github.com/jobquest/jobquest/internal/server"
	"github.com/jobquest/jobquest/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Apply migrations
	if cfg.MigrateOnStart {
		if err := repository.Migrate(ctx, cfg.DatabaseURL); err != nil {
			logger.Error("failed to apply migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			return errStartup
		}
		logger.Info("migrations applied")
	}

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return errStartup
	}
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return errStartup
	}
	logger.Info("connected to Redis")

	codec, err := auth.NewCodec(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		repo.Close()
		_ = cacheClient.Close()
		return err
	}

	// Initialize services
	strict := cfg.StrictAuthz()
	recorder := metrics.NewPrometheus()
	provider := payment.NewStripeProvider(cfg.StripeSecretKey, cfg.PaymentRPS, cfg.PaymentBurst, nil, logger)

	jobService := service.NewJobService(repo, recorder, strict)
	applicationService := service.NewApplicationService(repo, recorder, strict)
	storyService := service.NewStoryService(repo)
	premiumService := service.NewPremiumService(repo, provider, recorder, strict)
	reconciler := service.NewReconciler(repo, cacheClient, recorder, logger.With("component", "reconciler"))

	// Setup router
	router := handler.NewRouter(handler.RouterConfig{
		Logger:         logger,
		Production:     cfg.IsProduction(),
		Strict:         strict,
		AllowedOrigins: cfg.GetCORSAllowedOrigins(),
		MaxBodySize:    cfg.MaxRequestBodySize,
		Verifier:       codec,
		Limiter:        cacheClient,
		RateLimit: middleware.RateLimitConfig{
			Enabled: cfg.RateLimitEnabled,
			RPS:     cfg.RateLimitRPS,
			Burst:   cfg.RateLimitBurst,
		},
		Metrics:        recorder,
		MetricsHandler: recorder.Handler(),
		Health:         handler.NewHealthHandler(repo, cacheClient, logger),
		Sessions:       handler.NewSessionHandler(codec, cfg.IsProduction(), logger),
		Jobs:           handler.NewJobHandler(jobService, logger),
		Applications:   handler.NewApplicationHandler(applicationService, logger),
		Stories:        handler.NewStoryHandler(storyService, logger),
		Premium:        handler.NewPremiumHandler(premiumService, logger),
	})

	// Create server; components shut down in reverse registration order.
	srv := server.New(
		router,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	if cfg.ReconcileSchedule != "" {
		if err := reconciler.Start(cfg.ReconcileSchedule); err != nil {
			repo.Close()
			_ = cacheClient.Close()
			return err
		}
		srv.OnShutdown("reconciler", reconciler.Stop)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"authz_mode", cfg.AuthzMode,
	)

	return srv.Run(ctx)
}

// errStartup marks a failure that has already been logged with redacted detail.
var errStartup = errors.New("startup failed")

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL drops the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError replaces any secret URL in err's message with its redacted form.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
