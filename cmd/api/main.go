// Package main is the entrypoint for the Verimail API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/verimail/verimail/internal/cache"
	"github.com/verimail/verimail/internal/config"
	"github.com/verimail/verimail/internal/handler"
	"github.com/verimail/verimail/internal/metrics"
	"github.com/verimail/verimail/internal/middleware"
	"github.com/verimail/verimail/internal/quota"
	"github.com/verimail/verimail/internal/repository"
	"github.com/verimail/verimail/internal/server"
	"github.com/verimail/verimail/internal/service"
	"github.com/verimail/verimail/internal/verifier"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Load the disposable-domain set once; it is shared read-only from
	// here on.
	disposable, err := verifier.LoadDisposableDomains(cfg.DisposableDomainFile)
	if err != nil {
		logger.Error("failed to load disposable domains",
			slog.String("error", err.Error()),
			slog.String("path", cfg.DisposableDomainFile),
		)
		os.Exit(1)
	}
	logger.Info("loaded disposable domains", "count", len(disposable))

	// Initialize services
	metricsRecorder := metrics.NewInMemory()

	scorer := verifier.New(verifier.Options{
		DNSTimeout:        cfg.DNSTimeout,
		MXCacheTTL:        cfg.MXCacheTTL,
		DisposableDomains: disposable,
		RoleAddresses:     cfg.GetRoleAddresses(),
		Metrics:           metricsRecorder,
	})
	quotaEnforcer := quota.New(repo)
	validationService := service.NewValidationService(scorer, repo, metricsRecorder, logger)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	validateHandler := handler.NewValidateHandler(validationService, logger)
	apiKeyHandler := handler.NewAPIKeyHandler(logger, repo, cacheClient)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)

	// Setup router
	r := setupRouter(routerDeps{
		base:     h,
		health:   healthHandler,
		validate: validateHandler,
		apiKeys:  apiKeyHandler,
		metrics:  metricsHandler,
		repo:     repo,
		cache:    cacheClient,
		quota:    quotaEnforcer,
		recorder: metricsRecorder,
		cfg:      cfg,
		logger:   logger,
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"rate_limit_enabled", cfg.RateLimitEnabled,
		"rate_limit_fail_open", cfg.RateLimitFailOpen,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
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
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routerDeps bundles everything setupRouter needs.
type routerDeps struct {
	base     *handler.Handler
	health   *handler.HealthHandler
	validate *handler.ValidateHandler
	apiKeys  *handler.APIKeyHandler
	metrics  *handler.MetricsHandler
	repo     *repository.Repository
	cache    *cache.Cache
	quota    *quota.Enforcer
	recorder metrics.Recorder
	cfg      *config.Config
	logger   *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
// The middleware order on /validate is the admission pipeline: auth, then
// rate limit, then quota; the first failing stage terminates the request.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))

	// Health endpoints (no auth required)
	r.Get("/health", deps.health.Health)
	r.Get("/readyz", deps.health.Readyz)

	// Root info endpoint
	r.Get("/", deps.base.Hello)

	authCfg := middleware.AuthConfig{
		Logger:  deps.logger,
		Keys:    deps.repo,
		Cache:   deps.cache,
		Metrics: deps.recorder,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:   deps.logger,
		Limiter:  deps.cache,
		Metrics:  deps.recorder,
		Enabled:  deps.cfg.RateLimitEnabled,
		FailOpen: deps.cfg.RateLimitFailOpen,
		Timeout:  deps.cfg.RateLimitTimeout,
	}

	quotaCfg := middleware.QuotaConfig{
		Logger:  deps.logger,
		Quota:   deps.quota,
		Metrics: deps.recorder,
	}

	// Validation endpoint (the gateway pipeline)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RateLimit(rateLimitCfg))
		r.Use(middleware.Quota(quotaCfg))

		r.Get("/validate", deps.validate.Validate)
	})

	// Admin surface (capability token, no session state)
	if deps.cfg.AdminToken != "" {
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(deps.cfg.AdminToken, deps.logger))

			r.Get("/metrics", deps.metrics.Metrics)
			r.Route("/api-keys", func(r chi.Router) {
				r.Get("/", deps.apiKeys.ListAPIKeys)
				r.Post("/", deps.apiKeys.CreateAPIKey)
				r.Patch("/{key_id}", deps.apiKeys.UpdateAPIKey)
				r.Get("/{key_id}/usage", deps.apiKeys.GetUsage)
			})
		})
	} else {
		deps.logger.Warn("ADMIN_TOKEN not set; admin routes disabled")
	}

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

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
