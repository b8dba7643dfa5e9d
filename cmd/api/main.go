// Package main is the entrypoint for the EnvBox API server.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/envbox/envbox/internal/auth"
	"github.com/envbox/envbox/internal/cache"
	"github.com/envbox/envbox/internal/config"
	"github.com/envbox/envbox/internal/gormstore"
	"github.com/envbox/envbox/internal/handler"
	"github.com/envbox/envbox/internal/metrics"
	"github.com/envbox/envbox/internal/middleware"
	"github.com/envbox/envbox/internal/repository"
	"github.com/envbox/envbox/internal/server"
	"github.com/envbox/envbox/internal/service"
	"github.com/envbox/envbox/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Initialize storage behind the driver switch
	st, err := newStore(ctx, cfg)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("driver", cfg.StoreDriver),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("connected to database", "driver", cfg.StoreDriver)

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL, cache.Options{
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
		PoolTimeout:  cfg.RedisPoolTimeout,
	})
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

	// Initialize services
	recorder := metrics.NewPrometheus()
	keyService := service.NewKeyService(st, recorder)
	solutionService := service.NewSolutionService(st, recorder)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(st, cacheClient)
	keyHandler := handler.NewKeyHandler(keyService, logger)
	solutionHandler := handler.NewSolutionHandler(solutionService, logger)

	var authHandler *handler.AuthHandler
	if cfg.AuthMode == config.AuthModeLocal {
		issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
		authHandler = handler.NewAuthHandler(service.NewAccountService(st, issuer), logger)
	}

	verifier := newVerifier(cfg, st)

	r := setupRouter(routerDeps{
		cfg:             cfg,
		logger:          logger,
		cache:           cacheClient,
		recorder:        recorder,
		verifier:        verifier,
		healthHandler:   healthHandler,
		keyHandler:      keyHandler,
		solutionHandler: solutionHandler,
		authHandler:     authHandler,
	})

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
		"auth_mode", cfg.AuthMode,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newStore selects the storage implementation by configured driver.
func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.StoreDriver == config.StoreDriverGorm {
		return gormstore.New(ctx, cfg.DatabaseURL)
	}
	return repository.New(ctx, cfg.DatabaseURL)
}

// newVerifier selects the token verifier by configured auth mode.
func newVerifier(cfg *config.Config, st store.Store) auth.Verifier {
	if cfg.AuthMode == config.AuthModeRemote {
		return auth.NewRemoteVerifier(cfg.AuthVerifyURL, cfg.AuthVerifyTimeout)
	}
	return auth.NewLocalVerifier(cfg.JWTSecret, st)
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

// routerDeps bundles everything the router needs.
type routerDeps struct {
	cfg             *config.Config
	logger          *slog.Logger
	cache           *cache.Cache
	recorder        metrics.Recorder
	verifier        auth.Verifier
	healthHandler   *handler.HealthHandler
	keyHandler      *handler.KeyHandler
	solutionHandler *handler.SolutionHandler
	authHandler     *handler.AuthHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      deps.cfg.IsDevelopment(),
		MaxRequestBodySize: deps.cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = deps.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Unauthenticated endpoints
	r.Get("/healthz", deps.healthHandler.Healthz)
	r.Get("/readyz", deps.healthHandler.Readyz)
	r.Method("GET", "/metrics", promhttp.Handler())

	// Account routes exist only in local auth mode; remote mode delegates
	// identity entirely.
	if deps.authHandler != nil {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.authHandler.Register)
			r.Post("/login", deps.authHandler.Login)
		})
	}

	authCfg := middleware.AuthConfig{
		Logger:   deps.logger,
		Verifier: deps.verifier,
		Cache:    deps.cache,
		Metrics:  deps.recorder,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  deps.logger,
		Cache:   deps.cache,
		Enabled: deps.cfg.RateLimitAPIEnabled,
		RPM:     deps.cfg.RateLimitAPIRPM,
		Burst:   deps.cfg.RateLimitAPIBurst,
	}

	// API routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RateLimit(rateLimitCfg))

		r.Route("/keys", func(r chi.Router) {
			r.Get("/", deps.keyHandler.List)
			r.Post("/", deps.keyHandler.Create)
			r.Post("/{id}/revoke", deps.keyHandler.Revoke)
		})

		r.Route("/solutions", func(r chi.Router) {
			r.Get("/", deps.solutionHandler.List)
			r.Post("/", deps.solutionHandler.Create)
			r.Get("/{id}/env", deps.solutionHandler.Env)
		})
	})

	// 404 and 405 handlers
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

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
