package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"balwatch/internal/config"
	"balwatch/internal/handlers"
	"balwatch/internal/middleware"
	"balwatch/internal/repositories"
	"balwatch/internal/scheduler"
	"balwatch/internal/services"
)

func main() {
	// Missing .env is fine; the environment may be set by the runtime.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	configRepo := repositories.NewConfigRepository(cfg.Storage.ConfigPath)

	doc, err := configRepo.Get()
	if err != nil {
		logger.Error("failed to read config document", "error", err)
		os.Exit(1)
	}

	// The config document may relocate the state and cache files;
	// overrides are resolved once at startup.
	statePath := cfg.Storage.StatePath
	if doc.StatePath != "" {
		statePath = doc.StatePath
	}
	cachePath := cfg.Storage.CachePath
	if doc.CachePath != "" {
		cachePath = doc.CachePath
	}

	stateRepo := repositories.NewStateRepository(statePath)
	cacheRepo := repositories.NewCacheRepository(cachePath, cfg.Storage.CacheTTL)

	metrics := services.NewPrometheusMetrics()
	breaker := services.NewCircuitBreaker(services.DefaultBreakerConfig())

	upstream := services.NewUpstreamClient(
		configRepo,
		cacheRepo,
		breaker,
		metrics,
		&http.Client{Timeout: cfg.HTTP.UpstreamTimeout},
		logger.With("component", "upstream"),
	)
	notifier := services.NewNotifier(
		configRepo,
		metrics,
		&http.Client{Timeout: cfg.HTTP.NotifyTimeout},
		logger.With("component", "notifier"),
	)
	monitor := services.NewBalanceMonitor(
		configRepo,
		stateRepo,
		upstream,
		notifier,
		metrics,
		logger.With("component", "monitor"),
	)

	sched := scheduler.New(monitor, configRepo, logger.With("component", "scheduler"))
	if err := sched.Start(doc.Schedule); err != nil {
		logger.Error("failed to start scheduler", "schedule", doc.Schedule, "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewEchoValidator()
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(middleware.RequestID())
	e.Use(middleware.PanicRecovery())
	e.Use(middleware.RateLimiter(cfg.Server.RateLimitPerSecond, cfg.Server.RateLimitBurst))

	configHandler := handlers.NewConfigHandler(configRepo)
	runHandler := handlers.NewRunHandler(monitor)
	healthHandler := handlers.NewHealthCheckHandler(configRepo, monitor)

	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.GET("/config", configHandler.GetConfig)
	api.PUT("/config", configHandler.UpdateConfig)
	api.POST("/config/access", configHandler.SetAccess)
	api.GET("/config/access/preview", configHandler.PreviewAccess)
	api.POST("/config/targets", configHandler.SetTargets)
	api.POST("/run", runHandler.TriggerRun)

	go func() {
		logger.Info("control-plane listening", "addr", cfg.ListenAddr())
		if err := e.Start(cfg.ListenAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	// Flush the most recent balance writes before exit.
	if err := stateRepo.Save(); err != nil {
		logger.Error("failed to flush balance state", "error", err)
	}
	logger.Info("shutdown complete")
}
