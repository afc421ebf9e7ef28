package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sangihetrip/internal/apiclient"
	"sangihetrip/internal/app"
	"sangihetrip/internal/config"
	"sangihetrip/internal/handler"
	"sangihetrip/internal/logging"
	internalRedis "sangihetrip/internal/redis"
	"sangihetrip/internal/service"
	"sangihetrip/internal/session"
	"sangihetrip/internal/tripbuilder"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, cfg.Environment)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize New Relic FIRST so Redis and backend calls are instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
			defer nrApp.Shutdown(5 * time.Second)
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	redisClient, err := app.NewRedisClient(connectCtx, cfg.Redis, nrApp)
	cancel()
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

	server := wireServer(cfg, redisClient, nrApp, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting gateway",
			zap.String("port", cfg.Server.Port),
			zap.String("backend", cfg.Backend.BaseURL),
			zap.String("environment", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gateway")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("gateway exited")
	return nil
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(cfg *config.Config, redisClient *redis.Client, nrApp *newrelic.Application, logger *zap.Logger) *http.Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client := app.NewBackendClient(cfg.Backend, nrApp, apiclient.NewMetrics("sangihetrip", registry), logger)

	notifications := service.NewNotificationService(logger.Named("notify"), registry)

	broker := session.NewBroker()
	authLog := logger.Named("auth")
	broker.Subscribe(func(e session.Event) {
		authLog.Info("session changed", zap.String("kind", string(e.Kind)), zap.String("subject", e.Subject))
		if e.Kind == session.EventExpired {
			_ = notifications.NotifySessionExpired(context.Background(), e.Subject)
		}
	})

	// Initialize Redis stores.
	draftStore := internalRedis.NewDraftStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	responseCache := internalRedis.NewResponseCache(redisClient)

	// Initialize services.
	plannerService := service.NewPlannerService(
		draftStore,
		lockStore,
		tripbuilder.NewSubmitter(client),
		cfg.Planner,
		logger.Named("planner"),
	).WithNotifier(notifications)

	router := app.NewRouter(app.RouterDeps{
		Config:          cfg,
		AuthHandler:     handler.NewAuthHandler(client),
		CatalogHandler:  handler.NewCatalogHandler(client),
		PlannerHandler:  handler.NewPlannerHandler(plannerService),
		AdminHandler:    handler.NewAdminHandler(client),
		FrontendHandler: handler.NewFrontendHandler(cfg.Server.StaticDir),
		Broker:          broker,
		ResponseCache:   responseCache,
		RedisClient:     redisClient,
		Registry:        registry,
		NewRelicApp:     nrApp,
		Logger:          logger,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
