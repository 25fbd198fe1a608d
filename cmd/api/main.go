package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/notiteams/activity-api/internal/api/router"
	appconfig "github.com/notiteams/activity-api/internal/config"
	"github.com/notiteams/activity-api/internal/db"
	"github.com/notiteams/activity-api/internal/http/handlers"
	"github.com/notiteams/activity-api/internal/ledger"
	"github.com/notiteams/activity-api/internal/observability/metrics"
	"github.com/notiteams/activity-api/internal/registry"
	"github.com/notiteams/activity-api/internal/relay"
	"github.com/notiteams/activity-api/internal/teams"
	"github.com/notiteams/activity-api/pkg/logging"
)

func main() {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting activity-api",
		"env", cfg.Env,
		"version", cfg.Version,
		"port", cfg.Port,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.NewPool(ctx, cfg)
	cancel()
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	teamsClient, err := teams.New(teams.Config{
		ServiceURL:     cfg.TeamsServiceURL,
		AppID:          cfg.AppID,
		AppPassword:    cfg.AppPassword,
		AppCertificate: cfg.AppCertificate,
		AppPrivateKey:  cfg.AppPrivateKey,
		AppType:        cfg.AppType,
		TenantID:       cfg.AppTenantID,
		Timeout:        cfg.TeamsTimeout,
		Logger:         logger,
	})
	if err != nil {
		logger.Error("failed to create teams client", "error", err)
		os.Exit(1)
	}

	var resolver relay.Registry = registry.NewStore(pool)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer func() { _ = redisClient.Close() }()
		resolver = registry.NewCachedStore(registry.NewStore(pool), redisClient, cfg.TokenCacheTTL, logger)
		logger.Info("token binding cache enabled", "addr", cfg.RedisAddr)
	}

	relayMetrics := metrics.NewRelayMetrics(prometheus.DefaultRegisterer)
	relayService := relay.NewService(resolver, ledger.NewStore(pool), teamsClient, relayMetrics, logger)

	routerCfg := &router.Config{
		Logger:          logger,
		MessagesHandler: handlers.NewMessagesHandler(relayService, logger),
		HealthHandler:   handlers.NewHealthHandler(pool, logger),
		MetricsHandler:  promhttp.Handler(),
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
