package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nmbrhq/commerce-engine/internal/config"
	"github.com/nmbrhq/commerce-engine/internal/database"
	"github.com/nmbrhq/commerce-engine/internal/geo"
	"github.com/nmbrhq/commerce-engine/internal/httpserver"
	"github.com/nmbrhq/commerce-engine/internal/metrics"
	"github.com/nmbrhq/commerce-engine/internal/revenue"
	"github.com/nmbrhq/commerce-engine/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg)
	defer logger.Sync()

	logger.Info("starting commerce engine",
		zap.String("env", cfg.Server.Env),
		zap.String("addr", cfg.Server.Addr),
	)

	ctx := context.Background()

	deps := &httpserver.Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Try to connect to PostgreSQL; orders fall back to memory.
	if db, err := database.NewPostgresDB(ctx, cfg.Database, logger); err != nil {
		logger.Warn("PostgreSQL not available, using in-memory order storage", zap.Error(err))
	} else {
		defer db.Close()
		orders := storage.NewPostgresOrderStore(db.Pool)
		if err := orders.Migrate(ctx); err != nil {
			logger.Fatal("failed to migrate orders schema", zap.Error(err))
		}
		deps.Orders = orders
	}

	// Try to connect to Redis; revenue tracking falls back to memory.
	if rdb, err := database.NewRedisDB(ctx, cfg.Redis, logger); err != nil {
		logger.Warn("Redis not available, using in-memory revenue tracking", zap.Error(err))
	} else {
		defer rdb.Close()
		deps.Tracker = revenue.NewRedisTracker(rdb.Client)
	}

	// ClickHouse is opt-in; without it click events stay in memory.
	if cfg.ClickHouse.Enabled {
		events, err := storage.NewClickHouseEventStore(ctx,
			cfg.ClickHouse.Addr,
			cfg.ClickHouse.Database,
			cfg.ClickHouse.Username,
			cfg.ClickHouse.Password,
		)
		if err != nil {
			logger.Warn("ClickHouse not available, keeping click events in memory", zap.Error(err))
		} else {
			defer events.Close()
			deps.Events = events
			logger.Info("connected to ClickHouse", zap.String("addr", cfg.ClickHouse.Addr))
		}
	}

	// GeoIP enrichment of click events.
	if cfg.Geo.Enabled {
		provider, err := geo.NewMaxMindProvider(cfg.Geo.DatabasePath)
		if err != nil {
			logger.Warn("GeoIP database not available, country enrichment disabled", zap.Error(err))
		} else {
			defer provider.Close()
			deps.Geo = provider
		}
	}

	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.NewMetrics("nmbr_commerce")
	}

	handler := httpserver.NewServer(deps)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func setupLogger(cfg *config.Config) *zap.Logger {
	var zapCfg zap.Config

	if cfg.IsDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	switch cfg.Log.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}

	return logger
}
