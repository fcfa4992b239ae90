// cmd/search-service/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"provision-search/internal/api"
	"provision-search/internal/catalog"
	"provision-search/internal/common/config"
	"provision-search/internal/common/database"
	"provision-search/internal/common/logger"
	"provision-search/internal/common/observability"
	"provision-search/internal/engine"
	"provision-search/internal/engine/compiler"
	"provision-search/internal/models"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting search service...",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init orders database with retry ---
	var ordersDB *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		ordersDB, err = database.NewPostgres(cfg.Sources.Orders)
		if err != nil {
			return err
		}
		return ordersDB.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Orders database connection")

	if err != nil {
		zapLog.Fatal("orders database failed after retries", zap.Error(err))
	}
	defer ordersDB.Close()
	zapLog.Info("Orders database connected successfully")

	// --- Init inventory database with retry ---
	var inventoryDB *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		inventoryDB, err = database.NewPostgres(cfg.Sources.Inventory)
		if err != nil {
			return err
		}
		return inventoryDB.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Inventory database connection")

	if err != nil {
		zapLog.Fatal("inventory database failed after retries", zap.Error(err))
	}
	defer inventoryDB.Close()
	zapLog.Info("Inventory database connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Cache)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		// The catalog degrades to direct lookups without a cache.
		zapLog.Warn("redis unavailable, catalog caching disabled", zap.Error(err))
		redis = nil
	} else {
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Build the engine and catalog ---
	backends := map[models.DataSource]*engine.Backend{
		models.SourceOrders:    {Spec: compiler.NewOrdersSpec(), Exec: ordersDB},
		models.SourceInventory: {Spec: compiler.NewInventorySpec(), Exec: inventoryDB},
	}
	searchEngine := engine.New(
		cfg.App.Name,
		cfg.App.Version,
		backends,
		config.GetDuration(cfg.Engine.QueryTimeout),
		log,
	)

	catalogService := catalog.New(
		ordersDB,
		inventoryDB,
		redis,
		time.Duration(cfg.Catalog.CacheTTL)*time.Second,
		log,
	)

	// --- HTTP API ---
	server := api.NewServer(
		cfg.HTTP.Address,
		config.GetDuration(cfg.HTTP.ReadTimeout),
		config.GetDuration(cfg.HTTP.WriteTimeout),
		searchEngine,
		catalogService,
		obs,
		log,
	)
	if err := server.Start(); err != nil {
		zapLog.Fatal("http server failed to start", zap.Error(err))
	}
	zapLog.Info("Search service ready", zap.String("addr", cfg.HTTP.Address))

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	if err := server.Stop(); err != nil {
		zapLog.Error("Error stopping http server", zap.Error(err))
	}

	zapLog.Info("Search service stopped gracefully")
}
