package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cropadvisor/backend/config"
	httpDelivery "github.com/cropadvisor/backend/internal/delivery/http"
	"github.com/cropadvisor/backend/internal/domain"
	"github.com/cropadvisor/backend/internal/infrastructure/auth"
	"github.com/cropadvisor/backend/internal/infrastructure/cache"
	"github.com/cropadvisor/backend/internal/infrastructure/logging"
	"github.com/cropadvisor/backend/internal/infrastructure/metrics"
	"github.com/cropadvisor/backend/internal/infrastructure/persistence/memory"
	"github.com/cropadvisor/backend/internal/infrastructure/persistence/sqlstore"
	"github.com/cropadvisor/backend/internal/usecase"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting Crop Advisor backend",
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure dependencies
	store, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close store", zap.Error(err))
		}
	}()

	memoryCache := cache.NewMemoryCache(cfg.Cache.SweepInterval)
	defer func() { _ = memoryCache.Close() }()
	logger.Info("Cache configured", zap.Duration("ttl", cfg.Cache.TTL))

	tokens, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}
	collectors := metrics.New()
	collectors.RegisterCache(memoryCache)

	// Initialize usecase layer
	measurementService := usecase.NewMeasurementService(
		store,
		memoryCache,
		logger.Named("measurements"),
		usecase.MeasurementServiceConfig{CacheTTL: cfg.Cache.TTL},
	)
	advisoryService := usecase.NewAdvisoryService(measurementService, store, collectors, logger.Named("advisory"))
	authService := usecase.NewAuthService(store, tokens, auth.NewBcryptHasher(), logger.Named("auth"))

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(authService, measurementService, advisoryService)
	router := httpDelivery.SetupRouter(cfg, handler, logger, collectors)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// openStore returns the datastore selected by the store driver.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (domain.Store, error) {
	if cfg.Driver == "memory" {
		logger.Warn("Using in-memory store; data is lost on restart")
		return memory.NewStore(), nil
	}
	store, err := sqlstore.Open(ctx, cfg.Driver, cfg.DSN, logger.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
	}
	return store, nil
}
