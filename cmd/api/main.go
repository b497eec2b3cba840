package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swimshop/internal/config"
	"swimshop/internal/database"
	"swimshop/internal/events"
	"swimshop/internal/handler"
	"swimshop/internal/idempotency"
	"swimshop/internal/metrics"
	"swimshop/internal/repository"
	"swimshop/internal/router"
	"swimshop/internal/service"
	"swimshop/internal/tracing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting swimshop checkout server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to flush traces")
		}
	}()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Optional order columns are resolved once; restart after a schema change.
	caps, err := repository.PrepareSchema(ctx, pool, cfg.Database.AutoMigrate, logger)
	if err != nil {
		return fmt.Errorf("failed to prepare database schema: %w", err)
	}

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(pool, caps, logger)
	stockRepo := repository.NewStockRepository(logger)
	productRepo := repository.NewProductRepository(logger)

	guard := idempotency.NewNopGuard()
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		guard = idempotency.NewRedisGuard(client, cfg.Redis.IdempotencyTTL, logger)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("idempotency guard enabled")
	}

	publisher := events.NewNopPublisher()
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka, logger)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("order events enabled")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close event publisher")
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize services
	checkoutService, err := service.NewCheckoutService(service.CheckoutDeps{
		Orders:   orderRepo,
		Stock:    stockRepo,
		Products: productRepo,
		Guard:    guard,
		Events:   publisher,
		Metrics:  metrics.NewCheckoutMetrics(registry),
	}, cfg.Checkout, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize checkout service: %w", err)
	}

	// Initialize HTTP handlers
	orderHandler := handler.NewOrderHandler(checkoutService, logger)

	// Initialize router
	mux := router.New(orderHandler, registry, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
