package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gymslot/internal/advisor"
	"gymslot/internal/config"
	"gymslot/internal/db"
	"gymslot/internal/events"
	"gymslot/internal/logger"
	"gymslot/internal/product"
	"gymslot/internal/recommend"
	"gymslot/internal/reservation"
	"gymslot/internal/scheduler"
	"gymslot/internal/server"
	"gymslot/internal/slotlock"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger.Init()
	logger.Info("Starting gymslot")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.InitWithLevel(cfg.LogLevel)

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatalf("Failed to connect to redis: %v", err)
	}

	clock := clockwork.NewRealClock()

	dispatcher := events.NewDispatcher(rdb, events.Options{
		Queue:      cfg.EventQueue,
		RetryDelay: cfg.EventRetryDelay,
	}, events.DefaultHandlers()...)

	products := product.NewRepository(database)
	reservations := reservation.NewService(
		reservation.NewRepository(database),
		products,
		newLocker(cfg, rdb),
		dispatcher,
		clock,
		reservation.Options{
			CancellationWindow: cfg.CancellationWindow,
			CompletionGrace:    cfg.CompletionGrace,
		},
	)

	generator := advisor.New(advisor.Config{
		BaseURL:     cfg.AIBaseURL,
		APIKey:      cfg.AIAPIKey,
		Model:       cfg.AIModel,
		MaxTokens:   cfg.AIMaxTokens,
		Temperature: cfg.AITemperature,
		Timeout:     cfg.AITimeout,
	})

	sweep, err := scheduler.New(reservations, cfg.CompletionSweepInterval)
	if err != nil {
		logger.Fatalf("Failed to create scheduler: %v", err)
	}

	srv := server.New(cfg, server.Deps{
		Reservations:    reservations,
		Products:        product.NewService(products, clock),
		Recommendations: recommend.NewAnalyzer(reservations, generator, clock, cfg.AITimeout),
		Health:          healthCheck(database, rdb),
	})

	go dispatcher.Start(ctx)

	if err := sweep.Start(); err != nil {
		logger.Fatalf("Failed to start completion sweep: %v", err)
	}

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	if err := sweep.Shutdown(); err != nil {
		logger.Errorf("Error stopping completion sweep: %v", err)
	}
	cancel()

	logger.Info("Server stopped")
}

func newLocker(cfg *config.Config, rdb *redis.Client) slotlock.Locker {
	if cfg.SlotLockBackend == "redis" {
		logger.Info("Using redis slot lock", "ttl", cfg.SlotLockTTL.String())
		return slotlock.NewRedis(rdb, cfg.SlotLockTTL)
	}
	return slotlock.NewLocal()
}

func healthCheck(database *sqlx.DB, rdb *redis.Client) server.HealthCheck {
	return func(ctx context.Context) error {
		dbErr := db.Check(ctx, database)
		var redisErr error
		if err := rdb.Ping(ctx).Err(); err != nil {
			redisErr = fmt.Errorf("redis unavailable: %w", err)
		}
		return errors.Join(dbErr, redisErr)
	}
}
