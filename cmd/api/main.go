package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mahyar-jbr/dog-wash-booking/internal/http/router"
	"github.com/mahyar-jbr/dog-wash-booking/internal/platform/redisstore"
	"github.com/mahyar-jbr/dog-wash-booking/internal/platform/replication"
	"github.com/mahyar-jbr/dog-wash-booking/internal/repo"
	"github.com/mahyar-jbr/dog-wash-booking/internal/repo/memory"
	"github.com/mahyar-jbr/dog-wash-booking/internal/repo/postgres"
	"github.com/mahyar-jbr/dog-wash-booking/internal/service"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/auth"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/config"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/database"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/events"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/logger"
	mw "github.com/mahyar-jbr/dog-wash-booking/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Could not read .env", "error", err)
	}
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Booking store
	var (
		bookingRepo repo.BookingRepository
		idempotency mw.IdempotencyStore
	)
	if cfg.Database.URL != "" {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			os.Exit(1)
		}
		bookingRepo = postgres.NewBookingRepo(pool)

		keys := postgres.NewIdempotencyRepo(pool)
		if n, err := keys.CleanupExpired(ctx); err != nil {
			logger.Warn("Failed to purge idempotency keys", "error", err)
		} else if n > 0 {
			logger.Info("Purged expired idempotency keys", "count", n)
		}
		idempotency = keys
	} else {
		mem, err := memory.New(cfg.Store.SnapshotPath)
		if err != nil {
			logger.Error("Failed to open booking snapshot", "error", err, "path", cfg.Store.SnapshotPath)
			os.Exit(1)
		}
		bookingRepo = mem
		logger.Info("Using in-memory booking store", "snapshot", cfg.Store.SnapshotPath)
	}

	// Redis takes over idempotency and provides the worker lock
	var locker service.Locker
	if cfg.Redis.URL != "" {
		rdb, err := redisstore.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		idempotency = redisstore.NewIdempotencyStore(rdb)
		locker = redisstore.NewLocker(rdb)
	}

	// Event bus
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		publisher = bus
	}
	defer publisher.Close()

	// Remote replication
	var replicator service.Replicator
	var worker *service.ReplicationWorker
	if cfg.Replication.URL != "" {
		client := replication.NewClient(cfg.Replication.URL, cfg.Replication.Timeout)
		replicator = client
		worker = service.NewReplicationWorker(bookingRepo, client, locker, cfg.Replication.RetrySpec, cfg.Replication.BatchSize)
		if err := worker.Start(ctx); err != nil {
			logger.Error("Failed to start replication worker", "error", err)
			os.Exit(1)
		}
		defer worker.Stop()
	}

	bookingService := service.NewBookingService(bookingRepo, replicator, publisher, service.Options{
		Location:    cfg.Store.Location(),
		HorizonDays: cfg.Store.HorizonDays,
	})

	passphrase, err := auth.NewPassphrase(cfg.Auth.AdminPassphrase, cfg.Auth.AdminPassphraseHash)
	if err != nil {
		if !errors.Is(err, auth.ErrNoPassphrase) {
			logger.Error("Invalid admin passphrase hash", "error", err)
			os.Exit(1)
		}
		logger.Warn("Admin login disabled: no passphrase configured")
		passphrase = nil
	}

	srv := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: router.New(cfg, router.Deps{
			Bookings:    bookingService,
			Passphrase:  passphrase,
			Idempotency: idempotency,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down dog wash API...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting dog wash API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
