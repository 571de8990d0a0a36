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

	"maintenance_backend/internal/adapters"
	"maintenance_backend/internal/assets"
	"maintenance_backend/internal/bookings"
	"maintenance_backend/internal/events"
	"maintenance_backend/internal/history"
	"maintenance_backend/internal/holds"
	apphttp "maintenance_backend/internal/http"
	"maintenance_backend/internal/http/router"
	"maintenance_backend/internal/plans"
	planstore "maintenance_backend/internal/plans/store"
	"maintenance_backend/internal/rules"
	"maintenance_backend/internal/scheduler"
	"maintenance_backend/internal/users"
	"maintenance_backend/internal/workorders"
	"maintenance_backend/platform/config"
	"maintenance_backend/platform/db"
	"maintenance_backend/platform/logger"
	"maintenance_backend/platform/metrics"
	"maintenance_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, cfg.GetMigrationsDir())
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	rdb, err := planstore.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize plan store", "error", err)
		panic("failed to initialize plan store: " + err.Error())
	}
	defer func() { _ = rdb.Close() }()
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		return rdb.Ping(ctx).Err()
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	var rec *metrics.Recorder
	if cfg.IsMetricsEnabled() {
		rec = metrics.New()
	}

	sweepClient, closeSweepClient := initSweepClient(cfg, log)
	if closeSweepClient != nil {
		defer closeSweepClient()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	userProvider := users.NewContextProvider(users.NewRepository(pool), log)
	assetRepo := assets.New(pool)

	// History subscribes to audit events before anything can publish them
	historyModule := history.NewModule(pool, val, eventBus, log)

	workOrdersModule := workorders.NewModule(pool, val, userProvider, eventBus, rec, log)
	if sweepClient != nil {
		workOrdersModule.SetSweepEnqueuer(sweepClient)
	}

	// Anti-Corruption Layer: rules reach assets and work orders through adapters
	rulesModule := rules.NewModule(
		pool, val, cfg,
		adapters.NewRuleAssetResolver(assetRepo),
		adapters.NewRuleWorkOrderScheduler(workOrdersModule.Service),
		userProvider, eventBus, rec, log,
	)

	// Wire completion rescheduling: work orders → rules (breaks circular dependency)
	workOrdersModule.Service.SetRuleRescheduler(rulesModule.Service)

	bookingsModule := bookings.NewModule(pool, val, userProvider, eventBus)
	holdsModule := holds.NewModule(pool, val, adapters.NewHoldBookingClient(bookingsModule.Service), rec, log)
	plansModule := plans.NewModule(
		rdb, cfg.GetPlanSnapshotTTL(), val,
		adapters.NewPlanAssetLookup(assetRepo),
		holdsModule.Synchronizer,
		userProvider, log,
	)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			rulesModule,
			workOrdersModule,
			plansModule,
			bookingsModule,
			holdsModule,
			historyModule,
		},
	}
	if rec != nil {
		app.Metrics = rec.Handler()
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initSweepClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; activation sweeps run inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg, "api")
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
