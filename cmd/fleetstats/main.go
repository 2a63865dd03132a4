package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleetlab/fleet-analytics/internal/analytics"
	corecfg "github.com/fleetlab/fleet-analytics/internal/core/config"
	"github.com/fleetlab/fleet-analytics/internal/core/storage/postgres"
	"github.com/fleetlab/fleet-analytics/internal/migrations"
	"github.com/fleetlab/fleet-analytics/internal/rollup"
	"github.com/fleetlab/fleet-analytics/internal/server"
	"github.com/fleetlab/fleet-analytics/internal/summary"
)

func main() {
	configPath := flag.String("config", "fleetstats.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "config", cfg)

	tickInterval, err := time.ParseDuration(cfg.Batch.EffectiveTickInterval())
	if err != nil {
		slog.Error("Invalid batch tick interval", "value", cfg.Batch.EffectiveTickInterval(), "error", err)
		os.Exit(1)
	}

	// 2. Initialize Storage (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	vehicleStatsStore := postgres.NewVehicleStatsAdapter(dbAdapter.DB())
	rollupStore := postgres.NewRollupAdapter(dbAdapter.DB())

	// 3. Initialize Analytics (ingestion + vehicle statistics)
	analyticsSvc := analytics.NewService(dbAdapter, vehicleStatsStore, cfg.Server.MaxBodySizeMB)

	// 4. Initialize Rollups (batch calculation + orchestration)
	calculator := rollup.NewCalculator(dbAdapter, rollupStore)
	orchestrator := rollup.NewOrchestrator(dbAdapter, calculator, analyticsSvc, cfg.Batch.WorkerCount)

	// 4.1. Load batch schedules
	scheduleRepo, err := rollup.NewFileSystemScheduleRepository(cfg.Batch.ScheduleDir)
	if err != nil {
		slog.Error("Failed to load batch schedules", "error", err, "dir", cfg.Batch.ScheduleDir)
		os.Exit(1)
	}
	schedules := scheduleRepo.GetSchedules()
	if len(schedules) == 0 && cfg.Batch.Enabled && cfg.Batch.RequireSchedules {
		slog.Error("No batch schedules found but batch.require_schedules is set", "dir", cfg.Batch.ScheduleDir)
		os.Exit(1)
	}

	scheduler := rollup.NewScheduler(tickInterval, schedules, orchestrator)
	slog.Info("Batch scheduler initialized",
		"interval", tickInterval,
		"enabled", cfg.Batch.Enabled,
		"schedules", len(schedules),
		"worker_count", cfg.Batch.WorkerCount,
	)

	// 5. Initialize Fleet Summary (query API)
	summarySvc := summary.NewService(dbAdapter, rollupStore)

	// 6. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter.DB(), cfg.Server.Mode)
	analyticsSvc.RegisterRoutes(srv.Engine)
	summarySvc.RegisterRoutes(srv.Engine)
	orchestrator.RegisterRoutes(srv.Engine)

	// 7. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Batch.Enabled {
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				slog.Error("Scheduler stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Batch scheduler disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
