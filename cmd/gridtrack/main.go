package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/powergrid-labs/gridtrack/internal/activities"
	"github.com/powergrid-labs/gridtrack/internal/broadcast"
	corecfg "github.com/powergrid-labs/gridtrack/internal/core/config"
	"github.com/powergrid-labs/gridtrack/internal/core/storage/localfs"
	"github.com/powergrid-labs/gridtrack/internal/core/storage/postgres"
	"github.com/powergrid-labs/gridtrack/internal/migrations"
	"github.com/powergrid-labs/gridtrack/internal/reporting"
	"github.com/powergrid-labs/gridtrack/internal/server"
)

func main() {
	configPath := flag.String("config", "gridtrack.yaml", "Path to configuration file")
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

	window, err := cfg.Validation.Window()
	if err != nil {
		slog.Error("Invalid acceptance window", "error", err)
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

	// 3. Initialize Attachment Storage
	blobs, err := localfs.NewBlobStore(cfg.Files.Dir)
	if err != nil {
		slog.Error("Failed to initialize attachment storage", "error", err)
		os.Exit(1)
	}

	// 4. Initialize Broadcast (live update fan-out)
	registry := broadcast.NewRegistry()
	scheduler := broadcast.NewScheduler(registry, broadcast.Options{
		Debounce:          cfg.Broadcast.DebounceDuration(),
		HeartbeatInterval: cfg.Broadcast.HeartbeatDuration(),
		BufferSize:        cfg.Broadcast.BufferSize,
		QueueSize:         cfg.Broadcast.QueueSize,
	})
	streamHandler := broadcast.NewHandler(scheduler, cfg.Broadcast.SubscriberTimeoutDuration())

	// 5. Initialize Query Presets
	presets, err := reporting.NewPresetRepository(cfg.Reporting.PresetDir)
	if err != nil {
		slog.Error("Failed to load query presets", "error", err)
		os.Exit(1)
	}
	slog.Info("Query presets loaded", "presets", presets.Names())

	// 6. Initialize Services
	writeSvc := activities.NewService(dbAdapter, dbAdapter, blobs, scheduler, window)
	readSvc := reporting.NewService(dbAdapter, presets, window)

	// 7. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter.DB(), registry, cfg.Server.Mode)
	writeSvc.RegisterRoutes(srv.Engine)
	readSvc.RegisterRoutes(srv.Engine)
	streamHandler.RegisterRoutes(srv.Engine)

	// 8. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := scheduler.Start(ctx); err != nil {
			slog.Error("Broadcast scheduler stopped with error", "error", err)
		}
	}()

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
