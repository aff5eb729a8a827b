package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/event-wizard/internal/api"
	"github.com/terra-clan/event-wizard/internal/catalog"
	"github.com/terra-clan/event-wizard/internal/cleanup"
	"github.com/terra-clan/event-wizard/internal/config"
	"github.com/terra-clan/event-wizard/internal/creation"
	"github.com/terra-clan/event-wizard/internal/notify"
	"github.com/terra-clan/event-wizard/internal/session"
	"github.com/terra-clan/event-wizard/internal/storage"
	"github.com/terra-clan/event-wizard/internal/wizard"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting event-wizard",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"creator", cfg.Wizard.Creator,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Load catalog
	loader := catalog.NewLoader()
	if err := loader.LoadFromDir(cfg.Catalog.Dir); err != nil {
		slog.Error("failed to load catalog", "dir", cfg.Catalog.Dir, "error", err)
		os.Exit(1)
	}

	// Initialize live message delivery
	var notifier notify.Notifier
	if cfg.Redis.Enabled {
		redisNotifier, err := notify.NewRedisNotifier(initCtx, notify.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			slog.Error("failed to create redis notifier", "error", err)
			os.Exit(1)
		}
		notifier = redisNotifier
		slog.Info("live messages delivered over redis", "address", cfg.Redis.Address)
	} else {
		notifier = notify.NewMemoryNotifier()
	}

	// Initialize creator registry
	registry := creation.NewRegistry()
	registry.Register(creation.NewSimulatedCreator())

	var repo *storage.PostgresRepository
	if cfg.Wizard.Creator == config.CreatorPostgres {
		repo, err = storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
			DSN:           cfg.Database.DSN,
			MaxOpenConns:  int32(cfg.Database.MaxOpenConns),
			MaxIdleConns:  int32(cfg.Database.MaxIdleConns),
			MigrationsDir: cfg.Database.MigrationsDir,
		})
		if err != nil {
			slog.Error("failed to create database repository", "error", err)
			os.Exit(1)
		}
		slog.Info("database connected successfully")
		registry.Register(creation.NewStoreCreator(repo))
	}

	creator := registry.Get(cfg.Wizard.Creator)
	if creator == nil {
		slog.Error("unknown creator", "creator", cfg.Wizard.Creator, "available", registry.List())
		os.Exit(1)
	}

	// Initialize session manager
	manager := session.NewMemoryManager(wizard.NewEditors(loader), creator, notifier, session.Options{
		SubmitDelay: cfg.Wizard.SubmitDelay,
	})

	// Initialize cleanup worker
	cleaner := cleanup.NewCleaner(manager, cfg.Wizard.IdleTTL, cfg.Cleanup.Interval)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start cleanup worker
	cleaner.Start(ctx)

	// Setup HTTP server
	var events storage.Repository
	if repo != nil {
		events = repo
	}
	server := api.NewServer(cfg.Server, manager, loader, events)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()
	<-cleaner.Done()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Close manager (waits for pending submissions)
	if err := manager.Close(); err != nil {
		slog.Error("manager close error", "error", err)
	}

	if err := notifier.Close(); err != nil {
		slog.Error("notifier close error", "error", err)
	}

	if repo != nil {
		if err := repo.Close(); err != nil {
			slog.Error("repository close error", "error", err)
		}
	}

	slog.Info("event-wizard stopped")
}
