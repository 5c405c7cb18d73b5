// Package main is the entrypoint for the ContentIQ API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sandeepmv/contentiq/internal/analysis"
	"github.com/sandeepmv/contentiq/internal/analyzer"
	"github.com/sandeepmv/contentiq/internal/api"
	"github.com/sandeepmv/contentiq/internal/api/handler"
	mw "github.com/sandeepmv/contentiq/internal/api/middleware"
	"github.com/sandeepmv/contentiq/internal/api/response"
	"github.com/sandeepmv/contentiq/internal/cache"
	"github.com/sandeepmv/contentiq/internal/config"
	"github.com/sandeepmv/contentiq/internal/storage"
	"github.com/sandeepmv/contentiq/internal/taskstore"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "backend", cfg.TaskStore.Backend, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Create task store
	store, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// 3. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 4. Build analyzer registry
	registry := analyzer.NewRegistry(cfg.Analyzers)
	for kind, caps := range registry.Capabilities() {
		slog.Info("analyzer registered", "kind", kind, "available", caps.Available)
	}

	// 5. Optional upload archival
	var files storage.FileStore
	if cfg.Storage.ArchivalEnabled() {
		minioStore, err := storage.NewMinioStore(ctx, cfg.Storage.Endpoint, cfg.Storage.Region,
			cfg.Storage.Bucket, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.UseSSL)
		if err != nil {
			return fmt.Errorf("create object storage: %w", err)
		}
		files = minioStore
		slog.Info("upload archival enabled", "bucket", cfg.Storage.Bucket)
	}

	// 6. Create orchestrator
	svc := analysis.NewService(registry, store, redisCache, files, cfg.Analysis.Timeout)

	// 7. Build router with dependencies
	auth := mw.NewAuth(cfg.Auth.KeyHashes)
	rateLimit := mw.NewRateLimit(redisCache, cfg.Auth.RequestsPerMin)

	deps := api.Dependencies{
		Auth:      auth,
		RateLimit: rateLimit,

		HealthHandler:       healthHandler(store, redisCache),
		AnalyzeTextHandler:  handler.NewAnalyzeTextHandler(svc),
		AnalyzeFileHandler:  handler.NewAnalyzeFileHandler(svc, cfg.Server.MaxUploadBytes),
		TaskStatusHandler:   handler.NewTaskStatusHandler(svc),
		CapabilitiesHandler: handler.NewCapabilitiesHandler(svc),
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// buildStore creates the configured task store backend. The returned cleanup
// is always safe to call.
func buildStore(ctx context.Context, cfg *config.Config) (taskstore.Store, func(), error) {
	switch cfg.TaskStore.Backend {
	case "postgres":
		pool, err := taskstore.Connect(ctx, cfg.TaskStore.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if err := taskstore.RunMigrations(cfg.TaskStore.Database.URL); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database connected, migrations applied")
		return taskstore.NewPostgresStore(pool), pool.Close, nil
	default:
		slog.Info("using in-memory task store")
		return taskstore.NewMemoryStore(), func() {}, nil
	}
}

// healthHandler checks task store and cache connectivity.
func healthHandler(s taskstore.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"taskstore": "ok",
			"cache":     "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["taskstore"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["taskstore"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
