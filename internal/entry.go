// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vefr/internal/api"
	"github.com/starford/vefr/internal/engine"
	"github.com/starford/vefr/internal/journal"
	"github.com/starford/vefr/internal/mcpserver"
	"github.com/starford/vefr/internal/sse"
	"github.com/starford/vefr/internal/vault"
	"github.com/starford/vefr/internal/watch"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. In MCP mode stdout carries the
	// protocol stream, so logs go to stderr.
	logOut := os.Stdout
	if app.mcpMode {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("write_path", cfg.Vault.WritePath),
		slog.String("link_paths", strings.Join(cfg.Vault.ReadOnLinkPaths, ",")),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure the write root exists. Link roots must already exist since
	// they are read-only.
	if err := os.MkdirAll(cfg.Vault.WritePath, 0o755); err != nil {
		return fmt.Errorf("create write root: %w", err)
	}

	// Initialize vault roots.
	roots, err := vault.NewRoots(cfg.Vault.WritePath, cfg.Vault.ReadOnLinkPaths)
	if err != nil {
		return fmt.Errorf("init vault roots: %w", err)
	}

	// Initialize the SQLite edge journal.
	db, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("init journal: %w", err)
	}
	defer db.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Graph engine, publishing deltas through the broker.
	eng := engine.New(roots, db, logger, broker.PublishDelta)
	if err := eng.LoadInitial(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	if app.mcpMode {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(eng, db).ServeStdio()
	}

	// Build API service and router.
	svc := api.NewService(eng, db)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the write root and every link root. Link-root events only
	// re-ingest files that are already visible in the graph.
	g.Go(func() error {
		return watch.New(eng, roots.Write, true, logger).Run(gCtx)
	})
	for _, lr := range roots.ReadOnLink {
		g.Go(func() error {
			return watch.New(eng, lr, false, logger).Run(gCtx)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
