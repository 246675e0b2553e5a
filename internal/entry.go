// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/carvtrainer/carvtrainer/internal/api"
	"github.com/carvtrainer/carvtrainer/internal/ingest"
	"github.com/carvtrainer/carvtrainer/internal/llm"
	"github.com/carvtrainer/carvtrainer/internal/mcpserver"
	"github.com/carvtrainer/carvtrainer/internal/progress"
	"github.com/carvtrainer/carvtrainer/internal/sse"
	"github.com/carvtrainer/carvtrainer/internal/storage"
	"github.com/carvtrainer/carvtrainer/internal/trainer"
)

// readyHandler reports readiness, including whether a vision API key is
// present in the environment.
func readyHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	body := map[string]any{
		"status":             "ok",
		"api_key_configured": os.Getenv("GEMINI_API_KEY") != "",
	}
	_ = json.NewEncoder(w).Encode(body)
}

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

	// In MCP mode stdout carries the protocol stream, so logs go to stderr.
	logOut := os.Stdout
	if app.mcp {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_path", cfg.Library.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure library and inbox directories exist.
	if err := os.MkdirAll(cfg.Library.Path, 0o755); err != nil {
		return fmt.Errorf("create library dir: %w", err)
	}
	if cfg.Inbox.Path != "" {
		if err := os.MkdirAll(cfg.Inbox.Path, 0o755); err != nil {
			return fmt.Errorf("create inbox dir: %w", err)
		}
	}

	// Initialize screenshot storage.
	store, err := storage.NewFS(cfg.Library.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize SQLite progress log.
	db, err := progress.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init progress log: %w", err)
	}
	defer db.Close()

	if app.mcp {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(db, store).ServeStdio()
	}

	// Reconcile the screenshot library with the progress log.
	if err := ingest.Sync(db, store, logger); err != nil {
		logger.Warn("initial library sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)

	// Vision model client. The API key comes from the environment only.
	vision, err := llm.New(ctx, os.Getenv("GEMINI_API_KEY"), cfg.LLM.Model, cfg.LLM.MaxOutputTokens)
	if err != nil {
		return fmt.Errorf("init vision client: %w", err)
	}

	// Build trainer service and API router.
	svc := trainer.NewService(vision, db, store, broker, logger)
	apiRouter := api.NewRouter(svc, api.RouterConfig{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		CORSOrigins: cfg.CORS.Origins,
		MaxBytes:    cfg.Upload.MaxBytes,
		MaxFiles:    cfg.Upload.MaxFiles,
	}, broker)

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
	r.Get("/health/ready", readyHandler)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the inbox for dropped screenshots.
	if cfg.Inbox.Path != "" {
		g.Go(func() error {
			err := ingest.Watch(gCtx, db, store, cfg.Inbox.Path, logger, func(path string) {
				broker.PublishScreenshotAdded(path)
			})
			if err != nil {
				logger.Error("inbox watcher stopped", slog.String("error", err.Error()))
			}
			return nil
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
		broker.Close()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
