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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/muvel/internal/api"
	"github.com/starford/muvel/internal/index"
	"github.com/starford/muvel/internal/mcpserver"
	"github.com/starford/muvel/internal/models"
	"github.com/starford/muvel/internal/repository"
	"github.com/starford/muvel/internal/sse"
	"github.com/starford/muvel/internal/watch"
)

// setup applies opts, installs the structured JSON logger and makes sure
// the data directory exists.
func setup(opts []Option) (*application, *slog.Logger, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	return app, logger, nil
}

// newRepositories opens the indexes under the data directory.
func newRepositories(cfg *Config, logger *slog.Logger, opts ...repository.Option) *repository.Repositories {
	opts = append([]repository.Option{
		repository.WithLogger(logger),
		repository.WithNovelsDir(cfg.Storage.NovelsDir),
		repository.WithCloudDir(cfg.Storage.CloudDir),
	}, opts...)
	return repository.New(
		index.OpenProjects(cfg.Storage.DataDir),
		index.OpenItems(cfg.Storage.DataDir, logger),
		opts...,
	)
}

// Run starts the HTTP API, the SSE broker and the file watcher, and
// blocks until a shutdown signal arrives or ctx is cancelled.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_dir", cfg.Storage.DataDir),
		slog.String("novels_dir", cfg.Storage.NovelsDir),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// The watcher is created after the repositories it syncs through; the
	// notifier only touches it once it exists.
	var watcher *watch.Watcher
	var repos *repository.Repositories
	notify := func(e repository.ChangeEvent) {
		if e.Type != repository.EventNovelSynced {
			broker.PublishChange(e.Type, e.NovelID, e.ID)
		}
		if watcher == nil {
			return
		}
		switch e.Type {
		case repository.EventNovelCreated, repository.EventNovelUpdated:
			root, err := repos.Novels.Root(ctx, e.NovelID)
			if err != nil {
				return
			}
			if err := watcher.Add(e.NovelID, root); err != nil {
				logger.Warn("watcher: add failed", slog.String("novel_id", e.NovelID), slog.String("error", err.Error()))
			}
		case repository.EventNovelDeleted:
			watcher.Remove(e.NovelID)
		}
	}
	repos = newRepositories(cfg, logger, repository.WithNotifier(notify))

	if cfg.Watch.Enabled {
		w, err := watch.New(repos.Novels.Sync, broker.PublishSynced, cfg.Watch.Debounce, logger)
		if err != nil {
			return fmt.Errorf("init watcher: %w", err)
		}
		watchIndexed(ctx, repos, w, logger)
		watcher = w
	}

	apiRouter := api.NewRouter(repos, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, logger)

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

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gCtx)
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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
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

// watchIndexed adds every valid indexed project to w. Listing prunes
// entries whose folder is gone.
func watchIndexed(ctx context.Context, repos *repository.Repositories, w *watch.Watcher, logger *slog.Logger) {
	list, err := repos.Novels.ListNovels(ctx)
	if err != nil {
		logger.Warn("watcher: list projects failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range list {
		if e.Path == nil {
			continue
		}
		if err := w.Add(e.ID, *e.Path); err != nil {
			logger.Warn("watcher: add failed", slog.String("novel_id", e.ID), slog.String("error", err.Error()))
		}
	}
}

// ServeMCP runs the MCP tool server on stdin/stdout until stdin closes.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	repos := newRepositories(app.config, logger)
	logger.Info("Starting MCP server", slog.String("data_dir", app.config.Storage.DataDir))
	return mcpserver.New(repos, logger).ServeStdio()
}

// OpenFile resolves a document file the way the desktop shell does when a
// file is opened from outside the app, and records it in the indexes.
func OpenFile(ctx context.Context, path string, opts ...Option) (*models.OpenedItem, error) {
	app, logger, err := setup(opts)
	if err != nil {
		return nil, err
	}
	return newRepositories(app.config, logger).Files.Open(ctx, path)
}
