// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/anchor/internal/api"
	"github.com/starford/anchor/internal/index"
	"github.com/starford/anchor/internal/launcher"
	"github.com/starford/anchor/internal/refstore"
	"github.com/starford/anchor/internal/sse"
	"github.com/starford/anchor/internal/storage"
	"github.com/starford/anchor/internal/window"
)

// changeThrottle collapses bursts of references_changed notifications.
const changeThrottle = 250 * time.Millisecond

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := NewLogger(app.logOutput, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_file", cfg.Storage.DataFile()),
		slog.Bool("index_enabled", cfg.Index.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	ctx, quit := context.WithCancel(ctx)
	defer quit()

	svc, err := newServices(cfg, logger, quit)
	if err != nil {
		return err
	}
	defer svc.close()

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           svc.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the search index in step with the collection.
	if svc.db != nil {
		events := svc.broker.Subscribe()
		g.Go(func() error {
			defer svc.broker.Unsubscribe(events)
			return index.Follow(gCtx, svc.db, svc.refs, events, logger, nil)
		})
	}

	// Pick up edits made to the data file by other programs.
	if cfg.Storage.Watch {
		g.Go(func() error {
			if err := storage.Watch(gCtx, svc.store, logger, svc.broker.PublishChanged); err != nil {
				logger.Warn("watcher unavailable", slog.String("error", err.Error()))
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

	// Handle shutdown signals and the tray menu's quit item.
	g.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)

		select {
		case sig := <-sigs:
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
		quit()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// NewLogger returns the JSON logger used by every command.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// services holds the wired components behind the HTTP handler.
type services struct {
	store   *storage.File
	broker  *sse.Broker
	refs    *refstore.Service
	db      *index.DB
	bridge  *window.Bridge
	coord   *window.Coordinator
	handler http.Handler
}

func newServices(cfg *Config, logger *slog.Logger, quit func()) (*services, error) {
	store, err := storage.NewFile(cfg.Storage.DataFile(), logger)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	s := &services{store: store}
	s.broker = sse.NewBroker(changeThrottle)
	s.refs = refstore.NewService(store,
		refstore.WithNotifier(s.broker),
		refstore.WithLogger(logger))

	deps := api.Deps{
		References: s.refs,
		Launcher:   launcher.New(cfg.LauncherConfig(), launcher.WithLogger(logger)),
		Events:     s.broker,
		Logger:     logger,
	}

	if cfg.Index.Enabled {
		db, err := index.Open(cfg.Index.Path)
		if err != nil {
			logger.Warn("search index unavailable", slog.String("error", err.Error()))
		} else {
			s.db = db
			deps.Search = db
		}
	}

	s.bridge = window.NewBridge(s.broker)
	s.coord = window.NewCoordinator(s.bridge, cfg.WindowConfig(),
		window.WithLogger(logger),
		window.WithQuit(quit))
	deps.Windows = s.coord
	deps.Geometry = s.bridge

	s.handler = newRouter(api.NewRouter(deps, cfg.Auth.AuthEnabled(), cfg.Auth.Token))
	return s, nil
}

func (s *services) close() {
	s.coord.Close()
	s.broker.Close()
	if s.db != nil {
		_ = s.db.Close()
	}
}

func newRouter(apiRouter http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", healthOK)
	r.Get("/health/ready", healthOK)

	r.Mount("/api", apiRouter)
	return r
}

func healthOK(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
