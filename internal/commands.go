package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/anchor/internal/index"
	"github.com/starford/anchor/internal/mcpserver"
	"github.com/starford/anchor/internal/models"
	"github.com/starford/anchor/internal/printer"
	"github.com/starford/anchor/internal/refstore"
	"github.com/starford/anchor/internal/storage"
)

// RunMCP serves the reference tools over stdio. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := NewLogger(app.logOutput, cfg.App.LogLevel)

	store, err := storage.NewFile(cfg.Storage.DataFile(), logger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	var db *index.DB
	var search mcpserver.Searcher
	if cfg.Index.Enabled {
		if db, err = index.Open(cfg.Index.Path); err != nil {
			logger.Warn("search index unavailable", slog.String("error", err.Error()))
		} else {
			defer db.Close()
			search = db
		}
	}

	var refs *refstore.Service
	svcOpts := []refstore.Option{refstore.WithLogger(logger)}
	if db != nil {
		svcOpts = append(svcOpts, refstore.WithNotifier(refstore.NotifierFunc(func() {
			resync(ctx, db, refs, logger)
		})))
	}
	refs = refstore.NewService(store, svcOpts...)
	if db != nil {
		resync(ctx, db, refs, logger)
	}

	logger.Info("MCP server starting", slog.String("data_file", store.Path()))
	return mcpserver.New(refs, search, logger).ServeStdio()
}

func resync(ctx context.Context, db *index.DB, refs *refstore.Service, logger *slog.Logger) {
	all, err := refs.List(ctx)
	if err != nil {
		logger.Warn("index: list failed", slog.String("error", err.Error()))
		return
	}
	if err := index.Sync(db, all, logger); err != nil {
		logger.Warn("index: sync failed", slog.String("error", err.Error()))
	}
}

// ListFilter narrows the list command's output.
type ListFilter struct {
	Query  string
	Status models.Status
	Tag    string
	JSON   bool
}

// PrintReferences writes the stored references to p in display order.
func PrintReferences(ctx context.Context, cfg *Config, f ListFilter, p *printer.Printer) error {
	store, err := storage.NewFile(cfg.Storage.DataFile(), NewLogger(os.Stderr, cfg.App.LogLevel))
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("status: unknown status %q", f.Status)
	}

	refs, err := refstore.NewService(store).List(ctx)
	if err != nil {
		return fmt.Errorf("list references: %w", err)
	}
	p.JSON = f.JSON
	return p.References(refstore.Filter(refs, f.Query, f.Status, f.Tag))
}
