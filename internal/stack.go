package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/scribe/internal/backup"
	"github.com/starford/scribe/internal/index"
	"github.com/starford/scribe/internal/indexer"
	"github.com/starford/scribe/internal/storage"
)

// stack is the storage and indexing core shared by every command.
type stack struct {
	logger  *slog.Logger
	store   *storage.SQLite
	index   *index.DB
	indexer *indexer.Indexer
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// openStack opens the database and wires the index and indexer over it.
func (a *application) openStack() (*stack, error) {
	cfg := a.config
	logger := a.newLogger()

	store, err := storage.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	idx, err := index.New(store.Conn())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init index: %w", err)
	}
	ix := indexer.New(store, idx,
		indexer.WithLogger(logger),
		indexer.WithWorkers(cfg.Indexer.Workers),
	)
	return &stack{logger: logger, store: store, index: idx, indexer: ix}, nil
}

func (s *stack) Close() error {
	return s.store.Close()
}

// Reindex rebuilds the whole index and exits.
func Reindex(ctx context.Context, opts ...Option) (indexer.Report, error) {
	app, err := newApplication(opts)
	if err != nil {
		return indexer.Report{}, err
	}
	st, err := app.openStack()
	if err != nil {
		return indexer.Report{}, err
	}
	defer st.Close()

	return st.indexer.ReindexAll(ctx)
}

// Export writes a JSON backup of every note and the index to out.
func Export(ctx context.Context, out string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	st, err := app.openStack()
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := backup.Export(ctx, st.store, st.indexer)
	if err != nil {
		return err
	}
	if err := backup.WriteFile(out, snap); err != nil {
		return err
	}
	st.logger.Info("Backup written",
		slog.String("path", out),
		slog.Int("notes", len(snap.Notes)),
		slog.Int("links", len(snap.Links)))
	return nil
}

// Import loads a JSON backup from in and rebuilds the index.
func Import(ctx context.Context, in string, opts ...Option) (backup.ImportResult, error) {
	app, err := newApplication(opts)
	if err != nil {
		return backup.ImportResult{}, err
	}
	snap, err := backup.ReadFile(in)
	if err != nil {
		return backup.ImportResult{}, err
	}
	st, err := app.openStack()
	if err != nil {
		return backup.ImportResult{}, err
	}
	defer st.Close()

	return backup.Import(ctx, snap, st.store, st.indexer)
}
