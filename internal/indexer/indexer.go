// Package indexer keeps the link/tag index in step with the note store.
//
// Mutations reach it through the On* hooks, which the note service awaits
// after every successful store write. ReindexAll and Sync rebuild the index
// from the store for data written around those hooks (seed scripts,
// migrations, a second process).
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/checksum"
	"github.com/starford/scribe/internal/index"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/parser"
	"github.com/starford/scribe/internal/storage"
)

// Notes is the part of storage.NoteStore the indexer reads.
type Notes interface {
	Get(ctx context.Context, id string) (*models.Note, error)
	GetMany(ctx context.Context, ids []string) ([]models.Note, error)
	List(ctx context.Context, opts storage.ListOptions) ([]models.Note, error)
}

// Indexer owns the index for one note store. Create one per process and
// share it; it is safe for concurrent use.
type Indexer struct {
	notes   Notes
	idx     index.Store
	logger  *slog.Logger
	workers int
	locks   *keyedMutex
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Indexer) {
		ix.logger = l
	}
}

// WithWorkers bounds the number of notes processed in parallel by
// ReindexAll and Sync.
func WithWorkers(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// New returns an Indexer over notes and idx.
func New(notes Notes, idx index.Store, opts ...Option) *Indexer {
	ix := &Indexer{
		notes:   notes,
		idx:     idx,
		logger:  slog.Default(),
		workers: runtime.NumCPU(),
		locks:   newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// OnNoteCreated indexes a freshly created note and resolves dangling links
// to its title.
func (ix *Indexer) OnNoteCreated(ctx context.Context, n *models.Note) error {
	if _, err := ix.refresh(ctx, n.ID, true); err != nil {
		return fmt.Errorf("indexer: created %s: %w", n.ID, err)
	}
	return nil
}

// OnNoteUpdated re-indexes n. previous is the revision before the update and
// may be nil; a title change re-points links to both titles.
func (ix *Indexer) OnNoteUpdated(ctx context.Context, n, previous *models.Note) error {
	var stale []string
	if previous != nil && previous.Title != n.Title {
		stale = append(stale, previous.Title)
	}
	if _, err := ix.refresh(ctx, n.ID, false, stale...); err != nil {
		return fmt.Errorf("indexer: updated %s: %w", n.ID, err)
	}
	return nil
}

// OnNoteDeleted drops the note's rows. Links pointing at its title dangle or
// move to another live note with the same title.
func (ix *Indexer) OnNoteDeleted(ctx context.Context, n *models.Note) error {
	if _, err := ix.refresh(ctx, n.ID, true, n.Title); err != nil {
		return fmt.Errorf("indexer: deleted %s: %w", n.ID, err)
	}
	return nil
}

// OnNoteRestored indexes a note brought back from the trash.
func (ix *Indexer) OnNoteRestored(ctx context.Context, n *models.Note) error {
	if _, err := ix.refresh(ctx, n.ID, true); err != nil {
		return fmt.Errorf("indexer: restored %s: %w", n.ID, err)
	}
	return nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeIndexed
	outcomeRemoved
)

// refresh makes the index rows of note id match what the store holds now.
// The note is read under its lock, so the last committed revision wins no
// matter which hook arrives last. staleTitles are titles the note may have
// carried before; links to them are re-resolved.
func (ix *Indexer) refresh(ctx context.Context, id string, force bool, staleTitles ...string) (outcome, error) {
	unlock := ix.locks.Lock(id)
	defer unlock()

	st, indexed, err := ix.idx.State(ctx, id)
	if err != nil {
		return outcomeSkipped, err
	}

	n, err := ix.notes.Get(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		titles := staleTitles
		if indexed {
			titles = append(titles, st.Title)
		}
		if err := ix.idx.RemoveNote(ctx, id); err != nil {
			return outcomeSkipped, err
		}
		if err := ix.idx.ReconcileTitles(ctx, titles...); err != nil {
			return outcomeSkipped, err
		}
		if !indexed {
			return outcomeSkipped, nil
		}
		return outcomeRemoved, nil
	}
	if err != nil {
		return outcomeSkipped, fmt.Errorf("load note: %w", err)
	}

	var titles []string
	switch {
	case !indexed:
		titles = append(titles, n.Title)
	case st.Title != n.Title:
		titles = append(titles, st.Title, n.Title)
	}
	for _, t := range staleTitles {
		if t != n.Title {
			titles = append(titles, t, n.Title)
		}
	}

	sum := checksum.Note(n.Title, n.Content)
	if !force && indexed && st.Checksum == sum && len(titles) == 0 {
		return outcomeSkipped, nil
	}

	res := parser.Parse(n.Content)
	err = ix.idx.IndexNote(ctx, index.Entry{
		NoteID:   n.ID,
		Title:    n.Title,
		Checksum: sum,
		Links:    res.Links,
		Tags:     res.Tags,
	})
	if err != nil {
		return outcomeSkipped, err
	}
	if err := ix.idx.ReconcileTitles(ctx, titles...); err != nil {
		return outcomeIndexed, err
	}
	ix.logger.Debug("indexer: indexed note",
		slog.String("note_id", n.ID),
		slog.Int("links", len(res.Links)),
		slog.Int("tags", len(res.Tags)))
	return outcomeIndexed, nil
}
