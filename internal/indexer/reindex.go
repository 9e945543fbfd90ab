package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/scribe/internal/checksum"
	"github.com/starford/scribe/internal/index"
	"github.com/starford/scribe/internal/storage"
)

// Report summarizes a batch pass.
type Report struct {
	Total    int           `json:"total"`
	Indexed  int           `json:"indexed"`
	Skipped  int           `json:"skipped"`
	Removed  int           `json:"removed"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// ReindexAll re-parses every live note and rewrites its rows, then purges
// rows of notes that are gone or deleted. A failing note is logged, counted
// and keeps its previous rows; the batch carries on. Running it twice in a
// row leaves the index unchanged.
func (ix *Indexer) ReindexAll(ctx context.Context) (Report, error) {
	return ix.batch(ctx, "reindex", true)
}

// Sync is the incremental form of ReindexAll: only notes whose title or
// content changed since they were last indexed are processed.
func (ix *Indexer) Sync(ctx context.Context) (Report, error) {
	return ix.batch(ctx, "sync", false)
}

func (ix *Indexer) batch(ctx context.Context, name string, force bool) (Report, error) {
	start := time.Now()

	notes, err := ix.notes.List(ctx, storage.ListOptions{})
	if err != nil {
		return Report{}, fmt.Errorf("indexer: %s: list notes: %w", name, err)
	}
	known, err := ix.idx.States(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("indexer: %s: read state: %w", name, err)
	}
	stale, err := ix.indexedNoteIDs(ctx, known, force)
	if err != nil {
		return Report{}, fmt.Errorf("indexer: %s: %w", name, err)
	}

	var (
		mu  sync.Mutex
		rep = Report{Total: len(notes)}
	)
	record := func(id string, out outcome, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			rep.Failed++
			ix.logger.Warn("indexer: note failed",
				slog.String("pass", name),
				slog.String("note_id", id),
				slog.String("error", err.Error()))
			return
		}
		switch out {
		case outcomeIndexed:
			rep.Indexed++
		case outcomeRemoved:
			rep.Removed++
		default:
			rep.Skipped++
		}
	}

	var g errgroup.Group
	g.SetLimit(ix.workers)
	for _, n := range notes {
		delete(stale, n.ID)
		if !force {
			if st, ok := known[n.ID]; ok && st.Title == n.Title && st.Checksum == checksum.Note(n.Title, n.Content) {
				record(n.ID, outcomeSkipped, nil)
				continue
			}
		}
		g.Go(func() error {
			out, err := ix.refresh(ctx, n.ID, force)
			record(n.ID, out, err)
			return nil
		})
	}
	_ = g.Wait()

	for id := range stale {
		out, err := ix.refresh(ctx, id, true)
		if out == outcomeSkipped && err == nil {
			// Not indexed and not live: nothing was removed.
			continue
		}
		record(id, out, err)
	}

	rep.Duration = time.Since(start)
	ix.logger.Info("indexer: "+name+" complete",
		slog.Int("total", rep.Total),
		slog.Int("indexed", rep.Indexed),
		slog.Int("skipped", rep.Skipped),
		slog.Int("removed", rep.Removed),
		slog.Int("failed", rep.Failed),
		slog.Duration("duration", rep.Duration))
	return rep, ctx.Err()
}

// indexedNoteIDs returns every note id that owns rows in the index. The full
// pass also looks at the edge tables, catching rows written without state.
func (ix *Indexer) indexedNoteIDs(ctx context.Context, states map[string]index.State, withEdges bool) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(states))
	for id := range states {
		out[id] = struct{}{}
	}
	if !withEdges {
		return out, nil
	}
	snap, err := ix.idx.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	for _, e := range snap.Links {
		out[e.SourceNoteID] = struct{}{}
	}
	for _, e := range snap.NoteTags {
		out[e.NoteID] = struct{}{}
	}
	return out, nil
}
