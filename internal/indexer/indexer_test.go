package indexer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/scribe/internal/index"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/storage"
)

type env struct {
	notes storage.NoteStore
	idx   index.Store
	ix    *Indexer
	path  string
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func sqliteEnv(t *testing.T) *env {
	t.Helper()
	f, err := os.CreateTemp("", "scribe-indexer-*.db")
	require.NoError(t, err)
	f.Close()
	t.Cleanup(func() {
		os.Remove(f.Name())
		os.Remove(f.Name() + "-wal")
		os.Remove(f.Name() + "-shm")
	})

	notes, err := storage.Open(f.Name())
	require.NoError(t, err)
	t.Cleanup(func() { notes.Close() })

	idx, err := index.New(notes.Conn())
	require.NoError(t, err)
	return &env{notes: notes, idx: idx, ix: New(notes, idx, WithLogger(quietLogger()), WithWorkers(4)), path: f.Name()}
}

func memoryEnv(t *testing.T) *env {
	t.Helper()
	notes := storage.NewMemory()
	idx := index.NewMemStore(notes)
	return &env{notes: notes, idx: idx, ix: New(notes, idx, WithLogger(quietLogger()), WithWorkers(4))}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, e *env)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, sqliteEnv(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, memoryEnv(t)) })
}

func (e *env) create(t *testing.T, title, content string) *models.Note {
	t.Helper()
	n, err := e.notes.Create(context.Background(), storage.NewNote{Title: title, Content: content})
	require.NoError(t, err)
	require.NoError(t, e.ix.OnNoteCreated(context.Background(), n))
	return n
}

func (e *env) update(t *testing.T, prev *models.Note, upd storage.NoteUpdate) *models.Note {
	t.Helper()
	n, err := e.notes.Update(context.Background(), prev.ID, upd)
	require.NoError(t, err)
	require.NoError(t, e.ix.OnNoteUpdated(context.Background(), n, prev))
	return n
}

func (e *env) remove(t *testing.T, n *models.Note) {
	t.Helper()
	tomb, err := e.notes.Delete(context.Background(), n.ID)
	require.NoError(t, err)
	require.NoError(t, e.ix.OnNoteDeleted(context.Background(), tomb))
}

func (e *env) backlinkIDs(t *testing.T, id string) []string {
	t.Helper()
	notes, err := e.ix.GetBacklinks(context.Background(), id)
	require.NoError(t, err)
	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	return ids
}

func (e *env) tagNames(t *testing.T, id string) []string {
	t.Helper()
	tags, err := e.ix.GetNoteTags(context.Background(), id)
	require.NoError(t, err)
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return names
}

func content(s string) storage.NoteUpdate { return storage.NoteUpdate{Content: &s} }
func title(s string) storage.NoteUpdate   { return storage.NoteUpdate{Title: &s} }

func TestScenarioA_CreateIndexesBacklink(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		target := e.create(t, "Target", "Target content")
		source := e.create(t, "Source", "Links to [[Target]] here")

		backlinks, err := e.ix.GetBacklinks(context.Background(), target.ID)
		require.NoError(t, err)
		require.Len(t, backlinks, 1)
		assert.Equal(t, source.ID, backlinks[0].ID)
		assert.Equal(t, "Source", backlinks[0].Title)
	})
}

func TestScenarioB_UpdateAddsLink(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		target := e.create(t, "Target2", "")
		source := e.create(t, "Source2", "No links yet")
		assert.Empty(t, e.backlinkIDs(t, target.ID))

		e.update(t, source, content("Now has [[Target2]] link"))
		assert.Equal(t, []string{source.ID}, e.backlinkIDs(t, target.ID))
	})
}

func TestScenarioC_TagsExtracted(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		n := e.create(t, "Tagged", "Has #research and #important tags")
		assert.ElementsMatch(t, []string{"research", "important"}, e.tagNames(t, n.ID))
	})
}

func TestScenarioD_OutOfBandThenReindex(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		ctx := context.Background()
		require.NoError(t, e.notes.Insert(ctx, &models.Note{ID: "manual-target", Title: "Manual Target", Content: "target"}))
		require.NoError(t, e.notes.Insert(ctx, &models.Note{
			ID:      "manual-source",
			Title:   "Manual Source",
			Content: "Links to [[Manual Target]] with #manual tag",
		}))

		// P7: nothing is visible before the batch runs.
		assert.Empty(t, e.backlinkIDs(t, "manual-target"))
		assert.Empty(t, e.tagNames(t, "manual-source"))

		rep, err := e.ix.ReindexAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, rep.Total)
		assert.Equal(t, 2, rep.Indexed)
		assert.Zero(t, rep.Failed)

		assert.Equal(t, []string{"manual-source"}, e.backlinkIDs(t, "manual-target"))
		assert.Contains(t, e.tagNames(t, "manual-source"), "manual")
	})
}

func TestUpdateRemovesLink(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		target := e.create(t, "T", "")
		source := e.create(t, "S", "see [[T]]")
		require.Len(t, e.backlinkIDs(t, target.ID), 1)

		e.update(t, source, content("no more links"))
		assert.Empty(t, e.backlinkIDs(t, target.ID))
	})
}

func TestBacklinksAreDistinctSources(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		target := e.create(t, "Hub", "")
		a := e.create(t, "A", "[[Hub]]")
		b := e.create(t, "B", "[[Hub]] and again [[Hub|the hub]]")
		c := e.create(t, "C", "[[Hub]]")

		assert.ElementsMatch(t, []string{a.ID, b.ID, c.ID}, e.backlinkIDs(t, target.ID))

		edges, err := e.ix.GetOutgoingLinks(context.Background(), b.ID)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.Equal(t, 2, edges[0].Occurrences)
	})
}

func TestTagMentionedTwiceYieldsOneEdge(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		n := e.create(t, "Dup", "#tag here and #tag there, also #Tag")
		assert.Equal(t, []string{"tag"}, e.tagNames(t, n.ID))

		snap, err := e.ix.Snapshot(context.Background())
		require.NoError(t, err)
		assert.Len(t, snap.NoteTags, 1)
	})
}

func TestReindexAllIsIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		ctx := context.Background()
		e.create(t, "One", "[[Two]] #a #b")
		e.create(t, "Two", "[[One]] [[Missing]] #b")
		e.create(t, "Three", "[[One]] [[One]] #c/d")

		_, err := e.ix.ReindexAll(ctx)
		require.NoError(t, err)
		first, err := e.ix.Snapshot(ctx)
		require.NoError(t, err)
		firstStates, err := e.idx.States(ctx)
		require.NoError(t, err)

		_, err = e.ix.ReindexAll(ctx)
		require.NoError(t, err)
		second, err := e.ix.Snapshot(ctx)
		require.NoError(t, err)
		secondStates, err := e.idx.States(ctx)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, firstStates, secondStates)
	})
}

func TestDanglingLinkResolvesWhenTargetCreated(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		source := e.create(t, "Early", "waiting for [[Late]]")
		edges, err := e.ix.GetOutgoingLinks(context.Background(), source.ID)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.True(t, edges[0].Dangling())

		late := e.create(t, "Late", "")
		assert.Equal(t, []string{source.ID}, e.backlinkIDs(t, late.ID))
	})
}

func TestDeleteAndRestoreTarget(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		ctx := context.Background()
		target := e.create(t, "Target", "")
		source := e.create(t, "Source", "[[Target]]")

		e.remove(t, target)
		edges, err := e.ix.GetOutgoingLinks(ctx, source.ID)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.True(t, edges[0].Dangling(), "link to a deleted note must dangle")

		restored, err := e.notes.Restore(ctx, target.ID)
		require.NoError(t, err)
		require.NoError(t, e.ix.OnNoteRestored(ctx, restored))
		assert.Equal(t, []string{source.ID}, e.backlinkIDs(t, target.ID))
	})
}

func TestDeletedSourceLeavesBacklinks(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		target := e.create(t, "Target", "")
		source := e.create(t, "Source", "[[Target]] #gone")

		e.remove(t, source)
		assert.Empty(t, e.backlinkIDs(t, target.ID))
		assert.Empty(t, e.tagNames(t, source.ID))

		notes, err := e.ix.GetNotesByTag(context.Background(), "gone")
		require.NoError(t, err)
		assert.Empty(t, notes)
	})
}

func TestRenameRepointsLinks(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		ctx := context.Background()
		target := e.create(t, "Old Name", "")
		oldRef := e.create(t, "Refers Old", "[[Old Name]]")
		newRef := e.create(t, "Refers New", "[[New Name]]")

		e.update(t, target, title("New Name"))

		assert.Equal(t, []string{newRef.ID}, e.backlinkIDs(t, target.ID))
		edges, err := e.ix.GetOutgoingLinks(ctx, oldRef.ID)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.True(t, edges[0].Dangling())
	})
}

func TestDuplicateTitlesOldestWins(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		ctx := context.Background()
		base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		first := &models.Note{ID: "first", Title: "Twin", CreatedAt: base}
		second := &models.Note{ID: "second", Title: "Twin", CreatedAt: base.Add(time.Minute)}
		require.NoError(t, e.notes.Insert(ctx, first))
		require.NoError(t, e.notes.Insert(ctx, second))
		require.NoError(t, e.ix.OnNoteCreated(ctx, first))
		require.NoError(t, e.ix.OnNoteCreated(ctx, second))

		src := e.create(t, "Src", "[[Twin]]")
		assert.Equal(t, []string{src.ID}, e.backlinkIDs(t, "first"))
		assert.Empty(t, e.backlinkIDs(t, "second"))

		e.remove(t, first)
		assert.Equal(t, []string{src.ID}, e.backlinkIDs(t, "second"))
	})
}

func TestNotesByTagNormalizesName(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		ctx := context.Background()
		a := e.create(t, "A", "#Research #go")
		e.create(t, "B", "#research")

		notes, err := e.ix.GetNotesByTag(ctx, "#RESEARCH")
		require.NoError(t, err)
		assert.Len(t, notes, 2)

		all, err := e.ix.FilterNotesByTags(ctx, []string{"research", "go"}, true)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, a.ID, all[0].ID)

		anyTag, err := e.ix.FilterNotesByTags(ctx, []string{"go", "research"}, false)
		require.NoError(t, err)
		assert.Len(t, anyTag, 2)

		tags, err := e.ix.ListTags(ctx)
		require.NoError(t, err)
		require.Len(t, tags, 2)
		assert.Equal(t, "go", tags[0].Name)
		assert.Equal(t, 2, tags[1].NoteCount)
	})
}

func TestSyncCatchesUpOutOfBandEdits(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		ctx := context.Background()
		target := e.create(t, "Target", "")
		source := e.create(t, "Source", "nothing")
		gone := e.create(t, "Gone", "[[Target]]")

		// Write around the hooks.
		linked := "now [[Target]]"
		_, err := e.notes.Update(ctx, source.ID, storage.NoteUpdate{Content: &linked})
		require.NoError(t, err)
		_, err = e.notes.Delete(ctx, gone.ID)
		require.NoError(t, err)

		rep, err := e.ix.Sync(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Indexed)
		assert.Equal(t, 1, rep.Removed)
		assert.Equal(t, 1, rep.Skipped)
		assert.Equal(t, []string{source.ID}, e.backlinkIDs(t, target.ID))

		rep, err = e.ix.Sync(ctx)
		require.NoError(t, err)
		assert.Zero(t, rep.Indexed+rep.Removed)
	})
}

func TestReindexAllPurgesStaleRows(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		ctx := context.Background()
		target := e.create(t, "Target", "")
		source := e.create(t, "Source", "[[Target]] #x")
		_, err := e.notes.Delete(ctx, source.ID)
		require.NoError(t, err)

		rep, err := e.ix.ReindexAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Removed)
		assert.Empty(t, e.backlinkIDs(t, target.ID))

		stats, err := e.ix.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, index.Stats{IndexedNotes: 1}, stats)
	})
}

func TestConcurrentUpdatesLastWriterWins(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		ctx := context.Background()
		for i := range 5 {
			e.create(t, fmt.Sprintf("T%d", i), "")
		}
		source := e.create(t, "Source", "")

		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				body := fmt.Sprintf("[[T%d]] #rev%d", i%5, i)
				n, err := e.notes.Update(ctx, source.ID, storage.NoteUpdate{Content: &body})
				if !assert.NoError(t, err) {
					return
				}
				assert.NoError(t, e.ix.OnNoteUpdated(ctx, n, nil))
			}()
		}
		wg.Wait()

		final, err := e.notes.Get(ctx, source.ID)
		require.NoError(t, err)
		edges, err := e.ix.GetOutgoingLinks(ctx, source.ID)
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.Contains(t, final.Content, "[["+edges[0].TargetTitle+"]]")

		tags := e.tagNames(t, source.ID)
		require.Len(t, tags, 1)
		assert.Contains(t, final.Content, "#"+tags[0])
		assert.Zero(t, e.ix.locks.size())
	})
}

func TestConcurrentCreatesDoNotBlockEachOther(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		ctx := context.Background()
		hub := e.create(t, "Hub", "")

		var wg sync.WaitGroup
		for i := range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				n, err := e.notes.Create(ctx, storage.NewNote{Title: fmt.Sprintf("N%d", i), Content: "[[Hub]]"})
				if assert.NoError(t, err) {
					assert.NoError(t, e.ix.OnNoteCreated(ctx, n))
				}
			}()
		}
		wg.Wait()
		assert.Len(t, e.backlinkIDs(t, hub.ID), 10)
	})
}

func TestGraph(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		a := e.create(t, "A", "[[B]] [[Nowhere]]")
		b := e.create(t, "B", "[[A]]")

		nodes, links, err := e.ix.Graph(context.Background())
		require.NoError(t, err)
		assert.Len(t, nodes, 2)
		assert.ElementsMatch(t, []models.GraphLink{
			{Source: a.ID, Target: b.ID},
			{Source: b.ID, Target: a.ID},
		}, links)
	})
}

func TestGetBacklinksOrderedByUpdatedAt(t *testing.T) {
	forEachBackend(t, func(t *testing.T, e *env) {
		target := e.create(t, "Target", "")
		older := e.create(t, "Older", "[[Target]]")
		time.Sleep(5 * time.Millisecond)
		newer := e.create(t, "Newer", "[[Target]]")

		assert.Equal(t, []string{newer.ID, older.ID}, e.backlinkIDs(t, target.ID))
	})
}

func TestWatchStoreSyncsExternalWrites(t *testing.T) {
	e := sqliteEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	target := e.create(t, "Target", "")

	var (
		mu      sync.Mutex
		reports []Report
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.ix.WatchStore(ctx, e.path, 50*time.Millisecond, func(r Report) {
			mu.Lock()
			reports = append(reports, r)
			mu.Unlock()
		})
	}()
	time.Sleep(100 * time.Millisecond)

	// A second connection plays the external writer.
	other, err := storage.Open(e.path)
	require.NoError(t, err)
	defer other.Close()
	require.NoError(t, other.Insert(ctx, &models.Note{ID: "ext", Title: "External", Content: "[[Target]]"}))

	require.Eventually(t, func() bool {
		ids, err := e.ix.GetBacklinks(ctx, target.ID)
		return err == nil && len(ids) == 1 && ids[0].ID == "ext"
	}, 5*time.Second, 50*time.Millisecond)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reports) > 0
	}, 2*time.Second, 50*time.Millisecond)

	cancel()
	<-done
}
