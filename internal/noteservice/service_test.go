package noteservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/index"
	index_mocks "github.com/starford/scribe/internal/index/mocks"
	"github.com/starford/scribe/internal/indexer"
	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) PublishNoteEvent(kind, noteID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+noteID)
}

func (r *recorder) PublishIndexEvent(kind string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "index:"+kind)
}

func newService(t *testing.T) (*Service, *recorder) {
	t.Helper()
	st := testutil.TestStack(t)
	rec := &recorder{}
	return NewService(st.Store, st.Indexer, rec), rec
}

func TestCreateNote_IndexesLinksAndTags(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)

	target, err := svc.CreateNote(ctx, CreateInput{Title: "Target", Content: "plain"})
	require.NoError(t, err)
	src, err := svc.CreateNote(ctx, CreateInput{Title: "Source", Content: "see [[Target]] #Go"})
	require.NoError(t, err)

	assert.NotEmpty(t, src.Checksum)
	require.Len(t, src.Tags, 1)
	assert.Equal(t, "go", src.Tags[0].Name)
	require.Len(t, src.Links, 1)
	assert.Equal(t, target.ID, src.Links[0].TargetNoteID)

	got, err := svc.GetNote(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, got.Backlinks, 1)
	assert.Equal(t, src.ID, got.Backlinks[0].ID)

	assert.Equal(t, []string{"created:" + target.ID, "created:" + src.ID}, rec.events)
}

func TestCreateNote_TitleFromContent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	n, err := svc.CreateNote(ctx, CreateInput{Content: "# Derived\nbody"})
	require.NoError(t, err)
	assert.Equal(t, "Derived", n.Title)

	_, err = svc.CreateNote(ctx, CreateInput{Content: "no heading here"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestUpdateNote_IfMatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	n, err := svc.CreateNote(ctx, CreateInput{Title: "Doc", Content: "v1"})
	require.NoError(t, err)

	body := "v2 #fresh"
	_, err = svc.UpdateNote(ctx, n.ID, storage.NoteUpdate{Content: &body}, "stale-checksum")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	updated, err := svc.UpdateNote(ctx, n.ID, storage.NoteUpdate{Content: &body}, n.Checksum)
	require.NoError(t, err)
	assert.Equal(t, body, updated.Content)
	assert.NotEqual(t, n.Checksum, updated.Checksum)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "fresh", updated.Tags[0].Name)
}

func TestUpdateNote_IfMatchConcurrent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	n, err := svc.CreateNote(ctx, CreateInput{Title: "Doc", Content: "v1"})
	require.NoError(t, err)

	const writers = 4
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf("v2 writer %d", i)
			_, errs[i] = svc.UpdateNote(ctx, n.ID, storage.NoteUpdate{Content: &body}, n.Checksum)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrConflict)
	}
	assert.Equal(t, 1, ok)
}

func TestUpdateNote_EmptyTitleRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	n, err := svc.CreateNote(ctx, CreateInput{Title: "Doc"})
	require.NoError(t, err)

	blank := "  "
	_, err = svc.UpdateNote(ctx, n.ID, storage.NoteUpdate{Title: &blank}, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)

	target, err := svc.CreateNote(ctx, CreateInput{Title: "Target"})
	require.NoError(t, err)
	src, err := svc.CreateNote(ctx, CreateInput{Title: "Source", Content: "[[Target]]"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteNote(ctx, target.ID))
	_, err = svc.GetNote(ctx, target.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	links, err := svc.OutgoingLinks(ctx, src.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.True(t, links[0].Dangling())

	restored, err := svc.RestoreNote(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, restored.Backlinks, 1)
	assert.Equal(t, src.ID, restored.Backlinks[0].ID)

	_, err = svc.RestoreNote(ctx, target.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	assert.Contains(t, rec.events, "deleted:"+target.ID)
	assert.Contains(t, rec.events, "restored:"+target.ID)
}

func TestListNotes_ByTags(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	a, err := svc.CreateNote(ctx, CreateInput{Title: "A", Content: "#x #y"})
	require.NoError(t, err)
	b, err := svc.CreateNote(ctx, CreateInput{Title: "B", Content: "#x"})
	require.NoError(t, err)

	anyOf, err := svc.ListNotes(ctx, ListParams{Tags: []string{"x", "y"}})
	require.NoError(t, err)
	assert.Len(t, anyOf, 2)

	all, err := svc.ListNotes(ctx, ListParams{Tags: []string{"X", "#y"}, MatchAll: true})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, a.ID, all[0].ID)

	require.NoError(t, svc.DeleteNote(ctx, b.ID))
	live, err := svc.ListNotes(ctx, ListParams{})
	require.NoError(t, err)
	assert.Len(t, live, 1)

	withDeleted, err := svc.ListNotes(ctx, ListParams{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, withDeleted, 2)
}

func TestNotesByTag_EmptyName(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.NotesByTag(context.Background(), "#")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestQueriesOnMissingNote(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Backlinks(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.OutgoingLinks(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.NoteTags(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReindexPublishesEvent(t *testing.T) {
	ctx := context.Background()
	svc, rec := newService(t)
	_, err := svc.CreateNote(ctx, CreateInput{Title: "One", Content: "#a"})
	require.NoError(t, err)

	rep, err := svc.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Total)
	assert.Equal(t, 1, rep.Indexed)
	assert.Contains(t, rec.events, "index:reindexed")

	stats, err := svc.IndexStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.IndexedNotes)
	assert.Equal(t, 1, stats.Tags)
}

func TestCreateNote_IndexFailureMarksStale(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	store := storage.NewMemory()
	idx := index_mocks.NewMockStore(ctrl)
	boom := errors.New("index unavailable")
	idx.EXPECT().State(gomock.Any(), gomock.Any()).Return(index.State{}, false, nil)
	idx.EXPECT().IndexNote(gomock.Any(), gomock.Any()).Return(boom)
	idx.EXPECT().NoteTags(gomock.Any(), gomock.Any()).Return(nil, nil)
	idx.EXPECT().OutgoingLinks(gomock.Any(), gomock.Any()).Return(nil, nil)
	idx.EXPECT().Backlinks(gomock.Any(), gomock.Any()).Return(nil, nil)

	ix := indexer.New(store, idx, indexer.WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))))
	svc := NewService(store, ix, nil)

	n, err := svc.CreateNote(ctx, CreateInput{Title: "Saved", Content: "#t"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrIndexStale)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, n)
	assert.True(t, n.IndexStale)

	saved, err := store.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Saved", saved.Title)
}
