package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/scribe/internal/noteservice"
	"github.com/starford/scribe/internal/testutil"
)

func TestExportWriteImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := testutil.TestStack(t)
	svc := noteservice.NewService(src.Store, src.Indexer, nil)

	a, err := svc.CreateNote(ctx, noteservice.CreateInput{Title: "A", Content: "[[B]] [[Missing]] #x"})
	require.NoError(t, err)
	b, err := svc.CreateNote(ctx, noteservice.CreateInput{Title: "B", Content: "#y"})
	require.NoError(t, err)
	gone, err := svc.CreateNote(ctx, noteservice.CreateInput{Title: "Gone"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteNote(ctx, gone.ID))

	snap, err := Export(ctx, src.Store, src.Indexer)
	require.NoError(t, err)
	assert.Equal(t, Version, snap.Version)
	assert.Len(t, snap.Notes, 3)
	assert.Len(t, snap.Links, 2)
	assert.Len(t, snap.NoteTags, 2)

	path := filepath.Join(t.TempDir(), "out", "backup.json")
	require.NoError(t, WriteFile(path, snap))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")

	loaded, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, loaded.Notes, 3)
	for i := range snap.Notes {
		assert.Equal(t, snap.Notes[i].ID, loaded.Notes[i].ID)
		assert.True(t, snap.Notes[i].UpdatedAt.Equal(loaded.Notes[i].UpdatedAt))
	}

	dst := testutil.TestStack(t)
	res, err := Import(ctx, loaded, dst.Store, dst.Indexer)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)
	assert.Equal(t, 2, res.Index.Indexed)

	backlinks, err := dst.Indexer.GetBacklinks(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, backlinks, 1)
	assert.Equal(t, a.ID, backlinks[0].ID)

	again, err := Import(ctx, loaded, dst.Store, dst.Indexer)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Inserted)
	assert.Equal(t, 3, again.Existing)
}

func TestReadFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"notes": []}`), 0o644))
	_, err = ReadFile(bad)
	assert.Error(t, err)
}
