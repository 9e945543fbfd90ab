// Package backup exports notes and their index to a JSON file and imports
// them back.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/index"
	"github.com/starford/scribe/internal/indexer"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/storage"
)

// Version is the format version written into new snapshots.
const Version = "1.0"

// Snapshot is the full exported state. Index rows are informational: Import
// rebuilds them from the notes.
type Snapshot struct {
	Version   string            `json:"version"`
	Timestamp int64             `json:"timestamp"`
	Notes     []models.Note     `json:"notes"`
	Tags      []models.Tag      `json:"tags"`
	NoteTags  []models.TagEdge  `json:"note_tags"`
	Links     []models.LinkEdge `json:"links"`
}

// NoteLister lists notes, tombstones included when asked.
type NoteLister interface {
	List(ctx context.Context, opts storage.ListOptions) ([]models.Note, error)
}

// IndexSnapshotter returns every index row.
type IndexSnapshotter interface {
	Snapshot(ctx context.Context) (*index.Snapshot, error)
}

// Export collects every note, deleted ones included, and the index rows.
func Export(ctx context.Context, notes NoteLister, idx IndexSnapshotter) (*Snapshot, error) {
	all, err := notes.List(ctx, storage.ListOptions{IncludeDeleted: true})
	if err != nil {
		return nil, fmt.Errorf("backup: list notes: %w", err)
	}
	snap, err := idx.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("backup: index snapshot: %w", err)
	}
	return &Snapshot{
		Version:   Version,
		Timestamp: time.Now().Unix(),
		Notes:     nonNil(all),
		Tags:      nonNil(snap.Tags),
		NoteTags:  nonNil(snap.NoteTags),
		Links:     nonNil(snap.Links),
	}, nil
}

// WriteFile atomically writes snap to path: tmp file, fsync, rename.
func WriteFile(path string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("backup: encode: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("backup: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".scribe-backup-*")
	if err != nil {
		return fmt.Errorf("backup: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("backup: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("backup: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("backup: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("backup: rename: %w", err)
	}
	success = true
	return nil
}

// ReadFile loads a snapshot written by WriteFile.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("backup: read %s: %w", path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("backup: decode %s: %w", path, err)
	}
	if snap.Version == "" {
		return nil, fmt.Errorf("%w: backup has no version", apperr.ErrInvalidInput)
	}
	return &snap, nil
}

// NoteInserter stores notes with their ids and timestamps intact.
type NoteInserter interface {
	Insert(ctx context.Context, n *models.Note) error
}

// Reindexer rebuilds the index.
type Reindexer interface {
	ReindexAll(ctx context.Context) (indexer.Report, error)
}

// ImportResult reports what Import did.
type ImportResult struct {
	Inserted int            `json:"inserted"`
	Existing int            `json:"existing"`
	Index    indexer.Report `json:"index"`
}

// Import inserts the snapshot's notes, skipping ids that already exist, and
// then rebuilds the index so links and tags match the imported content.
func Import(ctx context.Context, snap *Snapshot, notes NoteInserter, ix Reindexer) (ImportResult, error) {
	var res ImportResult
	for i := range snap.Notes {
		n := snap.Notes[i]
		err := notes.Insert(ctx, &n)
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			res.Existing++
		case err != nil:
			return res, fmt.Errorf("backup: insert %s: %w", n.ID, err)
		default:
			res.Inserted++
		}
	}
	rep, err := ix.ReindexAll(ctx)
	if err != nil {
		return res, fmt.Errorf("backup: reindex: %w", err)
	}
	res.Index = rep
	return res, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
