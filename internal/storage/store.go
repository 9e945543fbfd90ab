// Package storage persists notes. It is the NoteStore the indexer reads from:
// notes are created, updated and soft-deleted here, and wiki-link titles are
// resolved against the live (non-deleted) notes.
package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_store.go -package=mocks github.com/starford/scribe/internal/storage NoteStore

import (
	"context"
	"time"

	"github.com/starford/scribe/internal/checksum"
	"github.com/starford/scribe/internal/models"
)

// NewNote is the input for Create.
type NewNote struct {
	Title   string
	Content string
	Folder  string
}

// NoteUpdate carries the fields to change; nil fields are left untouched.
// A non-empty IfMatch must equal checksum.Note of the revision being replaced,
// compared in the same transaction as the write.
type NoteUpdate struct {
	Title   *string
	Content *string
	Folder  *string
	IfMatch string
}

// Empty reports whether the update changes nothing.
func (u NoteUpdate) Empty() bool {
	return u.Title == nil && u.Content == nil && u.Folder == nil
}

func (u NoteUpdate) matches(n *models.Note) bool {
	return u.IfMatch == "" || u.IfMatch == checksum.Note(n.Title, n.Content)
}

// ListOptions filters List results.
type ListOptions struct {
	IncludeDeleted bool
	Folder         string
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// NoteStore is the interface for note persistence.
type NoteStore interface {
	// Create stores a new note with a fresh id and timestamps.
	Create(ctx context.Context, in NewNote) (*models.Note, error)
	// Insert stores n as given, without touching ids or timestamps.
	// Seeders and migrations use it; nothing is indexed.
	Insert(ctx context.Context, n *models.Note) error
	// Update applies upd to a live note and bumps UpdatedAt. It returns
	// apperr.ErrConflict when upd.IfMatch names another revision.
	Update(ctx context.Context, id string, upd NoteUpdate) (*models.Note, error)
	// Get returns a live note, or apperr.ErrNotFound for missing and deleted ids.
	Get(ctx context.Context, id string) (*models.Note, error)
	// GetMany returns the live notes among ids, in no particular order.
	GetMany(ctx context.Context, ids []string) ([]models.Note, error)
	// List returns notes ordered by UpdatedAt, newest first.
	List(ctx context.Context, opts ListOptions) ([]models.Note, error)
	// Delete soft-deletes a live note and returns its tombstone.
	Delete(ctx context.Context, id string) (*models.Note, error)
	// Restore clears the tombstone of a deleted note.
	Restore(ctx context.Context, id string) (*models.Note, error)
	// ResolveTitles maps each title that matches a live note to that note's id.
	// When several live notes share a title the oldest one wins.
	ResolveTitles(ctx context.Context, titles []string) (map[string]string, error)
	// Search finds live notes whose title or content match query.
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Close() error
}

var (
	_ NoteStore = (*SQLite)(nil)
	_ NoteStore = (*Memory)(nil)
)

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func folderOrDefault(f string) string {
	if f == "" {
		return models.DefaultFolder
	}
	return f
}
