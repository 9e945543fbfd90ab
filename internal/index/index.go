// Package index maintains the link and tag graph derived from note content.
//
// Edges are always replaced wholesale for a source note. Link targets are
// titles; a link whose title matches no live note is dangling and carries an
// empty TargetNoteID until ReconcileTitles resolves it.
package index

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks github.com/starford/scribe/internal/index Store

import (
	"context"

	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/parser"
)

// Store defines the link/tag index operations. Consumers should depend on
// this interface rather than *DB or *MemStore.
type Store interface {
	// IndexNote replaces the links, tags and state of e.NoteID in one step.
	IndexNote(ctx context.Context, e Entry) error
	// ReplaceLinksForNote replaces every outgoing edge of noteID.
	// Unknown or deleted notes yield apperr.ErrNotFound and nothing is written.
	ReplaceLinksForNote(ctx context.Context, noteID string, links []parser.WikiLink) error
	// ReplaceTagsForNote replaces every tag edge of noteID.
	ReplaceTagsForNote(ctx context.Context, noteID string, tags []string) error
	// RemoveNote drops the outgoing edges, tag edges and state of noteID.
	RemoveNote(ctx context.Context, noteID string) error
	// ReconcileTitles re-resolves every edge whose target title is in titles.
	ReconcileTitles(ctx context.Context, titles ...string) error

	State(ctx context.Context, noteID string) (State, bool, error)
	States(ctx context.Context) (map[string]State, error)

	// Backlinks returns the distinct ids of notes linking to noteID.
	Backlinks(ctx context.Context, noteID string) ([]string, error)
	OutgoingLinks(ctx context.Context, noteID string) ([]models.LinkEdge, error)
	NoteTags(ctx context.Context, noteID string) ([]models.Tag, error)
	NotesByTag(ctx context.Context, name string) ([]string, error)
	// NotesByTags returns notes carrying all (matchAll) or any of names.
	NotesByTags(ctx context.Context, names []string, matchAll bool) ([]string, error)
	// ListTags returns the tags in use with their note counts, by name.
	ListTags(ctx context.Context) ([]models.TagCount, error)
	Snapshot(ctx context.Context) (*Snapshot, error)
	Stats(ctx context.Context) (Stats, error)
}

// NoteLookup answers the questions the index asks about notes.
// storage.NoteStore satisfies it.
type NoteLookup interface {
	Get(ctx context.Context, id string) (*models.Note, error)
	ResolveTitles(ctx context.Context, titles []string) (map[string]string, error)
}

// Entry is the parsed revision of one note.
type Entry struct {
	NoteID   string
	Title    string
	Checksum string
	Links    []parser.WikiLink
	Tags     []string
}

// State records the revision a note was last indexed at.
type State struct {
	NoteID   string `json:"note_id"`
	Title    string `json:"title"`
	Checksum string `json:"checksum"`
}

// Snapshot is the full content of the index, ordered deterministically.
type Snapshot struct {
	Links    []models.LinkEdge `json:"links"`
	Tags     []models.Tag      `json:"tags"`
	NoteTags []models.TagEdge  `json:"note_tags"`
}

// Stats summarizes the index.
type Stats struct {
	IndexedNotes  int `json:"indexed_notes"`
	Links         int `json:"links"`
	DanglingLinks int `json:"dangling_links"`
	Tags          int `json:"tags"`
	NoteTags      int `json:"note_tags"`
}

// Verify implementations satisfy Store at compile time.
var (
	_ Store = (*DB)(nil)
	_ Store = (*MemStore)(nil)
)
