// Package noteservice is the write path for notes: every mutation goes to the
// note store first and then through the matching indexer hook, which is
// awaited before the call returns.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/checksum"
	"github.com/starford/scribe/internal/index"
	"github.com/starford/scribe/internal/indexer"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/parser"
	"github.com/starford/scribe/internal/storage"
)

// Event kinds passed to Notifier.PublishNoteEvent.
const (
	EventCreated  = "created"
	EventUpdated  = "updated"
	EventDeleted  = "deleted"
	EventRestored = "restored"
)

// Notifier receives change notifications. sse.Broker implements it.
type Notifier interface {
	PublishNoteEvent(kind, noteID string)
	PublishIndexEvent(kind string, data any)
}

// NoteRef identifies a note in link listings.
type NoteRef struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	models.Note
	Checksum    string            `json:"checksum"`
	Frontmatter map[string]any    `json:"frontmatter,omitempty"`
	Tags        []models.Tag      `json:"tags"`
	Links       []models.LinkEdge `json:"links"`
	Backlinks   []NoteRef         `json:"backlinks"`
	// IndexStale is set when the note was saved but indexing it failed.
	IndexStale bool `json:"index_stale,omitempty"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Folder    string     `json:"folder"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// CreateInput is the input for CreateNote.
type CreateInput struct {
	Title   string
	Content string
	Folder  string
}

// ListParams filters ListNotes. When Tags is set the result comes from the
// tag index and only live notes are returned.
type ListParams struct {
	Folder         string
	IncludeDeleted bool
	Tags           []string
	MatchAll       bool
}

// Service coordinates the note store and the indexer.
type Service struct {
	store  storage.NoteStore
	ix     *indexer.Indexer
	notify Notifier
}

// NewService creates a new note service. notify may be nil.
func NewService(store storage.NoteStore, ix *indexer.Indexer, notify Notifier) *Service {
	return &Service{store: store, ix: ix, notify: notify}
}

// indexStale marks a saved note whose hook failed.
func indexStale(err error) error {
	return fmt.Errorf("%w: %w", apperr.ErrIndexStale, err)
}

// CreateNote stores a note and indexes it. An empty title falls back to the
// content's frontmatter title or first heading.
func (s *Service) CreateNote(ctx context.Context, in CreateInput) (*NoteDetail, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = parser.DeriveTitle(in.Content)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperr.ErrInvalidInput)
	}

	n, err := s.store.Create(ctx, storage.NewNote{Title: title, Content: in.Content, Folder: in.Folder})
	if err != nil {
		return nil, err
	}
	hookErr := s.ix.OnNoteCreated(ctx, n)
	s.publish(EventCreated, n.ID)
	return s.afterWrite(ctx, n, hookErr)
}

// GetNote returns a live note with its tags, links and backlinks.
func (s *Service) GetNote(ctx context.Context, id string) (*NoteDetail, error) {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildNoteDetail(ctx, n)
}

// UpdateNote applies upd. A non-empty ifMatch must equal the checksum of the
// current revision, otherwise apperr.ErrConflict is returned.
func (s *Service) UpdateNote(ctx context.Context, id string, upd storage.NoteUpdate, ifMatch string) (*NoteDetail, error) {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", apperr.ErrInvalidInput)
	}
	prev, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	upd.IfMatch = ifMatch
	n, err := s.store.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	hookErr := s.ix.OnNoteUpdated(ctx, n, prev)
	s.publish(EventUpdated, n.ID)
	return s.afterWrite(ctx, n, hookErr)
}

// DeleteNote soft-deletes a note and drops its index rows.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	tomb, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	hookErr := s.ix.OnNoteDeleted(ctx, tomb)
	s.publish(EventDeleted, id)
	if hookErr != nil {
		return indexStale(hookErr)
	}
	return nil
}

// RestoreNote undoes a soft delete.
func (s *Service) RestoreNote(ctx context.Context, id string) (*NoteDetail, error) {
	n, err := s.store.Restore(ctx, id)
	if err != nil {
		return nil, err
	}
	hookErr := s.ix.OnNoteRestored(ctx, n)
	s.publish(EventRestored, n.ID)
	return s.afterWrite(ctx, n, hookErr)
}

// ListNotes returns notes newest first.
func (s *Service) ListNotes(ctx context.Context, p ListParams) ([]NoteListItem, error) {
	var (
		notes []models.Note
		err   error
	)
	if len(p.Tags) > 0 {
		notes, err = s.ix.FilterNotesByTags(ctx, p.Tags, p.MatchAll)
	} else {
		notes, err = s.store.List(ctx, storage.ListOptions{IncludeDeleted: p.IncludeDeleted, Folder: p.Folder})
	}
	if err != nil {
		return nil, err
	}

	items := make([]NoteListItem, 0, len(notes))
	for _, n := range notes {
		if p.Folder != "" && n.Folder != p.Folder {
			continue
		}
		items = append(items, NoteListItem{
			ID:        n.ID,
			Title:     n.Title,
			Folder:    n.Folder,
			UpdatedAt: n.UpdatedAt,
			DeletedAt: n.DeletedAt,
		})
	}
	return items, nil
}

// Search delegates full-text search to the note store.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]storage.SearchResult, error) {
	res, err := s.store.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// Backlinks returns the notes linking to id.
func (s *Service) Backlinks(ctx context.Context, id string) ([]NoteRef, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	notes, err := s.ix.GetBacklinks(ctx, id)
	if err != nil {
		return nil, err
	}
	return refs(notes), nil
}

// OutgoingLinks returns the wiki-links of id, dangling ones included.
func (s *Service) OutgoingLinks(ctx context.Context, id string) ([]models.LinkEdge, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	edges, err := s.ix.GetOutgoingLinks(ctx, id)
	return nonNilSlice(edges), err
}

// NoteTags returns the tags of id.
func (s *Service) NoteTags(ctx context.Context, id string) ([]models.Tag, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	tags, err := s.ix.GetNoteTags(ctx, id)
	return nonNilSlice(tags), err
}

// NotesByTag returns the notes carrying tag name.
func (s *Service) NotesByTag(ctx context.Context, name string) ([]NoteRef, error) {
	if parser.NormalizeTag(name) == "" {
		return nil, fmt.Errorf("%w: tag name is empty", apperr.ErrInvalidInput)
	}
	notes, err := s.ix.GetNotesByTag(ctx, name)
	if err != nil {
		return nil, err
	}
	return refs(notes), nil
}

func (s *Service) ListTags(ctx context.Context) ([]models.TagCount, error) {
	tags, err := s.ix.ListTags(ctx)
	return nonNilSlice(tags), err
}

// Graph returns all nodes and links for graph visualization.
func (s *Service) Graph(ctx context.Context) ([]models.GraphNode, []models.GraphLink, error) {
	return s.ix.Graph(ctx)
}

// Reindex rebuilds the whole index and announces the result.
func (s *Service) Reindex(ctx context.Context) (indexer.Report, error) {
	rep, err := s.ix.ReindexAll(ctx)
	if err != nil {
		return rep, err
	}
	if s.notify != nil {
		s.notify.PublishIndexEvent("reindexed", rep)
	}
	return rep, nil
}

func (s *Service) IndexStats(ctx context.Context) (index.Stats, error) {
	return s.ix.Stats(ctx)
}

// afterWrite builds the response for a saved note. A hook failure is
// reported as apperr.ErrIndexStale together with the saved note.
func (s *Service) afterWrite(ctx context.Context, n *models.Note, hookErr error) (*NoteDetail, error) {
	detail, err := s.buildNoteDetail(ctx, n)
	if err != nil {
		if hookErr != nil {
			return &NoteDetail{Note: *n, IndexStale: true}, indexStale(errors.Join(hookErr, err))
		}
		return nil, err
	}
	if hookErr != nil {
		detail.IndexStale = true
		return detail, indexStale(hookErr)
	}
	return detail, nil
}

func (s *Service) buildNoteDetail(ctx context.Context, n *models.Note) (*NoteDetail, error) {
	tags, err := s.ix.GetNoteTags(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	links, err := s.ix.GetOutgoingLinks(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	backlinks, err := s.ix.GetBacklinks(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		Note:        *n,
		Checksum:    checksum.Note(n.Title, n.Content),
		Frontmatter: parser.Parse(n.Content).Frontmatter,
		Tags:        nonNilSlice(tags),
		Links:       nonNilSlice(links),
		Backlinks:   refs(backlinks),
	}, nil
}

func (s *Service) publish(kind, id string) {
	if s.notify != nil {
		s.notify.PublishNoteEvent(kind, id)
	}
}

func refs(notes []models.Note) []NoteRef {
	out := make([]NoteRef, len(notes))
	for i, n := range notes {
		out[i] = NoteRef{ID: n.ID, Title: n.Title, UpdatedAt: n.UpdatedAt}
	}
	return out
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
