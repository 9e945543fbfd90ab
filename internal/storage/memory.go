package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/models"
)

// Memory is an in-memory NoteStore. Notes are copied in and out, so callers
// never share state with the store.
type Memory struct {
	mu    sync.RWMutex
	notes map[string]*models.Note
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{notes: make(map[string]*models.Note)}
}

func clone(n *models.Note) *models.Note {
	c := *n
	if n.DeletedAt != nil {
		t := *n.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

func (m *Memory) Create(ctx context.Context, in NewNote) (*models.Note, error) {
	ts := now()
	n := &models.Note{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		Folder:    folderOrDefault(in.Folder),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := m.Insert(ctx, n); err != nil {
		return nil, err
	}
	return clone(n), nil
}

func (m *Memory) Insert(_ context.Context, n *models.Note) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.Folder = folderOrDefault(n.Folder)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[n.ID]; ok {
		return apperr.ErrAlreadyExists
	}
	m.notes[n.ID] = clone(n)
	return nil
}

func (m *Memory) Update(_ context.Context, id string, upd NoteUpdate) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok || n.Deleted() {
		return nil, apperr.ErrNotFound
	}
	if !upd.matches(n) {
		return nil, apperr.ErrConflict
	}
	if upd.Empty() {
		return clone(n), nil
	}
	if upd.Title != nil {
		n.Title = *upd.Title
	}
	if upd.Content != nil {
		n.Content = *upd.Content
	}
	if upd.Folder != nil {
		n.Folder = folderOrDefault(*upd.Folder)
	}
	n.UpdatedAt = now()
	return clone(n), nil
}

func (m *Memory) Get(_ context.Context, id string) (*models.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notes[id]
	if !ok || n.Deleted() {
		return nil, apperr.ErrNotFound
	}
	return clone(n), nil
}

func (m *Memory) GetMany(_ context.Context, ids []string) ([]models.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Note
	for _, id := range dedupe(ids) {
		if n, ok := m.notes[id]; ok && !n.Deleted() {
			out = append(out, *clone(n))
		}
	}
	return out, nil
}

func (m *Memory) List(_ context.Context, opts ListOptions) ([]models.Note, error) {
	m.mu.RLock()
	out := make([]models.Note, 0, len(m.notes))
	for _, n := range m.notes {
		if n.Deleted() && !opts.IncludeDeleted {
			continue
		}
		if opts.Folder != "" && n.Folder != opts.Folder {
			continue
		}
		out = append(out, *clone(n))
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id string) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok || n.Deleted() {
		return nil, apperr.ErrNotFound
	}
	ts := now()
	n.DeletedAt = &ts
	return clone(n), nil
}

func (m *Memory) Restore(_ context.Context, id string) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if !n.Deleted() {
		return nil, apperr.ErrConflict
	}
	n.DeletedAt = nil
	n.UpdatedAt = now()
	return clone(n), nil
}

func (m *Memory) ResolveTitles(_ context.Context, titles []string) (map[string]string, error) {
	want := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		want[t] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(titles))
	winner := make(map[string]*models.Note, len(titles))
	for _, n := range m.notes {
		if n.Deleted() {
			continue
		}
		if _, ok := want[n.Title]; !ok {
			continue
		}
		if cur, ok := winner[n.Title]; ok && !older(n, cur) {
			continue
		}
		winner[n.Title] = n
		out[n.Title] = n.ID
	}
	return out, nil
}

func older(a, b *models.Note) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Search does a case-insensitive substring match over title and content.
func (m *Memory) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	notes, _ := m.List(ctx, ListOptions{})
	q := strings.ToLower(query)
	var out []SearchResult
	for _, n := range notes {
		if !strings.Contains(strings.ToLower(n.Title), q) && !strings.Contains(strings.ToLower(n.Content), q) {
			continue
		}
		out = append(out, SearchResult{ID: n.ID, Title: n.Title, Snippet: snippet(n.Content, 200)})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (m *Memory) Close() error { return nil }
