package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/parser"
)

// MemStore is an in-memory Store. Title resolution and liveness checks go
// through lookup while the store's lock is held, so a write can never
// interleave with a reconcile of the same title.
type MemStore struct {
	lookup NoteLookup

	mu       sync.RWMutex
	links    map[string][]models.LinkEdge   // source note id -> edges
	byTitle  map[string]map[string]struct{} // target title -> source note ids
	tags     map[string]models.Tag          // name -> tag
	noteTags map[string]map[string]struct{} // note id -> tag names
	states   map[string]State
}

// NewMemStore returns an empty index resolving notes through lookup.
func NewMemStore(lookup NoteLookup) *MemStore {
	return &MemStore{
		lookup:   lookup,
		links:    make(map[string][]models.LinkEdge),
		byTitle:  make(map[string]map[string]struct{}),
		tags:     make(map[string]models.Tag),
		noteTags: make(map[string]map[string]struct{}),
		states:   make(map[string]State),
	}
}

// IndexNote replaces links, tags and state of e.NoteID under one lock.
func (m *MemStore) IndexNote(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireLive(ctx, e.NoteID); err != nil {
		return err
	}
	edges, err := m.resolve(ctx, buildEdges(e.NoteID, e.Links))
	if err != nil {
		return err
	}
	m.setLinks(e.NoteID, edges)
	m.setTags(e.NoteID, e.Tags)
	m.states[e.NoteID] = State{NoteID: e.NoteID, Title: e.Title, Checksum: e.Checksum}
	return nil
}

// ReplaceLinksForNote swaps the note's outgoing edges for links.
func (m *MemStore) ReplaceLinksForNote(ctx context.Context, noteID string, links []parser.WikiLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireLive(ctx, noteID); err != nil {
		return err
	}
	edges, err := m.resolve(ctx, buildEdges(noteID, links))
	if err != nil {
		return err
	}
	m.setLinks(noteID, edges)
	return nil
}

// ReplaceTagsForNote swaps the note's tags, creating tags on first use.
func (m *MemStore) ReplaceTagsForNote(ctx context.Context, noteID string, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireLive(ctx, noteID); err != nil {
		return err
	}
	m.setTags(noteID, tags)
	return nil
}

// RemoveNote drops the note's edges, tag assignments and state.
func (m *MemStore) RemoveNote(_ context.Context, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setLinks(noteID, nil)
	delete(m.noteTags, noteID)
	delete(m.states, noteID)
	return nil
}

// ReconcileTitles re-resolves every edge pointing at one of titles.
func (m *MemStore) ReconcileTitles(ctx context.Context, titles ...string) error {
	titles = nonEmpty(titles)
	if len(titles) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	resolved, err := m.lookup.ResolveTitles(ctx, titles)
	if err != nil {
		return fmt.Errorf("index: reconcile titles: %w", err)
	}
	for _, title := range titles {
		for src := range m.byTitle[title] {
			edges := m.links[src]
			for i := range edges {
				if edges[i].TargetTitle == title {
					edges[i].TargetNoteID = resolved[title]
				}
			}
		}
	}
	return nil
}

func (m *MemStore) requireLive(ctx context.Context, noteID string) error {
	if _, err := m.lookup.Get(ctx, noteID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("index: note %s: %w", noteID, apperr.ErrNotFound)
		}
		return fmt.Errorf("index: check note: %w", err)
	}
	return nil
}

func (m *MemStore) resolve(ctx context.Context, edges []models.LinkEdge) ([]models.LinkEdge, error) {
	if len(edges) == 0 {
		return nil, nil
	}
	titles := make([]string, len(edges))
	for i, e := range edges {
		titles[i] = e.TargetTitle
	}
	resolved, err := m.lookup.ResolveTitles(ctx, titles)
	if err != nil {
		return nil, fmt.Errorf("index: resolve titles: %w", err)
	}
	for i := range edges {
		edges[i].TargetNoteID = resolved[edges[i].TargetTitle]
	}
	return edges, nil
}

// setLinks must be called with mu held.
func (m *MemStore) setLinks(noteID string, edges []models.LinkEdge) {
	for _, old := range m.links[noteID] {
		srcs := m.byTitle[old.TargetTitle]
		delete(srcs, noteID)
		if len(srcs) == 0 {
			delete(m.byTitle, old.TargetTitle)
		}
	}
	if len(edges) == 0 {
		delete(m.links, noteID)
		return
	}
	m.links[noteID] = edges
	for _, e := range edges {
		srcs, ok := m.byTitle[e.TargetTitle]
		if !ok {
			srcs = make(map[string]struct{})
			m.byTitle[e.TargetTitle] = srcs
		}
		srcs[noteID] = struct{}{}
	}
}

// setTags must be called with mu held.
func (m *MemStore) setTags(noteID string, tags []string) {
	names := normalizeTags(tags)
	if len(names) == 0 {
		delete(m.noteTags, noteID)
		return
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := m.tags[name]; !ok {
			m.tags[name] = models.Tag{
				ID:        uuid.NewString(),
				Name:      name,
				Color:     TagColor(name),
				CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
			}
		}
		set[name] = struct{}{}
	}
	m.noteTags[noteID] = set
}

// Backlinks returns the distinct source notes linking to noteID.
func (m *MemStore) Backlinks(_ context.Context, noteID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for src, edges := range m.links {
		for _, e := range edges {
			if e.TargetNoteID == noteID {
				out = append(out, src)
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// OutgoingLinks returns the edges of noteID ordered by target title.
func (m *MemStore) OutgoingLinks(_ context.Context, noteID string) ([]models.LinkEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := append([]models.LinkEdge(nil), m.links[noteID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].TargetTitle < out[j].TargetTitle })
	return out, nil
}

// NoteTags returns the tags of noteID ordered by name.
func (m *MemStore) NoteTags(_ context.Context, noteID string) ([]models.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Tag
	for name := range m.noteTags[noteID] {
		out = append(out, m.tags[name])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// NotesByTag returns the notes carrying name.
func (m *MemStore) NotesByTag(ctx context.Context, name string) ([]string, error) {
	return m.NotesByTags(ctx, []string{name}, false)
}

// NotesByTags returns the notes carrying all (matchAll) or any of names.
func (m *MemStore) NotesByTags(_ context.Context, names []string, matchAll bool) ([]string, error) {
	names = normalizeTags(names)
	if len(names) == 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for noteID, set := range m.noteTags {
		hits := 0
		for _, n := range names {
			if _, ok := set[n]; ok {
				hits++
			}
		}
		if (matchAll && hits == len(names)) || (!matchAll && hits > 0) {
			out = append(out, noteID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ListTags returns every tag in use with its note count.
func (m *MemStore) ListTags(_ context.Context) ([]models.TagCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, set := range m.noteTags {
		for name := range set {
			counts[name]++
		}
	}
	out := make([]models.TagCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.TagCount{Tag: m.tags[name], NoteCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// State returns the recorded state of noteID.
func (m *MemStore) State(_ context.Context, noteID string) (State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[noteID]
	return st, ok, nil
}

// States returns the recorded state of every indexed note.
func (m *MemStore) States(_ context.Context) (map[string]State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]State, len(m.states))
	for k, v := range m.states {
		out[k] = v
	}
	return out, nil
}

// Snapshot copies every edge and tag row.
func (m *MemStore) Snapshot(_ context.Context) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var snap Snapshot
	for _, edges := range m.links {
		snap.Links = append(snap.Links, edges...)
	}
	sort.Slice(snap.Links, func(i, j int) bool {
		a, b := snap.Links[i], snap.Links[j]
		if a.SourceNoteID != b.SourceNoteID {
			return a.SourceNoteID < b.SourceNoteID
		}
		return a.TargetTitle < b.TargetTitle
	})

	for _, t := range m.tags {
		snap.Tags = append(snap.Tags, t)
	}
	sort.Slice(snap.Tags, func(i, j int) bool { return snap.Tags[i].Name < snap.Tags[j].Name })

	for noteID, set := range m.noteTags {
		for name := range set {
			snap.NoteTags = append(snap.NoteTags, models.TagEdge{NoteID: noteID, TagName: name})
		}
	}
	sort.Slice(snap.NoteTags, func(i, j int) bool {
		a, b := snap.NoteTags[i], snap.NoteTags[j]
		if a.NoteID != b.NoteID {
			return a.NoteID < b.NoteID
		}
		return a.TagName < b.TagName
	})
	return &snap, nil
}

// Stats returns row counts of the index.
func (m *MemStore) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{IndexedNotes: len(m.states)}
	used := make(map[string]struct{})
	for _, edges := range m.links {
		for _, e := range edges {
			st.Links++
			if e.Dangling() {
				st.DanglingLinks++
			}
		}
	}
	for _, set := range m.noteTags {
		st.NoteTags += len(set)
		for name := range set {
			used[name] = struct{}{}
		}
	}
	st.Tags = len(used)
	return st, nil
}
