package indexer

import (
	"context"
	"fmt"
	"sort"

	"github.com/starford/scribe/internal/index"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/storage"
)

// GetBacklinks returns the live notes linking to id, newest first. A note
// linking several times appears once.
func (ix *Indexer) GetBacklinks(ctx context.Context, id string) ([]models.Note, error) {
	ids, err := ix.idx.Backlinks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("indexer: backlinks: %w", err)
	}
	return ix.loadNotes(ctx, ids)
}

// GetOutgoingLinks returns the link edges of id, dangling ones included.
func (ix *Indexer) GetOutgoingLinks(ctx context.Context, id string) ([]models.LinkEdge, error) {
	edges, err := ix.idx.OutgoingLinks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("indexer: outgoing links: %w", err)
	}
	return edges, nil
}

// GetNoteTags returns the tags of id ordered by name.
func (ix *Indexer) GetNoteTags(ctx context.Context, id string) ([]models.Tag, error) {
	tags, err := ix.idx.NoteTags(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("indexer: note tags: %w", err)
	}
	return tags, nil
}

// GetNotesByTag returns the live notes tagged name. name is normalized the
// way the parser normalizes tags, so "#Research" and "research" match alike.
func (ix *Indexer) GetNotesByTag(ctx context.Context, name string) ([]models.Note, error) {
	ids, err := ix.idx.NotesByTag(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("indexer: notes by tag: %w", err)
	}
	return ix.loadNotes(ctx, ids)
}

// FilterNotesByTags returns notes carrying every (matchAll) or any of names.
func (ix *Indexer) FilterNotesByTags(ctx context.Context, names []string, matchAll bool) ([]models.Note, error) {
	ids, err := ix.idx.NotesByTags(ctx, names, matchAll)
	if err != nil {
		return nil, fmt.Errorf("indexer: filter by tags: %w", err)
	}
	return ix.loadNotes(ctx, ids)
}

// ListTags returns every tag in use with its note count.
func (ix *Indexer) ListTags(ctx context.Context) ([]models.TagCount, error) {
	tags, err := ix.idx.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("indexer: list tags: %w", err)
	}
	return tags, nil
}

// Graph returns every live note and the resolved links between them.
func (ix *Indexer) Graph(ctx context.Context) ([]models.GraphNode, []models.GraphLink, error) {
	notes, err := ix.notes.List(ctx, storage.ListOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("indexer: graph notes: %w", err)
	}
	snap, err := ix.idx.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("indexer: graph links: %w", err)
	}

	live := make(map[string]struct{}, len(notes))
	nodes := make([]models.GraphNode, 0, len(notes))
	for _, n := range notes {
		live[n.ID] = struct{}{}
		nodes = append(nodes, models.GraphNode{ID: n.ID, Title: n.Title})
	}
	links := make([]models.GraphLink, 0, len(snap.Links))
	for _, e := range snap.Links {
		if e.Dangling() {
			continue
		}
		_, src := live[e.SourceNoteID]
		_, dst := live[e.TargetNoteID]
		if src && dst {
			links = append(links, models.GraphLink{Source: e.SourceNoteID, Target: e.TargetNoteID})
		}
	}
	return nodes, links, nil
}

// Snapshot exposes the raw index rows.
func (ix *Indexer) Snapshot(ctx context.Context) (*index.Snapshot, error) {
	return ix.idx.Snapshot(ctx)
}

// Stats returns row counts of the index.
func (ix *Indexer) Stats(ctx context.Context) (index.Stats, error) {
	return ix.idx.Stats(ctx)
}

func (ix *Indexer) loadNotes(ctx context.Context, ids []string) ([]models.Note, error) {
	if len(ids) == 0 {
		return []models.Note{}, nil
	}
	notes, err := ix.notes.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("indexer: load notes: %w", err)
	}
	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
		}
		return notes[i].ID < notes[j].ID
	})
	if notes == nil {
		notes = []models.Note{}
	}
	return notes, nil
}
