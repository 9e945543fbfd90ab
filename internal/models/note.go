// Package models defines the domain types for Scribe.
package models

import "time"

// DefaultFolder is assigned to notes created without a folder.
const DefaultFolder = "inbox"

// Note is a single markdown note. A non-nil DeletedAt marks a tombstone.
type Note struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Folder    string     `json:"folder"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the note has been soft-deleted.
func (n *Note) Deleted() bool {
	return n.DeletedAt != nil
}

// Tag is a named label shared across notes.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TagCount is a tag together with the number of live notes carrying it.
type TagCount struct {
	Tag
	NoteCount int `json:"note_count"`
}

// LinkEdge is one distinct wiki-link relationship from a source note to a
// target title. TargetNoteID is empty while the link is dangling.
type LinkEdge struct {
	SourceNoteID string `json:"source_note_id"`
	TargetTitle  string `json:"target_title"`
	TargetNoteID string `json:"target_note_id,omitempty"`
	Occurrences  int    `json:"occurrences"`
}

// Dangling reports whether the link does not resolve to a live note.
func (e LinkEdge) Dangling() bool {
	return e.TargetNoteID == ""
}

// TagEdge associates a note with a normalized tag name.
type TagEdge struct {
	NoteID  string `json:"note_id"`
	TagName string `json:"tag_name"`
}

// GraphNode is a note in the link graph.
type GraphNode struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// GraphLink is a resolved edge in the link graph.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}
