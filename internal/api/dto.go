package api

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/scribe/internal/index"
	"github.com/starford/scribe/internal/indexer"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/noteservice"
	"github.com/starford/scribe/internal/storage"
)

const (
	maxTitleLen  = 500
	maxFolderLen = 200
)

// CreateNoteRequest is the request body for creating a note. An empty title
// is derived from the content.
type CreateNoteRequest struct {
	Title   string `json:"title" example:"Hello"`
	Content string `json:"content" example:"# Hello\nSee [[World]] #greeting"`
	Folder  string `json:"folder,omitempty" example:"inbox"`
}

// Validate validates the create request.
func (r *CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Length(0, maxTitleLen)),
		validation.Field(&r.Folder, validation.Length(0, maxFolderLen)),
	)
}

// UpdateNoteRequest is the request body for a partial note update. Omitted
// fields are left unchanged.
type UpdateNoteRequest struct {
	Title   *string `json:"title,omitempty" example:"Renamed"`
	Content *string `json:"content,omitempty" example:"# Updated\nContent"`
	Folder  *string `json:"folder,omitempty" example:"archive"`
}

// Validate validates the update request.
func (r *UpdateNoteRequest) Validate() error {
	if r.Title == nil && r.Content == nil && r.Folder == nil {
		return validation.NewError("validation_empty_update", "at least one of title, content, folder is required")
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.By(blankTitle), validation.Length(1, maxTitleLen)),
		validation.Field(&r.Folder, validation.NilOrNotEmpty, validation.Length(1, maxFolderLen)),
	)
}

func blankTitle(v any) error {
	if s, ok := v.(*string); ok && s != nil && strings.TrimSpace(*s) == "" {
		return validation.NewError("validation_blank_title", "must not be blank")
	}
	return nil
}

func (r *UpdateNoteRequest) toUpdate() storage.NoteUpdate {
	return storage.NoteUpdate{Title: r.Title, Content: r.Content, Folder: r.Folder}
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteRef is a note reference in link listings.
type NoteRef = noteservice.NoteRef

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// DeleteResponse is returned when a note was deleted but its index rows
// could not be dropped.
type DeleteResponse struct {
	ID         string `json:"id"`
	IndexStale bool   `json:"index_stale"`
}

// BacklinksResponse lists the notes linking to a note.
type BacklinksResponse struct {
	Backlinks []NoteRef `json:"backlinks" validate:"required"`
}

// LinksResponse lists the outgoing links of a note.
type LinksResponse struct {
	Links []models.LinkEdge `json:"links" validate:"required"`
}

// NoteTagsResponse lists the tags of a note.
type NoteTagsResponse struct {
	Tags []models.Tag `json:"tags" validate:"required"`
}

// TagListResponse lists every tag in use with its note count.
type TagListResponse struct {
	Tags []models.TagCount `json:"tags" validate:"required"`
}

// TagNotesResponse lists the notes carrying a tag.
type TagNotesResponse struct {
	Tag   string    `json:"tag" example:"research"`
	Notes []NoteRef `json:"notes" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []storage.SearchResult `json:"results" validate:"required"`
}

// GraphResponse wraps the link graph.
type GraphResponse struct {
	Nodes []models.GraphNode `json:"nodes" validate:"required"`
	Links []models.GraphLink `json:"links" validate:"required"`
}

// ReindexResponse reports a full reindex.
type ReindexResponse struct {
	Total      int    `json:"total"`
	Indexed    int    `json:"indexed"`
	Skipped    int    `json:"skipped"`
	Removed    int    `json:"removed"`
	Failed     int    `json:"failed"`
	DurationMS int64  `json:"duration_ms"`
	Status     string `json:"status" example:"ok"`
}

func newReindexResponse(rep indexer.Report) ReindexResponse {
	status := "ok"
	if rep.Failed > 0 {
		status = "partial"
	}
	return ReindexResponse{
		Total:      rep.Total,
		Indexed:    rep.Indexed,
		Skipped:    rep.Skipped,
		Removed:    rep.Removed,
		Failed:     rep.Failed,
		DurationMS: rep.Duration.Milliseconds(),
		Status:     status,
	}
}

// StatsResponse is the index row count summary.
type StatsResponse = index.Stats
