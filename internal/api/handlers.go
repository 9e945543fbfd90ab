package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/scribe/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// urlParam returns a decoded path parameter. Tag names may contain encoded
// slashes (research%2Fstats).
func urlParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func setETag(w http.ResponseWriter, n *NoteDetail) {
	if n != nil && n.Checksum != "" {
		w.Header().Set("ETag", `"`+n.Checksum+`"`)
	}
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, optionally filtered by folder or tags
//	@Tags			notes
//	@Produce		json
//	@Param			folder		query		string	false	"Folder"
//	@Param			tags		query		string	false	"Comma separated tag names"
//	@Param			match		query		string	false	"Tag match mode"	Enums(any, all)
//	@Param			deleted		query		bool	false	"Include deleted notes"
//	@Success		200			{object}	NoteListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := noteservice.ListParams{Folder: q.Get("folder")}

	if raw := q.Get("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				params.Tags = append(params.Tags, t)
			}
		}
	}
	switch q.Get("match") {
	case "", "any":
	case "all":
		params.MatchAll = true
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("match must be 'any' or 'all'"))
		return
	}
	if raw := q.Get("deleted"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("deleted must be a boolean"))
			return
		}
		params.IncludeDeleted = v
	}

	items, err := h.svc.ListNotes(r.Context(), params)
	if err != nil {
		writeError(w, r, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a note with its tags, links and backlinks
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "get note", err)
		return
	}
	setETag(w, note)
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a note and index its links and tags
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	note, err := h.svc.CreateNote(r.Context(), noteservice.CreateInput{
		Title:   req.Title,
		Content: req.Content,
		Folder:  req.Folder,
	})
	setETag(w, note)
	writeSaved(w, r, "create note", http.StatusCreated, note, err)
}

// UpdateNote handles PATCH /api/notes/{id}.
//
//	@Summary		Update a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Note id"
//	@Param			If-Match	header		string				false	"Checksum of the revision being edited"
//	@Param			body		body		UpdateNoteRequest	true	"Fields to change"
//	@Success		200			{object}	NoteDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [patch]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	note, err := h.svc.UpdateNote(r.Context(), chi.URLParam(r, "id"), req.toUpdate(), ifMatch)
	setETag(w, note)
	writeSaved(w, r, "update note", http.StatusOK, note, err)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Move a note to the trash
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204	"Note deleted"
//	@Success		200	{object}	DeleteResponse	"Deleted, index stale"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteNote(r.Context(), id); err != nil {
		writeSaved(w, r, "delete note", http.StatusOK, DeleteResponse{ID: id, IndexStale: true}, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreNote handles POST /api/notes/{id}/restore.
//
//	@Summary		Restore a deleted note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse	"Note is not deleted"
//	@Security		BearerAuth
//	@Router			/notes/{id}/restore [post]
func (h *Handler) RestoreNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.RestoreNote(r.Context(), chi.URLParam(r, "id"))
	setETag(w, note)
	writeSaved(w, r, "restore note", http.StatusOK, note, err)
}

// Backlinks handles GET /api/notes/{id}/backlinks.
//
//	@Summary		Notes linking to a note
//	@Tags			links
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	BacklinksResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	refs, err := h.svc.Backlinks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Backlinks: refs})
}

// OutgoingLinks handles GET /api/notes/{id}/links.
//
//	@Summary		Wiki-links of a note, dangling ones included
//	@Tags			links
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	LinksResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/links [get]
func (h *Handler) OutgoingLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.svc.OutgoingLinks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "outgoing links", err)
		return
	}
	writeJSON(w, http.StatusOK, LinksResponse{Links: links})
}

// NoteTags handles GET /api/notes/{id}/tags.
//
//	@Summary		Tags of a note
//	@Tags			tags
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteTagsResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/tags [get]
func (h *Handler) NoteTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.NoteTags(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "note tags", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteTagsResponse{Tags: tags})
}

// ListTags handles GET /api/tags.
//
//	@Summary		Tags in use with note counts
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagListResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context())
	if err != nil {
		writeError(w, r, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

// NotesByTag handles GET /api/tags/{name}/notes.
//
//	@Summary		Notes carrying a tag
//	@Tags			tags
//	@Produce		json
//	@Param			name	path		string	true	"Tag name, with or without #"
//	@Success		200		{object}	TagNotesResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags/{name}/notes [get]
func (h *Handler) NotesByTag(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	refs, err := h.svc.NotesByTag(r.Context(), name)
	if err != nil {
		writeError(w, r, "notes by tag", err)
		return
	}
	writeJSON(w, http.StatusOK, TagNotesResponse{Tag: name, Notes: refs})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, r, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the link graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	nodes, links, err := h.svc.Graph(r.Context())
	if err != nil {
		writeError(w, r, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, GraphResponse{Nodes: nodes, Links: links})
}

// Reindex handles POST /api/index/reindex.
//
//	@Summary		Rebuild the link and tag index from every note
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	ReindexResponse
//	@Security		BearerAuth
//	@Router			/index/reindex [post]
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Reindex(r.Context())
	if err != nil {
		writeError(w, r, "reindex", err)
		return
	}
	writeJSON(w, http.StatusOK, newReindexResponse(rep))
}

// IndexStats handles GET /api/index/stats.
//
//	@Summary		Index row counts
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Security		BearerAuth
//	@Router			/index/stats [get]
func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.IndexStats(r.Context())
	if err != nil {
		writeError(w, r, "index stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
