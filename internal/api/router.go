package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/scribe/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler, logger *slog.Logger) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(LoggerMiddleware(logger))
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Post("/", h.CreateNote)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetNote)
			r.Patch("/", h.UpdateNote)
			r.Delete("/", h.DeleteNote)
			r.Post("/restore", h.RestoreNote)
			r.Get("/backlinks", h.Backlinks)
			r.Get("/links", h.OutgoingLinks)
			r.Get("/tags", h.NoteTags)
		})
	})

	r.Get("/tags", h.ListTags)
	r.Get("/tags/{name}/notes", h.NotesByTag)

	r.Get("/search", h.Search)
	r.Get("/graph", h.Graph)

	r.Post("/index/reindex", h.Reindex)
	r.Get("/index/stats", h.IndexStats)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
