package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/scribe/internal/noteservice"
	"github.com/starford/scribe/internal/testutil"
)

var quiet = slog.New(slog.NewJSONHandler(io.Discard, nil))

// testEnv sets up a temp SQLite store, service and router. An empty token
// disables auth.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) http.Handler {
	t.Helper()
	st := testutil.TestStack(t)
	svc := noteservice.NewService(st.Store, st.Indexer, nil)
	return NewRouter(svc, authEnabled, token, sseHandler, quiet)
}

func do(t *testing.T, router http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func createNote(t *testing.T, router http.Handler, title, content string) NoteDetail {
	t.Helper()
	w := do(t, router, http.MethodPost, "/notes", map[string]string{"title": title, "content": content})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[NoteDetail](t, w)
}

func TestCreateAndGetNote(t *testing.T) {
	router := testEnv(t, "")

	created := createNote(t, router, "Hello", "# Hello\nWorld #greeting")
	if created.ID == "" || created.Checksum == "" {
		t.Fatalf("missing id or checksum: %+v", created)
	}

	w := do(t, router, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if etag := w.Header().Get("ETag"); etag != `"`+created.Checksum+`"` {
		t.Errorf("etag = %q", etag)
	}
	got := decode[NoteDetail](t, w)
	if got.Title != "Hello" {
		t.Errorf("title = %q", got.Title)
	}
	if len(got.Tags) != 1 || got.Tags[0].Name != "greeting" {
		t.Errorf("tags = %+v", got.Tags)
	}
}

func TestCreateNote_DerivesTitle(t *testing.T) {
	router := testEnv(t, "")
	n := createNote(t, router, "", "---\ntitle: From Frontmatter\n---\nbody")
	if n.Title != "From Frontmatter" {
		t.Errorf("title = %q", n.Title)
	}

	w := do(t, router, http.MethodPost, "/notes", map[string]string{"content": "no title anywhere"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("untitled create = %d, want 400", w.Code)
	}
}

func TestCreateNote_InvalidBody(t *testing.T) {
	router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/notes", bytes.NewReader([]byte("{nope")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodPost, "/notes", map[string]string{"title": "x", "path": "old.md"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown field = %d, want 400", w.Code)
	}
}

func TestBacklinksScenario(t *testing.T) {
	router := testEnv(t, "")

	a := createNote(t, router, "A", "See [[B]]")
	b := createNote(t, router, "B", "target")

	w := do(t, router, http.MethodGet, "/notes/"+b.ID+"/backlinks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("backlinks status = %d", w.Code)
	}
	resp := decode[BacklinksResponse](t, w)
	if len(resp.Backlinks) != 1 || resp.Backlinks[0].ID != a.ID {
		t.Errorf("backlinks = %+v, want [%s]", resp.Backlinks, a.ID)
	}

	w = do(t, router, http.MethodGet, "/notes/"+a.ID+"/links", nil)
	links := decode[LinksResponse](t, w).Links
	if len(links) != 1 || links[0].TargetNoteID != b.ID || links[0].Occurrences != 1 {
		t.Errorf("links = %+v", links)
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	router := testEnv(t, "")
	n := createNote(t, router, "Doc", "v1")

	body := map[string]string{"content": "v2 [[Other]]"}
	w := do(t, router, http.MethodPatch, "/notes/"+n.ID, body, "If-Match", `"wrong"`)
	if w.Code != http.StatusConflict {
		t.Fatalf("stale If-Match = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodPatch, "/notes/"+n.ID, body, "If-Match", `"`+n.Checksum+`"`)
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}
	updated := decode[NoteDetail](t, w)
	if len(updated.Links) != 1 || !updated.Links[0].Dangling() {
		t.Errorf("links = %+v, want one dangling", updated.Links)
	}
}

func TestUpdateNote_Validation(t *testing.T) {
	router := testEnv(t, "")
	n := createNote(t, router, "Doc", "v1")

	cases := map[string]any{
		"empty body":  map[string]string{},
		"blank title": map[string]string{"title": "   "},
		"empty title": map[string]string{"title": ""},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(t, router, http.MethodPatch, "/notes/"+n.ID, body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestUpdateNote_NotFound(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPatch, "/notes/ghost", map[string]string{"content": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
}

func TestDeleteAndRestore(t *testing.T) {
	router := testEnv(t, "")
	target := createNote(t, router, "Target", "")
	src := createNote(t, router, "Source", "[[Target]]")

	w := do(t, router, http.MethodDelete, "/notes/"+target.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/notes/"+target.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("get deleted = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodDelete, "/notes/"+target.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("double delete = %d, want 404", w.Code)
	}

	w = do(t, router, http.MethodGet, "/notes?deleted=true", nil)
	if got := decode[NoteListResponse](t, w); got.Total != 2 {
		t.Errorf("total with deleted = %d, want 2", got.Total)
	}

	w = do(t, router, http.MethodPost, "/notes/"+target.ID+"/restore", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("restore = %d", w.Code)
	}
	restored := decode[NoteDetail](t, w)
	if len(restored.Backlinks) != 1 || restored.Backlinks[0].ID != src.ID {
		t.Errorf("backlinks after restore = %+v", restored.Backlinks)
	}

	if w := do(t, router, http.MethodPost, "/notes/"+target.ID+"/restore", nil); w.Code != http.StatusConflict {
		t.Errorf("restore live = %d, want 409", w.Code)
	}
}

func TestTagEndpoints(t *testing.T) {
	router := testEnv(t, "")
	a := createNote(t, router, "A", "#research/stats and #go")
	createNote(t, router, "B", "#go")

	w := do(t, router, http.MethodGet, "/tags", nil)
	tags := decode[TagListResponse](t, w).Tags
	if len(tags) != 2 || tags[0].Name != "go" || tags[0].NoteCount != 2 {
		t.Errorf("tags = %+v", tags)
	}

	w = do(t, router, http.MethodGet, "/tags/research%2Fstats/notes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("notes by tag = %d", w.Code)
	}
	byTag := decode[TagNotesResponse](t, w)
	if len(byTag.Notes) != 1 || byTag.Notes[0].ID != a.ID {
		t.Errorf("notes = %+v", byTag.Notes)
	}

	w = do(t, router, http.MethodGet, "/notes/"+a.ID+"/tags", nil)
	if got := decode[NoteTagsResponse](t, w).Tags; len(got) != 2 {
		t.Errorf("note tags = %+v", got)
	}

	w = do(t, router, http.MethodGet, "/notes?tags=go,research/stats&match=all", nil)
	if got := decode[NoteListResponse](t, w); got.Total != 1 {
		t.Errorf("match all total = %d, want 1", got.Total)
	}
	w = do(t, router, http.MethodGet, "/notes?tags=go,research/stats", nil)
	if got := decode[NoteListResponse](t, w); got.Total != 2 {
		t.Errorf("match any total = %d, want 2", got.Total)
	}
	if w := do(t, router, http.MethodGet, "/notes?tags=go&match=some", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad match = %d, want 400", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testEnv(t, "")
	createNote(t, router, "Golang", "Go is a programming language")
	createNote(t, router, "Python", "Python is also a language")

	w := do(t, router, http.MethodGet, "/search?q=programming", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	if got := decode[SearchResponse](t, w).Results; len(got) != 1 || got[0].Title != "Golang" {
		t.Errorf("results = %+v", got)
	}

	if w := do(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestGraphEndpoint(t *testing.T) {
	router := testEnv(t, "")
	createNote(t, router, "A", "[[B]] [[C]]")
	createNote(t, router, "B", "[[C]]")
	createNote(t, router, "C", "")

	w := do(t, router, http.MethodGet, "/graph", nil)
	g := decode[GraphResponse](t, w)
	if len(g.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(g.Nodes))
	}
	if len(g.Links) != 3 {
		t.Errorf("links = %d, want 3", len(g.Links))
	}
}

func TestReindexAndStats(t *testing.T) {
	router := testEnv(t, "")
	createNote(t, router, "A", "[[B]] #x")
	createNote(t, router, "B", "")

	w := do(t, router, http.MethodPost, "/index/reindex", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reindex = %d", w.Code)
	}
	rep := decode[ReindexResponse](t, w)
	if rep.Total != 2 || rep.Indexed != 2 || rep.Status != "ok" {
		t.Errorf("report = %+v", rep)
	}

	w = do(t, router, http.MethodGet, "/index/stats", nil)
	stats := decode[StatsResponse](t, w)
	if stats.IndexedNotes != 2 || stats.Links != 1 || stats.DanglingLinks != 0 || stats.Tags != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/notes/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing note = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/notes/nope/backlinks", nil); w.Code != http.StatusNotFound {
		t.Errorf("backlinks of missing note = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	router := testEnv(t, "secret123")

	if w := do(t, router, http.MethodGet, "/notes", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("missing token = %d, want 401", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/notes", nil, "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
	w := do(t, router, http.MethodPost, "/notes", map[string]string{"title": "Auth"}, "Authorization", "Bearer secret123")
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/notes", nil); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// blockingSSE writes headers and blocks until the client goes away.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret", blockingSSE)

	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}
