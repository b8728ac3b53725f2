package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap/zaptest"

	"github.com/yourorg/notioncms/internal/config"
	"github.com/yourorg/notioncms/internal/notion"
)

const (
	fakePage = `{
		"object": "page", "id": "p1",
		"created_time": "2024-01-01T00:00:00.000Z", "last_edited_time": "2024-02-01T00:00:00.000Z",
		"properties": {
			"Name": {"type": "title", "title": [{"plain_text": "Launch Notes"}]},
			"Slug": {"type": "rich_text", "rich_text": [{"plain_text": "launch-notes"}]},
			"Related": {"type": "relation", "relation": [{"id": "p2"}]}
		}
	}`
	fakeRelatedPage = `{
		"object": "page", "id": "p2",
		"properties": {"Name": {"type": "title", "title": [{"plain_text": "Roadmap"}]}}
	}`
	fakeBlocks = `{"object": "list", "results": [
		{"object": "block", "id": "b1", "type": "heading_1", "has_children": false,
		 "heading_1": {"rich_text": [{"plain_text": "Launch"}]}},
		{"object": "block", "id": "b2", "type": "paragraph", "has_children": false,
		 "paragraph": {"rich_text": [{"plain_text": "Ship <it>"}]}}
	], "next_cursor": null, "has_more": false}`
)

// fakeNotion is an in-memory stand-in for the Notion REST API.
type fakeNotion struct {
	pageCalls map[string]int
	queries   []notion.QueryDatabaseRequest
	appended  []string
	mu        sync.Mutex
}

func newFakeNotion(t *testing.T) (*fakeNotion, *httptest.Server) {
	t.Helper()

	f := &fakeNotion{pageCalls: map[string]int{}}
	r := chi.NewRouter()
	r.Get("/pages/{id}", f.page)
	r.Get("/blocks/{id}/children", f.children)
	r.Patch("/blocks/{id}/children", f.append)
	r.Post("/databases/{id}/query", f.query)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeNotion) page(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f.mu.Lock()
	f.pageCalls[id]++
	f.mu.Unlock()

	switch id {
	case "p1":
		writeRaw(w, http.StatusOK, fakePage)
	case "p2":
		writeRaw(w, http.StatusOK, fakeRelatedPage)
	default:
		writeRaw(w, http.StatusNotFound, `{"object":"error","status":404,"code":"object_not_found","message":"nope"}`)
	}
}

func (f *fakeNotion) children(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "id") == "p1" {
		writeRaw(w, http.StatusOK, fakeBlocks)
		return
	}
	writeRaw(w, http.StatusOK, `{"object":"list","results":[],"has_more":false}`)
}

func (f *fakeNotion) append(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Children []map[string]json.RawMessage `json:"children"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRaw(w, http.StatusBadRequest, `{"status":400,"code":"validation_error","message":"bad body"}`)
		return
	}

	types := make([]string, 0, len(req.Children))
	for _, child := range req.Children {
		var blockType string
		if err := json.Unmarshal(child["type"], &blockType); err != nil || blockType == "" {
			writeRaw(w, http.StatusBadRequest, `{"status":400,"code":"validation_error","message":"block type missing"}`)
			return
		}
		if _, ok := child[blockType]; !ok {
			writeRaw(w, http.StatusBadRequest, `{"status":400,"code":"validation_error","message":"block payload missing"}`)
			return
		}
		types = append(types, blockType)
	}

	f.mu.Lock()
	f.appended = append(f.appended, types...)
	f.mu.Unlock()
	writeRaw(w, http.StatusOK, `{"object":"list","results":[]}`)
}

func (f *fakeNotion) query(w http.ResponseWriter, r *http.Request) {
	var req notion.QueryDatabaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRaw(w, http.StatusBadRequest, `{"status":400,"code":"validation_error","message":"bad body"}`)
		return
	}
	f.mu.Lock()
	f.queries = append(f.queries, req)
	f.mu.Unlock()

	if filter, ok := req.Filter.(map[string]any); ok {
		richText, _ := filter["rich_text"].(map[string]any)
		if equals, _ := richText["equals"].(string); equals == "launch-notes" {
			writeRaw(w, http.StatusOK, `{"results":[`+fakePage+`],"has_more":false,"next_cursor":null}`)
			return
		}
		writeRaw(w, http.StatusOK, `{"results":[],"has_more":false,"next_cursor":null}`)
		return
	}

	if req.StartCursor == "" {
		writeRaw(w, http.StatusOK, `{"results":[`+fakePage+`],"has_more":true,"next_cursor":"c1"}`)
		return
	}
	writeRaw(w, http.StatusOK, `{"results":[`+fakeRelatedPage+`],"has_more":false,"next_cursor":null}`)
}

func (f *fakeNotion) calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pageCalls[id]
}

func (f *fakeNotion) recordedQueries() []notion.QueryDatabaseRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notion.QueryDatabaseRequest(nil), f.queries...)
}

func (f *fakeNotion) appendedBlocks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.appended...)
}

func writeRaw(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// useFakeRuntime points every command at srv for the duration of the test.
func useFakeRuntime(t *testing.T, srv *httptest.Server, settings config.Settings) *appRuntime {
	t.Helper()

	if settings.Profile == "" {
		settings.Profile = "default"
	}
	rt := &appRuntime{
		client: notion.NewClient(notion.ClientConfig{
			Token:   "test-token",
			BaseURL: srv.URL + "/",
		}),
		logger:   zaptest.NewLogger(t),
		settings: settings,
	}

	previous := runtimeFactory
	runtimeFactory = func(*globalOptions) (*appRuntime, error) { return rt, nil }
	t.Cleanup(func() { runtimeFactory = previous })
	return rt
}
