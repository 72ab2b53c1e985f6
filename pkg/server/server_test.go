package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/db"
	"github.com/dtnitsch/higdocs/pkg/indexer"
	"github.com/dtnitsch/higdocs/pkg/loader"
	"github.com/dtnitsch/higdocs/pkg/logging"
)

func document(id, title, platform, category string) string {
	return `---
title: ` + title + `
platform: ` + platform + `
category: ` + category + `
url: https://developer.apple.com/design/human-interface-guidelines/` + id + `
id: ` + id + `
lastUpdated: 2025-06-10T08:30:00.000Z
extractionMethod: crawlee
qualityScore: 0.9
confidence: 0.9
hasCodeExamples: false
hasImages: false
keywords: [` + id + `, design]
---

# ` + title + `

People use ` + strings.ToLower(title) + ` every day.

## Best practices

- Keep ` + strings.ToLower(title) + ` simple.
`
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

type fixture struct {
	server  *Server
	handler http.Handler
	db      *db.DB
	root    string
}

func setupServer(t *testing.T, cfg models.ServerConfig) *fixture {
	t.Helper()

	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	root := t.TempDir()
	writeFile(t, root, "components/buttons.md", document("buttons", "Buttons", "universal", "components"))
	writeFile(t, root, "components/menus.md", document("menus", "Menus", "macos", "components"))
	writeFile(t, root, "foundations/color.md", document("color", "Color", "universal", "foundations"))

	ix := indexer.New(database, root, loader.Options{Workers: 2, Logger: &logging.Nop, SkipLanguage: true})
	_, err = ix.Run(t.Context())
	require.NoError(t, err)

	srv := New(database, cfg, Options{Indexer: ix, Version: "test", Logger: &logging.Nop})
	return &fixture{server: srv, handler: srv.Handler(), db: database, root: root}
}

func (f *fixture) do(t *testing.T, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) *ErrorBody {
	t.Helper()
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error *ErrorBody      `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil && env.Error == nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env.Error
}

func TestHealth(t *testing.T) {
	f := setupServer(t, models.ServerConfig{})

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.Nil(t, decodeEnvelope(t, rec, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test", health.Version)
	assert.Equal(t, 3, health.Documents)
	require.NotNil(t, health.LastRun)
	assert.Equal(t, 3, health.LastRun.IndexedCount)
}

func TestListDocuments(t *testing.T) {
	f := setupServer(t, models.ServerConfig{})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantSlugs  []string
		wantTotal  int
	}{
		{"all", "/api/v1/documents", http.StatusOK, []string{"buttons", "menus", "color"}, 3},
		{"category", "/api/v1/documents?category=foundations", http.StatusOK, []string{"color"}, 1},
		{"platform", "/api/v1/documents?platform=macOS", http.StatusOK, []string{"menus"}, 1},
		{"page", "/api/v1/documents?limit=1&offset=1", http.StatusOK, []string{"menus"}, 3},
		{"bad limit", "/api/v1/documents?limit=abc", http.StatusBadRequest, nil, 0},
		{"negative offset", "/api/v1/documents?offset=-1", http.StatusBadRequest, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.target, "", nil)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var list DocumentList
			apiErr := decodeEnvelope(t, rec, &list)
			if tt.wantStatus != http.StatusOK {
				require.NotNil(t, apiErr)
				assert.Equal(t, CodeBadRequest, apiErr.Code)
				return
			}
			require.Nil(t, apiErr)

			var slugs []string
			for _, d := range list.Documents {
				slugs = append(slugs, d.Slug)
			}
			assert.Equal(t, tt.wantSlugs, slugs)
			assert.Equal(t, tt.wantTotal, list.Total)
		})
	}
}

func TestGetDocument(t *testing.T) {
	f := setupServer(t, models.ServerConfig{})

	rec := f.do(t, http.MethodGet, "/api/v1/documents/buttons", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc models.Document
	require.Nil(t, decodeEnvelope(t, rec, &doc))
	assert.Equal(t, "Buttons", doc.FrontMatter.Title)
	assert.NotEmpty(t, doc.Sections)

	rec = f.do(t, http.MethodGet, "/api/v1/documents/buttons?view=outline", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outline"`)

	rec = f.do(t, http.MethodGet, "/api/v1/documents/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	apiErr := decodeEnvelope(t, rec, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, CodeNotFound, apiErr.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/documents/buttons?view=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentRenderings(t *testing.T) {
	f := setupServer(t, models.ServerConfig{})

	rec := f.do(t, http.MethodGet, "/api/v1/documents/menus/markdown", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/markdown"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "---\n"))
	assert.Contains(t, body, "title: Menus")
	assert.Contains(t, body, "# Menus")

	rec = f.do(t, http.MethodGet, "/api/v1/documents/menus/html", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "<title>Menus</title>")
	assert.Contains(t, rec.Body.String(), "Menus</h1>")

	rec = f.do(t, http.MethodGet, "/api/v1/documents/missing/html", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchAndQuery(t *testing.T) {
	f := setupServer(t, models.ServerConfig{})

	rec := f.do(t, http.MethodGet, "/api/v1/search?q=menus", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var search struct {
		Count int `json:"count"`
		Hits  []struct {
			Slug string `json:"slug"`
		} `json:"hits"`
	}
	require.Nil(t, decodeEnvelope(t, rec, &search))
	require.Equal(t, 1, search.Count)
	assert.Equal(t, "menus", search.Hits[0].Slug)

	rec = f.do(t, http.MethodGet, "/api/v1/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/query?filter=category%3Dcomponents", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var query struct {
		MatchCount int `json:"match_count"`
	}
	require.Nil(t, decodeEnvelope(t, rec, &query))
	assert.Equal(t, 2, query.MatchCount)

	rec = f.do(t, http.MethodGet, "/api/v1/query?filter=colour%3Dred", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKeywordsAndFacets(t *testing.T) {
	f := setupServer(t, models.ServerConfig{})

	rec := f.do(t, http.MethodGet, "/api/v1/keywords?top=3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var computed struct {
		Source   string `json:"source"`
		Keywords []struct {
			Word string `json:"word"`
		} `json:"keywords"`
	}
	require.Nil(t, decodeEnvelope(t, rec, &computed))
	assert.Equal(t, "computed", computed.Source)
	assert.Len(t, computed.Keywords, 3)

	rec = f.do(t, http.MethodGet, "/api/v1/keywords?source=frontmatter", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fm struct {
		Keywords []db.Facet `json:"keywords"`
	}
	require.Nil(t, decodeEnvelope(t, rec, &fm))
	require.NotEmpty(t, fm.Keywords)
	assert.Equal(t, db.Facet{Name: "design", Count: 3}, fm.Keywords[0])

	rec = f.do(t, http.MethodGet, "/api/v1/keywords?source=other", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cats []db.Facet
	require.Nil(t, decodeEnvelope(t, rec, &cats))
	assert.Equal(t, []db.Facet{{Name: "components", Count: 2}, {Name: "foundations", Count: 1}}, cats)

	rec = f.do(t, http.MethodGet, "/api/v1/platforms", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var platforms []db.Facet
	require.Nil(t, decodeEnvelope(t, rec, &platforms))
	assert.NotEmpty(t, platforms)
}

func TestRuns(t *testing.T) {
	f := setupServer(t, models.ServerConfig{})

	rec := f.do(t, http.MethodGet, "/api/v1/runs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []db.Run
	require.Nil(t, decodeEnvelope(t, rec, &runs))
	require.Len(t, runs, 1)

	rec = f.do(t, http.MethodGet, "/api/v1/runs/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/runs/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/runs/latest", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var latest db.Run
	require.Nil(t, decodeEnvelope(t, rec, &latest))
	assert.Equal(t, runs[0].RunID, latest.RunID)
	assert.Equal(t, 3, latest.FileCount)
}

func TestLatestRunWithoutRuns(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	srv := New(database, models.ServerConfig{}, Options{Logger: &logging.Nop})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCorpusEndpoint(t *testing.T) {
	f := setupServer(t, models.ServerConfig{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"search", `{"verb":"search","query":"color"}`, http.StatusOK, ""},
		{"upper case verb", `{"verb":"SUMMARIZE"}`, http.StatusOK, ""},
		{"unknown verb", `{"verb":"serch"}`, http.StatusBadRequest, "unknown_verb"},
		{"missing id", `{"verb":"get"}`, http.StatusBadRequest, "missing_parameter"},
		{"unknown id", `{"verb":"get","id":"nope"}`, http.StatusNotFound, "not_found"},
		{"bad json", `{verb`, http.StatusBadRequest, "invalid_parameter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/v1/corpus", tt.body, map[string]string{"Content-Type": "application/json"})
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var resp models.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			if tt.wantError == "" {
				assert.Nil(t, resp.Error)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantError, resp.Error.Type)
		})
	}
}

func TestReindex(t *testing.T) {
	f := setupServer(t, models.ServerConfig{AdminToken: "s3cret"})

	rec := f.do(t, http.MethodPost, "/api/v1/reindex", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/reindex", "", map[string]string{adminTokenHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Warm the cache, then change the tree.
	rec = f.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	writeFile(t, f.root, "patterns/loading.md", document("loading", "Loading", "universal", "patterns"))

	rec = f.do(t, http.MethodPost, "/api/v1/reindex", "", map[string]string{adminTokenHeader: "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary indexer.Summary
	require.Nil(t, decodeEnvelope(t, rec, &summary))
	assert.Equal(t, 1, summary.Indexed)
	assert.Equal(t, 3, summary.Unchanged)

	rec = f.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Contains(t, rec.Body.String(), "patterns")
}

func TestReindexWithoutIndexer(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	srv := New(database, models.ServerConfig{}, Options{Logger: &logging.Nop})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/reindex", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestResponseCache(t *testing.T) {
	f := setupServer(t, models.ServerConfig{CacheTTL: time.Minute})

	first := f.do(t, http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := f.do(t, http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	// Errors are not cached.
	f.do(t, http.MethodGet, "/api/v1/documents/missing", "", nil)
	rec := f.do(t, http.MethodGet, "/api/v1/documents/missing", "", nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	stats := f.server.Cache().Stats()
	assert.Equal(t, int64(1), stats.Hits)
}

func TestCacheDisabled(t *testing.T) {
	f := setupServer(t, models.ServerConfig{CacheTTL: -1})

	f.do(t, http.MethodGet, "/api/v1/stats", "", nil)
	rec := f.do(t, http.MethodGet, "/api/v1/stats", "", nil)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestRateLimit(t *testing.T) {
	f := setupServer(t, models.ServerConfig{RateLimit: 0.001, RateBurst: 2})

	header := map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}
	for i := 0; i < 2; i++ {
		rec := f.do(t, http.MethodGet, "/health", "", header)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/health", "", header)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	apiErr := decodeEnvelope(t, rec, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, CodeRateLimited, apiErr.Code)

	// Other clients have their own budget.
	rec = f.do(t, http.MethodGet, "/health", "", map[string]string{"X-Forwarded-For": "198.51.100.7"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecovery(t *testing.T) {
	h := Recovery(&logging.Nop)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeInternal)
}

func TestCORS(t *testing.T) {
	f := setupServer(t, models.ServerConfig{CORSOrigins: []string{"https://example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/stats", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = f.do(t, http.MethodGet, "/api/v1/stats", "", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFoundRoute(t *testing.T) {
	f := setupServer(t, models.ServerConfig{})
	rec := f.do(t, http.MethodGet, "/api/v2/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	apiErr := decodeEnvelope(t, rec, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, CodeNotFound, apiErr.Code)
}
