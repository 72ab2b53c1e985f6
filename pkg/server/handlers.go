package server

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/caching"
	"github.com/dtnitsch/higdocs/pkg/corpus"
	"github.com/dtnitsch/higdocs/pkg/db"
	"github.com/dtnitsch/higdocs/pkg/errors"
	"github.com/dtnitsch/higdocs/pkg/frontmatter"
	"github.com/dtnitsch/higdocs/pkg/logging"
	"github.com/dtnitsch/higdocs/pkg/mapreduce"
)

const (
	adminTokenHeader = "X-Admin-Token"
	defaultPageSize  = 50
	maxPageSize      = 500
	defaultKeywords  = 25
	defaultRuns      = 20
	maxRequestBytes  = 1 << 20
)

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status    string        `json:"status"`
	Version   string        `json:"version,omitempty"`
	Uptime    string        `json:"uptime"`
	Documents int           `json:"documents"`
	Cache     caching.Stats `json:"cache"`
	LastRun   *db.Run       `json:"last_run,omitempty"`
}

// DocumentList is a page of documents.
type DocumentList struct {
	Documents []db.DocumentSummary `json:"documents"`
	Total     int                  `json:"total"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
}

// intParam reads a non-negative integer query parameter. Values above max
// are clamped.
func intParam(r *http.Request, name string, def, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, raw)
	}
	if max > 0 && n > max {
		n = max
	}
	return n, nil
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Request failed")
		internalError(w)
		return
	}
	fail(w, status, code, err.Error(), "")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.db.CountDocuments()
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	last, err := s.db.LatestRun()
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	ok(w, HealthResponse{
		Status:    "ok",
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Documents: count,
		Cache:     s.cache.Stats(),
		LastRun:   last,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.Stats()
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	ok(w, stats)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultPageSize, maxPageSize)
	if err != nil {
		badRequest(w, "Invalid limit", err.Error())
		return
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	offset, err := intParam(r, "offset", 0, 0)
	if err != nil {
		badRequest(w, "Invalid offset", err.Error())
		return
	}

	q := r.URL.Query()
	docs, total, err := s.db.ListDocuments(db.ListOptions{
		Platform:  q.Get("platform"),
		Category:  q.Get("category"),
		ValidOnly: q.Get("valid") == "true",
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if docs == nil {
		docs = []db.DocumentSummary{}
	}
	ok(w, DocumentList{Documents: docs, Total: total, Limit: limit, Offset: offset})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data, err := corpus.GetDocument(s.db, chi.URLParam(r, "slug"), q.Get("view"), q.Get("filter"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	ok(w, data)
}

func (s *Server) handleDocumentMarkdown(w http.ResponseWriter, r *http.Request) {
	doc, err := s.db.GetDocument(chi.URLParam(r, "slug"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	out, err := frontmatter.Render(&frontmatter.Parsed{
		FrontMatter: doc.FrontMatter,
		Body:        doc.Body,
		Attribution: doc.Attribution,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write(out)
}

func (s *Server) handleDocumentHTML(w http.ResponseWriter, r *http.Request) {
	doc, err := s.db.GetDocument(chi.URLParam(r, "slug"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n%s</body></html>\n",
		html.EscapeString(doc.FrontMatter.Title), s.parser.RenderHTML(doc.Body))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", db.DefaultSearchLimit, maxPageSize)
	if err != nil {
		badRequest(w, "Invalid limit", err.Error())
		return
	}
	writeCorpusData(w, corpus.Handle(s.db, models.Request{
		Verb:  corpus.VerbSEARCH,
		Query: r.URL.Query().Get("q"),
		Limit: limit,
	}))
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0, maxPageSize)
	if err != nil {
		badRequest(w, "Invalid limit", err.Error())
		return
	}
	writeCorpusData(w, corpus.Handle(s.db, models.Request{
		Verb:   corpus.VerbQUERY,
		Filter: r.URL.Query().Get("filter"),
		Limit:  limit,
	}))
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	top, err := intParam(r, "top", defaultKeywords, maxPageSize)
	if err != nil {
		badRequest(w, "Invalid top", err.Error())
		return
	}
	if top == 0 {
		top = defaultKeywords
	}

	switch source := r.URL.Query().Get("source"); source {
	case "", "computed":
		counts, err := s.db.KeywordCounts(nil)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		ok(w, map[string]any{"source": "computed", "keywords": mapreduce.Ranked(counts, top)})
	case "frontmatter":
		facets, err := s.db.FrontMatterKeywords(top)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		if facets == nil {
			facets = []db.Facet{}
		}
		ok(w, map[string]any{"source": source, "keywords": facets})
	default:
		badRequest(w, "Invalid source", "source must be computed or frontmatter")
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.writeFacets(w, r, s.db.Categories)
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	s.writeFacets(w, r, s.db.Platforms)
}

func (s *Server) writeFacets(w http.ResponseWriter, r *http.Request, load func() ([]db.Facet, error)) {
	facets, err := load()
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if facets == nil {
		facets = []db.Facet{}
	}
	ok(w, facets)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultRuns, maxPageSize)
	if err != nil {
		badRequest(w, "Invalid limit", err.Error())
		return
	}
	runs, err := s.db.ListRuns(limit)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if runs == nil {
		runs = []*db.Run{}
	}
	ok(w, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	param := chi.URLParam(r, "id")
	if param == "latest" {
		latest, err := s.db.LatestRun()
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		if latest == nil {
			notFound(w, "No index runs recorded", "")
			return
		}
		param = strconv.FormatInt(latest.RunID, 10)
	}

	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		badRequest(w, "Invalid run id", err.Error())
		return
	}
	run, err := s.db.GetRun(id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	ok(w, run)
}

// handleCorpus accepts a raw corpus request and answers with the corpus
// response itself, not the envelope.
func (s *Server) handleCorpus(w http.ResponseWriter, r *http.Request) {
	var req models.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("", corpus.ErrTypeInvalidParameter,
			"Request body must be a JSON corpus request: "+err.Error(),
			`Example: {"verb":"search","query":"tab bar"}`))
		return
	}
	resp := corpus.Handle(s.db, req)
	status, _ := corpusStatus(resp)
	writeJSON(w, status, resp)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if token := s.config.AdminToken; token != "" {
		got := r.Header.Get(adminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			fail(w, http.StatusUnauthorized, CodeUnauthorized, "Invalid or missing admin token",
				"Provide the token in the "+adminTokenHeader+" header")
			return
		}
	}
	if s.indexer == nil {
		fail(w, http.StatusServiceUnavailable, CodeUnavailable, "Reindex is not available",
			"Start the server with a content directory")
		return
	}

	summary, err := s.Reindex(r.Context())
	if errors.Is(err, ErrReindexRunning) {
		fail(w, http.StatusConflict, CodeConflict, err.Error(), "")
		return
	}
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info().
		Int("indexed", summary.Indexed).
		Int("removed", summary.Removed).
		Int("failed", summary.Failed).
		Msg("Reindex complete")
	ok(w, summary)
}
