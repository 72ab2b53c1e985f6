package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
)

func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(Recovery(s.logger))
	r.Use(Logger(s.logger))
	r.Use(s.corsHandler().Handler)
	if s.limiter != nil {
		r.Use(RateLimit(s.limiter))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		notFound(w, "Route not found", r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		fail(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed",
			"Method "+r.Method+" is not supported for this endpoint")
	})

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(CacheResponses(s.cache))

			r.Get("/stats", s.handleStats)
			r.Get("/documents", s.handleListDocuments)
			r.Get("/documents/{slug}", s.handleGetDocument)
			r.Get("/documents/{slug}/markdown", s.handleDocumentMarkdown)
			r.Get("/documents/{slug}/html", s.handleDocumentHTML)
			r.Get("/search", s.handleSearch)
			r.Get("/query", s.handleQuery)
			r.Get("/keywords", s.handleKeywords)
			r.Get("/categories", s.handleCategories)
			r.Get("/platforms", s.handlePlatforms)
			r.Get("/runs", s.handleListRuns)
			r.Get("/runs/{id}", s.handleGetRun)
		})

		r.Post("/corpus", s.handleCorpus)
		r.Post("/reindex", s.handleReindex)
	})

	if s.mcp != nil {
		r.Handle("/mcp", s.mcp)
	}

	return r
}

func (s *Server) corsHandler() *cors.Cors {
	origins := s.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization", adminTokenHeader, "Mcp-Session-Id"},
		ExposedHeaders: []string{"X-Cache", "Mcp-Session-Id"},
		MaxAge:         300,
	})
}
