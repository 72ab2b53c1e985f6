// Package server provides the HTTP JSON API over the document index.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/caching"
	"github.com/dtnitsch/higdocs/pkg/db"
	"github.com/dtnitsch/higdocs/pkg/errors"
	"github.com/dtnitsch/higdocs/pkg/indexer"
	"github.com/dtnitsch/higdocs/pkg/logging"
	"github.com/dtnitsch/higdocs/pkg/parser"
)

// Defaults applied by New.
const (
	DefaultAddr     = ":8080"
	DefaultCacheTTL = 5 * time.Minute
	shutdownTimeout = 30 * time.Second
)

// ErrReindexRunning is returned when a reindex is requested while the
// indexer is busy with another pass, including watcher batches.
var ErrReindexRunning = indexer.ErrBusy

// Options are the collaborators of a Server.
type Options struct {
	// Indexer re-runs the loader for POST /api/v1/reindex. Nil disables it.
	Indexer *indexer.Indexer
	// MCP is mounted at /mcp when set.
	MCP     http.Handler
	Version string
	Logger  *zerolog.Logger
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	db        *db.DB
	indexer   *indexer.Indexer
	cache     *caching.Cache
	limiter   *RateLimiter
	parser    *parser.Parser
	mcp       http.Handler
	logger    *zerolog.Logger
	config    models.ServerConfig
	version   string
	startTime time.Time
}

// New creates a Server. A zero CacheTTL uses DefaultCacheTTL; a negative
// one disables response caching.
func New(database *db.DB, cfg models.ServerConfig, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	s := &Server{
		db:        database,
		indexer:   opts.Indexer,
		cache:     caching.NewCache(cfg.CacheTTL),
		parser:    parser.New(),
		mcp:       opts.MCP,
		logger:    logger,
		config:    cfg,
		version:   opts.Version,
		startTime: time.Now(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = NewRateLimiter(cfg.RateLimit, cfg.RateBurst, logger)
	}
	return s
}

// Handler returns the router with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Cache returns the response cache.
func (s *Server) Cache() *caching.Cache {
	return s.cache
}

// Reindex re-runs the indexer and flushes the response cache.
func (s *Server) Reindex(ctx context.Context) (*indexer.Summary, error) {
	if s.indexer == nil {
		return nil, fmt.Errorf("%w: no content root configured", errors.ErrInvalidInput)
	}
	summary, err := s.indexer.TryRun(ctx)
	if errors.Is(err, indexer.ErrBusy) {
		return nil, ErrReindexRunning
	}
	s.cache.Flush()
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		s.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}
