package serve

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/higdocs/internal/common"
	"github.com/dtnitsch/higdocs/pkg/indexer"
	"github.com/dtnitsch/higdocs/pkg/loader"
	"github.com/dtnitsch/higdocs/pkg/mcpserver"
	"github.com/dtnitsch/higdocs/pkg/server"
	"github.com/dtnitsch/higdocs/pkg/watch"
)

// ServeAction runs the HTTP API until interrupted.
func ServeAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.Config.Server
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if c.IsSet("admin-token") {
		cfg.AdminToken = c.String("admin-token")
	}
	if c.Bool("watch") {
		cfg.Watch = true
	}

	var ix *indexer.Indexer
	root := env.Config.ContentDir
	if _, err := os.Stat(root); err == nil {
		ix = indexer.New(env.DB, root, loader.Options{Workers: env.Config.Workers, Logger: env.Logger})
		if !c.Bool("no-index") {
			if _, err := ix.Run(c.Context); err != nil {
				return common.Fatal(fmt.Errorf("initial index: %w", err))
			}
		}
	} else {
		env.Logger.Warn().Str("content_dir", root).Msg("Content directory not found; serving the existing index read-only")
	}

	opts := server.Options{Indexer: ix, Version: c.App.Version, Logger: env.Logger}
	if c.Bool("mcp-http") {
		opts.MCP = mcpserver.HTTPHandler(env.DB, c.App.Version)
	}
	srv := server.New(env.DB, cfg, opts)

	if cfg.Watch {
		if ix == nil {
			return common.Fatal(fmt.Errorf("--watch needs an existing content directory, %s not found", root))
		}
		w, err := watch.New(ix, watch.Options{
			Logger: env.Logger,
			OnChange: func(*indexer.Summary) {
				srv.Cache().Flush()
			},
		})
		if err != nil {
			return common.Fatal(err)
		}
		go func() {
			if err := w.Run(c.Context); err != nil {
				env.Logger.Error().Err(err).Msg("Watcher stopped")
			}
		}()
	}

	env.Logger.Info().
		Str("addr", cfg.Addr).
		Bool("watch", cfg.Watch).
		Bool("mcp_http", opts.MCP != nil).
		Float64("rate_limit", cfg.RateLimit).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Starting API server")

	if err := srv.ListenAndServe(c.Context); err != nil {
		return common.Fatal(err)
	}
	return nil
}

// MCPAction serves the MCP tools over stdin/stdout. Logs go to stderr.
func MCPAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	env.Logger.Info().Str("db", env.Config.DBPath).Msg("Serving MCP over stdio")
	if err := mcpserver.ServeStdio(c.Context, env.DB, c.App.Version); err != nil && c.Context.Err() == nil {
		return common.Fatal(err)
	}
	return nil
}
