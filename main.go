package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/higdocs/internal/common"
	"github.com/dtnitsch/higdocs/internal/corpus"
	"github.com/dtnitsch/higdocs/internal/db"
	"github.com/dtnitsch/higdocs/internal/index"
	"github.com/dtnitsch/higdocs/internal/serve"
	"github.com/dtnitsch/higdocs/pkg/help"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(common.ExitFatal)
	}
}

func newApp() *cli.App {
	limitFlag := func() cli.Flag {
		return &cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum results"}
	}

	return &cli.App{
		Name:    "higdocs",
		Usage:   "Index, validate, search and serve a Human Interface Guidelines Markdown corpus",
		Version: version,
		Flags:   common.GlobalFlags(),
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Load the content directory into the index",
				Action: index.IndexAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "manifest", Usage: "Also write a run manifest (.yaml or .json)"},
					&cli.BoolFlag{Name: "skip-language", Usage: "Skip language detection"},
				},
			},
			{
				Name:   "validate",
				Usage:  "Check every corpus file without touching the index",
				Action: index.ValidateAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "errors-only", Usage: "Only report error-severity issues"},
				},
			},
			{
				Name:      "query",
				Usage:     "Filter documents by metadata",
				UsageText: `higdocs query --filter="category=components AND has_code"`,
				Action:    corpus.CorpusAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "Filter expression"},
					limitFlag(),
				},
			},
			{
				Name:      "search",
				Usage:     "Full-text search",
				ArgsUsage: "<terms...>",
				Action:    corpus.CorpusAction,
				Flags:     []cli.Flag{limitFlag()},
			},
			{
				Name:      "get",
				Usage:     "Show one document",
				ArgsUsage: "<id|path.md>",
				Action:    corpus.GetAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "view", Usage: "full, metadata, outline or code"},
					&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "Block filter, e.g. 'type:li,section:best practices'"},
				},
			},
			{
				Name:   "extract",
				Usage:  "Aggregate keywords across documents",
				Action: corpus.CorpusAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ids", Usage: "Comma-separated document ids (default: all)"},
					&cli.IntFlag{Name: "top", Usage: "Number of keywords", Value: 25},
				},
			},
			{
				Name:   "keywords",
				Usage:  "Recount keywords from stored document text",
				Action: corpus.KeywordsAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "platform"},
					&cli.StringFlag{Name: "category"},
					&cli.IntFlag{Name: "top", Usage: "Number of keywords", Value: 25},
				},
			},
			{
				Name:   "stats",
				Usage:  "Corpus statistics",
				Action: corpus.CorpusAction,
			},
			{
				Name:   "issues",
				Usage:  "Stored validation issues",
				Action: corpus.CorpusAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "severity", Usage: "error or warning"},
					&cli.BoolFlag{Name: "errors-only", Usage: "Only error-severity issues"},
				},
			},
			{
				Name:   "suggest",
				Usage:  "Suggest follow-up commands",
				Action: corpus.SuggestAction,
			},
			{
				Name:   "list",
				Usage:  "List indexed documents",
				Action: db.ListAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "platform"},
					&cli.StringFlag{Name: "category"},
					&cli.BoolFlag{Name: "valid-only"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 50},
					&cli.IntFlag{Name: "offset"},
				},
			},
			{
				Name:      "runs",
				Usage:     "List index runs, or show one",
				ArgsUsage: "[id|latest]",
				Action:    db.RunsAction,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20},
				},
			},
			{
				Name:   "export",
				Usage:  "Write normalized corpus files from the index",
				Action: index.ExportAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Required: true, Usage: "Output directory"},
					&cli.BoolFlag{Name: "metadata", Usage: "Also write <file>.meta.yaml"},
					&cli.BoolFlag{Name: "valid-only", Usage: "Skip documents with validation errors"},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serve.ServeAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "Listen address (default :8080)"},
					&cli.BoolFlag{Name: "watch", Usage: "Re-index files as they change"},
					&cli.BoolFlag{Name: "mcp-http", Usage: "Mount MCP streamable HTTP at /mcp"},
					&cli.StringFlag{Name: "admin-token", Usage: "Token required by POST /api/v1/reindex", EnvVars: []string{"HIG_SERVER_ADMIN_TOKEN"}},
					&cli.BoolFlag{Name: "no-index", Usage: "Skip the index run at startup"},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serve.MCPAction,
			},
			{
				Name:  "coldstart",
				Usage: "Print a quick-start guide",
				Action: func(c *cli.Context) error {
					_, err := fmt.Fprint(c.App.Writer, help.ColdstartYAML)
					return err
				},
			},
		},
	}
}
