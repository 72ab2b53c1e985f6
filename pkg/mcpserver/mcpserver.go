// Package mcpserver exposes the document index as MCP tools for LLM clients.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/corpus"
	"github.com/dtnitsch/higdocs/pkg/db"
	"github.com/dtnitsch/higdocs/pkg/mapreduce"
)

// Name is the MCP implementation name.
const Name = "higdocs"

const (
	defaultListLimit = 50
	defaultKeywords  = 25
)

// New creates an MCP server with every tool registered.
func New(database *db.DB, version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil)
	Register(srv, database)
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout until ctx is done or
// the client disconnects.
func ServeStdio(ctx context.Context, database *db.DB, version string) error {
	return New(database, version).Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler serves the MCP streamable HTTP transport.
func HTTPHandler(database *db.DB, version string) http.Handler {
	srv := New(database, version)
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil)
}

// Register adds the corpus tools to srv.
func Register(srv *mcp.Server, database *db.DB) {
	t := &tools{db: database}

	addTool(srv, &mcp.Tool{
		Name:        "hig_search",
		Description: "Full-text search over the Human Interface Guidelines. Returns ranked documents with snippets.",
		InputSchema: inputSchema(map[string]any{
			"query": map[string]any{"type": "string", "description": "Words to search for"},
			"limit": map[string]any{"type": "integer", "description": "Maximum results (default 20)"},
		}, []string{"query"}),
	}, t.search)

	addTool(srv, &mcp.Tool{
		Name:        "hig_get_document",
		Description: "Fetch one guideline document by id. Views: full (default), metadata, outline, code.",
		InputSchema: inputSchema(map[string]any{
			"id":     map[string]any{"type": "string", "description": "Document id, e.g. buttons"},
			"view":   map[string]any{"type": "string", "enum": []string{corpus.ViewFull, corpus.ViewMetadata, corpus.ViewOutline, corpus.ViewCode}},
			"filter": map[string]any{"type": "string", "description": "Block filter, e.g. 'type:li,section:best practices'"},
		}, []string{"id"}),
	}, t.getDocument)

	addTool(srv, &mcp.Tool{
		Name:        "hig_query",
		Description: "Filter documents by metadata, e.g. 'category=components AND has_code' or 'keyword:accessibility'.",
		InputSchema: inputSchema(map[string]any{
			"filter": map[string]any{"type": "string", "description": "Filter expression"},
			"limit":  map[string]any{"type": "integer", "description": "Maximum matches returned"},
		}, nil),
	}, t.query)

	addTool(srv, &mcp.Tool{
		Name:        "hig_list",
		Description: "List documents, optionally by platform or category.",
		InputSchema: inputSchema(map[string]any{
			"platform": map[string]any{"type": "string", "description": "ios, ipados, macos, tvos, visionos, watchos or universal"},
			"category": map[string]any{"type": "string"},
			"limit":    map[string]any{"type": "integer", "description": "Maximum results (default 50)"},
		}, nil),
	}, t.list)

	addTool(srv, &mcp.Tool{
		Name:        "hig_categories",
		Description: "List categories and platforms with document counts.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, t.categories)

	addTool(srv, &mcp.Tool{
		Name:        "hig_keywords",
		Description: "Most frequent keywords across the corpus.",
		InputSchema: inputSchema(map[string]any{
			"top": map[string]any{"type": "integer", "description": "Number of keywords (default 25)"},
		}, nil),
	}, t.keywords)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// args is the union of every tool's arguments.
type args struct {
	Query    string `json:"query"`
	ID       string `json:"id"`
	View     string `json:"view"`
	Filter   string `json:"filter"`
	Platform string `json:"platform"`
	Category string `json:"category"`
	Limit    int    `json:"limit"`
	Top      int    `json:"top"`
}

type handlerFunc func(ctx context.Context, a args) (any, error)

// addTool registers fn. Decode and handler failures become tool errors,
// never protocol errors.
func addTool(srv *mcp.Server, tool *mcp.Tool, fn handlerFunc) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var a args
		if raw := req.Params.Arguments; len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &a); err != nil {
				return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
			}
		}

		resp, err := fn(ctx, a)
		if err != nil {
			return toolError(err), nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			return toolError(fmt.Errorf("marshal: %w", err)), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}

// responseError turns a failed corpus response into an error that
// carries the suggested actions.
func responseError(resp models.Response) error {
	msg := resp.Error.Message
	if len(resp.Error.SuggestedActions) > 0 {
		msg += " (" + strings.Join(resp.Error.SuggestedActions, "; ") + ")"
	}
	return errors.New(msg)
}

type tools struct {
	db *db.DB
}

func (t *tools) handle(req models.Request) (any, error) {
	resp := corpus.Handle(t.db, req)
	if resp.Error != nil {
		return nil, responseError(resp)
	}
	return resp.Data, nil
}

func (t *tools) search(_ context.Context, a args) (any, error) {
	return t.handle(models.Request{Verb: corpus.VerbSEARCH, Query: a.Query, Limit: a.Limit})
}

func (t *tools) getDocument(_ context.Context, a args) (any, error) {
	return t.handle(models.Request{Verb: corpus.VerbGET, ID: a.ID, View: a.View, Strategy: a.Filter})
}

func (t *tools) query(_ context.Context, a args) (any, error) {
	return t.handle(models.Request{Verb: corpus.VerbQUERY, Filter: a.Filter, Limit: a.Limit})
}

func (t *tools) list(_ context.Context, a args) (any, error) {
	limit := a.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	docs, total, err := t.db.ListDocuments(db.ListOptions{Platform: a.Platform, Category: a.Category, Limit: limit})
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []db.DocumentSummary{}
	}
	return map[string]any{"documents": docs, "total": total}, nil
}

func (t *tools) categories(_ context.Context, _ args) (any, error) {
	categories, err := t.db.Categories()
	if err != nil {
		return nil, err
	}
	platforms, err := t.db.Platforms()
	if err != nil {
		return nil, err
	}
	return map[string]any{"categories": categories, "platforms": platforms}, nil
}

func (t *tools) keywords(_ context.Context, a args) (any, error) {
	top := a.Top
	if top <= 0 {
		top = defaultKeywords
	}
	counts, err := t.db.KeywordCounts(nil)
	if err != nil {
		return nil, err
	}
	return map[string]any{"keywords": mapreduce.Ranked(counts, top)}, nil
}
