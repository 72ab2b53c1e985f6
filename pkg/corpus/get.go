package corpus

import (
	"fmt"
	"path"
	"strings"

	"github.com/dtnitsch/higdocs/models"
	dbpkg "github.com/dtnitsch/higdocs/pkg/db"
	"github.com/dtnitsch/higdocs/pkg/errors"
	"github.com/dtnitsch/higdocs/pkg/extractor"
	"github.com/dtnitsch/higdocs/pkg/extractors"
	"github.com/dtnitsch/higdocs/pkg/loader"
)

// Views accepted by GET.
const (
	ViewFull     = "full"
	ViewMetadata = "metadata"
	ViewOutline  = "outline"
	ViewCode     = "code"
)

// OutlineEntry is a heading in a document outline.
type OutlineEntry struct {
	Level    int            `json:"level" yaml:"level"`
	Heading  string         `json:"heading" yaml:"heading"`
	Anchor   string         `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Blocks   int            `json:"blocks" yaml:"blocks"`
	Children []OutlineEntry `json:"children,omitempty" yaml:"children,omitempty"`
}

// Outline reduces a section tree to its headings.
func Outline(sections []models.Section) []OutlineEntry {
	var out []OutlineEntry
	for _, s := range sections {
		if s.Level == 0 {
			continue
		}
		out = append(out, OutlineEntry{
			Level:    s.Level,
			Heading:  s.Heading,
			Anchor:   s.Anchor,
			Blocks:   len(s.Blocks),
			Children: Outline(s.Children),
		})
	}
	return out
}

// Lookup finds a document by slug, or by its corpus path when ref names a
// Markdown file.
func Lookup(db *dbpkg.DB, ref string) (*models.Document, error) {
	if loader.IsMarkdown(ref) {
		return db.GetDocumentByPath(path.Clean(strings.ReplaceAll(ref, "\\", "/")))
	}
	return db.GetDocument(ref)
}

// GetDocument loads a document and shapes it for the requested view. The
// strategy filters sections before the view is applied.
func GetDocument(db *dbpkg.DB, slug, view, strategy string) (any, error) {
	strat, err := extractor.ParseStrategy(strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid strategy: %v", errors.ErrInvalidInput, err)
	}

	doc, err := Lookup(db, slug)
	if err != nil {
		return nil, err
	}
	if !strat.IsEmpty() {
		doc.Sections = extractor.FilterSections(doc.Sections, strat)
	}

	switch strings.ToLower(view) {
	case "", ViewFull:
		return doc, nil
	case ViewMetadata:
		return NewDocumentMetadata(doc), nil
	case ViewOutline:
		return map[string]any{"slug": doc.Slug(), "title": doc.FrontMatter.Title, "outline": Outline(doc.Sections)}, nil
	case ViewCode:
		blocks := extractors.ExtractCodeBlocks(doc.Sections)
		if blocks == nil {
			blocks = []extractors.CodeBlock{}
		}
		return map[string]any{"slug": doc.Slug(), "code_blocks": blocks}, nil
	default:
		return nil, fmt.Errorf("%w: unknown view %q (full, metadata, outline, code)", errors.ErrInvalidInput, view)
	}
}

func handleGet(db *dbpkg.DB, req models.Request) models.Response {
	if strings.TrimSpace(req.ID) == "" {
		return models.NewErrorResponse(VerbGET, ErrTypeMissingParameter,
			"A document id is required",
			"Run 'higdocs query' to list document ids")
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = req.Filter
	}

	data, err := GetDocument(db, req.ID, req.View, strategy)
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		return models.NewErrorResponse(VerbGET, ErrTypeInvalidParameter, err.Error(),
			"Strategy syntax: 'type:li|code,section:best practices'")
	case err != nil:
		return lookupError(VerbGET, err)
	}

	return models.Response{
		Verb:       VerbGET,
		Data:       data,
		Confidence: 1.0,
		Coverage:   1.0,
		Unknowns:   []string{},
	}
}
