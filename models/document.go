package models

import (
	"strings"
	"time"
)

// Document is a fully loaded corpus file: front matter, body and derived structure.
type Document struct {
	DocID       int64       `json:"doc_id,omitempty" yaml:"doc_id,omitempty"`
	Path        string      `json:"path" yaml:"path"`
	FrontMatter FrontMatter `json:"front_matter" yaml:"front_matter"`
	Body        string      `json:"body,omitempty" yaml:"body,omitempty"`
	Attribution string      `json:"attribution,omitempty" yaml:"attribution,omitempty"`
	Sections    []Section   `json:"sections,omitempty" yaml:"sections,omitempty"`
	Metadata    DocMetadata `json:"metadata" yaml:"metadata"`
	Issues      []Issue     `json:"issues,omitempty" yaml:"issues,omitempty"`
	Valid       bool        `json:"valid" yaml:"valid"`
	Checksum    string      `json:"checksum" yaml:"checksum"`
	IndexedAt   time.Time   `json:"indexed_at,omitempty" yaml:"indexed_at,omitempty"`

	// WordCounts holds body word frequencies; it is not serialized.
	WordCounts map[string]int `json:"-" yaml:"-"`
}

// Slug returns the document identifier.
func (d *Document) Slug() string {
	return d.FrontMatter.ID
}

// Section is a heading with its content blocks and nested subsections.
// Level 0 holds content that appears before the first heading.
type Section struct {
	Level    int            `json:"level" yaml:"level"`
	Heading  string         `json:"heading,omitempty" yaml:"heading,omitempty"`
	Anchor   string         `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Blocks   []ContentBlock `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	Children []Section      `json:"children,omitempty" yaml:"children,omitempty"`
}

// Block types produced by the parser.
const (
	BlockParagraph = "p"
	BlockListItem  = "li"
	BlockCode      = "code"
	BlockTable     = "table"
	BlockQuote     = "blockquote"
	BlockImage     = "image"
)

// ContentBlock is a single unit of body content.
type ContentBlock struct {
	Type  string `json:"type" yaml:"type"`
	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
	Code  *Code  `json:"code,omitempty" yaml:"code,omitempty"`
	Table *Table `json:"table,omitempty" yaml:"table,omitempty"`
	Image *Image `json:"image,omitempty" yaml:"image,omitempty"`
}

// Code is a fenced code block.
type Code struct {
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
	Content  string `json:"content" yaml:"content"`
}

// Table is a Markdown table with its header row split out.
type Table struct {
	Headers []string   `json:"headers,omitempty" yaml:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Image is an embedded image reference.
type Image struct {
	Src string `json:"src" yaml:"src"`
	Alt string `json:"alt,omitempty" yaml:"alt,omitempty"`
}

// DocMetadata holds values computed from the body at load time.
type DocMetadata struct {
	WordCount          int       `json:"word_count" yaml:"word_count"`
	ReadMinutes        float64   `json:"read_minutes" yaml:"read_minutes"`
	SectionCount       int       `json:"section_count" yaml:"section_count"`
	BlockCount         int       `json:"block_count" yaml:"block_count"`
	CodeBlockCount     int       `json:"code_block_count" yaml:"code_block_count"`
	ImageCount         int       `json:"image_count" yaml:"image_count"`
	Language           string    `json:"language,omitempty" yaml:"language,omitempty"`
	LanguageConfidence float64   `json:"language_confidence,omitempty" yaml:"language_confidence,omitempty"`
	Platforms          []string  `json:"platforms,omitempty" yaml:"platforms,omitempty"`
	TopKeywords        []string  `json:"top_keywords,omitempty" yaml:"top_keywords,omitempty"`
	QualityBand        string    `json:"quality_band" yaml:"quality_band"`
	Guidance           *Guidance `json:"guidance,omitempty" yaml:"guidance,omitempty"`
}

// Guidance collects the recurring sections of a guideline page.
type Guidance struct {
	BestPractices          []string         `json:"best_practices,omitempty" yaml:"best_practices,omitempty"`
	PlatformConsiderations []PlatformNote   `json:"platform_considerations,omitempty" yaml:"platform_considerations,omitempty"`
	Resources              []string         `json:"resources,omitempty" yaml:"resources,omitempty"`
	ChangeLog              []ChangeLogEntry `json:"change_log,omitempty" yaml:"change_log,omitempty"`
}

// IsEmpty reports whether no guidance section was found.
func (g *Guidance) IsEmpty() bool {
	return g == nil || (len(g.BestPractices) == 0 && len(g.PlatformConsiderations) == 0 &&
		len(g.Resources) == 0 && len(g.ChangeLog) == 0)
}

// PlatformNote is one entry under a "Platform considerations" heading.
type PlatformNote struct {
	Platform string `json:"platform" yaml:"platform"`
	Text     string `json:"text" yaml:"text"`
}

// ChangeLogEntry is one row of a page's change log table.
type ChangeLogEntry struct {
	Date        string `json:"date" yaml:"date"`
	Description string `json:"description" yaml:"description"`
}

// PlainText flattens the section tree into text, one block per line.
func (d *Document) PlainText() string {
	var b strings.Builder
	var walk func([]Section)
	walk = func(sections []Section) {
		for _, s := range sections {
			if s.Heading != "" {
				b.WriteString(s.Heading)
				b.WriteString("\n")
			}
			for _, block := range s.Blocks {
				if text := block.PlainText(); text != "" {
					b.WriteString(text)
					b.WriteString("\n")
				}
			}
			walk(s.Children)
		}
	}
	walk(d.Sections)
	return b.String()
}

// PlainText returns the readable text of a block.
func (c ContentBlock) PlainText() string {
	switch c.Type {
	case BlockCode:
		if c.Code != nil {
			return c.Code.Content
		}
	case BlockTable:
		if c.Table != nil {
			var rows []string
			if len(c.Table.Headers) > 0 {
				rows = append(rows, strings.Join(c.Table.Headers, " | "))
			}
			for _, r := range c.Table.Rows {
				rows = append(rows, strings.Join(r, " | "))
			}
			return strings.Join(rows, "\n")
		}
	case BlockImage:
		if c.Image != nil {
			return c.Image.Alt
		}
	}
	return c.Text
}
