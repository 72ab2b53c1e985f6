// Package extractors pulls the recurring structure out of guideline pages.
package extractors

import (
	"strings"

	"github.com/dtnitsch/higdocs/models"
)

// CodeBlock is a code example with the heading it appears under.
type CodeBlock struct {
	Language string `yaml:"language,omitempty" json:"language,omitempty"`
	Code     string `yaml:"code" json:"code"`
	Context  string `yaml:"context,omitempty" json:"context,omitempty"`
}

// ExtractGuidance collects best practices, platform notes, resources and
// the change log. Sections are matched by heading, case-insensitively.
// Returns nil when none of them are present.
func ExtractGuidance(sections []models.Section) *models.Guidance {
	g := &models.Guidance{}

	walk(sections, func(s models.Section) bool {
		switch headingKey(s.Heading) {
		case "best practices":
			g.BestPractices = append(g.BestPractices, listItems(s)...)
			return false
		case "platform considerations":
			g.PlatformConsiderations = append(g.PlatformConsiderations, platformNotes(s)...)
			return false
		case "resources":
			g.Resources = append(g.Resources, listItems(s)...)
			return false
		case "change log", "changelog":
			g.ChangeLog = append(g.ChangeLog, changeLog(s)...)
			return false
		}
		return true
	})

	if g.IsEmpty() {
		return nil
	}
	return g
}

// ExtractCodeBlocks returns every code block with its nearest heading.
func ExtractCodeBlocks(sections []models.Section) []CodeBlock {
	var blocks []CodeBlock
	walk(sections, func(s models.Section) bool {
		for _, b := range s.Blocks {
			if b.Code != nil {
				blocks = append(blocks, CodeBlock{Language: b.Code.Language, Code: b.Code.Content, Context: s.Heading})
			}
		}
		return true
	})
	return blocks
}

// walk visits sections depth first. Returning false skips the children.
func walk(sections []models.Section, visit func(models.Section) bool) {
	for _, s := range sections {
		if visit(s) {
			walk(s.Children, visit)
		}
	}
}

func headingKey(heading string) string {
	return strings.Join(strings.Fields(strings.ToLower(heading)), " ")
}

// listItems returns the list items of a section and all its subsections.
func listItems(s models.Section) []string {
	var items []string
	walk([]models.Section{s}, func(sec models.Section) bool {
		for _, b := range sec.Blocks {
			if b.Type == models.BlockListItem && b.Text != "" {
				items = append(items, b.Text)
			}
		}
		return true
	})
	return items
}

// platformNotes maps each subsection heading to its text. Text placed
// directly under the parent heading is recorded with platform "all".
func platformNotes(s models.Section) []models.PlatformNote {
	var notes []models.PlatformNote
	if text := sectionText(s.Blocks); text != "" {
		notes = append(notes, models.PlatformNote{Platform: "all", Text: text})
	}
	for _, child := range s.Children {
		var parts []string
		walk([]models.Section{child}, func(sec models.Section) bool {
			if t := sectionText(sec.Blocks); t != "" {
				parts = append(parts, t)
			}
			return true
		})
		if len(parts) > 0 {
			notes = append(notes, models.PlatformNote{Platform: child.Heading, Text: strings.Join(parts, " ")})
		}
	}
	return notes
}

func sectionText(blocks []models.ContentBlock) string {
	var parts []string
	for _, b := range blocks {
		switch b.Type {
		case models.BlockParagraph, models.BlockListItem, models.BlockQuote:
			if b.Text != "" {
				parts = append(parts, b.Text)
			}
		}
	}
	return strings.Join(parts, " ")
}

// changeLog reads date and description columns from change log tables.
// List items of the form "Date: text" are accepted as a fallback.
func changeLog(s models.Section) []models.ChangeLogEntry {
	var entries []models.ChangeLogEntry
	for _, b := range s.Blocks {
		switch {
		case b.Table != nil:
			dateIdx, descIdx := changeLogColumns(b.Table.Headers)
			for _, row := range b.Table.Rows {
				if len(row) <= dateIdx || len(row) <= descIdx {
					continue
				}
				entries = append(entries, models.ChangeLogEntry{Date: row[dateIdx], Description: row[descIdx]})
			}
		case b.Type == models.BlockListItem:
			if date, desc, ok := strings.Cut(b.Text, ":"); ok {
				entries = append(entries, models.ChangeLogEntry{Date: strings.TrimSpace(date), Description: strings.TrimSpace(desc)})
			}
		}
	}
	return entries
}

func changeLogColumns(headers []string) (dateIdx, descIdx int) {
	dateIdx, descIdx = 0, 1
	for i, h := range headers {
		lower := strings.ToLower(h)
		switch {
		case strings.Contains(lower, "date"):
			dateIdx = i
		case strings.Contains(lower, "change"), strings.Contains(lower, "desc"):
			descIdx = i
		}
	}
	return dateIdx, descIdx
}
