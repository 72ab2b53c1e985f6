// Package extractor filters a document's section tree by block type and heading.
package extractor

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/higdocs/models"
)

// Strategy selects blocks. An empty strategy keeps everything.
//
//	type:li|code,section:best practices
type Strategy struct {
	BlockTypes map[string]struct{}
	Section    string // lower-cased heading substring
}

var knownBlockTypes = map[string]struct{}{
	models.BlockParagraph: {}, models.BlockListItem: {}, models.BlockCode: {},
	models.BlockTable: {}, models.BlockQuote: {}, models.BlockImage: {},
}

// ParseStrategy parses a comma separated list of key:value pairs.
func ParseStrategy(strategyStr string) (*Strategy, error) {
	strategy := &Strategy{}
	if strings.TrimSpace(strategyStr) == "" {
		return strategy, nil
	}

	for _, part := range strings.Split(strategyStr, ",") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid strategy part: %s", part)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "type":
			if strategy.BlockTypes == nil {
				strategy.BlockTypes = make(map[string]struct{})
			}
			for _, t := range strings.Split(value, "|") {
				t = strings.TrimSpace(t)
				if _, ok := knownBlockTypes[t]; !ok {
					return nil, fmt.Errorf("unknown block type: %s", t)
				}
				strategy.BlockTypes[t] = struct{}{}
			}
		case "section":
			if value == "" {
				return nil, fmt.Errorf("empty section filter")
			}
			strategy.Section = strings.ToLower(value)
		default:
			return nil, fmt.Errorf("unknown strategy key: %s", key)
		}
	}

	return strategy, nil
}

// IsEmpty reports whether the strategy keeps everything.
func (s *Strategy) IsEmpty() bool {
	return s == nil || (len(s.BlockTypes) == 0 && s.Section == "")
}

// FilterSections returns the sections whose blocks pass the strategy.
// With a section filter, only subtrees under a matching heading are kept.
// Sections left without blocks or children are dropped.
func FilterSections(sections []models.Section, strategy *Strategy) []models.Section {
	if strategy.IsEmpty() {
		return sections
	}
	return filterSections(sections, strategy, strategy.Section == "")
}

func filterSections(sections []models.Section, strategy *Strategy, matched bool) []models.Section {
	var filtered []models.Section

	for _, section := range sections {
		inScope := matched || strings.Contains(strings.ToLower(section.Heading), strategy.Section)

		out := models.Section{
			Level:    section.Level,
			Heading:  section.Heading,
			Anchor:   section.Anchor,
			Children: filterSections(section.Children, strategy, inScope),
		}

		if inScope {
			for _, block := range section.Blocks {
				if len(strategy.BlockTypes) > 0 {
					if _, ok := strategy.BlockTypes[block.Type]; !ok {
						continue
					}
				}
				out.Blocks = append(out.Blocks, block)
			}
		}

		if len(out.Blocks) > 0 || len(out.Children) > 0 {
			filtered = append(filtered, out)
		}
	}
	return filtered
}
