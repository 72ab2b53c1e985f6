package corpus

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/higdocs/models"
	dbpkg "github.com/dtnitsch/higdocs/pkg/db"
)

// maxSuggestions caps the suggested queries.
const maxSuggestions = 8

// SuggestResponse is the data returned by SUGGEST verb.
type SuggestResponse struct {
	Documents   int      `json:"documents" yaml:"documents"`
	Highlights  []string `json:"highlights" yaml:"highlights"`
	Suggestions []string `json:"suggestions" yaml:"suggestions"`
}

func handleSuggest(db *dbpkg.DB, _ models.Request) models.Response {
	s, err := Suggest(db)
	if err != nil {
		return databaseError(VerbSUGGEST, err)
	}
	return models.Response{
		Verb:       VerbSUGGEST,
		Data:       s,
		Confidence: 0.8,
		Coverage:   1.0,
		Unknowns:   []string{},
	}
}

// Suggest derives follow-up queries from the corpus statistics.
func Suggest(db *dbpkg.DB) (*SuggestResponse, error) {
	stats, err := db.Stats()
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	keywords, err := db.FrontMatterKeywords(1)
	if err != nil {
		return nil, fmt.Errorf("failed to get keywords: %w", err)
	}
	topKeyword := ""
	if len(keywords) > 0 {
		topKeyword = keywords[0].Name
	}

	return &SuggestResponse{
		Documents:   stats.Documents,
		Highlights:  highlights(stats),
		Suggestions: generateSuggestions(stats, topKeyword),
	}, nil
}

// highlights describes the corpus in a few lines.
func highlights(stats *dbpkg.Stats) []string {
	if stats.Documents == 0 {
		return []string{"index is empty"}
	}

	lines := []string{fmt.Sprintf("%d documents indexed", stats.Documents)}
	for _, c := range stats.Categories[:min(3, len(stats.Categories))] {
		pct := float64(c.Count) / float64(stats.Documents) * 100
		lines = append(lines, fmt.Sprintf("%d %s (%.0f%%)", c.Count, c.Name, pct))
	}
	if stats.WithCode > 0 {
		lines = append(lines, fmt.Sprintf("%d with code examples", stats.WithCode))
	}
	if stats.WithImages > 0 {
		lines = append(lines, fmt.Sprintf("%d with images", stats.WithImages))
	}
	if stats.Invalid > 0 {
		lines = append(lines, fmt.Sprintf("%d invalid documents", stats.Invalid))
	}
	return lines
}

// generateSuggestions creates query suggestions based on stats.
func generateSuggestions(stats *dbpkg.Stats, topKeyword string) []string {
	if stats.Documents == 0 {
		return []string{"higdocs index --content-dir=<dir>"}
	}

	suggestions := []string{"higdocs extract --top=25"}

	if topKeyword != "" {
		suggestions = append(suggestions,
			fmt.Sprintf("higdocs query --filter=\"keyword:%s\"  # Find %s guidance", topKeyword, topKeyword))
	}

	for _, c := range stats.Categories[:min(2, len(stats.Categories))] {
		suggestions = append(suggestions, fmt.Sprintf("higdocs query --filter=\"category=%s\"", c.Name))
	}
	for _, p := range stats.Platforms {
		if p.Name != "universal" {
			suggestions = append(suggestions, fmt.Sprintf("higdocs query --filter=\"platform=%s\"", p.Name))
			break
		}
	}

	if stats.WithCode > 0 {
		suggestions = append(suggestions, "higdocs query --filter=\"has_code\"")
	}
	if stats.QualityBands["low"] > 0 {
		suggestions = append(suggestions, "higdocs query --filter=\"quality_band=low\"  # Review weak extractions")
	}
	if stats.Invalid > 0 {
		suggestions = append(suggestions, "higdocs validate --errors-only")
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

// FormatSuggestions renders a suggestion set for terminal output.
func FormatSuggestions(s *SuggestResponse) string {
	var sb strings.Builder

	sb.WriteString("\n📊 Corpus Analysis:\n")
	for _, line := range s.Highlights {
		sb.WriteString(fmt.Sprintf("  %s\n", line))
	}

	sb.WriteString("\n💡 Suggested queries:\n")
	for _, suggestion := range s.Suggestions {
		sb.WriteString(fmt.Sprintf("  %s\n", suggestion))
	}

	sb.WriteString("\nAdvanced: higdocs coldstart\n")
	return sb.String()
}
