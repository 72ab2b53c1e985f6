package corpus

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/analytics"
	dbpkg "github.com/dtnitsch/higdocs/pkg/db"
	"github.com/dtnitsch/higdocs/pkg/mapreduce"
)

// DefaultExtractTop is the number of keywords returned when no "top"
// constraint is given.
const DefaultExtractTop = 25

// KeywordCount represents a keyword with its aggregate count.
type KeywordCount = analytics.WordCount

// ExtractResponse is the data returned by EXTRACT verb.
type ExtractResponse struct {
	DocCount int            `json:"doc_count" yaml:"doc_count"`
	Keywords []KeywordCount `json:"keywords" yaml:"keywords"`
	TopLimit int            `json:"top_limit,omitempty" yaml:"top_limit,omitempty"` // 0 means no limit
	Hints    *ExtractHints  `json:"hints,omitempty" yaml:"hints,omitempty"`
}

// ExtractHints provides contextual guidance for LLMs.
type ExtractHints struct {
	TopKeywords    []string `json:"top_keywords" yaml:"top_keywords"`
	NextSteps      []string `json:"next_steps" yaml:"next_steps"`
	Interpretation string   `json:"interpretation,omitempty" yaml:"interpretation,omitempty"`
}

// handleExtract aggregates computed keyword counts over req.DocIDs, or
// over the whole corpus when none are given.
func handleExtract(db *dbpkg.DB, req models.Request) models.Response {
	topLimit, err := intConstraint(req, "top", DefaultExtractTop)
	if err != nil || topLimit < 0 {
		if err == nil {
			err = fmt.Errorf("top must not be negative")
		}
		return models.NewErrorResponse(VerbEXTRACT, ErrTypeInvalidParameter, err.Error(),
			"Use --top=N with N >= 0 (0 means no limit)")
	}

	total, err := db.CountDocuments()
	if err != nil {
		return databaseError(VerbEXTRACT, err)
	}

	docCount := total
	var unknowns []string
	if len(req.DocIDs) > 0 {
		known, missing, err := existingDocIDs(db, req.DocIDs)
		if err != nil {
			return databaseError(VerbEXTRACT, err)
		}
		if len(known) == 0 {
			return models.NewErrorResponse(VerbEXTRACT, ErrTypeNotFound,
				"None of the requested document ids exist",
				"Run 'higdocs query' to list document ids")
		}
		docCount = len(req.DocIDs)
		unknowns = missing
	}

	aggregated, err := db.KeywordCounts(req.DocIDs)
	if err != nil {
		return databaseError(VerbEXTRACT, err)
	}

	n := topLimit
	if n == 0 {
		n = len(aggregated)
	}
	keywords := mapreduce.Ranked(aggregated, n)
	if keywords == nil {
		keywords = []KeywordCount{}
	}

	coverage := 0.0
	if docCount > 0 {
		coverage = float64(docCount-len(unknowns)) / float64(docCount)
	}
	if unknowns == nil {
		unknowns = []string{}
	}

	return models.Response{
		Verb: VerbEXTRACT,
		Data: ExtractResponse{
			DocCount: docCount - len(unknowns),
			Keywords: keywords,
			TopLimit: topLimit,
			Hints:    generateExtractHints(keywords),
		},
		Confidence: 0.95,
		Coverage:   coverage,
		Unknowns:   unknowns,
	}
}

// existingDocIDs splits ids into those present in the index and the
// missing ones, formatted for Response.Unknowns.
func existingDocIDs(db *dbpkg.DB, ids []int64) (known []int64, missing []string, err error) {
	where := "d.doc_id IN (?" + strings.Repeat(",?", len(ids)-1) + ")"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	docs, err := db.QueryDocuments(where, args)
	if err != nil {
		return nil, nil, err
	}

	found := make(map[int64]bool, len(docs))
	for _, d := range docs {
		found[d.DocID] = true
	}
	for _, id := range ids {
		if found[id] {
			known = append(known, id)
		} else {
			missing = append(missing, fmt.Sprintf("doc_id %d not found", id))
		}
	}
	return known, missing, nil
}

// generateExtractHints creates LLM-specific guidance based on keywords.
func generateExtractHints(keywords []KeywordCount) *ExtractHints {
	if len(keywords) == 0 {
		return nil
	}

	hints := &ExtractHints{
		TopKeywords: extractTopN(keywords, 3),
		NextSteps:   generateNextSteps(keywords),
	}
	hints.Interpretation = inferTopic(keywords)
	return hints
}

// extractTopN returns the top N keyword names from the list.
func extractTopN(keywords []KeywordCount, n int) []string {
	n = min(n, len(keywords))
	result := make([]string, n)
	for i := 0; i < n; i++ {
		result[i] = keywords[i].Word
	}
	return result
}

// generateNextSteps creates suggested follow-up commands.
func generateNextSteps(keywords []KeywordCount) []string {
	top := keywords[0].Word
	steps := []string{
		fmt.Sprintf("higdocs query --filter='keyword:%s'  # Documents about %s", top, top),
		fmt.Sprintf("higdocs search %s  # Ranked full-text matches", top),
	}
	if len(keywords) > 1 {
		steps = append(steps,
			fmt.Sprintf("higdocs query --filter='keyword:%s AND has_code'  # Combine filters", keywords[1].Word))
	}
	steps = append(steps, "higdocs extract --ids=<id> --top=50  # Deep dive on one document")
	return steps
}

// inferTopic guesses the dominant guideline area from the top keywords.
func inferTopic(keywords []KeywordCount) string {
	topWords := make(map[string]int)
	for _, kw := range keywords[:min(15, len(keywords))] {
		topWords[kw.Word] = kw.Count
	}

	switch {
	case hasWords(topWords, "accessibility", "voiceover") || hasWords(topWords, "accessibility", "contrast"):
		return "Accessibility-heavy guidance - check Accessibility and Color pages"
	case hasAny(topWords, "button", "control", "toolbar", "menu"):
		return "Component guidance - controls, bars and views"
	case hasAny(topWords, "color", "typography", "icon", "symbol", "layout"):
		return "Visual foundations - color, type, iconography and layout"
	case hasAny(topWords, "gesture", "keyboard", "pointer", "remote", "touch"):
		return "Input guidance - gestures and hardware input"
	case hasAny(topWords, "notification", "onboarding", "launching", "loading", "searching"):
		return "Interaction patterns - common app flows"
	}
	return ""
}

// hasWords checks if the keyword map contains all specified words.
func hasWords(words map[string]int, targets ...string) bool {
	for _, target := range targets {
		if _, exists := words[target]; !exists {
			return false
		}
	}
	return true
}

func hasAny(words map[string]int, targets ...string) bool {
	for _, target := range targets {
		if _, exists := words[target]; exists {
			return true
		}
	}
	return false
}
