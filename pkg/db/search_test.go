package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMatchQuery(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"button", `"button"`},
		{"push button", `"push" "button"`},
		{`title:buttons OR "menus`, `"title" "buttons" "OR" "menus"`},
		{"  ", ""},
		{"***", ""},
		{"split-view", `"split-view"`},
	}

	for _, tt := range tests {
		if got := BuildMatchQuery(tt.input); got != tt.want {
			t.Errorf("BuildMatchQuery(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSearchRanksTitleMatches(t *testing.T) {
	db := setupTestDB(t)

	menus := testDocument("menus", "components/menus.md")
	menus.FrontMatter.Title = "Menus"
	menus.FrontMatter.Keywords = []string{"menu"}
	menus.Body = "A menu reveals options. Some menus include a button that opens them."
	_, _, err := db.UpsertDocument(menus)
	require.NoError(t, err)

	_, _, err = db.UpsertDocument(testDocument("buttons", "components/buttons.md"))
	require.NoError(t, err)

	hits, err := db.Search("button", 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "buttons", hits[0].Slug)
	assert.Contains(t, hits[0].Snippet, "[button]")

	hits, err = db.Search("NEAR(", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = db.Search("", 5)
	require.NoError(t, err)
	assert.Nil(t, hits)
}

func TestStatsAndFacets(t *testing.T) {
	db := setupTestDB(t)

	color := testDocument("color", "foundations/color.md")
	color.FrontMatter.Category = "foundations"
	color.FrontMatter.ExtractionMethod = "fallback"
	color.Metadata.QualityBand = "low"
	color.Valid = false

	_, _, err := db.UpsertDocument(testDocument("buttons", "components/buttons.md"))
	require.NoError(t, err)
	_, _, err = db.UpsertDocument(color)
	require.NoError(t, err)

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 1, stats.Invalid)
	assert.Equal(t, 2, stats.Warnings)
	assert.Equal(t, 2, stats.WithImages)
	assert.InDelta(t, 0.9, stats.AvgQualityScore, 0.0001)
	assert.Equal(t, map[string]int{"high": 1, "low": 1}, stats.QualityBands)
	assert.ElementsMatch(t, []Facet{{"components", 1}, {"foundations", 1}}, stats.Categories)
	assert.Equal(t, []Facet{{"crawlee", 1}, {"fallback", 1}}, stats.ExtractionMethods)

	platforms, err := db.Platforms()
	require.NoError(t, err)
	assert.Equal(t, []Facet{{"ios", 2}, {"universal", 2}}, platforms)

	counts, err := db.KeywordCounts(nil)
	require.NoError(t, err)
	assert.Equal(t, 6, counts["button"])

	buttons, err := db.GetDocument("buttons")
	require.NoError(t, err)
	counts, err = db.KeywordCounts([]int64{buttons.DocID})
	require.NoError(t, err)
	assert.Equal(t, 3, counts["button"])

	declared, err := db.FrontMatterKeywords(1)
	require.NoError(t, err)
	assert.Equal(t, []Facet{{"button", 2}}, declared)
}
