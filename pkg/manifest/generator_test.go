package manifest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/db"
	"github.com/dtnitsch/higdocs/pkg/indexer"
	"github.com/dtnitsch/higdocs/pkg/storage"
)

func testSummary() *indexer.Summary {
	doc := &models.Document{
		Path:        "components/buttons.md",
		FrontMatter: models.FrontMatter{ID: "buttons", Title: "Buttons"},
		Metadata:    models.DocMetadata{WordCount: 12, QualityBand: "high"},
		Issues:      []models.Issue{{Field: "keywords", Severity: models.SeverityWarning, Message: "no keywords"}},
		Valid:       true,
		WordCounts:  map[string]int{"button": 4, "action": 2},
	}
	return &indexer.Summary{
		Run: &db.Run{RunID: 7, FileCount: 2},
		Entries: []indexer.Entry{
			{Path: "components/broken.md", Status: indexer.StatusFailed, ErrorType: "frontmatter_error", Message: "no front matter"},
			{Path: doc.Path, Slug: "buttons", Status: indexer.StatusIndexed, Valid: true, Doc: doc},
		},
		Indexed: 1,
		Failed:  1,
	}
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	s := storage.New(root)
	require.NoError(t, s.SaveFile("components/buttons.md", []byte("0123456789")))

	m := Generate(testSummary(), root, s)
	assert.Equal(t, 2, m.TotalFiles)
	assert.Equal(t, 1, m.Indexed)
	assert.Equal(t, 1, m.Failed)
	assert.Equal(t, []string{"button:4", "action:2"}, m.AggregateKeywords)
	require.Len(t, m.Documents, 2)

	failed := m.Documents[0]
	assert.Equal(t, "failed", failed.Status)
	assert.Equal(t, "frontmatter_error", failed.ErrorType)

	ok := m.Documents[1]
	assert.Equal(t, "Buttons", ok.Title)
	assert.Equal(t, 1, ok.Warnings)
	assert.Equal(t, int64(10), ok.SizeBytes)
	assert.Equal(t, []string{"button:4", "action:2"}, ok.TopKeywords)
}

func TestSave(t *testing.T) {
	s := storage.New(t.TempDir())
	m := Generate(testSummary(), "content", nil)

	path, err := Save(m, s, "manifest.json")
	require.NoError(t, err)
	data, err := s.ReadFile("manifest.json")
	require.NoError(t, err)
	var decoded SummaryManifest
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "content", decoded.Root)
	assert.Equal(t, s.Path("manifest.json"), path)

	_, err = Save(m, s, "manifest.yaml")
	require.NoError(t, err)
	data, err = s.ReadFile("manifest.yaml")
	require.NoError(t, err)
	decoded = SummaryManifest{}
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Len(t, decoded.Documents, 2)

	_, err = Save(m, s, "manifest.txt")
	assert.Error(t, err)
}
