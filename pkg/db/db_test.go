package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/errors"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testDocument(slug, path string) *models.Document {
	return &models.Document{
		Path: path,
		FrontMatter: models.FrontMatter{
			Title:            "Buttons",
			Platform:         "universal",
			Category:         "components",
			URL:              "https://developer.apple.com/design/human-interface-guidelines/" + slug,
			ID:               slug,
			LastUpdated:      time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
			ExtractionMethod: models.MethodCrawlee,
			QualityScore:     0.9,
			Confidence:       0.8,
			ContentLength:    120,
			HasCodeExamples:  false,
			HasImages:        true,
			Keywords:         []string{"button", "Controls", "tap"},
			Extra:            map[string]any{"section": "Components"},
		},
		Body:        "# Buttons\n\nA button initiates an instantaneous action when people tap it.\n",
		Attribution: "This content is from Apple's Human Interface Guidelines.",
		Sections: []models.Section{{
			Level:   1,
			Heading: "Buttons",
			Anchor:  "buttons",
			Blocks:  []models.ContentBlock{{Type: models.BlockParagraph, Text: "A button initiates an instantaneous action."}},
		}},
		Metadata: models.DocMetadata{
			WordCount:    9,
			SectionCount: 1,
			BlockCount:   1,
			ImageCount:   1,
			Language:     "en",
			Platforms:    []string{"ios", "universal"},
			QualityBand:  "high",
		},
		Issues:     []models.Issue{{Field: "keywords", Severity: models.SeverityWarning, Message: "sample warning"}},
		Valid:      true,
		Checksum:   "sum-" + slug,
		WordCounts: map[string]int{"button": 3, "action": 2, "tap": 1},
	}
}

func TestOpenCreatesFileAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.db")

	db, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
	require.NoError(t, db.Close())

	// Reopening an existing file keeps the schema.
	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	n, err := db.CountDocuments()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpsertAndGetDocument(t *testing.T) {
	db := setupTestDB(t)
	doc := testDocument("buttons", "components/buttons.md")

	id, changed, err := db.UpsertDocument(doc)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, id, doc.DocID)
	assert.False(t, doc.IndexedAt.IsZero())

	got, err := db.GetDocument("buttons")
	require.NoError(t, err)
	assert.Equal(t, id, got.DocID)
	assert.Equal(t, "components/buttons.md", got.Path)
	assert.Equal(t, doc.FrontMatter.Title, got.FrontMatter.Title)
	assert.Equal(t, doc.FrontMatter.LastUpdated, got.FrontMatter.LastUpdated)
	assert.Equal(t, []string{"button", "Controls", "tap"}, got.FrontMatter.Keywords)
	assert.Equal(t, "Components", got.FrontMatter.Extra["section"])
	assert.Equal(t, doc.Body, got.Body)
	assert.Equal(t, doc.Attribution, got.Attribution)
	assert.Equal(t, doc.Sections, got.Sections)
	assert.Equal(t, doc.Metadata.Platforms, got.Metadata.Platforms)
	assert.Equal(t, doc.Issues, got.Issues)
	assert.True(t, got.Valid)

	byPath, err := db.GetDocumentByPath("components/buttons.md")
	require.NoError(t, err)
	assert.Equal(t, "buttons", byPath.FrontMatter.ID)
}

func TestUpsertUnchangedChecksum(t *testing.T) {
	db := setupTestDB(t)

	_, changed, err := db.UpsertDocument(testDocument("buttons", "components/buttons.md"))
	require.NoError(t, err)
	require.True(t, changed)

	_, changed, err = db.UpsertDocument(testDocument("buttons", "components/buttons.md"))
	require.NoError(t, err)
	assert.False(t, changed)

	updated := testDocument("buttons", "components/buttons.md")
	updated.Checksum = "different"
	updated.FrontMatter.Title = "Buttons (updated)"
	updated.FrontMatter.Keywords = []string{"press"}
	_, changed, err = db.UpsertDocument(updated)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := db.GetDocument("buttons")
	require.NoError(t, err)
	assert.Equal(t, "Buttons (updated)", got.FrontMatter.Title)
	assert.Equal(t, []string{"press"}, got.FrontMatter.Keywords)

	n, err := db.CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsertDuplicateSlug(t *testing.T) {
	db := setupTestDB(t)

	_, _, err := db.UpsertDocument(testDocument("buttons", "components/buttons.md"))
	require.NoError(t, err)

	_, _, err = db.UpsertDocument(testDocument("buttons", "ios/components/buttons.md"))
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)
}

func TestGetDocumentNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetDocument("missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestDeleteMissing(t *testing.T) {
	db := setupTestDB(t)
	for _, d := range []*models.Document{
		testDocument("buttons", "components/buttons.md"),
		testDocument("menus", "components/menus.md"),
		testDocument("color", "foundations/color.md"),
	} {
		_, _, err := db.UpsertDocument(d)
		require.NoError(t, err)
	}

	removed, err := db.DeleteMissing([]string{"components/buttons.md"})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	n, err := db.CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := db.Search("button", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "buttons", hits[0].Slug)

	ok, err := db.DeleteByPath("components/menus.md")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListDocuments(t *testing.T) {
	db := setupTestDB(t)

	color := testDocument("color", "foundations/color.md")
	color.FrontMatter.Category = "foundations"
	color.FrontMatter.Title = "Color"
	color.Metadata.Platforms = []string{"macos"}
	color.Valid = false

	for _, d := range []*models.Document{
		testDocument("buttons", "components/buttons.md"),
		testDocument("menus", "components/menus.md"),
		color,
	} {
		_, _, err := db.UpsertDocument(d)
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		opts  ListOptions
		want  []string
		total int
	}{
		{"all", ListOptions{}, []string{"buttons", "menus", "color"}, 3},
		{"category", ListOptions{Category: "foundations"}, []string{"color"}, 1},
		{"detected platform", ListOptions{Platform: "iOS"}, []string{"buttons", "menus"}, 2},
		{"valid only", ListOptions{ValidOnly: true}, []string{"buttons", "menus"}, 2},
		{"paged", ListOptions{Limit: 1, Offset: 1}, []string{"menus"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, total, err := db.ListDocuments(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)

			slugs := make([]string, len(docs))
			for i, d := range docs {
				slugs[i] = d.Slug
			}
			assert.Equal(t, tt.want, slugs)
		})
	}
}

func TestListIssues(t *testing.T) {
	db := setupTestDB(t)

	bad := testDocument("bad", "components/bad.md")
	bad.Issues = append(bad.Issues, models.Issue{Field: "url", Severity: models.SeverityError, Message: "not absolute"})
	_, _, err := db.UpsertDocument(bad)
	require.NoError(t, err)

	all, err := db.ListIssues("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	errs, err := db.ListIssues(models.SeverityError)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "url", errs[0].Field)
	assert.Equal(t, "bad", errs[0].Slug)
}
