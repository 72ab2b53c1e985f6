package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/higdocs/pkg/db"
	"github.com/dtnitsch/higdocs/pkg/loader"
	"github.com/dtnitsch/higdocs/pkg/logging"
)

func document(id, title string) string {
	return `---
title: ` + title + `
platform: universal
category: components
url: https://developer.apple.com/design/human-interface-guidelines/` + id + `
id: ` + id + `
lastUpdated: 2025-06-10T08:30:00.000Z
extractionMethod: crawlee
qualityScore: 0.9
confidence: 0.9
hasCodeExamples: false
hasImages: false
keywords: [` + id + `]
---

# ` + title + `

People use ` + strings.ToLower(title) + ` on iPhone and Mac.
`
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setup(t *testing.T) (*Indexer, *db.DB, string) {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	root := t.TempDir()
	ix := New(database, root, loader.Options{Workers: 2, Logger: &logging.Nop, SkipLanguage: true})
	return ix, database, root
}

func TestRun(t *testing.T) {
	ix, database, root := setup(t)
	writeFile(t, root, "components/buttons.md", document("buttons", "Buttons"))
	writeFile(t, root, "components/menus.md", document("menus", "Menus"))
	writeFile(t, root, "components/broken.md", "no front matter\n")
	writeFile(t, root, "components/zz-copy.md", document("buttons", "Buttons copy"))

	summary, err := ix.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Indexed)
	assert.Equal(t, 2, summary.Failed)
	assert.Len(t, summary.Documents(), 2)
	assert.True(t, summary.Changed())

	require.NotNil(t, summary.Run)
	assert.Equal(t, 4, summary.Run.FileCount)
	assert.Len(t, summary.Run.Failures, 2)

	types := map[string]string{}
	for _, f := range summary.Failures() {
		types[f.Path] = f.ErrorType
	}
	assert.Equal(t, loader.ErrorTypeFrontMatter, types["components/broken.md"])
	assert.Equal(t, loader.ErrorTypeDuplicate, types["components/zz-copy.md"])

	n, err := database.CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRunIncremental(t *testing.T) {
	ix, database, root := setup(t)
	writeFile(t, root, "components/buttons.md", document("buttons", "Buttons"))
	writeFile(t, root, "components/menus.md", document("menus", "Menus"))

	_, err := ix.Run(context.Background())
	require.NoError(t, err)

	writeFile(t, root, "components/menus.md", document("menus", "Context menus"))
	require.NoError(t, os.Remove(filepath.Join(root, "components", "buttons.md")))

	summary, err := ix.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Indexed)
	assert.Equal(t, 0, summary.Unchanged)
	assert.Equal(t, 1, summary.Removed)

	doc, err := database.GetDocument("menus")
	require.NoError(t, err)
	assert.Equal(t, "Context menus", doc.FrontMatter.Title)

	summary, err = ix.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Unchanged)
	assert.False(t, summary.Changed())

	runs, err := database.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestApplyChanges(t *testing.T) {
	ix, database, root := setup(t)
	writeFile(t, root, "components/buttons.md", document("buttons", "Buttons"))
	writeFile(t, root, "components/menus.md", document("menus", "Menus"))
	_, err := ix.Run(context.Background())
	require.NoError(t, err)

	writeFile(t, root, "components/toggles.md", document("toggles", "Toggles"))
	writeFile(t, root, "components/bad.md", "---\ntitle: Oops\n")

	summary, err := ix.ApplyChanges(context.Background(),
		[]string{"components/toggles.md", "components/bad.md"},
		[]string{"components/menus.md", "components/never-indexed.md"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Indexed)
	assert.Equal(t, 1, summary.Removed)
	assert.Equal(t, 1, summary.Failed)

	_, err = database.GetDocument("menus")
	assert.Error(t, err)
	_, err = database.GetDocument("toggles")
	assert.NoError(t, err)

	require.NotNil(t, summary.Run)
	assert.True(t, summary.Run.Finished())
	assert.Equal(t, 4, summary.Run.FileCount)
	assert.Equal(t, 1, summary.Run.IndexedCount)
	assert.Equal(t, 1, summary.Run.RemovedCount)
	assert.Len(t, summary.Run.Failures, 1)

	runs, err := database.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	latest, err := database.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, summary.Run.RunID, latest.RunID)
}

func TestApplyChangesCancelled(t *testing.T) {
	ix, _, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ix.ApplyChanges(ctx, []string{"a.md"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRenamedFileKeepsID(t *testing.T) {
	ix, database, root := setup(t)
	writeFile(t, root, "components/buttons.md", document("buttons", "Buttons"))
	_, err := ix.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Rename(
		filepath.Join(root, "components", "buttons.md"),
		filepath.Join(root, "components", "buttons-renamed.md")))

	summary, err := ix.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Indexed)
	assert.Equal(t, 1, summary.Removed)
	assert.Equal(t, 0, summary.Failed)

	doc, err := database.GetDocument("buttons")
	require.NoError(t, err)
	assert.Equal(t, "components/buttons-renamed.md", doc.Path)
}

func TestRunFailureClosesRun(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	ix := New(database, filepath.Join(t.TempDir(), "missing"), loader.Options{Logger: &logging.Nop, SkipLanguage: true})
	_, err = ix.Run(context.Background())
	require.Error(t, err)

	runs, err := database.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Finished())
}

func TestTryRunBusy(t *testing.T) {
	ix, _, root := setup(t)
	writeFile(t, root, "components/buttons.md", document("buttons", "Buttons"))

	ix.mu.Lock()
	_, err := ix.TryRun(context.Background())
	ix.mu.Unlock()
	assert.ErrorIs(t, err, ErrBusy)

	summary, err := ix.TryRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Indexed)
}
