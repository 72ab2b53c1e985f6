package loader

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `---
title: Buttons
platform: universal
category: components
url: https://developer.apple.com/design/human-interface-guidelines/buttons
id: buttons
lastUpdated: 2025-06-10T08:30:00.000Z
extractionMethod: crawlee
qualityScore: 0.92
confidence: 0.88
contentLength: 0
hasCodeExamples: false
hasImages: false
keywords: [buttons, controls]
---

# Buttons

A button initiates an instantaneous action on iOS and macOS.

## Best practices

- Make buttons easy to use.
`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testOptions() Options {
	return Options{Workers: 3, Logger: &logging.Nop, SkipLanguage: true}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.md", validDoc)
	writeFile(t, root, "ios/components/a.markdown", validDoc)
	writeFile(t, root, "notes.txt", "ignored")
	writeFile(t, root, ".git/x.md", validDoc)

	files, err := Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.md", "ios/components/a.markdown"}, files)
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "universal/components/buttons.md", validDoc)
	writeFile(t, root, "ios/patterns/Drag and Drop.md", "---\ntitle: Drag and drop\n---\n\nMove content on iPadOS.\n")
	writeFile(t, root, "broken/no-front-matter.md", "# Just markdown\n")
	writeFile(t, root, "broken/unterminated.md", "---\ntitle: Oops\n")
	writeFile(t, root, "zz/duplicate.md", validDoc)

	var calls atomic.Int32
	opts := testOptions()
	opts.OnProgress = func(done, total int) {
		calls.Add(1)
		assert.Equal(t, 5, total)
	}

	res, err := Load(context.Background(), root, opts)
	require.NoError(t, err)

	assert.Equal(t, int32(5), calls.Load())
	assert.Len(t, res.Files, 5)
	require.Len(t, res.Documents, 2)

	drag := res.Documents[0]
	assert.Equal(t, "ios/patterns/Drag and Drop.md", drag.Path)
	assert.Equal(t, "drag-and-drop", drag.FrontMatter.ID)
	assert.Equal(t, "ios", drag.FrontMatter.Platform)
	assert.Equal(t, "patterns", drag.FrontMatter.Category)
	assert.False(t, drag.Valid, "missing url and lastUpdated are errors")
	assert.Contains(t, drag.Metadata.Platforms, "ipados")

	buttons := res.Documents[1]
	assert.Equal(t, "universal/components/buttons.md", buttons.Path)
	assert.True(t, buttons.Valid)
	assert.Equal(t, []string{"ios", "macos", "universal"}, buttons.Metadata.Platforms)
	assert.Equal(t, "high", buttons.Metadata.QualityBand)
	assert.Equal(t, 2, buttons.Metadata.SectionCount)
	require.NotNil(t, buttons.Metadata.Guidance)
	assert.Equal(t, []string{"Make buttons easy to use."}, buttons.Metadata.Guidance.BestPractices)
	assert.NotEmpty(t, buttons.Checksum)
	assert.Greater(t, buttons.WordCounts["buttons"], 0)

	require.Len(t, res.Failures, 3)
	assert.Equal(t, Failure{Path: "broken/no-front-matter.md", ErrorType: ErrorTypeFrontMatter, Message: "missing front matter"}, res.Failures[0])
	assert.Equal(t, ErrorTypeFrontMatter, res.Failures[1].ErrorType)
	assert.Equal(t, "zz/duplicate.md", res.Failures[2].Path)
	assert.Equal(t, ErrorTypeDuplicate, res.Failures[2].ErrorType)
	assert.Contains(t, res.Failures[2].Message, "universal/components/buttons.md")

	assert.Equal(t, 1, res.Invalid())
}

func TestLoadCancelled(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		writeFile(t, root, name, validDoc)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, root, testOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadMissingRoot(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing"), testOptions())
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "components/buttons.md", validDoc)

	doc, err := LoadFile(root, "components/buttons.md")
	require.NoError(t, err)
	assert.Equal(t, "buttons", doc.FrontMatter.ID)
	assert.Equal(t, "en", doc.Metadata.Language)

	_, err = LoadFile(root, "components/missing.md")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrorTypeRead, le.Type)
}

func TestDeriveFromPath(t *testing.T) {
	tests := []struct {
		rel                    string
		platform, category, id string
		derived                bool
	}{
		{"ios/components/Menus.md", "ios", "components", "menus", true},
		{"foundations/Color_Palette.md", "", "foundations", "color-palette", true},
		{"top.md", "", "", "top", true},
		{"a/b/c/d.md", "b", "c", "d", true},
	}
	for _, tt := range tests {
		fm := &models.FrontMatter{}
		derived := deriveFromPath(fm, tt.rel)
		assert.Equal(t, tt.platform, fm.Platform, tt.rel)
		assert.Equal(t, tt.category, fm.Category, tt.rel)
		assert.Equal(t, tt.id, fm.ID, tt.rel)
		assert.Equal(t, tt.derived, derived, tt.rel)
	}

	fm := &models.FrontMatter{ID: "kept", Platform: "macos"}
	assert.False(t, deriveFromPath(fm, "ios/components/x.md"))
	assert.Equal(t, "macos", fm.Platform)
	assert.Equal(t, "kept", fm.ID)
}
