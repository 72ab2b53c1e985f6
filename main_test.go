package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const buttons = `---
title: Buttons
platform: universal
category: components
url: https://developer.apple.com/design/human-interface-guidelines/buttons
id: buttons
lastUpdated: 2025-06-10T08:30:00.000Z
extractionMethod: crawlee
qualityScore: 0.9
confidence: 0.95
hasCodeExamples: false
hasImages: false
keywords: [buttons, controls]
---

# Buttons

A button initiates an instantaneous action.

## Best practices

- Make buttons easy to identify.
`

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"higdocs"}, args...))
	return out.String(), err
}

func setupCorpus(t *testing.T) (content, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	content = filepath.Join(dir, "hig")
	require.NoError(t, os.MkdirAll(filepath.Join(content, "components"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(content, "components", "buttons.md"), []byte(buttons), 0o644))
	return content, filepath.Join(dir, "index.db")
}

func TestColdstart(t *testing.T) {
	out, err := runApp(t, "coldstart")
	require.NoError(t, err)
	assert.Contains(t, out, "higdocs index")
}

func TestIndexThenQuery(t *testing.T) {
	content, dbPath := setupCorpus(t)
	global := []string{"--content-dir", content, "--db", dbPath, "--quiet"}

	out, err := runApp(t, append(global, "index", "--skip-language")...)
	require.NoError(t, err, out)

	var indexed struct {
		Indexed int `yaml:"indexed"`
		Failed  int `yaml:"failed"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &indexed))
	assert.Equal(t, 1, indexed.Indexed)
	assert.Equal(t, 0, indexed.Failed)

	out, err = runApp(t, append(global, "--format", "json", "search", "instantaneous", "action")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, `"slug": "buttons"`)

	out, err = runApp(t, append(global, "--format", "markdown", "get", "buttons")...)
	require.NoError(t, err, out)
	assert.True(t, strings.HasPrefix(out, "---\n"))
	assert.Contains(t, out, "# Buttons")

	out, err = runApp(t, append(global, "keywords", "--top", "3")...)
	require.NoError(t, err, out)
	assert.True(t, strings.HasPrefix(out, "1. "), out)

	out, err = runApp(t, append(global, "--format", "json", "get", "--view", "metadata", "components/buttons.md")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, `"slug": "buttons"`)

	out, err = runApp(t, append(global, "query", "--filter", "nope=1")...)
	require.Error(t, err)
	assert.Contains(t, out, "filter_parse_error")
}

func TestValidateReportsProblems(t *testing.T) {
	content, dbPath := setupCorpus(t)
	broken := strings.Replace(buttons, "id: buttons", "id: Not A Slug", 1)
	require.NoError(t, os.WriteFile(filepath.Join(content, "components", "broken.md"), []byte(broken), 0o644))

	out, err := runApp(t, "--content-dir", content, "--db", dbPath, "--quiet", "validate", "--errors-only")
	require.Error(t, err)
	var exitErr cli.ExitCoder
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, out, "components/broken.md")
}
