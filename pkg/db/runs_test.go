package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnitsch/higdocs/pkg/errors"
)

func TestRunLifecycle(t *testing.T) {
	db := setupTestDB(t)

	latest, err := db.LatestRun()
	require.NoError(t, err)
	assert.Nil(t, latest)

	id, err := db.StartRun("content")
	require.NoError(t, err)

	require.NoError(t, db.RecordFailure(id, RunFailure{Path: "b.md", ErrorType: "frontmatter_error", Message: "no front matter"}))
	require.NoError(t, db.RecordFailure(id, RunFailure{Path: "a.md", ErrorType: "read_error", Message: "permission denied"}))

	// Unfinished runs are not the latest run.
	latest, err = db.LatestRun()
	require.NoError(t, err)
	assert.Nil(t, latest)

	run := &Run{RunID: id, FileCount: 5, IndexedCount: 3, FailedCount: 2, InvalidCount: 1}
	require.NoError(t, db.FinishRun(run))

	got, err := db.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, "content", got.Root)
	assert.True(t, got.Finished())
	assert.GreaterOrEqual(t, got.Duration().Nanoseconds(), int64(0))
	assert.Equal(t, 5, got.FileCount)
	assert.Equal(t, 3, got.IndexedCount)
	require.Len(t, got.Failures, 2)
	assert.Equal(t, "a.md", got.Failures[0].Path)

	latest, err = db.LatestRun()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, id, latest.RunID)

	second, err := db.StartRun("content")
	require.NoError(t, err)
	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].RunID)
	assert.False(t, runs[0].Finished())
}

func TestRunNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetRun(42)
	assert.True(t, errors.IsNotFound(err))

	err = db.FinishRun(&Run{RunID: 42})
	assert.True(t, errors.IsNotFound(err))
}
