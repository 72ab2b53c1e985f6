package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/dtnitsch/higdocs/pkg/errors"
)

// Run records one indexing pass over a content root.
type Run struct {
	RunID          int64        `json:"run_id" yaml:"run_id"`
	Root           string       `json:"root" yaml:"root"`
	StartedAt      time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time    `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	FileCount      int          `json:"file_count" yaml:"file_count"`
	IndexedCount   int          `json:"indexed_count" yaml:"indexed_count"`
	UnchangedCount int          `json:"unchanged_count" yaml:"unchanged_count"`
	RemovedCount   int          `json:"removed_count" yaml:"removed_count"`
	FailedCount    int          `json:"failed_count" yaml:"failed_count"`
	InvalidCount   int          `json:"invalid_count" yaml:"invalid_count"`
	Failures       []RunFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Finished reports whether FinishRun was called.
func (r *Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Duration is the wall time of a finished run.
func (r *Run) Duration() time.Duration {
	if !r.Finished() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunFailure is a file that could not be indexed during a run.
type RunFailure struct {
	Path      string `json:"path" yaml:"path"`
	ErrorType string `json:"error_type" yaml:"error_type"`
	Message   string `json:"message" yaml:"message"`
}

// StartRun opens a run record and returns its id.
func (db *DB) StartRun(root string) (int64, error) {
	res, err := db.Exec("INSERT INTO index_runs (root, started_at) VALUES (?, ?)", root, formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun stores the final counts of a run.
func (db *DB) FinishRun(run *Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	res, err := db.Exec(`
		UPDATE index_runs
		SET finished_at = ?, file_count = ?, indexed_count = ?, unchanged_count = ?,
			removed_count = ?, failed_count = ?, invalid_count = ?
		WHERE run_id = ?
	`, formatTime(run.FinishedAt), run.FileCount, run.IndexedCount, run.UnchangedCount,
		run.RemovedCount, run.FailedCount, run.InvalidCount, run.RunID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("run", strconv.FormatInt(run.RunID, 10))
	}
	return nil
}

// RecordFailure stores a per-file failure for a run.
func (db *DB) RecordFailure(runID int64, f RunFailure) error {
	_, err := db.Exec("INSERT INTO run_failures (run_id, path, error_type, message) VALUES (?, ?, ?, ?)",
		runID, f.Path, f.ErrorType, f.Message)
	if err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}
	return nil
}

const runColumns = `run_id, root, started_at, finished_at, file_count, indexed_count,
	unchanged_count, removed_count, failed_count, invalid_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var started, finished sql.NullString
	if err := row.Scan(&r.RunID, &r.Root, &started, &finished, &r.FileCount, &r.IndexedCount,
		&r.UnchangedCount, &r.RemovedCount, &r.FailedCount, &r.InvalidCount); err != nil {
		return nil, err
	}
	r.StartedAt = parseTime(started)
	r.FinishedAt = parseTime(finished)
	return &r, nil
}

// ListRuns returns the most recent runs first.
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	query := "SELECT " + runColumns + " FROM index_runs ORDER BY run_id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns a run with its failures.
func (db *DB) GetRun(runID int64) (*Run, error) {
	r, err := scanRun(db.QueryRow("SELECT "+runColumns+" FROM index_runs WHERE run_id = ?", runID))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("run", strconv.FormatInt(runID, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := db.Query("SELECT path, error_type, message FROM run_failures WHERE run_id = ? ORDER BY path", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run failures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f RunFailure
		if err := rows.Scan(&f.Path, &f.ErrorType, &f.Message); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		r.Failures = append(r.Failures, f)
	}
	return r, rows.Err()
}

// LatestRun returns the newest finished run, or nil when none exists.
func (db *DB) LatestRun() (*Run, error) {
	r, err := scanRun(db.QueryRow("SELECT " + runColumns + " FROM index_runs WHERE finished_at IS NOT NULL ORDER BY run_id DESC LIMIT 1"))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return r, nil
}
