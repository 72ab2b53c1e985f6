// Package indexer loads a content tree into the database and records the run.
package indexer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/db"
	"github.com/dtnitsch/higdocs/pkg/errors"
	"github.com/dtnitsch/higdocs/pkg/loader"
	"github.com/dtnitsch/higdocs/pkg/logging"
)

// Entry statuses.
const (
	StatusIndexed   = "indexed"
	StatusUnchanged = "unchanged"
	StatusRemoved   = "removed"
	StatusFailed    = "failed"
)

// Entry is the outcome for a single file.
type Entry struct {
	Path      string           `json:"path" yaml:"path"`
	Slug      string           `json:"slug,omitempty" yaml:"slug,omitempty"`
	Status    string           `json:"status" yaml:"status"`
	Valid     bool             `json:"valid" yaml:"valid"`
	ErrorType string           `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	Message   string           `json:"message,omitempty" yaml:"message,omitempty"`
	Doc       *models.Document `json:"-" yaml:"-"`
}

// Summary is the outcome of an indexing pass.
type Summary struct {
	Run     *db.Run `json:"run,omitempty" yaml:"run,omitempty"`
	Entries []Entry `json:"entries" yaml:"entries"`

	Indexed   int `json:"indexed" yaml:"indexed"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	Removed   int `json:"removed" yaml:"removed"`
	Failed    int `json:"failed" yaml:"failed"`
	Invalid   int `json:"invalid" yaml:"invalid"`
}

// Documents returns the loaded documents of the pass.
func (s *Summary) Documents() []*models.Document {
	var docs []*models.Document
	for _, e := range s.Entries {
		if e.Doc != nil {
			docs = append(docs, e.Doc)
		}
	}
	return docs
}

// Failures returns the failed entries.
func (s *Summary) Failures() []Entry {
	var out []Entry
	for _, e := range s.Entries {
		if e.Status == StatusFailed {
			out = append(out, e)
		}
	}
	return out
}

// Changed reports whether the pass wrote to the index.
func (s *Summary) Changed() bool {
	return s.Indexed > 0 || s.Removed > 0
}

func (s *Summary) add(e Entry) {
	switch e.Status {
	case StatusIndexed:
		s.Indexed++
	case StatusUnchanged:
		s.Unchanged++
	case StatusRemoved:
		s.Removed++
	case StatusFailed:
		s.Failed++
	}
	if e.Doc != nil && !e.Valid {
		s.Invalid++
	}
	s.Entries = append(s.Entries, e)
}

// ErrBusy is returned by TryRun while another pass holds the indexer.
var ErrBusy = errors.New("index run already in progress")

// Indexer keeps the database in sync with a content root. Run and
// ApplyChanges never overlap.
type Indexer struct {
	db     *db.DB
	root   string
	opts   loader.Options
	logger *zerolog.Logger
	mu     sync.Mutex
}

// New creates an Indexer. A nil opts.Logger uses the default logger.
func New(database *db.DB, root string, opts loader.Options) *Indexer {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	opts.Logger = logger
	return &Indexer{db: database, root: root, opts: opts, logger: logger}
}

// Root returns the content root.
func (ix *Indexer) Root() string {
	return ix.root
}

// Run loads the whole tree, removes documents whose files are gone, upserts
// every document and records the run. Per-file failures are part of the
// summary; the returned error is reserved for database and walk failures.
func (ix *Indexer) Run(ctx context.Context) (*Summary, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.run(ctx)
}

// TryRun is Run, except that it returns ErrBusy instead of waiting when
// another pass is in progress.
func (ix *Indexer) TryRun(ctx context.Context) (*Summary, error) {
	if !ix.mu.TryLock() {
		return nil, ErrBusy
	}
	defer ix.mu.Unlock()
	return ix.run(ctx)
}

func (ix *Indexer) run(ctx context.Context) (summary *Summary, err error) {
	runID, err := ix.db.StartRun(ix.root)
	if err != nil {
		return nil, err
	}
	summary = &Summary{}
	fileCount := 0
	defer func() {
		if err != nil {
			ix.abandon(runID, fileCount, summary, err)
		}
	}()

	result, err := loader.Load(ctx, ix.root, ix.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", ix.root, err)
	}
	fileCount = len(result.Files)

	// Removal comes first so that a renamed file can take over its id.
	// Files that exist but failed to load keep their previous index entry.
	removed, err := ix.db.DeleteMissing(result.Files)
	if err != nil {
		return nil, err
	}
	summary.Removed = removed

	for _, f := range result.Failures {
		summary.add(Entry{Path: f.Path, Status: StatusFailed, ErrorType: f.ErrorType, Message: f.Message})
	}
	for _, doc := range result.Documents {
		entry, err := ix.store(doc)
		if err != nil {
			return nil, err
		}
		summary.add(entry)
	}

	sort.Slice(summary.Entries, func(i, j int) bool {
		return summary.Entries[i].Path < summary.Entries[j].Path
	})

	if err := ix.finish(runID, fileCount, summary); err != nil {
		return nil, err
	}

	ix.logger.Info().
		Int64("run_id", runID).
		Int("files", fileCount).
		Int("indexed", summary.Indexed).
		Int("unchanged", summary.Unchanged).
		Int("removed", summary.Removed).
		Int("failed", summary.Failed).
		Int("invalid", summary.Invalid).
		Msg("Index run complete")

	return summary, nil
}

// ApplyChanges re-indexes the changed paths and drops the removed ones as
// a run of its own. Paths are relative to the content root.
func (ix *Indexer) ApplyChanges(ctx context.Context, changed, removed []string) (summary *Summary, err error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	runID, err := ix.db.StartRun(ix.root)
	if err != nil {
		return nil, err
	}
	summary = &Summary{}
	fileCount := len(changed) + len(removed)
	defer func() {
		if err != nil {
			ix.abandon(runID, fileCount, summary, err)
		}
	}()

	for _, rel := range removed {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		ok, err := ix.db.DeleteByPath(rel)
		if err != nil {
			return summary, err
		}
		if ok {
			summary.add(Entry{Path: rel, Status: StatusRemoved})
			ix.logger.Info().Str("path", rel).Msg("Removed document")
		}
	}

	for _, rel := range changed {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		doc, err := loader.LoadFileWith(ix.root, rel, ix.opts)
		if err != nil {
			f := loader.ToFailure(rel, err)
			ix.logger.Warn().Str("path", rel).Str("error_type", f.ErrorType).Msg(f.Message)
			summary.add(Entry{Path: rel, Status: StatusFailed, ErrorType: f.ErrorType, Message: f.Message})
			continue
		}
		entry, err := ix.store(doc)
		if err != nil {
			return summary, err
		}
		summary.add(entry)
		ix.logger.Info().Str("path", rel).Str("status", entry.Status).Msg("Reindexed document")
	}

	if err := ix.finish(runID, fileCount, summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// finish records the failures and counts of a run and attaches it to the
// summary.
func (ix *Indexer) finish(runID int64, fileCount int, summary *Summary) error {
	for _, e := range summary.Failures() {
		if err := ix.db.RecordFailure(runID, db.RunFailure{Path: e.Path, ErrorType: e.ErrorType, Message: e.Message}); err != nil {
			return err
		}
	}
	if err := ix.db.FinishRun(runFromSummary(runID, ix.root, fileCount, summary)); err != nil {
		return err
	}
	run, err := ix.db.GetRun(runID)
	if err != nil {
		return err
	}
	summary.Run = run
	return nil
}

// abandon closes a run that stopped early with the counts reached so far.
func (ix *Indexer) abandon(runID int64, fileCount int, summary *Summary, cause error) {
	if err := ix.db.FinishRun(runFromSummary(runID, ix.root, fileCount, summary)); err != nil {
		ix.logger.Error().Err(err).Int64("run_id", runID).Msg("Failed to close run")
		return
	}
	ix.logger.Warn().Err(cause).Int64("run_id", runID).Msg("Index run stopped early")
}

func runFromSummary(runID int64, root string, fileCount int, summary *Summary) *db.Run {
	return &db.Run{
		RunID:          runID,
		Root:           root,
		FileCount:      fileCount,
		IndexedCount:   summary.Indexed,
		UnchangedCount: summary.Unchanged,
		RemovedCount:   summary.Removed,
		FailedCount:    summary.Failed,
		InvalidCount:   summary.Invalid,
	}
}

// store upserts one document. Id collisions with other stored paths become
// failed entries.
func (ix *Indexer) store(doc *models.Document) (Entry, error) {
	entry := Entry{Path: doc.Path, Slug: doc.Slug(), Valid: doc.Valid}

	_, changed, err := ix.db.UpsertDocument(doc)
	switch {
	case errors.Is(err, errors.ErrAlreadyExists):
		entry.Status = StatusFailed
		entry.ErrorType = loader.ErrorTypeDuplicate
		entry.Message = err.Error()
		return entry, nil
	case err != nil:
		return entry, fmt.Errorf("failed to store %s: %w", doc.Path, err)
	}

	entry.Doc = doc
	entry.Status = StatusUnchanged
	if changed {
		entry.Status = StatusIndexed
	}
	return entry, nil
}
