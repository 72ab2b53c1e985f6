// Package loader walks a corpus directory and loads documents concurrently.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/logging"
	"github.com/rs/zerolog"
)

// DefaultWorkers is used when Options.Workers is not positive.
const DefaultWorkers = 4

// Options configures Load.
type Options struct {
	Workers int
	Logger  *zerolog.Logger

	// SkipLanguage disables language detection.
	SkipLanguage bool

	// OnProgress is called after each file with the number of files
	// processed so far and the total. Calls are serialized.
	OnProgress func(done, total int)
}

// Failure records a file that could not be loaded.
type Failure struct {
	Path      string `json:"path" yaml:"path"`
	ErrorType string `json:"error_type" yaml:"error_type"`
	Message   string `json:"message" yaml:"message"`
}

// Result is the outcome of a load run.
type Result struct {
	Root      string
	Files     []string           // every discovered file, sorted
	Documents []*models.Document // loaded documents, sorted by path
	Failures  []Failure          // sorted by path
}

// Invalid returns the number of documents with error-severity issues.
func (r *Result) Invalid() int {
	n := 0
	for _, d := range r.Documents {
		if !d.Valid {
			n++
		}
	}
	return n
}

// IsMarkdown reports whether a file name has a Markdown extension.
func IsMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// Discover returns the Markdown files under root as sorted slash-separated
// relative paths. Dot-directories are skipped.
func Discover(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsMarkdown(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

type job struct {
	path string
}

type jobResult struct {
	path string
	doc  *models.Document
	err  error
}

// Load discovers and loads every document under root. Per-file failures
// are collected in the result and never abort the run. Cancelling ctx stops
// the run and returns ctx.Err().
func Load(ctx context.Context, root string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	files, err := Discover(root)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("root", root).Int("files", len(files)).Int("workers", workers).Msg("Starting load")

	jobs := make(chan job)
	results := make(chan jobResult, len(files))
	var wg sync.WaitGroup

	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go worker(ctx, w, root, newBuilder(!opts.SkipLanguage), logger, &wg, jobs, results)
	}

	go func() {
		defer close(jobs)
		for _, f := range files {
			select {
			case <-ctx.Done():
				return
			case jobs <- job{path: f}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	res := &Result{Root: root, Files: files}
	done := 0
	for r := range results {
		done++
		if opts.OnProgress != nil {
			opts.OnProgress(done, len(files))
		}
		if r.err != nil {
			res.Failures = append(res.Failures, ToFailure(r.path, r.err))
			continue
		}
		res.Documents = append(res.Documents, r.doc)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(res.Documents, func(i, j int) bool { return res.Documents[i].Path < res.Documents[j].Path })
	res.Documents, res.Failures = dedupe(res.Documents, res.Failures)
	sort.Slice(res.Failures, func(i, j int) bool { return res.Failures[i].Path < res.Failures[j].Path })

	logger.Info().
		Int("documents", len(res.Documents)).
		Int("failures", len(res.Failures)).
		Int("invalid", res.Invalid()).
		Msg("Load finished")

	return res, nil
}

func worker(ctx context.Context, id int, root string, b *builder, logger *zerolog.Logger, wg *sync.WaitGroup, jobs <-chan job, results chan<- jobResult) {
	defer wg.Done()
	for j := range jobs {
		if ctx.Err() != nil {
			return
		}
		doc, err := b.load(root, j.path)
		if err != nil {
			logger.Warn().Int("worker_id", id).Str("path", j.path).Err(err).Msg("Failed to load document")
		} else {
			logger.Debug().Int("worker_id", id).Str("path", j.path).Bool("valid", doc.Valid).Msg("Loaded document")
		}
		results <- jobResult{path: j.path, doc: doc, err: err}
	}
}

// ToFailure converts a load error into a Failure record.
func ToFailure(path string, err error) Failure {
	f := Failure{Path: path, ErrorType: ErrorTypeRead, Message: err.Error()}
	var le *LoadError
	if errors.As(err, &le) {
		f.ErrorType = le.Type
		f.Message = le.Err.Error()
	}
	return f
}

// dedupe keeps the first document for each id; docs must be sorted by path.
func dedupe(docs []*models.Document, failures []Failure) ([]*models.Document, []Failure) {
	owner := make(map[string]string, len(docs))
	kept := docs[:0]
	for _, d := range docs {
		id := d.FrontMatter.ID
		if first, taken := owner[id]; taken {
			failures = append(failures, Failure{
				Path:      d.Path,
				ErrorType: ErrorTypeDuplicate,
				Message:   fmt.Sprintf("id %q already used by %s", id, first),
			})
			continue
		}
		owner[id] = d.Path
		kept = append(kept, d)
	}
	return kept, failures
}
