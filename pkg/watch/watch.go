// Package watch keeps the index in sync with a content tree as files change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/dtnitsch/higdocs/pkg/indexer"
	"github.com/dtnitsch/higdocs/pkg/loader"
	"github.com/dtnitsch/higdocs/pkg/logging"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before applying it.
const DefaultDebounce = 500 * time.Millisecond

// Options configure a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   *zerolog.Logger
	// OnChange is called after every batch that wrote to the index.
	OnChange func(*indexer.Summary)
}

// Watcher applies file system changes under the indexer's root.
type Watcher struct {
	root     string
	indexer  *indexer.Indexer
	fsw      *fsnotify.Watcher
	debounce time.Duration
	logger   *zerolog.Logger
	onChange func(*indexer.Summary)

	pending map[string]struct{}
	resync  bool
}

// New watches every directory under the indexer's root. Events that occur
// after New returns are picked up by Run.
func New(ix *indexer.Indexer, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		root:     ix.Root(),
		indexer:  ix,
		fsw:      fsw,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		onChange: opts.OnChange,
		pending:  make(map[string]struct{}),
	}
	if err := w.addTree(w.root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and its subdirectories, skipping dot-directories.
// Markdown files already inside a new subdirectory are queued.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if loader.IsMarkdown(d.Name()) && dir != w.root {
				w.enqueue(path)
			}
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) enqueue(path string) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return
	}
	w.pending[filepath.ToSlash(rel)] = struct{}{}
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	w.logger.Info().Str("root", w.root).Dur("debounce", w.debounce).Msg("Watching content")

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(ev) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("Watcher error")

		case <-timer.C:
			if err := w.flush(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Error().Err(err).Msg("Failed to apply changes")
			}
		}
	}
}

// handleEvent records ev and reports whether it is relevant.
func (w *Watcher) handleEvent(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn().Err(err).Str("path", ev.Name).Msg("Failed to watch new directory")
			}
			return true
		}
	}

	if loader.IsMarkdown(name) {
		w.enqueue(ev.Name)
		return true
	}

	// A directory that went away takes its documents with it.
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		w.resync = true
		return true
	}
	return false
}

// flush applies the pending batch.
func (w *Watcher) flush(ctx context.Context) error {
	if w.resync {
		w.resync = false
		clear(w.pending)
		summary, err := w.indexer.Run(ctx)
		if err != nil {
			return err
		}
		w.notify(summary)
		return nil
	}

	if len(w.pending) == 0 {
		return nil
	}

	var changed, removed []string
	for rel := range w.pending {
		if _, err := os.Stat(filepath.Join(w.root, filepath.FromSlash(rel))); err == nil {
			changed = append(changed, rel)
		} else {
			removed = append(removed, rel)
		}
	}
	clear(w.pending)
	sort.Strings(changed)
	sort.Strings(removed)

	summary, err := w.indexer.ApplyChanges(ctx, changed, removed)
	if err != nil {
		return err
	}
	w.notify(summary)
	return nil
}

func (w *Watcher) notify(summary *indexer.Summary) {
	w.logger.Debug().
		Int("indexed", summary.Indexed).
		Int("removed", summary.Removed).
		Int("failed", summary.Failed).
		Msg("Applied changes")
	if summary.Changed() && w.onChange != nil {
		w.onChange(summary)
	}
}
