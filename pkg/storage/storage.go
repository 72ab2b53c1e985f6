// Package storage writes generated artifacts (manifests, exported corpus
// files) below a base directory.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Storage resolves relative paths against a base directory. An empty base
// uses paths as given.
type Storage struct {
	base string
}

// FileStats holds metadata about a file without reading its contents.
type FileStats struct {
	SizeBytes int64
	ModTime   time.Time
}

// New creates a Storage rooted at base.
func New(base string) *Storage {
	return &Storage{base: base}
}

// Path returns the filesystem path for a relative name.
func (s *Storage) Path(name string) string {
	if s.base == "" || filepath.IsAbs(name) {
		return filepath.FromSlash(name)
	}
	return filepath.Join(s.base, filepath.FromSlash(name))
}

// EnsureDir creates a directory and its parents.
func (s *Storage) EnsureDir(name string) error {
	if err := os.MkdirAll(s.Path(name), 0o755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	return nil
}

// SaveFile writes content, creating parent directories as needed.
func (s *Storage) SaveFile(name string, content []byte) error {
	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

func (s *Storage) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

func (s *Storage) HasFile(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// GetFileStats returns metadata about a file using os.Stat.
func (s *Storage) GetFileStats(name string) (*FileStats, error) {
	info, err := os.Stat(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("error getting file stats: %w", err)
	}

	return &FileStats{
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}
