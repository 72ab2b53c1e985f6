package manifest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/higdocs/pkg/indexer"
	"github.com/dtnitsch/higdocs/pkg/mapreduce"
	"github.com/dtnitsch/higdocs/pkg/storage"
	"github.com/dtnitsch/higdocs/pkg/validate"
)

// KeywordCount is the number of keywords listed per document and for the corpus.
const KeywordCount = 25

// Generate builds a manifest from an index summary. Sizes are read through
// s when it is non-nil; paths are relative to the content root.
func Generate(summary *indexer.Summary, root string, s *storage.Storage) *SummaryManifest {
	m := &SummaryManifest{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Root:        root,
		Run:         summary.Run,
		TotalFiles:  len(summary.Entries),
		Indexed:     summary.Indexed,
		Unchanged:   summary.Unchanged,
		Removed:     summary.Removed,
		Failed:      summary.Failed,
		Invalid:     summary.Invalid,
	}
	if summary.Run != nil {
		m.TotalFiles = summary.Run.FileCount
	}

	var counts []map[string]int
	for _, e := range summary.Entries {
		fs := FileSummary{
			Path:         e.Path,
			ID:           e.Slug,
			Status:       e.Status,
			Valid:        e.Valid,
			ErrorType:    e.ErrorType,
			ErrorMessage: e.Message,
		}

		if doc := e.Doc; doc != nil {
			fs.Title = doc.FrontMatter.Title
			fs.Errors, fs.Warnings = validate.Count(doc.Issues)
			fs.WordCount = doc.Metadata.WordCount
			fs.QualityBand = doc.Metadata.QualityBand
			if doc.WordCounts != nil {
				fs.TopKeywords = mapreduce.TopKeywords(doc.WordCounts, KeywordCount)
				counts = append(counts, doc.WordCounts)
			}
		}

		if s != nil && e.Status != indexer.StatusRemoved {
			if stats, err := s.GetFileStats(e.Path); err == nil {
				fs.SizeBytes = stats.SizeBytes
			}
		}

		m.Documents = append(m.Documents, fs)
	}

	m.AggregateKeywords = mapreduce.TopKeywords(mapreduce.Reduce(counts), KeywordCount)
	return m
}

// Encode serializes a manifest as "json" or "yaml"; empty means yaml.
func Encode(m *SummaryManifest, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("error marshalling manifest: %w", err)
		}
		return append(data, '\n'), nil
	case "yaml", "yml", "":
		data, err := yaml.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("error marshalling manifest: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
}

// Save writes the manifest to name through s, choosing the encoding from
// the file extension.
func Save(m *SummaryManifest, s *storage.Storage, name string) (string, error) {
	data, err := Encode(m, strings.TrimPrefix(filepath.Ext(name), "."))
	if err != nil {
		return "", err
	}
	if err := s.SaveFile(name, data); err != nil {
		return "", fmt.Errorf("error saving manifest: %w", err)
	}
	return s.Path(name), nil
}
