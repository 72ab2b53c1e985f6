package manifest

import "github.com/dtnitsch/higdocs/pkg/db"

// SummaryManifest is a lightweight overview of an index run: per-file
// status and the corpus keywords, without document bodies.
type SummaryManifest struct {
	GeneratedAt       string        `json:"generated_at" yaml:"generated_at"`
	Root              string        `json:"root" yaml:"root"`
	Run               *db.Run       `json:"run,omitempty" yaml:"run,omitempty"`
	TotalFiles        int           `json:"total_files" yaml:"total_files"`
	Indexed           int           `json:"indexed" yaml:"indexed"`
	Unchanged         int           `json:"unchanged" yaml:"unchanged"`
	Removed           int           `json:"removed" yaml:"removed"`
	Failed            int           `json:"failed" yaml:"failed"`
	Invalid           int           `json:"invalid" yaml:"invalid"`
	AggregateKeywords []string      `json:"aggregate_keywords" yaml:"aggregate_keywords"`
	Documents         []FileSummary `json:"documents" yaml:"documents"`
}

// FileSummary describes one corpus file.
type FileSummary struct {
	Path         string   `json:"path" yaml:"path"`
	ID           string   `json:"id,omitempty" yaml:"id,omitempty"`
	Title        string   `json:"title,omitempty" yaml:"title,omitempty"`
	Status       string   `json:"status" yaml:"status"` // indexed, unchanged, removed or failed
	Valid        bool     `json:"valid" yaml:"valid"`
	ErrorType    string   `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	Errors       int      `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings     int      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	SizeBytes    int64    `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	WordCount    int      `json:"word_count,omitempty" yaml:"word_count,omitempty"`
	QualityBand  string   `json:"quality_band,omitempty" yaml:"quality_band,omitempty"`
	TopKeywords  []string `json:"top_keywords,omitempty" yaml:"top_keywords,omitempty"`
}
