// Package models defines the data structures shared across the corpus toolkit.
package models

import "time"

// FrontMatter is the YAML metadata block at the top of every corpus document.
type FrontMatter struct {
	Title            string    `json:"title" yaml:"title"`
	Platform         string    `json:"platform" yaml:"platform"`
	Category         string    `json:"category" yaml:"category"`
	URL              string    `json:"url" yaml:"url"`
	ID               string    `json:"id" yaml:"id"`
	LastUpdated      time.Time `json:"lastUpdated" yaml:"lastUpdated"`
	ExtractionMethod string    `json:"extractionMethod" yaml:"extractionMethod"`
	QualityScore     float64   `json:"qualityScore" yaml:"qualityScore"`
	Confidence       float64   `json:"confidence" yaml:"confidence"`
	ContentLength    int       `json:"contentLength" yaml:"contentLength"`
	HasCodeExamples  bool      `json:"hasCodeExamples" yaml:"hasCodeExamples"`
	HasImages        bool      `json:"hasImages" yaml:"hasImages"`
	Keywords         []string  `json:"keywords" yaml:"keywords"`

	// Extra keeps unrecognized keys so that rendering does not lose them.
	Extra map[string]any `json:"extra,omitempty" yaml:"-"`
}

// Extraction methods written by the scraper.
const (
	MethodCrawlee  = "crawlee"
	MethodFallback = "fallback"
)

// Issue severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is a single validation finding for a document.
type Issue struct {
	Field    string `json:"field" yaml:"field"`
	Severity string `json:"severity" yaml:"severity"`
	Message  string `json:"message" yaml:"message"`
}
