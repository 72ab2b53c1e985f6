package db

import (
	"fmt"
	"strings"
)

// Facet is a value with the number of documents carrying it.
type Facet struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// Stats summarizes the indexed corpus.
type Stats struct {
	Documents         int            `json:"documents" yaml:"documents"`
	Invalid           int            `json:"invalid" yaml:"invalid"`
	Errors            int            `json:"errors" yaml:"errors"`
	Warnings          int            `json:"warnings" yaml:"warnings"`
	WithCode          int            `json:"with_code" yaml:"with_code"`
	WithImages        int            `json:"with_images" yaml:"with_images"`
	TotalWords        int            `json:"total_words" yaml:"total_words"`
	BodyBytes         int64          `json:"body_bytes" yaml:"body_bytes"`
	AvgQualityScore   float64        `json:"avg_quality_score" yaml:"avg_quality_score"`
	AvgConfidence     float64        `json:"avg_confidence" yaml:"avg_confidence"`
	Categories        []Facet        `json:"categories" yaml:"categories"`
	Platforms         []Facet        `json:"platforms" yaml:"platforms"`
	ExtractionMethods []Facet        `json:"extraction_methods" yaml:"extraction_methods"`
	QualityBands      map[string]int `json:"quality_bands" yaml:"quality_bands"`
	Languages         []Facet        `json:"languages" yaml:"languages"`
}

func (db *DB) facets(query string, args ...any) ([]Facet, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count facets: %w", err)
	}
	defer rows.Close()

	var facets []Facet
	for rows.Next() {
		var f Facet
		if err := rows.Scan(&f.Name, &f.Count); err != nil {
			return nil, fmt.Errorf("failed to scan facet: %w", err)
		}
		facets = append(facets, f)
	}
	return facets, rows.Err()
}

// Categories returns document counts per category, largest first.
func (db *DB) Categories() ([]Facet, error) {
	return db.facets(`SELECT category, COUNT(*) AS n FROM documents
		WHERE category != '' GROUP BY category ORDER BY n DESC, category`)
}

// Platforms returns document counts per declared or detected platform.
func (db *DB) Platforms() ([]Facet, error) {
	return db.facets(`SELECT platform, COUNT(*) AS n FROM document_platforms
		GROUP BY platform ORDER BY n DESC, platform`)
}

// KeywordCounts sums computed keyword weights across the given documents,
// or across the whole corpus when docIDs is empty.
func (db *DB) KeywordCounts(docIDs []int64) (map[string]int, error) {
	query := "SELECT keyword, SUM(weight) FROM document_keywords WHERE source = 'computed'"
	args := make([]any, 0, len(docIDs))
	if len(docIDs) > 0 {
		query += " AND doc_id IN (" + strings.TrimSuffix(strings.Repeat("?,", len(docIDs)), ",") + ")"
		for _, id := range docIDs {
			args = append(args, id)
		}
	}
	query += " GROUP BY keyword"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count keywords: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kw string
		var n int
		if err := rows.Scan(&kw, &n); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		counts[kw] = n
	}
	return counts, rows.Err()
}

// FrontMatterKeywords returns declared keywords with the number of
// documents declaring each, most common first.
func (db *DB) FrontMatterKeywords(limit int) ([]Facet, error) {
	query := `SELECT lower(keyword) AS k, COUNT(DISTINCT doc_id) AS n FROM document_keywords
		WHERE source = 'frontmatter' GROUP BY k ORDER BY n DESC, k`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return db.facets(query)
}

// Stats computes corpus-wide counts and averages.
func (db *DB) Stats() (*Stats, error) {
	s := &Stats{QualityBands: make(map[string]int)}

	err := db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN valid = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(has_code_examples), 0),
			COALESCE(SUM(has_images), 0),
			COALESCE(SUM(word_count), 0),
			COALESCE(SUM(LENGTH(CAST(body AS BLOB))), 0),
			COALESCE(AVG(quality_score), 0),
			COALESCE(AVG(confidence), 0)
		FROM documents
	`).Scan(&s.Documents, &s.Invalid, &s.WithCode, &s.WithImages, &s.TotalWords, &s.BodyBytes,
		&s.AvgQualityScore, &s.AvgConfidence)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	err = db.QueryRow(`
		SELECT COALESCE(SUM(CASE WHEN severity = 'error' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN severity = 'warning' THEN 1 ELSE 0 END), 0)
		FROM document_issues
	`).Scan(&s.Errors, &s.Warnings)
	if err != nil {
		return nil, fmt.Errorf("failed to count issues: %w", err)
	}

	if s.Categories, err = db.Categories(); err != nil {
		return nil, err
	}
	if s.Platforms, err = db.Platforms(); err != nil {
		return nil, err
	}
	if s.ExtractionMethods, err = db.facets(`SELECT extraction_method, COUNT(*) AS n FROM documents
		WHERE extraction_method != '' GROUP BY extraction_method ORDER BY n DESC, extraction_method`); err != nil {
		return nil, err
	}
	if s.Languages, err = db.facets(`SELECT language, COUNT(*) AS n FROM documents
		WHERE language != '' GROUP BY language ORDER BY n DESC, language`); err != nil {
		return nil, err
	}

	bands, err := db.facets(`SELECT quality_band, COUNT(*) FROM documents
		WHERE quality_band != '' GROUP BY quality_band`)
	if err != nil {
		return nil, err
	}
	for _, b := range bands {
		s.QualityBands[b.Name] = b.Count
	}

	return s, nil
}
