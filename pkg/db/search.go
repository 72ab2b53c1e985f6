package db

import (
	"fmt"
	"strings"
	"unicode"
)

// DefaultSearchLimit caps Search when the caller passes no limit.
const DefaultSearchLimit = 20

// SearchHit is one full-text match.
type SearchHit struct {
	DocID    int64   `json:"doc_id" yaml:"doc_id"`
	Slug     string  `json:"slug" yaml:"slug"`
	Title    string  `json:"title" yaml:"title"`
	Category string  `json:"category" yaml:"category"`
	Platform string  `json:"platform" yaml:"platform"`
	URL      string  `json:"url" yaml:"url"`
	Snippet  string  `json:"snippet" yaml:"snippet"`
	Rank     float64 `json:"rank" yaml:"rank"`
}

// BuildMatchQuery turns free text into an FTS5 MATCH expression. Each term
// is double-quoted so operators and column filters in user input are
// matched literally. Terms are ANDed. An empty result means nothing to
// search for.
func BuildMatchQuery(input string) string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' && r != '\''
	})

	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "-_'")
		if f == "" {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " ")
}

// Search runs a ranked full-text query. Title matches weigh more than
// keyword matches, which weigh more than body matches.
func (db *DB) Search(query string, limit int) ([]SearchHit, error) {
	match := BuildMatchQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	rows, err := db.Query(`
		SELECT d.doc_id, d.slug, d.title, d.category, d.platform, d.url,
			snippet(documents_fts, 2, '[', ']', '...', 12),
			bm25(documents_fts, 10.0, 5.0, 1.0) AS rank
		FROM documents_fts
		JOIN documents d ON d.doc_id = documents_fts.rowid
		WHERE documents_fts MATCH ?
		ORDER BY rank, d.slug
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.DocID, &h.Slug, &h.Title, &h.Category, &h.Platform, &h.URL, &h.Snippet, &h.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
