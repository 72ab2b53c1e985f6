package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/errors"
	"github.com/dtnitsch/higdocs/pkg/mapreduce"
)

// ComputedKeywordLimit is the number of computed keywords stored per document.
const ComputedKeywordLimit = 25

// DocumentSummary is the list view of a document.
type DocumentSummary struct {
	DocID        int64     `json:"doc_id" yaml:"doc_id"`
	Slug         string    `json:"slug" yaml:"slug"`
	Title        string    `json:"title" yaml:"title"`
	Platform     string    `json:"platform" yaml:"platform"`
	Category     string    `json:"category" yaml:"category"`
	URL          string    `json:"url" yaml:"url"`
	QualityScore float64   `json:"quality_score" yaml:"quality_score"`
	QualityBand  string    `json:"quality_band" yaml:"quality_band"`
	WordCount    int       `json:"word_count" yaml:"word_count"`
	Valid        bool      `json:"valid" yaml:"valid"`
	LastUpdated  time.Time `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
}

// ListOptions filters ListDocuments. Platform matches declared or detected
// platforms.
type ListOptions struct {
	Platform  string
	Category  string
	ValidOnly bool
	Limit     int
	Offset    int
}

const upsertColumns = `slug, path, title, platform, category, url, last_updated, extraction_method,
	quality_score, confidence, content_length, has_code_examples, has_images,
	word_count, section_count, code_block_count, image_count, language, quality_band, valid,
	checksum, body, attribution, sections_json, metadata_json, extra_json, indexed_at`

// UpsertDocument inserts or replaces a document keyed by path. A document
// whose checksum is unchanged is left alone and changed is false. An id
// already owned by another path is rejected with ErrAlreadyExists.
func (db *DB) UpsertDocument(doc *models.Document) (id int64, changed bool, err error) {
	fm := &doc.FrontMatter

	sectionsJSON, err := json.Marshal(doc.Sections)
	if err != nil {
		return 0, false, fmt.Errorf("failed to encode sections: %w", err)
	}
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return 0, false, fmt.Errorf("failed to encode metadata: %w", err)
	}
	var extraJSON sql.NullString
	if len(fm.Extra) > 0 {
		b, err := json.Marshal(fm.Extra)
		if err != nil {
			return 0, false, fmt.Errorf("failed to encode extra fields: %w", err)
		}
		extraJSON = sql.NullString{String: string(b), Valid: true}
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var checksum string
	err = tx.QueryRow("SELECT doc_id, checksum FROM documents WHERE path = ?", doc.Path).Scan(&id, &checksum)
	switch {
	case err == sql.ErrNoRows:
		id = 0
	case err != nil:
		return 0, false, fmt.Errorf("failed to look up document: %w", err)
	case checksum == doc.Checksum:
		doc.DocID = id
		return id, false, nil
	}

	var owner string
	err = tx.QueryRow("SELECT path FROM documents WHERE slug = ? AND path != ?", fm.ID, doc.Path).Scan(&owner)
	if err == nil {
		return 0, false, fmt.Errorf("%w: id %q is used by %s", errors.ErrAlreadyExists, fm.ID, owner)
	}
	if err != sql.ErrNoRows {
		return 0, false, fmt.Errorf("failed to check id: %w", err)
	}

	now := time.Now().UTC()
	m := &doc.Metadata
	args := []any{
		fm.ID, doc.Path, fm.Title, fm.Platform, fm.Category, fm.URL, formatTime(fm.LastUpdated), fm.ExtractionMethod,
		fm.QualityScore, fm.Confidence, fm.ContentLength, fm.HasCodeExamples, fm.HasImages,
		m.WordCount, m.SectionCount, m.CodeBlockCount, m.ImageCount, m.Language, m.QualityBand, doc.Valid,
		doc.Checksum, doc.Body, doc.Attribution, string(sectionsJSON), string(metadataJSON), extraJSON, formatTime(now),
	}

	if id == 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
		res, err := tx.Exec("INSERT INTO documents ("+upsertColumns+") VALUES ("+placeholders+")", args...)
		if err != nil {
			return 0, false, fmt.Errorf("failed to insert document: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, false, fmt.Errorf("failed to get document id: %w", err)
		}
	} else {
		cols := strings.Split(upsertColumns, ",")
		sets := make([]string, len(cols))
		for i, c := range cols {
			sets[i] = strings.TrimSpace(c) + " = ?"
		}
		if _, err := tx.Exec("UPDATE documents SET "+strings.Join(sets, ", ")+" WHERE doc_id = ?", append(args, id)...); err != nil {
			return 0, false, fmt.Errorf("failed to update document: %w", err)
		}
	}

	if err := replaceChildren(tx, id, doc); err != nil {
		return 0, false, err
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit document: %w", err)
	}

	doc.DocID = id
	doc.IndexedAt = now
	return id, true, nil
}

// replaceChildren rewrites keyword, platform, issue and full-text rows.
func replaceChildren(tx *sql.Tx, id int64, doc *models.Document) error {
	if err := deleteChildren(tx, id); err != nil {
		return err
	}

	for i, kw := range doc.FrontMatter.Keywords {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO document_keywords (doc_id, source, keyword, weight, position)
			VALUES (?, 'frontmatter', ?, 1, ?)`, id, kw, i); err != nil {
			return fmt.Errorf("failed to insert keyword: %w", err)
		}
	}
	for i, wc := range mapreduce.Ranked(doc.WordCounts, ComputedKeywordLimit) {
		if _, err := tx.Exec(`INSERT INTO document_keywords (doc_id, source, keyword, weight, position)
			VALUES (?, 'computed', ?, ?, ?)`, id, wc.Word, wc.Count, i); err != nil {
			return fmt.Errorf("failed to insert computed keyword: %w", err)
		}
	}

	for _, p := range doc.Metadata.Platforms {
		if _, err := tx.Exec("INSERT OR IGNORE INTO document_platforms (doc_id, platform) VALUES (?, ?)", id, p); err != nil {
			return fmt.Errorf("failed to insert platform: %w", err)
		}
	}

	for _, issue := range doc.Issues {
		if _, err := tx.Exec("INSERT INTO document_issues (doc_id, field, severity, message) VALUES (?, ?, ?, ?)",
			id, issue.Field, issue.Severity, issue.Message); err != nil {
			return fmt.Errorf("failed to insert issue: %w", err)
		}
	}

	if _, err := tx.Exec("INSERT INTO documents_fts (rowid, title, keywords, body) VALUES (?, ?, ?, ?)",
		id, doc.FrontMatter.Title, strings.Join(doc.FrontMatter.Keywords, " "), doc.Body); err != nil {
		return fmt.Errorf("failed to index document text: %w", err)
	}
	return nil
}

func deleteChildren(tx *sql.Tx, id int64) error {
	for _, stmt := range []string{
		"DELETE FROM document_keywords WHERE doc_id = ?",
		"DELETE FROM document_platforms WHERE doc_id = ?",
		"DELETE FROM document_issues WHERE doc_id = ?",
		"DELETE FROM documents_fts WHERE rowid = ?",
	} {
		if _, err := tx.Exec(stmt, id); err != nil {
			return fmt.Errorf("failed to clear document rows: %w", err)
		}
	}
	return nil
}

// DeleteByPath removes one document. It reports whether a row existed.
func (db *DB) DeleteByPath(path string) (bool, error) {
	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRow("SELECT doc_id FROM documents WHERE path = ?", path).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up document: %w", err)
	}

	if err := deleteChildren(tx, id); err != nil {
		return false, err
	}
	if _, err := tx.Exec("DELETE FROM documents WHERE doc_id = ?", id); err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}
	return true, tx.Commit()
}

// DeleteMissing removes every document whose path is not in keep and
// returns how many were removed.
func (db *DB) DeleteMissing(keep []string) (int, error) {
	keepSet := make(map[string]struct{}, len(keep))
	for _, p := range keep {
		keepSet[p] = struct{}{}
	}

	rows, err := db.Query("SELECT path FROM documents")
	if err != nil {
		return 0, fmt.Errorf("failed to list paths: %w", err)
	}
	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan path: %w", err)
		}
		if _, ok := keepSet[p]; !ok {
			stale = append(stale, p)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	removed := 0
	for _, p := range stale {
		ok, err := db.DeleteByPath(p)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

const documentColumns = `doc_id, slug, path, title, platform, category, url, last_updated, extraction_method,
	quality_score, confidence, content_length, has_code_examples, has_images, valid,
	checksum, body, attribution, sections_json, metadata_json, extra_json, indexed_at`

// GetDocument returns the document with the given id (slug).
func (db *DB) GetDocument(slug string) (*models.Document, error) {
	return db.getDocument("slug = ?", slug, slug)
}

// GetDocumentByPath returns the document stored for a corpus path.
func (db *DB) GetDocumentByPath(path string) (*models.Document, error) {
	return db.getDocument("path = ?", path, path)
}

func (db *DB) getDocument(where string, arg any, name string) (*models.Document, error) {
	doc := &models.Document{}
	fm := &doc.FrontMatter
	var lastUpdated, indexedAt, sectionsJSON, metadataJSON, extraJSON sql.NullString

	err := db.QueryRow("SELECT "+documentColumns+" FROM documents WHERE "+where, arg).Scan(
		&doc.DocID, &fm.ID, &doc.Path, &fm.Title, &fm.Platform, &fm.Category, &fm.URL, &lastUpdated, &fm.ExtractionMethod,
		&fm.QualityScore, &fm.Confidence, &fm.ContentLength, &fm.HasCodeExamples, &fm.HasImages, &doc.Valid,
		&doc.Checksum, &doc.Body, &doc.Attribution, &sectionsJSON, &metadataJSON, &extraJSON, &indexedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("document", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	fm.LastUpdated = parseTime(lastUpdated)
	doc.IndexedAt = parseTime(indexedAt)

	if sectionsJSON.Valid && sectionsJSON.String != "" {
		if err := json.Unmarshal([]byte(sectionsJSON.String), &doc.Sections); err != nil {
			return nil, fmt.Errorf("failed to decode sections: %w", err)
		}
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	if extraJSON.Valid && extraJSON.String != "" {
		if err := json.Unmarshal([]byte(extraJSON.String), &fm.Extra); err != nil {
			return nil, fmt.Errorf("failed to decode extra fields: %w", err)
		}
	}

	if fm.Keywords, err = db.frontMatterKeywords(doc.DocID); err != nil {
		return nil, err
	}
	if doc.Issues, err = db.documentIssues(doc.DocID); err != nil {
		return nil, err
	}
	return doc, nil
}

func (db *DB) frontMatterKeywords(docID int64) ([]string, error) {
	rows, err := db.Query(`SELECT keyword FROM document_keywords
		WHERE doc_id = ? AND source = 'frontmatter' ORDER BY position`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to get keywords: %w", err)
	}
	defer rows.Close()

	var keywords []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}
	return keywords, rows.Err()
}

func (db *DB) documentIssues(docID int64) ([]models.Issue, error) {
	rows, err := db.Query("SELECT field, severity, message FROM document_issues WHERE doc_id = ? ORDER BY issue_id", docID)
	if err != nil {
		return nil, fmt.Errorf("failed to get issues: %w", err)
	}
	defer rows.Close()

	var issues []models.Issue
	for rows.Next() {
		var i models.Issue
		if err := rows.Scan(&i.Field, &i.Severity, &i.Message); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, i)
	}
	return issues, rows.Err()
}

const summaryColumns = `d.doc_id, d.slug, d.title, d.platform, d.category, d.url,
	d.quality_score, d.quality_band, d.word_count, d.valid, d.last_updated`

func scanSummary(rows *sql.Rows) (DocumentSummary, error) {
	var s DocumentSummary
	var lastUpdated sql.NullString
	err := rows.Scan(&s.DocID, &s.Slug, &s.Title, &s.Platform, &s.Category, &s.URL,
		&s.QualityScore, &s.QualityBand, &s.WordCount, &s.Valid, &lastUpdated)
	s.LastUpdated = parseTime(lastUpdated)
	return s, err
}

// ListDocuments returns a page of documents ordered by category then title,
// plus the total number of matches.
func (db *DB) ListDocuments(opts ListOptions) ([]DocumentSummary, int, error) {
	var conditions []string
	var args []any

	if opts.Platform != "" {
		conditions = append(conditions, "d.doc_id IN (SELECT doc_id FROM document_platforms WHERE platform = ?)")
		args = append(args, strings.ToLower(opts.Platform))
	}
	if opts.Category != "" {
		conditions = append(conditions, "d.category = ?")
		args = append(args, opts.Category)
	}
	if opts.ValidOnly {
		conditions = append(conditions, "d.valid = 1")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM documents d"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	query := "SELECT " + summaryColumns + " FROM documents d" + where + " ORDER BY d.category, d.title, d.slug"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", opts.Limit, max(opts.Offset, 0))
	}

	docs, err := db.querySummaries(query, args...)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// QueryDocuments returns summaries matching a raw WHERE clause over the
// documents table aliased as d. Callers must build the clause from
// validated fields only.
func (db *DB) QueryDocuments(where string, args []any) ([]DocumentSummary, error) {
	if where == "" {
		where = "1=1"
	}
	return db.querySummaries("SELECT "+summaryColumns+" FROM documents d WHERE "+where+" ORDER BY d.category, d.title, d.slug", args...)
}

func (db *DB) querySummaries(query string, args ...any) ([]DocumentSummary, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, s)
	}
	return docs, rows.Err()
}

// CountDocuments returns the number of indexed documents.
func (db *DB) CountDocuments() (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// IssueRecord is a stored validation issue with its document.
type IssueRecord struct {
	Slug     string `json:"slug" yaml:"slug"`
	Path     string `json:"path" yaml:"path"`
	Field    string `json:"field" yaml:"field"`
	Severity string `json:"severity" yaml:"severity"`
	Message  string `json:"message" yaml:"message"`
}

// ListIssues returns stored issues ordered by path. An empty severity
// returns all of them.
func (db *DB) ListIssues(severity string) ([]IssueRecord, error) {
	query := `SELECT d.slug, d.path, i.field, i.severity, i.message
		FROM document_issues i JOIN documents d ON d.doc_id = i.doc_id`
	var args []any
	if severity != "" {
		query += " WHERE i.severity = ?"
		args = append(args, severity)
	}
	query += " ORDER BY d.path, i.issue_id"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var issues []IssueRecord
	for rows.Next() {
		var r IssueRecord
		if err := rows.Scan(&r.Slug, &r.Path, &r.Field, &r.Severity, &r.Message); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, r)
	}
	return issues, rows.Err()
}
