package corpus

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FilterResult represents parsed filter components for SQL generation.
// The clause refers to the documents table as d.
type FilterResult struct {
	WhereClause string
	Args        []any
}

type fieldKind int

const (
	kindText fieldKind = iota
	kindNumber
	kindBool
)

type field struct {
	column string
	kind   fieldKind
}

// filterFields maps queryable names to document columns. platform is
// resolved against declared and detected platforms.
var filterFields = map[string]field{
	"category":          {"d.category", kindText},
	"platform":          {"", kindText},
	"title":             {"d.title", kindText},
	"slug":              {"d.slug", kindText},
	"path":              {"d.path", kindText},
	"url":               {"d.url", kindText},
	"extraction_method": {"d.extraction_method", kindText},
	"language":          {"d.language", kindText},
	"quality_band":      {"d.quality_band", kindText},
	"quality_score":     {"d.quality_score", kindNumber},
	"confidence":        {"d.confidence", kindNumber},
	"content_length":    {"d.content_length", kindNumber},
	"word_count":        {"d.word_count", kindNumber},
	"section_count":     {"d.section_count", kindNumber},
	"code_block_count":  {"d.code_block_count", kindNumber},
	"image_count":       {"d.image_count", kindNumber},
	"has_code_examples": {"d.has_code_examples", kindBool},
	"has_images":        {"d.has_images", kindBool},
	"valid":             {"d.valid", kindBool},
}

var fieldAliases = map[string]string{
	"has_code": "has_code_examples",
	"method":   "extraction_method",
	"quality":  "quality_score",
	"id":       "slug",
	"band":     "quality_band",
	"lang":     "language",
}

// FilterFields returns the queryable field names, sorted.
func FilterFields() []string {
	names := make([]string, 0, len(filterFields))
	for name := range filterFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseFilter parses a filter expression into SQL WHERE clause.
// Supported syntax:
//   - Boolean: "has_code", "valid"
//   - Comparison: "quality_score>=0.8", "category=components", "platform!=universal"
//   - Substring: "title~button"
//   - Keyword: "keyword:navigation"
//   - Combined: "has_code AND quality>0.5" or "category=components OR category=patterns"
//
// AND and OR cannot be mixed in one expression. A joiner only splits the
// expression when a field term follows it, so values may contain "and" or
// "or" ("title~sign in or out").
func ParseFilter(filter string) (*FilterResult, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return &FilterResult{WhereClause: "1=1"}, nil
	}

	parts, keyword, err := splitTerms(filter)
	if err != nil {
		return nil, err
	}
	joiner := " " + keyword + " "

	var whereParts []string
	var args []any
	for _, part := range parts {
		clause, partArgs, err := parseSimpleFilter(part)
		if err != nil {
			return nil, err
		}
		if len(parts) > 1 {
			clause = "(" + clause + ")"
		}
		whereParts = append(whereParts, clause)
		args = append(args, partArgs...)
	}

	return &FilterResult{
		WhereClause: strings.Join(whereParts, joiner),
		Args:        args,
	}, nil
}

// parseSimpleFilter parses a single filter expression.
func parseSimpleFilter(filter string) (string, []any, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return "", nil, fmt.Errorf("empty filter term")
	}

	if rest, ok := strings.CutPrefix(filter, "keyword:"); ok {
		kw := strings.Trim(strings.TrimSpace(rest), "\"'")
		if kw == "" {
			return "", nil, fmt.Errorf("keyword filter needs a word")
		}
		return "d.doc_id IN (SELECT doc_id FROM document_keywords WHERE lower(keyword) = lower(?))", []any{kw}, nil
	}

	// Boolean field (just field name)
	if !strings.ContainsAny(filter, "=<>!~") {
		name, f, err := lookupField(filter)
		if err != nil {
			return "", nil, err
		}
		if f.kind != kindBool {
			return "", nil, fmt.Errorf("field %s is not boolean; use a comparison", name)
		}
		return f.column + " = 1", nil, nil
	}

	idx, op := findOperator(filter)
	if op == "" {
		return "", nil, fmt.Errorf("invalid filter syntax: %s", filter)
	}
	name, f, err := lookupField(filter[:idx])
	if err != nil {
		return "", nil, err
	}
	value := strings.Trim(strings.TrimSpace(filter[idx+len(op):]), "\"'")
	return comparison(name, f, op, value)
}

// findOperator returns the leftmost comparison operator in a term. A lone
// "!" is not an operator.
func findOperator(term string) (int, string) {
	idx := strings.IndexAny(term, "=<>!~")
	if idx < 0 {
		return -1, ""
	}
	if idx+1 < len(term) {
		switch two := term[idx : idx+2]; two {
		case ">=", "<=", "!=":
			return idx, two
		}
	}
	if term[idx] == '!' {
		return -1, ""
	}
	return idx, term[idx : idx+1]
}

func lookupField(name string) (string, field, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := fieldAliases[name]; ok {
		name = canonical
	}
	f, ok := filterFields[name]
	if !ok {
		return name, field{}, fmt.Errorf("invalid field: %s", name)
	}
	return name, f, nil
}

func comparison(name string, f field, op, value string) (string, []any, error) {
	switch f.kind {
	case kindNumber:
		if op == "~" {
			return "", nil, fmt.Errorf("operator ~ needs a text field, %s is numeric", name)
		}
		num, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return "", nil, fmt.Errorf("field %s needs a number, got %q", name, value)
		}
		return f.column + " " + op + " ?", []any{num}, nil

	case kindBool:
		if op != "=" && op != "!=" {
			return "", nil, fmt.Errorf("field %s supports only = and !=", name)
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", nil, fmt.Errorf("field %s needs true or false, got %q", name, value)
		}
		return f.column + " " + op + " ?", []any{b}, nil
	}

	if op != "=" && op != "!=" && op != "~" {
		return "", nil, fmt.Errorf("field %s supports only =, != and ~", name)
	}

	if name == "platform" {
		sub := "d.doc_id IN (SELECT doc_id FROM document_platforms WHERE platform = ?)"
		switch op {
		case "!=":
			sub = "d.doc_id NOT IN (SELECT doc_id FROM document_platforms WHERE platform = ?)"
		case "~":
			return "d.doc_id IN (SELECT doc_id FROM document_platforms WHERE platform LIKE ?)",
				[]any{"%" + strings.ToLower(value) + "%"}, nil
		}
		return sub, []any{strings.ToLower(value)}, nil
	}

	if op == "~" {
		return f.column + " LIKE ?", []any{"%" + value + "%"}, nil
	}
	return f.column + " " + op + " ? COLLATE NOCASE", []any{value}, nil
}

// splitTerms splits a filter on AND or OR (case-insensitive). A joiner
// counts only between two terms, and only when the words after it begin a
// field term; otherwise it is part of the preceding value.
func splitTerms(filter string) ([]string, string, error) {
	words := strings.Fields(filter)

	var terms, current []string
	joiner := ""
	for i, w := range words {
		upper := strings.ToUpper(w)
		if (upper == "AND" || upper == "OR") && len(current) > 0 && i+1 < len(words) && startsTerm(words[i+1]) {
			if joiner != "" && joiner != upper {
				return nil, "", fmt.Errorf("cannot mix AND and OR in one filter")
			}
			joiner = upper
			terms = append(terms, strings.Join(current, " "))
			current = nil
			continue
		}
		current = append(current, w)
	}
	if len(current) > 0 {
		terms = append(terms, strings.Join(current, " "))
	}
	return terms, joiner, nil
}

// startsTerm reports whether word opens a filter term: a keyword filter or
// a known field name, optionally followed by an operator.
func startsTerm(word string) bool {
	if strings.HasPrefix(word, "keyword:") {
		return true
	}
	name := word
	if idx := strings.IndexAny(word, "=<>!~"); idx >= 0 {
		name = word[:idx]
	}
	_, _, err := lookupField(name)
	return err == nil
}
