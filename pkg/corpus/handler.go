// Package corpus answers structured requests against the document index.
// Verbs never return Go errors: failures are reported in Response.Error
// with a type and suggested actions.
package corpus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dtnitsch/higdocs/models"
	dbpkg "github.com/dtnitsch/higdocs/pkg/db"
	"github.com/dtnitsch/higdocs/pkg/errors"
)

// Error types reported in Response.Error.
const (
	ErrTypeDatabase         = "database_error"
	ErrTypeFilterParse      = "filter_parse_error"
	ErrTypeMissingParameter = "missing_parameter"
	ErrTypeInvalidParameter = "invalid_parameter"
	ErrTypeNotFound         = "not_found"
)

// Handle dispatches a Corpus API request to the appropriate verb handler.
func Handle(db *dbpkg.DB, req models.Request) models.Response {
	req.Verb = strings.ToLower(strings.TrimSpace(req.Verb))
	if !IsValidVerb(req.Verb) {
		return models.NewUnknownVerbResponse(req.Verb, suggestVerb(req.Verb), AllVerbs())
	}

	switch req.Verb {
	case VerbQUERY:
		return handleQuery(db, req)
	case VerbSEARCH:
		return handleSearch(db, req)
	case VerbEXTRACT:
		return handleExtract(db, req)
	case VerbSUMMARIZE:
		return handleSummarize(db, req)
	case VerbGET:
		return handleGet(db, req)
	case VerbVALIDATE:
		return handleValidate(db, req)
	case VerbSUGGEST:
		return handleSuggest(db, req)
	default:
		// Should never reach here due to IsValidVerb check
		return models.NewUnknownVerbResponse(req.Verb, "", AllVerbs())
	}
}

// suggestVerb returns the first verb sharing a two-letter prefix with verb.
func suggestVerb(verb string) string {
	if len(verb) < 2 {
		return ""
	}
	for _, v := range AllVerbs() {
		if strings.HasPrefix(v, verb[:2]) {
			return v
		}
	}
	return ""
}

func databaseError(verb string, err error) models.Response {
	return models.NewErrorResponse(verb, ErrTypeDatabase,
		fmt.Sprintf("Database query failed: %v", err),
		"Run 'higdocs index' to build the index")
}

func notFoundError(verb string, err error) models.Response {
	return models.NewErrorResponse(verb, ErrTypeNotFound, err.Error(),
		"Run 'higdocs query' to list document ids", "Run 'higdocs search <terms>' to find documents")
}

// lookupError maps a lookup failure to a not_found or database error.
func lookupError(verb string, err error) models.Response {
	if errors.IsNotFound(err) {
		return notFoundError(verb, err)
	}
	return databaseError(verb, err)
}

// intConstraint reads an integer constraint. JSON numbers arrive as
// float64 and query strings as text.
func intConstraint(req models.Request, key string, def int) (int, error) {
	v, ok := req.Constraints[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("constraint %s must be an integer, got %q", key, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("constraint %s must be an integer", key)
	}
}

func stringConstraint(req models.Request, key string) string {
	if v, ok := req.Constraints[key]; ok && v != nil {
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return ""
}

func boolConstraint(req models.Request, key string) bool {
	switch v := req.Constraints[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// limitFor returns req.Limit, falling back to the "limit" constraint.
func limitFor(req models.Request, def int) (int, error) {
	if req.Limit > 0 {
		return req.Limit, nil
	}
	n, err := intConstraint(req, "limit", def)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("limit must not be negative")
	}
	return n, nil
}
