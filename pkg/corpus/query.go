package corpus

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/higdocs/models"
	dbpkg "github.com/dtnitsch/higdocs/pkg/db"
)

// QueryResponse is the data returned by QUERY verb.
type QueryResponse struct {
	Filter      string                  `json:"filter" yaml:"filter"`
	MatchCount  int                     `json:"match_count" yaml:"match_count"`
	TotalCount  int                     `json:"total_count" yaml:"total_count"`
	Matches     []dbpkg.DocumentSummary `json:"matches" yaml:"matches"`
	WhereClause string                  `json:"where_clause,omitempty" yaml:"where_clause,omitempty"` // For debugging
}

func handleQuery(db *dbpkg.DB, req models.Request) models.Response {
	limit, err := limitFor(req, 0)
	if err != nil {
		return models.NewErrorResponse(VerbQUERY, ErrTypeInvalidParameter, err.Error())
	}
	return ExecuteQuery(db, req.Filter, limit)
}

// ExecuteQuery runs a metadata query against the database. A positive
// limit truncates the matches; MatchCount stays the full count.
func ExecuteQuery(db *dbpkg.DB, filter string, limit int) models.Response {
	filterResult, err := ParseFilter(filter)
	if err != nil {
		return models.NewErrorResponse(VerbQUERY, ErrTypeFilterParse,
			fmt.Sprintf("Failed to parse filter: %v", err),
			"Check filter syntax, e.g. 'has_code AND quality_score>=0.8'",
			"Queryable fields: "+strings.Join(FilterFields(), ", ")+", keyword:<word>")
	}

	matches, err := db.QueryDocuments(filterResult.WhereClause, filterResult.Args)
	if err != nil {
		return databaseError(VerbQUERY, err)
	}

	totalCount, err := db.CountDocuments()
	if err != nil {
		return databaseError(VerbQUERY, err)
	}

	coverage := 0.0
	if totalCount > 0 {
		coverage = float64(len(matches)) / float64(totalCount)
	}

	data := QueryResponse{
		Filter:      filter,
		MatchCount:  len(matches),
		TotalCount:  totalCount,
		Matches:     matches,
		WhereClause: filterResult.WhereClause,
	}
	if data.Matches == nil {
		data.Matches = []dbpkg.DocumentSummary{}
	}
	if limit > 0 && len(data.Matches) > limit {
		data.Matches = data.Matches[:limit]
	}

	return models.Response{
		Verb:       VerbQUERY,
		Data:       data,
		Confidence: calculateConfidence(filterResult.WhereClause),
		Coverage:   coverage,
		Unknowns:   []string{},
	}
}

// calculateConfidence estimates confidence based on filter complexity.
// Exact matches score highest; ranges and boolean logic lower it.
func calculateConfidence(whereClause string) float64 {
	confidence := 0.95

	if strings.ContainsAny(whereClause, "<>") || strings.Contains(whereClause, " LIKE ") {
		confidence -= 0.05
	}

	confidence -= float64(strings.Count(whereClause, ") AND (")) * 0.03
	confidence -= float64(strings.Count(whereClause, ") OR (")) * 0.05

	if confidence < 0.6 {
		confidence = 0.6
	}
	return confidence
}
