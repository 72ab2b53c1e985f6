package corpus

import (
	"github.com/dtnitsch/higdocs/models"
	dbpkg "github.com/dtnitsch/higdocs/pkg/db"
)

// ValidateResponse is the data returned by VALIDATE verb.
type ValidateResponse struct {
	Documents int                 `json:"documents" yaml:"documents"`
	Invalid   int                 `json:"invalid" yaml:"invalid"`
	Errors    int                 `json:"errors" yaml:"errors"`
	Warnings  int                 `json:"warnings" yaml:"warnings"`
	Issues    []dbpkg.IssueRecord `json:"issues" yaml:"issues"`
}

// handleValidate lists stored validation issues. The "errors_only"
// constraint (or severity=error) drops warnings.
func handleValidate(db *dbpkg.DB, req models.Request) models.Response {
	severity := stringConstraint(req, "severity")
	if boolConstraint(req, "errors_only") {
		severity = models.SeverityError
	}
	if severity != "" && severity != models.SeverityError && severity != models.SeverityWarning {
		return models.NewErrorResponse(VerbVALIDATE, ErrTypeInvalidParameter,
			"severity must be 'error' or 'warning'")
	}

	issues, err := db.ListIssues(severity)
	if err != nil {
		return databaseError(VerbVALIDATE, err)
	}
	if issues == nil {
		issues = []dbpkg.IssueRecord{}
	}

	stats, err := db.Stats()
	if err != nil {
		return databaseError(VerbVALIDATE, err)
	}

	coverage := 0.0
	if stats.Documents > 0 {
		coverage = float64(stats.Documents-stats.Invalid) / float64(stats.Documents)
	}

	return models.Response{
		Verb: VerbVALIDATE,
		Data: ValidateResponse{
			Documents: stats.Documents,
			Invalid:   stats.Invalid,
			Errors:    stats.Errors,
			Warnings:  stats.Warnings,
			Issues:    issues,
		},
		Confidence: 1.0,
		Coverage:   coverage,
		Unknowns:   []string{},
	}
}
