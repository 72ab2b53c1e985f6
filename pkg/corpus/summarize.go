package corpus

import (
	"github.com/dtnitsch/higdocs/models"
	dbpkg "github.com/dtnitsch/higdocs/pkg/db"
)

// SummaryResponse is the data returned by SUMMARIZE verb.
type SummaryResponse struct {
	dbpkg.Stats `yaml:",inline"`
	LastRun     *dbpkg.Run `json:"last_run,omitempty" yaml:"last_run,omitempty"`
}

func handleSummarize(db *dbpkg.DB, _ models.Request) models.Response {
	stats, err := db.Stats()
	if err != nil {
		return databaseError(VerbSUMMARIZE, err)
	}
	lastRun, err := db.LatestRun()
	if err != nil {
		return databaseError(VerbSUMMARIZE, err)
	}

	var unknowns []string
	if lastRun == nil {
		unknowns = append(unknowns, "no completed index run recorded")
	}
	if stats.Documents == 0 {
		unknowns = append(unknowns, "index is empty")
	}
	if unknowns == nil {
		unknowns = []string{}
	}

	coverage := 0.0
	if stats.Documents > 0 {
		coverage = float64(stats.Documents-stats.Invalid) / float64(stats.Documents)
	}

	return models.Response{
		Verb:       VerbSUMMARIZE,
		Data:       SummaryResponse{Stats: *stats, LastRun: lastRun},
		Confidence: 1.0,
		Coverage:   coverage,
		Unknowns:   unknowns,
	}
}
