package corpus

import (
	"github.com/dtnitsch/higdocs/models"
	dbpkg "github.com/dtnitsch/higdocs/pkg/db"
)

// SearchResponse is the data returned by SEARCH verb.
type SearchResponse struct {
	Query string            `json:"query" yaml:"query"`
	Count int               `json:"count" yaml:"count"`
	Hits  []dbpkg.SearchHit `json:"hits" yaml:"hits"`
}

func handleSearch(db *dbpkg.DB, req models.Request) models.Response {
	if dbpkg.BuildMatchQuery(req.Query) == "" {
		return models.NewErrorResponse(VerbSEARCH, ErrTypeMissingParameter,
			"Search needs at least one word",
			"Provide query terms, e.g. 'higdocs search tab bar'")
	}

	limit, err := limitFor(req, dbpkg.DefaultSearchLimit)
	if err != nil {
		return models.NewErrorResponse(VerbSEARCH, ErrTypeInvalidParameter, err.Error())
	}

	hits, err := db.Search(req.Query, limit)
	if err != nil {
		return databaseError(VerbSEARCH, err)
	}
	if hits == nil {
		hits = []dbpkg.SearchHit{}
	}

	confidence := 0.0
	if len(hits) > 0 {
		confidence = 0.9
	}
	total, err := db.CountDocuments()
	if err != nil {
		return databaseError(VerbSEARCH, err)
	}
	coverage := 0.0
	if total > 0 {
		coverage = float64(len(hits)) / float64(total)
	}

	return models.Response{
		Verb:       VerbSEARCH,
		Data:       SearchResponse{Query: req.Query, Count: len(hits), Hits: hits},
		Confidence: confidence,
		Coverage:   coverage,
		Unknowns:   []string{},
	}
}
