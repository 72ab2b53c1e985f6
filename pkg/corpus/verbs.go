package corpus

// Verb constants for the Corpus API.
const (
	VerbQUERY     = "query"
	VerbSEARCH    = "search"
	VerbEXTRACT   = "extract"
	VerbSUMMARIZE = "summarize"
	VerbGET       = "get"
	VerbVALIDATE  = "validate"
	VerbSUGGEST   = "suggest"
)

// AllVerbs returns a list of all valid verbs.
func AllVerbs() []string {
	return []string{
		VerbQUERY,
		VerbSEARCH,
		VerbEXTRACT,
		VerbSUMMARIZE,
		VerbGET,
		VerbVALIDATE,
		VerbSUGGEST,
	}
}

// IsValidVerb checks if a verb is valid.
func IsValidVerb(verb string) bool {
	for _, v := range AllVerbs() {
		if v == verb {
			return true
		}
	}
	return false
}
