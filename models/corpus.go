package models

// Request represents a corpus API request.
type Request struct {
	Verb        string         `json:"verb" yaml:"verb"`
	Query       string         `json:"query,omitempty" yaml:"query,omitempty"`             // For SEARCH
	Filter      string         `json:"filter,omitempty" yaml:"filter,omitempty"`           // For QUERY
	ID          string         `json:"id,omitempty" yaml:"id,omitempty"`                   // For GET
	View        string         `json:"view,omitempty" yaml:"view,omitempty"`               // For GET: full, metadata, outline
	Strategy    string         `json:"strategy,omitempty" yaml:"strategy,omitempty"`       // For GET
	DocIDs      []int64        `json:"doc_ids,omitempty" yaml:"doc_ids,omitempty"`         // For EXTRACT
	Limit       int            `json:"limit,omitempty" yaml:"limit,omitempty"`             // Result cap
	Constraints map[string]any `json:"constraints,omitempty" yaml:"constraints,omitempty"` // Verb-specific
}

// Response represents a corpus API response.
type Response struct {
	Verb       string     `json:"verb" yaml:"verb"`
	Data       any        `json:"data" yaml:"data"`
	Confidence float64    `json:"confidence" yaml:"confidence"`
	Coverage   float64    `json:"coverage" yaml:"coverage"`
	Unknowns   []string   `json:"unknowns" yaml:"unknowns"`
	Error      *ErrorInfo `json:"error,omitempty" yaml:"error,omitempty"`
}

// ErrorInfo provides structured error information.
type ErrorInfo struct {
	Type             string   `json:"error_type" yaml:"error_type"`
	Message          string   `json:"message" yaml:"message"`
	SuggestedActions []string `json:"suggested_actions,omitempty" yaml:"suggested_actions,omitempty"`
}

// NewErrorResponse creates a failed response for a verb.
func NewErrorResponse(verb, errType, message string, actions ...string) Response {
	return Response{
		Verb:     verb,
		Unknowns: []string{},
		Error: &ErrorInfo{
			Type:             errType,
			Message:          message,
			SuggestedActions: actions,
		},
	}
}

// NewUnknownVerbResponse creates a response for unknown verbs.
func NewUnknownVerbResponse(verb string, suggestion string, valid []string) Response {
	msg := "Verb '" + verb + "' not recognized"
	if suggestion != "" {
		msg += ". Did you mean '" + suggestion + "'?"
	}

	valids := "Valid verbs: "
	for i, v := range valid {
		if i > 0 {
			valids += ", "
		}
		valids += v
	}

	return NewErrorResponse(verb, "unknown_verb", msg, valids, "Run 'higdocs coldstart' for usage")
}
