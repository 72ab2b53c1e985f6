package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dtnitsch/higdocs/models"
	"github.com/dtnitsch/higdocs/pkg/corpus"
	"github.com/dtnitsch/higdocs/pkg/errors"
)

// Envelope is the body of every /api/v1 response except raw document
// renderings and the corpus endpoint.
type Envelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error codes.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, status int, code, message, details string) {
	writeJSON(w, status, Envelope{Error: &ErrorBody{Code: code, Message: message, Details: details}})
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Data: data})
}

func badRequest(w http.ResponseWriter, message, details string) {
	fail(w, http.StatusBadRequest, CodeBadRequest, message, details)
}

func notFound(w http.ResponseWriter, message, details string) {
	fail(w, http.StatusNotFound, CodeNotFound, message, details)
}

// internalError hides err from the client; the caller logs it.
func internalError(w http.ResponseWriter) {
	fail(w, http.StatusInternalServerError, CodeInternal, "Internal server error", "An unexpected error occurred")
}

// errorStatus maps typed errors to a status and code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound, CodeNotFound
	case errors.IsValidationError(err):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, errors.ErrUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// corpusStatus maps a corpus error type to an HTTP status.
func corpusStatus(resp models.Response) (int, string) {
	if resp.Error == nil {
		return http.StatusOK, ""
	}
	switch resp.Error.Type {
	case corpus.ErrTypeNotFound:
		return http.StatusNotFound, CodeNotFound
	case corpus.ErrTypeDatabase:
		return http.StatusInternalServerError, CodeInternal
	default:
		return http.StatusBadRequest, CodeBadRequest
	}
}

// writeCorpusData unwraps a corpus response into the envelope.
func writeCorpusData(w http.ResponseWriter, resp models.Response) {
	status, code := corpusStatus(resp)
	if resp.Error != nil {
		fail(w, status, code, resp.Error.Message, strings.Join(resp.Error.SuggestedActions, "; "))
		return
	}
	ok(w, resp.Data)
}
