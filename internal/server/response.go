package server

import (
	"net/http"

	executor "github.com/hanpama/usergraph/internal/executor"
	language "github.com/hanpama/usergraph/internal/language"
)

type responseLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type responseError struct {
	Message    string             `json:"message"`
	Locations  []responseLocation `json:"locations,omitempty"`
	Path       []any              `json:"path,omitempty"`
	Extensions map[string]any     `json:"extensions,omitempty"`
}

// response is one GraphQL response. The data key is present once execution
// started, even when data is null, and absent when the request was rejected
// before that.
type response struct {
	Data    any
	HasData bool
	Errors  []responseError
}

func (r response) MarshalJSON() ([]byte, error) {
	if r.HasData {
		return json.Marshal(struct {
			Data   any             `json:"data"`
			Errors []responseError `json:"errors,omitempty"`
		}{r.Data, r.Errors})
	}
	return json.Marshal(struct {
		Errors []responseError `json:"errors,omitempty"`
	}{r.Errors})
}

func errorResponse(err *language.Error) response {
	e := responseError{Message: err.Message, Extensions: err.Extensions}
	for _, l := range err.Locations {
		e.Locations = append(e.Locations, responseLocation{Line: l.Line, Column: l.Column})
	}
	return response{Errors: []responseError{e}}
}

func resultResponse(res *executor.ExecutionResult) response {
	out := response{Data: res.Data, HasData: !rejected(res)}
	for _, ge := range res.Errors {
		e := responseError{Message: ge.Message, Extensions: ge.Extensions}
		for _, l := range ge.Locations {
			e.Locations = append(e.Locations, responseLocation{Line: l.Line, Column: l.Column})
		}
		for _, p := range ge.Path {
			e.Path = append(e.Path, p)
		}
		out.Errors = append(out.Errors, e)
	}
	return out
}

// rejected reports whether the document failed before execution started.
func rejected(res *executor.ExecutionResult) bool {
	if !res.Failed() {
		return false
	}
	for _, e := range res.Errors {
		if e.Code() != executor.CodeValidation {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}
