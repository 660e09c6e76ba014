package server

import (
	"io"
	"mime"
	"net/http"

	language "github.com/hanpama/usergraph/internal/language"
)

// GraphQLRequest is one operation request as sent in a POST body or encoded
// in GET query parameters.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// requestError is a transport failure: the body could not be turned into
// requests at all.
type requestError struct {
	status int
	err    *language.Error
}

func badRequest(format string, args ...any) *requestError {
	return &requestError{status: http.StatusBadRequest, err: language.Errorf(format, args...)}
}

// readRequests decodes r into one or more requests. batched is true when the
// POST body was a JSON array.
func readRequests(r *http.Request, maxBody int64) (reqs []GraphQLRequest, batched bool, rerr *requestError) {
	if r.Method == http.MethodGet {
		req, rerr := fromQueryString(r)
		if rerr != nil {
			return nil, false, rerr
		}
		return []GraphQLRequest{req}, false, nil
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			return nil, false, badRequest("unsupported Content-Type %q", ct)
		}
	}
	body, rerr := readBody(r, maxBody)
	if rerr != nil {
		return nil, false, rerr
	}

	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &reqs); err != nil {
			return nil, false, badRequest("invalid JSON")
		}
		if len(reqs) == 0 {
			return nil, false, badRequest("empty batch")
		}
		return reqs, true, nil
	}

	var req GraphQLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, false, badRequest("invalid JSON")
	}
	if req.Query == "" {
		return nil, false, badRequest("missing 'query'")
	}
	return []GraphQLRequest{req}, false, nil
}

func fromQueryString(r *http.Request) (GraphQLRequest, *requestError) {
	q := r.URL.Query()
	req := GraphQLRequest{Query: q.Get("query"), OperationName: q.Get("operationName")}
	if req.Query == "" {
		return req, badRequest("missing 'query'")
	}
	if v := q.Get("variables"); v != "" {
		if err := json.UnmarshalFromString(v, &req.Variables); err != nil {
			return req, badRequest("invalid 'variables' JSON")
		}
	}
	return req, nil
}

func readBody(r *http.Request, maxBody int64) ([]byte, *requestError) {
	defer r.Body.Close()
	src := io.Reader(r.Body)
	if maxBody > 0 {
		src = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(src)
	if err != nil {
		return nil, badRequest("failed to read body")
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return nil, &requestError{
			status: http.StatusRequestEntityTooLarge,
			err:    language.Errorf("body exceeds %d bytes", maxBody),
		}
	}
	return body, nil
}
