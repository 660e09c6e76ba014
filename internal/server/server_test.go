package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	executor "github.com/hanpama/usergraph/internal/executor"
	reqid "github.com/hanpama/usergraph/internal/reqid"
	schema "github.com/hanpama/usergraph/internal/schema"
)

func newTestHandler(t *testing.T, rt executor.Runtime, opts ...Option) *Handler {
	t.Helper()
	sdl := `
type Query { hello: String, need(n: Int!): Int }
type Mutation { bump: Int }`
	sch, err := schema.BuildFromSDL(sdl, nil)
	require.NoError(t, err)
	return New(rt, sch, opts...)
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) any {
	t.Helper()
	var out any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestForwardedHeaders(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	var captured metadata.MD
	rt.SetResolver("Query", "hello", func(ctx context.Context, src any, args map[string]any) (any, error) {
		captured, _ = metadata.FromOutgoingContext(ctx)
		return "world", nil
	})
	h := newTestHandler(t, rt, WithMetadataHeaders("X-Test"))

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test", "abc")
	req.Header.Set("X-Other", "nope")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"abc"}, captured.Get("x-test"))
	require.Empty(t, captured.Get("x-other"))
}

func TestForwardedHeadersDefaultEmpty(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	var captured metadata.MD
	rt.SetResolver("Query", "hello", func(ctx context.Context, src any, args map[string]any) (any, error) {
		captured, _ = metadata.FromOutgoingContext(ctx)
		return "world", nil
	})
	h := newTestHandler(t, rt)

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test", "abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, captured.Get("x-test"))
}

func TestCORSAndPreflight(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt, WithCORS("*"))

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	pre := httptest.NewRequest("OPTIONS", "/", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	require.Equal(t, http.StatusNoContent, pw.Code)
	require.Equal(t, "*", pw.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "X-Test", pw.Header().Get("Access-Control-Allow-Headers"))
}

func TestMaxBodyBytes(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt, WithMaxBodyBytes(10))
	w := post(t, h, `{"query":"1234567890"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestID(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	var capturedID string
	rt.SetResolver("Query", "hello", func(ctx context.Context, src any, args map[string]any) (any, error) {
		capturedID, _ = reqid.FromContext(ctx)
		return "world", nil
	})
	h := newTestHandler(t, rt)

	w := post(t, h, `{"query":"{ hello }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, capturedID)
	require.Equal(t, capturedID, w.Header().Get(reqid.Header))

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set(reqid.Header, "client-id-1")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, "client-id-1", capturedID)
	require.Equal(t, "client-id-1", w.Header().Get(reqid.Header))
}

func TestResponses(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
		"Query.need": func(ctx context.Context, src any, args map[string]any) (any, error) {
			return nil, errors.New("boom")
		},
	})
	h := newTestHandler(t, rt)

	tests := []struct {
		name string
		body string
		want any
	}{
		{
			name: "data",
			body: `{"query":"{ hello }"}`,
			want: map[string]any{"data": map[string]any{"hello": "world"}},
		},
		{
			name: "resolver error keeps data",
			body: `{"query":"{ hello need(n: 1) }"}`,
			want: map[string]any{
				"data": map[string]any{"hello": "world", "need": nil},
				"errors": []any{map[string]any{
					"message":    "boom",
					"path":       []any{"need"},
					"extensions": map[string]any{"code": executor.CodeResolution},
				}},
			},
		},
		{
			name: "unknown operation omits data",
			body: `{"query":"query A { hello }","operationName":"B"}`,
			want: map[string]any{"errors": []any{map[string]any{
				"message":    `Unknown operation named "B".`,
				"extensions": map[string]any{"code": executor.CodeValidation},
			}}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := post(t, h, tc.body)
			require.Equal(t, http.StatusOK, w.Code)
			// Pattern: Result comparison
			if diff := cmp.Diff(tc.want, decode(t, w)); diff != "" {
				t.Fatalf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSyntaxErrorHasLocation(t *testing.T) {
	h := newTestHandler(t, executor.NewMockRuntime(nil))
	w := post(t, h, `{"query":"{ hello "}`)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w).(map[string]any)
	require.NotContains(t, out, "data")
	errs := out["errors"].([]any)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "locations")
}

func TestBatch(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt)
	w := post(t, h, `[{"query":"{ hello }"},{"query":"{ a: hello }"}]`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []any{
		map[string]any{"data": map[string]any{"hello": "world"}},
		map[string]any{"data": map[string]any{"a": "world"}},
	}, decode(t, w))

	w = post(t, h, `[]`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGet(t *testing.T) {
	bumped := false
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
		"Mutation.bump": func(ctx context.Context, src any, args map[string]any) (any, error) {
			bumped = true
			return 1, nil
		},
	})
	h := newTestHandler(t, rt)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/?query="+url.QueryEscape("{ hello }"), nil))
	require.Equal(t, map[string]any{"data": map[string]any{"hello": "world"}}, decode(t, w))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/?query="+url.QueryEscape("mutation { bump }"), nil))
	require.Contains(t, w.Body.String(), "Can only perform a mutation operation from a POST request.")
	require.False(t, bumped)
}

func TestGraphiQL(t *testing.T) {
	h := newTestHandler(t, executor.NewMockRuntime(nil))
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	require.Contains(t, w.Body.String(), "graphiql")

	h = newTestHandler(t, executor.NewMockRuntime(nil), WithGraphiQL(false))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, executor.NewMockRuntime(nil))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("DELETE", "/", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Allow"))
}

func TestRoutes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	mux := Routes(newTestHandler(t, rt), metrics)

	for path, want := range map[string]string{"/healthz": "ok\n", "/metrics": "# metrics"} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		require.Equal(t, http.StatusOK, w.Code, path)
		require.Equal(t, want, w.Body.String(), path)
	}

	req := httptest.NewRequest("POST", "/graphql", bytes.NewBufferString(`{"query":"{ hello }"}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	Routes(newTestHandler(t, rt), nil).ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
