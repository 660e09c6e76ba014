package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	eventbus "github.com/hanpama/usergraph/internal/eventbus"
	events "github.com/hanpama/usergraph/internal/events"
)

func TestSubscribe(t *testing.T) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	m := New()
	defer m.Subscribe()()

	ctx := context.Background()
	eventbus.Publish(ctx, events.HTTPFinish{Request: httptest.NewRequest("POST", "/graphql", nil), Status: 200, Duration: time.Millisecond})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationType: "mutation", Errors: []error{errors.New("x")}})
	eventbus.Publish(ctx, events.StoreCallFinish{Backend: "memory", Op: "find"})
	eventbus.Publish(ctx, events.StoreCallFinish{Backend: "memory", Op: "find"})

	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("mutation", "error")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.storeCalls.WithLabelValues("memory", "find", "ok")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.storeCalls.WithLabelValues("memory", "find", "ok").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `usergraph_store_calls_total{backend="memory",op="find",outcome="ok"} 1`)
}
