package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Pattern: Result comparison
func TestContext_CancelledBeforeStart_Result(t *testing.T) {
	rt := userRuntime()
	exec := NewExecutor(rt, userSchema())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := exec.ExecuteRequest(ctx, mustParseQuery(t, `{ users { id } }`), "", nil, nil)
	want := &ExecutionResult{Errors: []GraphQLError{resolutionError("context canceled", nil)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	if calls := rt.GetCalls(); len(calls) != 0 {
		t.Fatalf("expected no runtime calls, got %+v", calls)
	}
}

// Pattern: Result comparison
func TestContext_CancelledBetweenDepths_Result(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := userRuntime()
	rt.SetResolver("Query", "user", func(ctx context.Context, source any, args map[string]any) (any, error) {
		cancel()
		return bill, nil
	})
	exec := NewExecutor(rt, userSchema())

	got := exec.ExecuteRequest(ctx, mustParseQuery(t, `{ user(id: "23") { firstName company { name } } }`), "", nil, nil)
	want := &ExecutionResult{
		Data: map[string]any{"user": map[string]any{"firstName": "Bill", "company": nil}},
		Errors: []GraphQLError{
			resolutionError("context canceled", Path{"user", "company"}),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	for _, c := range rt.GetCalls() {
		if c.Field == "company" {
			t.Fatalf("User.company resolved after cancellation: %+v", c)
		}
	}
}
