package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	schema "github.com/hanpama/usergraph/internal/schema"
)

// userSchema models users and companies that reference each other.
func userSchema() *schema.Schema {
	user := newObjectType("User",
		syncField("id", nnString),
		syncField("firstName", tString),
		syncField("age", tInt),
		asyncField("company", schema.NamedType("Company")),
	)
	company := newObjectType("Company",
		syncField("id", nnString),
		syncField("name", tString),
		asyncField("users", schema.ListType(schema.NamedType("User"))),
	)
	query := newObjectType("Query",
		asyncField("user", schema.NamedType("User"), arg("id", nnString)),
		asyncField("users", schema.ListType(schema.NamedType("User"))),
	)
	return newTestSchema("Query", "", query, user, company)
}

func field(key string) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return source.(map[string]any)[key], nil
	}
}

var (
	bill  = map[string]any{"id": "23", "firstName": "Bill", "age": 20, "companyId": "1"}
	alex  = map[string]any{"id": "40", "firstName": "Alex", "age": 40, "companyId": "2"}
	nick  = map[string]any{"id": "41", "firstName": "Nick", "age": 40, "companyId": "2"}
	apple = map[string]any{"id": "1", "name": "Apple"}
	goog  = map[string]any{"id": "2", "name": "Google"}
)

func userRuntime() *MockRuntime {
	users := map[string]map[string]any{"23": bill, "40": alex, "41": nick}
	companies := map[string]map[string]any{"1": apple, "2": goog}
	return NewMockRuntime(map[string]MockResolver{
		"Query.user": func(ctx context.Context, source any, args map[string]any) (any, error) {
			if u, ok := users[args["id"].(string)]; ok {
				return u, nil
			}
			return nil, nil
		},
		"Query.users":    NewMockValueResolver([]any{bill, alex, nick}),
		"User.id":        field("id"),
		"User.firstName": field("firstName"),
		"User.age":       field("age"),
		"User.company": func(ctx context.Context, source any, args map[string]any) (any, error) {
			return companies[source.(map[string]any)["companyId"].(string)], nil
		},
		"Company.id":   field("id"),
		"Company.name": field("name"),
		"Company.users": func(ctx context.Context, source any, args map[string]any) (any, error) {
			var out []any
			for _, u := range []map[string]any{bill, alex, nick} {
				if u["companyId"] == source.(map[string]any)["id"] {
					out = append(out, u)
				}
			}
			return out, nil
		},
	})
}

// Pattern: Result comparison
func TestExecute_NestedObjects_Result(t *testing.T) {
	rt := userRuntime()
	exec := NewExecutor(rt, userSchema())
	doc := mustParseQuery(t, `{ user(id: "23") { firstName company { name } } }`)

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	wantRes := &ExecutionResult{
		Data: map[string]any{
			"user": map[string]any{"firstName": "Bill", "company": map[string]any{"name": "Apple"}},
		},
		Errors: []GraphQLError{},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	wantCalls := []Call{
		{Kind: "async", ObjectType: "Query", Field: "user", Args: map[string]any{"id": "23"}, BatchID: 1},
		{Kind: "sync", ObjectType: "User", Field: "firstName", Source: bill, Args: map[string]any{}},
		{Kind: "async", ObjectType: "User", Field: "company", Source: bill, Args: map[string]any{}, BatchID: 2},
		{Kind: "sync", ObjectType: "Company", Field: "name", Source: apple, Args: map[string]any{}},
	}
	if diff := cmp.Diff(wantCalls, rt.GetCalls()); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestExecute_CyclicReferences_Result(t *testing.T) {
	exec := NewExecutor(userRuntime(), userSchema())
	doc := mustParseQuery(t, `{ user(id: "40") { company { users { firstName } } } }`)

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	wantRes := &ExecutionResult{
		Data: map[string]any{
			"user": map[string]any{"company": map[string]any{"users": []any{
				map[string]any{"firstName": "Alex"},
				map[string]any{"firstName": "Nick"},
			}}},
		},
		Errors: []GraphQLError{},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestExecute_MissingEntityIsNull_Result(t *testing.T) {
	exec := NewExecutor(userRuntime(), userSchema())
	doc := mustParseQuery(t, `{ user(id: "999") { firstName } }`)

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	wantRes := &ExecutionResult{Data: map[string]any{"user": nil}, Errors: []GraphQLError{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestExecute_ListOrderPreserved_Result(t *testing.T) {
	exec := NewExecutor(userRuntime(), userSchema())
	doc := mustParseQuery(t, `{ users { id company { id } } }`)

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	wantRes := &ExecutionResult{
		Data: map[string]any{"users": []any{
			map[string]any{"id": "23", "company": map[string]any{"id": "1"}},
			map[string]any{"id": "40", "company": map[string]any{"id": "2"}},
			map[string]any{"id": "41", "company": map[string]any{"id": "2"}},
		}},
		Errors: []GraphQLError{},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Call log
func TestExecute_OneBatchPerAsyncDepth_Calls(t *testing.T) {
	rt := userRuntime()
	exec := NewExecutor(rt, userSchema())
	doc := mustParseQuery(t, `{ a: user(id: "23") { company { name } } b: user(id: "41") { company { name } } }`)

	exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	batches := map[int][]string{}
	for _, c := range rt.GetCalls() {
		if c.Kind == CallKindAsync {
			batches[c.BatchID] = append(batches[c.BatchID], c.ObjectType+"."+c.Field)
		}
	}
	want := map[int][]string{
		1: {"Query.user", "Query.user"},
		2: {"User.company", "User.company"},
	}
	if diff := cmp.Diff(want, batches); diff != "" {
		t.Fatalf("batches mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestExecute_FieldOutputOrder_Result(t *testing.T) {
	sch := newTestSchema("Query", "", newObjectType("Query",
		syncField("a", tString),
		asyncField("b", tString),
		syncField("c", tString),
	))
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockValueResolver("A"),
		"Query.b": NewMockValueResolver("B"),
		"Query.c": NewMockValueResolver("C"),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ c b a }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	wantRes := &ExecutionResult{Data: map[string]any{"a": "A", "b": "B", "c": "C"}, Errors: []GraphQLError{}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	wantCalls := []Call{
		{Kind: "sync", ObjectType: "Query", Field: "c", Args: map[string]any{}},
		{Kind: "sync", ObjectType: "Query", Field: "a", Args: map[string]any{}},
		{Kind: "async", ObjectType: "Query", Field: "b", Args: map[string]any{}, BatchID: 1},
	}
	if diff := cmp.Diff(wantCalls, rt.GetCalls()); diff != "" {
		t.Fatalf("Runtime calls mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestExecute_AliasesAndTypename_Result(t *testing.T) {
	exec := NewExecutor(userRuntime(), userSchema())
	doc := mustParseQuery(t, `{
		first: user(id: "23") { __typename name: firstName }
		second: user(id: "40") { ...U }
	}
	fragment U on User { firstName age }`)

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	wantRes := &ExecutionResult{
		Data: map[string]any{
			"first":  map[string]any{"__typename": "User", "name": "Bill"},
			"second": map[string]any{"firstName": "Alex", "age": 40},
		},
		Errors: []GraphQLError{},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestExecute_Variables_Result(t *testing.T) {
	exec := NewExecutor(userRuntime(), userSchema())
	doc := mustParseQuery(t, `query Q($id: String!, $withAge: Boolean = false) {
		user(id: $id) { firstName age @include(if: $withAge) }
	}`)

	t.Run("default", func(t *testing.T) {
		gotRes := exec.ExecuteRequest(context.Background(), doc, "Q", map[string]any{"id": "41"}, nil)
		wantRes := &ExecutionResult{Data: map[string]any{"user": map[string]any{"firstName": "Nick"}}, Errors: []GraphQLError{}}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("provided", func(t *testing.T) {
		gotRes := exec.ExecuteRequest(context.Background(), doc, "Q", map[string]any{"id": "41", "withAge": true}, nil)
		wantRes := &ExecutionResult{Data: map[string]any{"user": map[string]any{"firstName": "Nick", "age": 40}}, Errors: []GraphQLError{}}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing required", func(t *testing.T) {
		gotRes := exec.ExecuteRequest(context.Background(), doc, "Q", nil, nil)
		wantRes := &ExecutionResult{Errors: []GraphQLError{
			validationError(`Variable "$id" of required type "String!" was not provided.`, nil),
		}}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}

// Pattern: Result comparison
func TestExecute_OperationSelection_Result(t *testing.T) {
	sch := newTestSchema("Query", "", newObjectType("Query", syncField("a", tString), syncField("b", tString)))
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockValueResolver("A"),
		"Query.b": NewMockValueResolver("B"),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "query A { a } query B { b }")

	tests := []struct {
		name string
		op   string
		want *ExecutionResult
	}{
		{"named A", "A", &ExecutionResult{Data: map[string]any{"a": "A"}, Errors: []GraphQLError{}}},
		{"named B", "B", &ExecutionResult{Data: map[string]any{"b": "B"}, Errors: []GraphQLError{}}},
		{"unknown", "C", &ExecutionResult{Errors: []GraphQLError{validationError(`Unknown operation named "C".`, nil)}}},
		{"ambiguous", "", &ExecutionResult{Errors: []GraphQLError{validationError("operationName is required when the document contains multiple operations", nil)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exec.ExecuteRequest(context.Background(), doc, tt.op, nil, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
