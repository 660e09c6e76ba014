package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	schema "github.com/hanpama/usergraph/internal/schema"
)

func mutationSchema() *schema.Schema {
	user := newObjectType("User", syncField("id", nnString), syncField("firstName", tString), syncField("age", tInt))
	deleted := newObjectType("DeletedUser", syncField("id", nnString))
	query := newObjectType("Query", asyncField("user", schema.NamedType("User"), arg("id", nnString)))
	mutation := newObjectType("Mutation",
		asyncField("addUser", schema.NamedType("User"), arg("firstName", nnString), arg("age", nnInt), arg("companyId", tString)),
		asyncField("deleteUser", schema.NamedType("DeletedUser"), arg("id", nnString)),
	)
	return newTestSchema("Query", "Mutation", query, mutation, user, deleted)
}

var ignoreLocations = cmpopts.IgnoreFields(GraphQLError{}, "Locations")

// Pattern: Result comparison
func TestValidation_DocumentErrors_NoResolverRuns(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []GraphQLError
	}{
		{
			name:  "unknown field",
			query: `{ user(id: "1") { nickname } }`,
			want:  []GraphQLError{validationError(`Cannot query field "nickname" on type "User".`, Path{"user", "nickname"})},
		},
		{
			name:  "unknown root field",
			query: `{ viewer { id } }`,
			want:  []GraphQLError{validationError(`Cannot query field "viewer" on type "Query".`, Path{"viewer"})},
		},
		{
			name:  "selection on leaf",
			query: `{ user(id: "1") { age { value } } }`,
			want:  []GraphQLError{validationError(`Field "age" must not have a selection since type "Int" has no subfields.`, Path{"user", "age"})},
		},
		{
			name:  "object without selection",
			query: `{ user(id: "1") }`,
			want:  []GraphQLError{validationError(`Field "user" of type "User" must have a selection of subfields.`, Path{"user"})},
		},
		{
			name:  "unknown fragment",
			query: `{ user(id: "1") { ...Missing } }`,
			want:  []GraphQLError{validationError(`Unknown fragment "Missing".`, Path{"user"})},
		},
		{
			name:  "fragment on wrong type",
			query: `{ user(id: "1") { ... on Query { user(id: "2") { id } } } }`,
			want:  []GraphQLError{validationError(`Fragment cannot be spread here as objects of type "User" can never be of type "Query".`, nil)},
		},
		{
			name:  "unknown variable type",
			query: `query ($id: Missing) { user(id: "1") { id } }`,
			want:  []GraphQLError{validationError(`Unknown type "Missing".`, nil)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := NewMockRuntime(nil)
			exec := NewExecutor(rt, mutationSchema())
			got := exec.ExecuteRequest(context.Background(), mustParseQuery(t, tt.query), "", nil, nil)
			want := &ExecutionResult{Errors: tt.want}
			if diff := cmp.Diff(want, got, ignoreLocations); diff != "" {
				t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
			}
			if calls := rt.GetCalls(); len(calls) != 0 {
				t.Fatalf("expected no runtime calls, got %+v", calls)
			}
		})
	}
}

// Pattern: Result comparison
func TestValidation_ArgumentErrors_SkipOnlyThatField(t *testing.T) {
	tests := []struct {
		name  string
		query string
		vars  map[string]any
		want  GraphQLError
	}{
		{
			name:  "missing required argument",
			query: `mutation { addUser(firstName: "Bob") { id } }`,
			want:  validationError(`Argument "age" of required type "Int!" was not provided.`, Path{"addUser"}),
		},
		{
			name:  "wrong scalar type",
			query: `mutation { addUser(firstName: "Bob", age: "abc") { id } }`,
			want:  validationError(`Argument "age" has invalid value "abc": Int cannot represent non-integer value: "abc"`, Path{"addUser"}),
		},
		{
			name:  "string argument given an int",
			query: `mutation { addUser(firstName: 7, age: 3) { id } }`,
			want:  validationError(`Argument "firstName" has invalid value 7: String cannot represent a non string value: 7`, Path{"addUser"}),
		},
		{
			name:  "explicit null for non-null",
			query: `mutation { addUser(firstName: null, age: 3) { id } }`,
			want:  validationError(`Argument "firstName" has invalid value <nil>: expected non-null value of type String!`, Path{"addUser"}),
		},
		{
			name:  "unknown argument",
			query: `mutation { addUser(firstName: "Bob", age: 3, nickname: "B") { id } }`,
			want:  validationError(`Unknown argument "nickname" on field "Mutation.addUser".`, Path{"addUser"}),
		},
		{
			name:  "variable of wrong runtime type",
			query: `mutation ($age: Int) { addUser(firstName: "Bob", age: $age) { id } }`,
			vars:  map[string]any{"age": 1.5},
			want:  validationError(`Variable "$age" got invalid value: Int cannot represent non-integer value: 1.5`, nil),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := NewMockRuntime(map[string]MockResolver{
				"Mutation.addUser": NewMockValueResolver(map[string]any{"id": "99"}),
			})
			exec := NewExecutor(rt, mutationSchema())
			got := exec.ExecuteRequest(context.Background(), mustParseQuery(t, tt.query), "", tt.vars, nil)

			if len(got.Errors) != 1 {
				t.Fatalf("expected one error, got %+v", got.Errors)
			}
			if diff := cmp.Diff(tt.want, got.Errors[0], ignoreLocations); diff != "" {
				t.Fatalf("error mismatch (-want +got):\n%s", diff)
			}
			if got.Errors[0].Code() != CodeValidation {
				t.Fatalf("code = %q", got.Errors[0].Code())
			}
			for _, c := range rt.GetCalls() {
				if c.Field == "addUser" {
					t.Fatalf("addUser must not be invoked, got %+v", c)
				}
			}
		})
	}
}

// Pattern: Result comparison
func TestValidation_ArgumentError_SiblingStillResolves(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.user":     NewMockValueResolver(map[string]any{"id": "23", "firstName": "Bill"}),
		"User.firstName": field("firstName"),
	})
	exec := NewExecutor(rt, mutationSchema())
	doc := mustParseQuery(t, `{ bad: user { firstName } good: user(id: "23") { firstName } }`)

	got := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	want := &ExecutionResult{
		Data: map[string]any{"bad": nil, "good": map[string]any{"firstName": "Bill"}},
		Errors: []GraphQLError{
			validationError(`Argument "id" of required type "String!" was not provided.`, Path{"bad"}),
		},
	}
	if diff := cmp.Diff(want, got, ignoreLocations); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}
