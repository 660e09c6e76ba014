package usergraph

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/usergraph/internal/executor"
	"github.com/hanpama/usergraph/internal/language"
	"github.com/hanpama/usergraph/internal/resolve"
	"github.com/hanpama/usergraph/internal/schema"
	"github.com/hanpama/usergraph/internal/store"
	"github.com/hanpama/usergraph/internal/store/memstore"
)

type harness struct {
	store *memstore.Store
	exec  *executor.Executor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := memstore.Seeded()
	sch, err := NewSchema(s)
	require.NoError(t, err)
	return &harness{store: s, exec: executor.NewExecutor(resolve.NewRuntime(sch), sch)}
}

func (h *harness) run(t *testing.T, query string, vars map[string]any) *executor.ExecutionResult {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	return h.exec.ExecuteRequest(context.Background(), doc, "", vars, nil)
}

func messages(errs []executor.GraphQLError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Message
	}
	return out
}

func TestQuery_UserWithCompany(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, `{ user(id: "23") { id firstName company { name } } }`, nil)

	// Pattern: Result comparison
	want := map[string]any{"user": map[string]any{
		"id":        "23",
		"firstName": "Bill",
		"company":   map[string]any{"name": "Apple"},
	}}
	require.Empty(t, res.Errors)
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestQuery_MutualReferences(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, `{
		company(id: "2") {
			name
			users { firstName age company { id } }
		}
		missing: user(id: "999") { id }
	}`, nil)

	// Pattern: Result comparison
	want := map[string]any{
		"company": map[string]any{
			"name": "Google",
			"users": []any{
				map[string]any{"firstName": "Alex", "age": 40, "company": map[string]any{"id": "2"}},
				map[string]any{"firstName": "Nick", "age": 40, "company": map[string]any{"id": "2"}},
			},
		},
		"missing": nil,
	}
	require.Empty(t, res.Errors)
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestQuery_ListsKeepStoreOrder(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, `{ users { id } companies { name } }`, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{
		"users":     []any{map[string]any{"id": "23"}, map[string]any{"id": "40"}, map[string]any{"id": "41"}},
		"companies": []any{map[string]any{"name": "Apple"}, map[string]any{"name": "Google"}},
	}, res.Data)
}

func TestMutation_AddUser(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, `mutation($age: Int!) {
		addUser(firstName: "Stephen", age: $age, companyId: "1") { firstName age company { name } }
	}`, map[string]any{"age": float64(26)})
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"addUser": map[string]any{
		"firstName": "Stephen", "age": 26, "company": map[string]any{"name": "Apple"},
	}}, res.Data)

	users, err := h.store.List(context.Background(), store.Users, store.Filter{"firstName": "Stephen"})
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestMutation_AddUserMissingAgeHasNoSideEffect(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, `mutation { addUser(firstName: "x") { id } }`, nil)

	require.Equal(t, map[string]any{"addUser": nil}, res.Data)
	require.Len(t, res.Errors, 1)
	require.Equal(t, `Argument "age" of required type "Int!" was not provided.`, res.Errors[0].Message)
	require.Equal(t, executor.CodeValidation, res.Errors[0].Code())

	users, err := h.store.List(context.Background(), store.Users, nil)
	require.NoError(t, err)
	require.Len(t, users, 3)
}

func TestMutation_AddUserUnknownCompany(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, `mutation { addUser(firstName: "x", age: 1, companyId: "77") { id } }`, nil)
	require.Equal(t, []string{`"77": unknown company`}, messages(res.Errors))
	require.Equal(t, executor.CodeResolution, res.Errors[0].Code())
}

func TestMutation_EditUser(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, `mutation { editUser(id: "23", age: 21, companyId: "2") { firstName age company { name } } }`, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"editUser": map[string]any{
		"firstName": "Bill", "age": 21, "company": map[string]any{"name": "Google"},
	}}, res.Data)

	res = h.run(t, `mutation { editUser(id: "nope", age: 1) { id } }`, nil)
	require.Equal(t, map[string]any{"editUser": nil}, res.Data)
	require.Equal(t, []string{`edit user "nope": users/nope: record not found`}, messages(res.Errors))
}

func TestMutation_DeleteUser(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, `mutation { deleteUser(id: "40") { id firstName } }`, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"deleteUser": map[string]any{"id": "40", "firstName": nil}}, res.Data)

	_, err := h.store.Find(context.Background(), store.Users, "40")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMutation_DeleteMissingKeepsSiblings(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, `mutation {
		gone: deleteUser(id: "missing") { id }
		added: addUser(firstName: "Ann", age: 30) { firstName }
	}`, nil)

	require.Equal(t, map[string]any{
		"gone":  nil,
		"added": map[string]any{"firstName": "Ann"},
	}, res.Data)
	require.Len(t, res.Errors, 1)
	require.Equal(t, executor.Path{"gone"}, res.Errors[0].Path)
	require.Equal(t, executor.CodeResolution, res.Errors[0].Code())
}

func TestRegister_DuplicateType(t *testing.T) {
	r := schema.NewRegistry()
	_, err := r.Declare("User", schema.TypeKindObject, "")
	require.NoError(t, err)
	require.ErrorIs(t, Register(r, memstore.New()), schema.ErrDuplicateType)
}

func TestSchema_SDL(t *testing.T) {
	sch, err := NewSchema(memstore.New())
	require.NoError(t, err)
	sdl := schema.Render(sch)
	require.Contains(t, sdl, "type User {")
	require.Contains(t, sdl, "addUser(firstName: String!, age: Int!, companyId: String): User")
	require.Contains(t, sdl, "users: [User]")
}

func TestIntrospection_Enabled(t *testing.T) {
	h := newHarness(t)
	res := h.run(t, `{ __type(name: "Company") { fields { name } } }`, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"__type": map[string]any{"fields": []any{
		map[string]any{"name": "id"},
		map[string]any{"name": "name"},
		map[string]any{"name": "description"},
		map[string]any{"name": "users"},
	}}}, res.Data)
}
