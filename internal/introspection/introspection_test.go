package introspection

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/usergraph/internal/executor"
	"github.com/hanpama/usergraph/internal/language"
	"github.com/hanpama/usergraph/internal/resolve"
	"github.com/hanpama/usergraph/internal/schema"
)

func buildSchema(t *testing.T) *schema.Schema {
	t.Helper()
	r := schema.NewRegistry()
	require.NoError(t, r.Enum("Role", "", "ADMIN", "MEMBER"))
	require.NoError(t, r.Input("UserFilter", "", &schema.InputValue{Name: "minAge", Type: schema.Int(), DefaultValue: 18}))
	require.NoError(t, r.Object("User", "A person.", schema.Fields(
		schema.NewField("id", schema.NonNullType(schema.String())),
		schema.NewField("firstName", schema.String()),
		schema.NewField("nick", schema.String()).Deprecate("use firstName"),
		schema.NewField("friends", schema.ListType(schema.NonNullType(schema.NamedType("User")))),
	)))
	require.NoError(t, r.Object("Query", "", schema.Fields(
		schema.NewField("user", schema.NamedType("User")).AddArgument("id", schema.NonNullType(schema.String())).Resolve(
			func(ctx context.Context, p schema.ResolveParams) (any, error) { return nil, nil }),
	)))
	r.SetQuery("Query")
	require.NoError(t, Register(r))
	s, err := r.Build()
	require.NoError(t, err)
	return s
}

func run(t *testing.T, s *schema.Schema, query string) *executor.ExecutionResult {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	return executor.NewExecutor(resolve.NewRuntime(s), s).ExecuteRequest(context.Background(), doc, "", nil, nil)
}

func TestRegister_RequiresQueryType(t *testing.T) {
	require.EqualError(t, Register(schema.NewRegistry()), "introspection: query type is not set")
}

func TestType_ObjectFields(t *testing.T) {
	s := buildSchema(t)
	res := run(t, s, `{
		__type(name: "User") {
			kind name description
			interfaces { name }
			fields { name type { kind name ofType { kind name } } }
		}
	}`)

	// Pattern: Result comparison
	want := map[string]any{"__type": map[string]any{
		"kind":        "OBJECT",
		"name":        "User",
		"description": "A person.",
		"interfaces":  []any{},
		"fields": []any{
			map[string]any{"name": "id", "type": map[string]any{
				"kind": "NON_NULL", "name": nil, "ofType": map[string]any{"kind": "SCALAR", "name": "String"},
			}},
			map[string]any{"name": "firstName", "type": map[string]any{
				"kind": "SCALAR", "name": "String", "ofType": nil,
			}},
			map[string]any{"name": "friends", "type": map[string]any{
				"kind": "LIST", "name": nil, "ofType": map[string]any{"kind": "NON_NULL", "name": nil},
			}},
		},
	}}
	require.Empty(t, res.Errors)
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestType_IncludeDeprecated(t *testing.T) {
	s := buildSchema(t)
	res := run(t, s, `{ __type(name: "User") { fields(includeDeprecated: true) { name isDeprecated deprecationReason } } }`)
	require.Empty(t, res.Errors)

	fields := res.Data.(map[string]any)["__type"].(map[string]any)["fields"].([]any)
	require.Len(t, fields, 4)
	require.Equal(t, map[string]any{"name": "nick", "isDeprecated": true, "deprecationReason": "use firstName"}, fields[2])
}

func TestType_EnumAndInput(t *testing.T) {
	s := buildSchema(t)
	res := run(t, s, `{
		role: __type(name: "Role") { kind enumValues { name } inputFields { name } }
		filter: __type(name: "UserFilter") { kind isOneOf inputFields { name defaultValue type { name } } }
		missing: __type(name: "Nope") { name }
	}`)

	// Pattern: Result comparison
	want := map[string]any{
		"role": map[string]any{
			"kind":        "ENUM",
			"enumValues":  []any{map[string]any{"name": "ADMIN"}, map[string]any{"name": "MEMBER"}},
			"inputFields": nil,
		},
		"filter": map[string]any{
			"kind":    "INPUT_OBJECT",
			"isOneOf": false,
			"inputFields": []any{
				map[string]any{"name": "minAge", "defaultValue": "18", "type": map[string]any{"name": "Int"}},
			},
		},
		"missing": nil,
	}
	require.Empty(t, res.Errors)
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestSchema_RootsAndDirectives(t *testing.T) {
	s := buildSchema(t)
	res := run(t, s, `{
		__schema {
			queryType { name }
			mutationType { name }
			directives { name locations args { name type { kind } } }
		}
	}`)
	require.Empty(t, res.Errors)

	sch := res.Data.(map[string]any)["__schema"].(map[string]any)
	require.Equal(t, map[string]any{"name": "Query"}, sch["queryType"])
	require.Nil(t, sch["mutationType"])

	var names []any
	for _, d := range sch["directives"].([]any) {
		names = append(names, d.(map[string]any)["name"])
	}
	require.Contains(t, names, "skip")
	require.Contains(t, names, "include")
}

func TestSchema_TypesSortedAndIncludeMetaTypes(t *testing.T) {
	s := buildSchema(t)
	res := run(t, s, `{ __schema { types { name } } }`)
	require.Empty(t, res.Errors)

	var names []string
	for _, ty := range res.Data.(map[string]any)["__schema"].(map[string]any)["types"].([]any) {
		names = append(names, ty.(map[string]any)["name"].(string))
	}
	require.IsIncreasing(t, names)
	require.Contains(t, names, "__Type")
	require.Contains(t, names, "User")
}

func TestRender_HidesIntrospection(t *testing.T) {
	sdl := schema.Render(buildSchema(t))
	require.NotContains(t, sdl, "__schema")
	require.NotContains(t, sdl, "__Type")
}
