package executor

import (
	"testing"

	"github.com/stretchr/testify/require"

	language "github.com/hanpama/usergraph/internal/language"
	schema "github.com/hanpama/usergraph/internal/schema"
)

func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	doc, err := language.ParseQuery(q)
	require.NoError(t, err)
	return doc
}

// newTestSchema assembles a schema literal with the builtin scalars.
func newTestSchema(query, mutation string, types ...*schema.Type) *schema.Schema {
	sch := &schema.Schema{
		QueryType:    query,
		MutationType: mutation,
		Types:        map[string]*schema.Type{},
	}
	for _, name := range []string{"String", "Int", "Float", "Boolean", "ID"} {
		sch.Types[name] = newScalarType(name)
	}
	for _, t := range types {
		sch.Types[t.Name] = t
	}
	return sch
}

func newObjectType(name string, fields ...*schema.Field) *schema.Type {
	return &schema.Type{Name: name, Kind: schema.TypeKindObject, Fields: fields}
}

func newScalarType(name string) *schema.Type {
	return &schema.Type{Name: name, Kind: schema.TypeKindScalar}
}

func syncField(name string, t *schema.TypeRef, args ...*schema.InputValue) *schema.Field {
	return &schema.Field{Name: name, Type: t, Arguments: args}
}

func asyncField(name string, t *schema.TypeRef, args ...*schema.InputValue) *schema.Field {
	return &schema.Field{Name: name, Type: t, Arguments: args, Async: true}
}

func arg(name string, t *schema.TypeRef) *schema.InputValue {
	return &schema.InputValue{Name: name, Type: t}
}

var (
	tString  = schema.NamedType("String")
	tInt     = schema.NamedType("Int")
	tID      = schema.NamedType("ID")
	nnString = schema.NonNullType(tString)
	nnInt    = schema.NonNullType(tInt)
	nnID     = schema.NonNullType(tID)
)
