// Package introspection adds the GraphQL introspection system (__schema,
// __type and the __ meta types) to a schema.Registry.
package introspection

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	schema "github.com/hanpama/usergraph/internal/schema"
)

var (
	str      = schema.String()
	nnString = schema.NonNullType(schema.String())
	nnBool   = schema.NonNullType(schema.Boolean())
	typeRef  = schema.NamedType("__Type")
	nnType   = schema.NonNullType(typeRef)
)

func list(name string) *schema.TypeRef {
	return schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType(name))))
}

// Register declares the introspection types in r and extends its query type
// with __schema and __type. The query type must already be set.
func Register(r *schema.Registry) error {
	query := r.QueryType()
	if query == "" {
		return errors.New("introspection: query type is not set")
	}

	if err := r.Enum("__TypeKind", "An enum describing what kind of type a given `__Type` is.",
		"SCALAR", "OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "LIST", "NON_NULL"); err != nil {
		return err
	}
	if err := r.Enum("__DirectiveLocation", "A Directive can be adjacent to many parts of the GraphQL language.",
		"QUERY", "MUTATION", "SUBSCRIPTION", "FIELD", "FRAGMENT_DEFINITION", "FRAGMENT_SPREAD",
		"INLINE_FRAGMENT", "VARIABLE_DEFINITION", "SCHEMA", "SCALAR", "OBJECT", "FIELD_DEFINITION",
		"ARGUMENT_DEFINITION", "INTERFACE", "UNION", "ENUM", "ENUM_VALUE", "INPUT_OBJECT",
		"INPUT_FIELD_DEFINITION"); err != nil {
		return err
	}

	objects := []struct {
		name, desc string
		fields     schema.FieldsThunk
	}{
		{"__Schema", "A GraphQL Schema defines the capabilities of a GraphQL server.", schemaFields},
		{"__Type", "The fundamental unit of any GraphQL Schema is the type.", typeFields},
		{"__Field", "Object and Interface types are described by a list of Fields, each of which has a name, potentially a list of arguments, and a return type.", fieldFields},
		{"__InputValue", "Arguments provided to Fields or Directives and the input fields of an InputObject are represented as Input Values.", inputValueFields},
		{"__EnumValue", "One possible value for a given Enum.", enumValueFields},
		{"__Directive", "A Directive provides a way to describe alternate runtime execution and type validation behavior in a GraphQL document.", directiveFields},
	}
	for _, o := range objects {
		if err := r.Object(o.name, o.desc, o.fields); err != nil {
			return err
		}
	}

	return r.Extend(query, schema.Fields(
		field("__schema", schema.NonNullType(schema.NamedType("__Schema")), func(p schema.ResolveParams) any {
			return p.Info.Schema
		}).Describe("Access the current type schema of this server."),
		field("__type", typeRef, func(p schema.ResolveParams) any {
			name, _ := p.Args["name"].(string)
			if t := p.Info.Schema.Types[name]; t != nil {
				return t
			}
			return nil
		}).AddArgument("name", nnString).Describe("Request the type information of a single type."),
	))
}

func field(name string, t *schema.TypeRef, fn func(p schema.ResolveParams) any) *schema.Field {
	return schema.NewField(name, t).ResolveSync(func(ctx context.Context, p schema.ResolveParams) (any, error) {
		return fn(p), nil
	})
}

func withDeprecated(f *schema.Field) *schema.Field {
	return f.AddArgumentWithDefault("includeDeprecated", schema.Boolean(), false)
}

func includeDeprecated(p schema.ResolveParams) bool {
	b, _ := p.Args["includeDeprecated"].(bool)
	return b
}

func schemaFields() []*schema.Field {
	src := func(p schema.ResolveParams) *schema.Schema { return p.Source.(*schema.Schema) }
	return []*schema.Field{
		field("description", str, func(p schema.ResolveParams) any { return optional(src(p).Description) }),
		field("types", list("__Type"), func(p schema.ResolveParams) any {
			s := src(p)
			out := make([]*schema.Type, 0, len(s.Types))
			for _, name := range s.SortedTypeNames() {
				out = append(out, s.Types[name])
			}
			return out
		}),
		field("queryType", nnType, func(p schema.ResolveParams) any { return src(p).GetQueryType() }),
		field("mutationType", typeRef, func(p schema.ResolveParams) any {
			if t := src(p).GetMutationType(); t != nil {
				return t
			}
			return nil
		}),
		field("subscriptionType", typeRef, func(p schema.ResolveParams) any { return nil }),
		field("directives", list("__Directive"), func(p schema.ResolveParams) any {
			s := src(p)
			out := make([]*schema.Directive, 0, len(s.Directives))
			for _, d := range s.Directives {
				out = append(out, d)
			}
			sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
			return out
		}),
	}
}

// typeSource is what a __Type value resolves from: either a named type or a
// List / Non-Null wrapper around one.
type typeSource struct {
	named   *schema.Type
	wrapper *schema.TypeRef
}

func asType(p schema.ResolveParams) typeSource {
	switch v := p.Source.(type) {
	case *schema.Type:
		return typeSource{named: v}
	case *schema.TypeRef:
		if v.Kind == schema.TypeRefKindNamed {
			return typeSource{named: p.Info.Schema.Types[v.Named]}
		}
		return typeSource{wrapper: v}
	}
	return typeSource{}
}

func typeFields() []*schema.Field {
	return []*schema.Field{
		field("kind", schema.NonNullType(schema.NamedType("__TypeKind")), func(p schema.ResolveParams) any {
			ts := asType(p)
			switch {
			case ts.wrapper != nil && ts.wrapper.Kind == schema.TypeRefKindList:
				return "LIST"
			case ts.wrapper != nil:
				return "NON_NULL"
			case ts.named != nil:
				return string(ts.named.Kind)
			}
			return nil
		}),
		field("name", str, func(p schema.ResolveParams) any {
			if t := asType(p).named; t != nil {
				return t.Name
			}
			return nil
		}),
		field("description", str, func(p schema.ResolveParams) any {
			if t := asType(p).named; t != nil {
				return optional(t.Description)
			}
			return nil
		}),
		field("specifiedByURL", str, func(p schema.ResolveParams) any { return nil }),
		withDeprecated(field("fields", schema.ListType(schema.NonNullType(schema.NamedType("__Field"))), func(p schema.ResolveParams) any {
			t := asType(p).named
			if t == nil || t.Kind != schema.TypeKindObject {
				return nil
			}
			out := []*schema.Field{}
			for _, f := range t.Fields {
				if strings.HasPrefix(f.Name, "__") || (f.IsDeprecated && !includeDeprecated(p)) {
					continue
				}
				out = append(out, f)
			}
			return out
		})),
		field("interfaces", schema.ListType(schema.NonNullType(typeRef)), func(p schema.ResolveParams) any {
			if t := asType(p).named; t != nil && t.Kind == schema.TypeKindObject {
				return []*schema.Type{}
			}
			return nil
		}),
		field("possibleTypes", schema.ListType(schema.NonNullType(typeRef)), func(p schema.ResolveParams) any { return nil }),
		withDeprecated(field("enumValues", schema.ListType(schema.NonNullType(schema.NamedType("__EnumValue"))), func(p schema.ResolveParams) any {
			t := asType(p).named
			if t == nil || t.Kind != schema.TypeKindEnum {
				return nil
			}
			out := []*schema.EnumValue{}
			for _, ev := range t.EnumValues {
				if ev.IsDeprecated && !includeDeprecated(p) {
					continue
				}
				out = append(out, ev)
			}
			return out
		})),
		withDeprecated(field("inputFields", schema.ListType(schema.NonNullType(schema.NamedType("__InputValue"))), func(p schema.ResolveParams) any {
			t := asType(p).named
			if t == nil || t.Kind != schema.TypeKindInputObject {
				return nil
			}
			return inputValues(t.InputFields)
		})),
		field("ofType", typeRef, func(p schema.ResolveParams) any {
			if w := asType(p).wrapper; w != nil {
				return w.OfType
			}
			return nil
		}),
		field("isOneOf", schema.Boolean(), func(p schema.ResolveParams) any {
			if t := asType(p).named; t != nil && t.Kind == schema.TypeKindInputObject {
				return false
			}
			return nil
		}),
	}
}

func fieldFields() []*schema.Field {
	src := func(p schema.ResolveParams) *schema.Field { return p.Source.(*schema.Field) }
	return []*schema.Field{
		field("name", nnString, func(p schema.ResolveParams) any { return src(p).Name }),
		field("description", str, func(p schema.ResolveParams) any { return optional(src(p).Description) }),
		withDeprecated(field("args", list("__InputValue"), func(p schema.ResolveParams) any { return inputValues(src(p).Arguments) })),
		field("type", nnType, func(p schema.ResolveParams) any { return src(p).Type }),
		field("isDeprecated", nnBool, func(p schema.ResolveParams) any { return src(p).IsDeprecated }),
		field("deprecationReason", str, func(p schema.ResolveParams) any {
			if f := src(p); f.IsDeprecated {
				return f.DeprecationReason
			}
			return nil
		}),
	}
}

func inputValueFields() []*schema.Field {
	src := func(p schema.ResolveParams) *schema.InputValue { return p.Source.(*schema.InputValue) }
	return []*schema.Field{
		field("name", nnString, func(p schema.ResolveParams) any { return src(p).Name }),
		field("description", str, func(p schema.ResolveParams) any { return optional(src(p).Description) }),
		field("type", nnType, func(p schema.ResolveParams) any { return src(p).Type }),
		field("defaultValue", str, func(p schema.ResolveParams) any {
			if v := src(p).DefaultValue; v != nil {
				return schema.RenderValue(v)
			}
			return nil
		}),
		field("isDeprecated", nnBool, func(p schema.ResolveParams) any { return false }),
		field("deprecationReason", str, func(p schema.ResolveParams) any { return nil }),
	}
}

func enumValueFields() []*schema.Field {
	src := func(p schema.ResolveParams) *schema.EnumValue { return p.Source.(*schema.EnumValue) }
	return []*schema.Field{
		field("name", nnString, func(p schema.ResolveParams) any { return src(p).Name }),
		field("description", str, func(p schema.ResolveParams) any { return optional(src(p).Description) }),
		field("isDeprecated", nnBool, func(p schema.ResolveParams) any { return src(p).IsDeprecated }),
		field("deprecationReason", str, func(p schema.ResolveParams) any {
			if ev := src(p); ev.IsDeprecated {
				return ev.DeprecationReason
			}
			return nil
		}),
	}
}

func directiveFields() []*schema.Field {
	src := func(p schema.ResolveParams) *schema.Directive { return p.Source.(*schema.Directive) }
	return []*schema.Field{
		field("name", nnString, func(p schema.ResolveParams) any { return src(p).Name }),
		field("description", str, func(p schema.ResolveParams) any { return optional(src(p).Description) }),
		field("isRepeatable", nnBool, func(p schema.ResolveParams) any { return false }),
		field("locations", list("__DirectiveLocation"), func(p schema.ResolveParams) any { return append([]string{}, src(p).Locations...) }),
		withDeprecated(field("args", list("__InputValue"), func(p schema.ResolveParams) any { return inputValues(src(p).Arguments) })),
	}
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// inputValues never returns a nil slice, which would complete as null.
func inputValues(in []*schema.InputValue) []*schema.InputValue {
	if in == nil {
		return []*schema.InputValue{}
	}
	return in
}
