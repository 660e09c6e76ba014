package schema

import (
	"github.com/pkg/errors"

	language "github.com/hanpama/usergraph/internal/language"
)

// Resolvers maps "Type.field" to the resolver bound to that field.
type Resolvers map[string]ResolverFunc

// BuildFromSDL parses SDL and returns the corresponding Schema. Fields listed
// in resolvers are resolver-backed (async); the rest project the same-named
// attribute of their parent value. When the document has no schema
// definition, the Query and Mutation types are used as roots if present.
func BuildFromSDL(sdl string, resolvers Resolvers) (*Schema, error) {
	r, err := RegistryFromSDL(sdl, resolvers)
	if err != nil {
		return nil, err
	}
	return r.Build()
}

// RegistryFromSDL is like BuildFromSDL but returns the unbuilt registry so
// callers can extend it before Build.
func RegistryFromSDL(sdl string, resolvers Resolvers) (*Registry, error) {
	doc, err := language.ParseSchema("schema.graphql", sdl)
	if err != nil {
		return nil, errors.Wrap(err, "parse schema")
	}
	r := NewRegistry()

	// Phase one: names.
	for _, def := range doc.Definitions {
		if IsBuiltinScalar(def.Name) {
			continue
		}
		switch def.Kind {
		case language.Object:
			if _, err := r.Declare(def.Name, TypeKindObject, def.Description); err != nil {
				return nil, err
			}
		case language.InputObject:
			t, err := r.Declare(def.Name, TypeKindInputObject, def.Description)
			if err != nil {
				return nil, err
			}
			for _, f := range def.Fields {
				iv := NewInputValue(f.Name, typeRefFromAST(f.Type))
				iv.Description = f.Description
				iv.DefaultValue = language.ValueToGo(f.DefaultValue)
				t.InputFields = append(t.InputFields, iv)
			}
		case language.Enum:
			t, err := r.Declare(def.Name, TypeKindEnum, def.Description)
			if err != nil {
				return nil, err
			}
			for _, v := range def.EnumValues {
				ev := &EnumValue{Name: v.Name, Description: v.Description}
				if d := v.Directives.ForName("deprecated"); d != nil {
					ev.IsDeprecated = true
					ev.DeprecationReason = deprecationReason(d)
				}
				t.EnumValues = append(t.EnumValues, ev)
			}
		case language.Scalar:
			if _, err := r.Declare(def.Name, TypeKindScalar, def.Description); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Errorf("%s: %s types are not supported", def.Name, def.Kind)
		}
	}

	// Phase two: fields, attached lazily so references need no ordering.
	for _, def := range doc.Definitions {
		if def.Kind != language.Object {
			continue
		}
		if err := r.Attach(def.Name, sdlFields(def, resolvers)); err != nil {
			return nil, err
		}
	}
	for _, ext := range doc.Extensions {
		if ext.Kind != language.Object {
			return nil, errors.Errorf("extend %s: only object extensions are supported", ext.Name)
		}
		if err := r.Extend(ext.Name, sdlFields(ext, resolvers)); err != nil {
			return nil, err
		}
	}

	for _, dd := range doc.Directives {
		d := &Directive{Name: dd.Name, Description: dd.Description}
		for _, loc := range dd.Locations {
			d.Locations = append(d.Locations, string(loc))
		}
		for _, a := range dd.Arguments {
			iv := NewInputValue(a.Name, typeRefFromAST(a.Type))
			iv.Description = a.Description
			iv.DefaultValue = language.ValueToGo(a.DefaultValue)
			d.Arguments = append(d.Arguments, iv)
		}
		if err := r.Directive(d); err != nil {
			return nil, err
		}
	}

	query, mutation := "", ""
	for _, sd := range append(doc.Schema, doc.SchemaExtension...) {
		if sd.Description != "" {
			r.SetDescription(sd.Description)
		}
		for _, op := range sd.OperationTypes {
			switch op.Operation {
			case language.Query:
				query = op.Type
			case language.Mutation:
				mutation = op.Type
			default:
				return nil, errors.Errorf("%s operations are not supported", op.Operation)
			}
		}
	}
	if query == "" {
		if _, err := r.Lookup("Query"); err == nil {
			query = "Query"
		}
	}
	if mutation == "" {
		if _, err := r.Lookup("Mutation"); err == nil {
			mutation = "Mutation"
		}
	}
	r.SetQuery(query).SetMutation(mutation)

	for key := range resolvers {
		typeName, fieldName, ok := splitFieldKey(key)
		if !ok {
			return nil, errors.Errorf("invalid resolver key %q, want Type.field", key)
		}
		if !definesField(doc, typeName, fieldName) {
			return nil, errors.Errorf("resolver %q does not match any field", key)
		}
	}
	return r, nil
}

func sdlFields(def *language.Definition, resolvers Resolvers) FieldsThunk {
	return func() []*Field {
		fields := make([]*Field, 0, len(def.Fields))
		for _, fd := range def.Fields {
			f := NewField(fd.Name, typeRefFromAST(fd.Type)).Describe(fd.Description)
			for _, a := range fd.Arguments {
				iv := NewInputValue(a.Name, typeRefFromAST(a.Type))
				iv.Description = a.Description
				iv.DefaultValue = language.ValueToGo(a.DefaultValue)
				f.Arguments = append(f.Arguments, iv)
			}
			if d := fd.Directives.ForName("deprecated"); d != nil {
				f.Deprecate(deprecationReason(d))
			}
			if fn, ok := resolvers[def.Name+"."+fd.Name]; ok {
				f.Resolve(fn)
			}
			fields = append(fields, f)
		}
		return fields
	}
}

func deprecationReason(d *language.Directive) string {
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw
	}
	return "No longer supported"
}

func definesField(doc *language.SchemaDocument, typeName, fieldName string) bool {
	for _, list := range []language.DefinitionList{doc.Definitions, doc.Extensions} {
		for _, def := range list {
			if def.Name == typeName && def.Fields.ForName(fieldName) != nil {
				return true
			}
		}
	}
	return false
}

func splitFieldKey(key string) (string, string, bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			if i == 0 || i == len(key)-1 {
				return "", "", false
			}
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}

// TypeRefFromAST converts a parsed type reference.
func TypeRefFromAST(t *language.Type) *TypeRef { return typeRefFromAST(t) }

func typeRefFromAST(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return ListType(typeRefFromAST(t.Elem))
	}
	return nil
}
