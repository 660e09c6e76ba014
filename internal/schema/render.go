package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Render produces SDL from the Schema. Builtin scalars, builtin directives
// and introspection types are omitted. Types and directives are sorted by
// name; fields keep their declaration order.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	w := &sdlWriter{}
	w.schemaDefinition(s)

	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		if !IsBuiltinScalar(name) && !strings.HasPrefix(name, "__") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		w.typeDefinition(s.Types[name])
	}

	directives := make([]string, 0, len(s.Directives))
	for name := range s.Directives {
		if !IsBuiltinDirective(name) {
			directives = append(directives, name)
		}
	}
	sort.Strings(directives)
	for _, name := range directives {
		w.directive(s.Directives[name])
	}
	return w.String()
}

type sdlWriter struct {
	strings.Builder
}

func (w *sdlWriter) printf(format string, args ...any) {
	fmt.Fprintf(&w.Builder, format, args...)
}

// schemaDefinition is written only when the roots differ from the
// conventional Query and Mutation names.
func (w *sdlWriter) schemaDefinition(s *Schema) {
	if s.QueryType == "Query" && (s.MutationType == "" || s.MutationType == "Mutation") {
		return
	}
	w.description(s.Description)
	w.printf("schema {\n  query: %s\n", s.QueryType)
	if s.MutationType != "" {
		w.printf("  mutation: %s\n", s.MutationType)
	}
	w.WriteString("}\n\n")
}

func (w *sdlWriter) description(desc string) {
	if desc != "" {
		w.printf("\"\"\"\n%s\n\"\"\"\n", strings.ReplaceAll(desc, `"`, `\"`))
	}
}

func (w *sdlWriter) typeDefinition(t *Type) {
	w.description(t.Description)
	switch t.Kind {
	case TypeKindScalar:
		w.printf("scalar %s\n\n", t.Name)
		return
	case TypeKindEnum:
		w.printf("enum %s {\n", t.Name)
		for _, v := range t.EnumValues {
			w.description(v.Description)
			w.printf("  %s%s\n", v.Name, deprecation(v.IsDeprecated, v.DeprecationReason))
		}
	case TypeKindInputObject:
		w.printf("input %s {\n", t.Name)
		for _, f := range t.InputFields {
			w.description(f.Description)
			w.printf("  %s\n", inputValue(f))
		}
	case TypeKindObject:
		w.printf("type %s {\n", t.Name)
		for _, f := range t.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			w.description(f.Description)
			w.printf("  %s%s: %s%s\n", f.Name, arguments(f.Arguments), renderTypeRef(f.Type),
				deprecation(f.IsDeprecated, f.DeprecationReason))
		}
	default:
		return
	}
	w.WriteString("}\n\n")
}

func (w *sdlWriter) directive(d *Directive) {
	w.description(d.Description)
	w.printf("directive @%s%s on %s\n\n", d.Name, arguments(d.Arguments), strings.Join(d.Locations, " | "))
}

func arguments(args []*InputValue) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = inputValue(a)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func inputValue(v *InputValue) string {
	s := v.Name + ": " + renderTypeRef(v.Type)
	if v.DefaultValue != nil {
		s += " = " + RenderValue(v.DefaultValue)
	}
	return s
}

func deprecation(deprecated bool, reason string) string {
	switch {
	case !deprecated:
		return ""
	case reason == "":
		return " @deprecated"
	default:
		return fmt.Sprintf(" @deprecated(reason: %q)", reason)
	}
}

func renderTypeRef(ref *TypeRef) string {
	if ref == nil {
		return ""
	}
	switch ref.Kind {
	case TypeRefKindNamed:
		return ref.Named
	case TypeRefKindList:
		return "[" + renderTypeRef(ref.OfType) + "]"
	case TypeRefKindNonNull:
		return renderTypeRef(ref.OfType) + "!"
	}
	return ""
}

// RenderValue renders value as a GraphQL input literal. Object keys are
// sorted; strings are quoted. Values of other types render with fmt, which
// covers enum names.
func RenderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = RenderValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + RenderValue(v[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprint(value)
}
