package schema

// builtinScalars lists the built-in scalars in declaration order.
var builtinScalars = []struct{ name, description string }{
	{"String", "The `String` scalar type represents textual data, represented as UTF-8 character sequences."},
	{"Int", "The `Int` scalar type represents non-fractional signed whole numeric values."},
	{"Float", "The `Float` scalar type represents signed double-precision fractional values."},
	{"Boolean", "The `Boolean` scalar type represents `true` or `false`."},
	{"ID", "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching."},
}

// IsBuiltinScalar reports whether name is one of the built-in scalars.
func IsBuiltinScalar(name string) bool {
	for _, s := range builtinScalars {
		if s.name == name {
			return true
		}
	}
	return false
}

// IsBuiltinDirective reports whether name is @include or @skip.
func IsBuiltinDirective(name string) bool {
	return name == "include" || name == "skip"
}

// builtinTypes returns fresh scalar definitions so registries never share
// them.
func builtinTypes() []*Type {
	out := make([]*Type, len(builtinScalars))
	for i, s := range builtinScalars {
		out[i] = &Type{Name: s.name, Kind: TypeKindScalar, Description: s.description}
	}
	return out
}

func builtinDirectives() []*Directive {
	return []*Directive{
		conditionDirective("include",
			"Directs the executor to include this field or fragment only when the `if` argument is true.",
			"Included when true."),
		conditionDirective("skip",
			"Directs the executor to skip this field or fragment when the `if` argument is true.",
			"Skipped when true."),
	}
}

func conditionDirective(name, description, argDescription string) *Directive {
	return &Directive{
		Name:        name,
		Description: description,
		Locations:   []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
		Arguments: []*InputValue{
			{Name: "if", Description: argDescription, Type: NonNullType(NamedType("Boolean"))},
		},
	}
}
