package schema

// NewField returns a field of the given type with no resolver. Without a
// resolver the field projects the same-named attribute of its parent value.
func NewField(name string, typ *TypeRef) *Field {
	return &Field{Name: name, Type: typ}
}

// Describe sets the field description.
func (f *Field) Describe(desc string) *Field {
	f.Description = desc
	return f
}

// AddArgument appends an argument definition.
func (f *Field) AddArgument(name string, typ *TypeRef) *Field {
	f.Arguments = append(f.Arguments, &InputValue{Name: name, Type: typ})
	return f
}

// AddArgumentWithDefault appends an argument definition with a default value.
func (f *Field) AddArgumentWithDefault(name string, typ *TypeRef, def any) *Field {
	f.Arguments = append(f.Arguments, &InputValue{Name: name, Type: typ, DefaultValue: def})
	return f
}

// Resolve attaches a resolver that may perform I/O. Such fields are batched
// per depth and resolved concurrently with their siblings.
func (f *Field) Resolve(fn ResolverFunc) *Field {
	f.Resolver = fn
	f.Async = true
	return f
}

// ResolveSync attaches a resolver that is cheap and side-effect free; it runs
// inline during field expansion.
func (f *Field) ResolveSync(fn ResolverFunc) *Field {
	f.Resolver = fn
	f.Async = false
	return f
}

// Deprecate marks the field deprecated.
func (f *Field) Deprecate(reason string) *Field {
	f.IsDeprecated = true
	f.DeprecationReason = reason
	return f
}

// NewInputValue returns an input field or argument definition.
func NewInputValue(name string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Type: typ}
}

// Fields is a convenience FieldsThunk for a fixed field list.
func Fields(fields ...*Field) FieldsThunk {
	return func() []*Field { return fields }
}

// Shorthands for the builtin scalars.
func String() *TypeRef  { return NamedType("String") }
func Int() *TypeRef     { return NamedType("Int") }
func Float() *TypeRef   { return NamedType("Float") }
func Boolean() *TypeRef { return NamedType("Boolean") }
func ID() *TypeRef      { return NamedType("ID") }
