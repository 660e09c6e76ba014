package schema

import (
	"sort"

	"github.com/pkg/errors"
)

var (
	// ErrDuplicateType is returned when a type name is declared twice.
	ErrDuplicateType = errors.New("duplicate type")
	// ErrUnknownType is returned when a type name was never declared.
	ErrUnknownType = errors.New("unknown type")
	// ErrFrozen is returned when a registry is modified after Build.
	ErrFrozen = errors.New("registry is frozen")
)

// Registry collects type declarations in two phases: names are declared first
// and field lists are attached afterwards as thunks, so object types can
// reference each other (User.company -> Company, Company.users -> [User])
// regardless of declaration order. Build evaluates every thunk and returns an
// immutable Schema.
//
// A Registry is not safe for concurrent use; it is meant to be populated once
// at startup.
type Registry struct {
	types      map[string]*Type
	order      []string
	directives map[string]*Directive
	query      string
	mutation   string
	desc       string
	frozen     bool
}

// NewRegistry returns a registry with the builtin scalars and directives.
func NewRegistry() *Registry {
	r := &Registry{
		types:      make(map[string]*Type),
		directives: make(map[string]*Directive),
	}
	for _, t := range builtinTypes() {
		r.types[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	for _, d := range builtinDirectives() {
		r.directives[d.Name] = d
	}
	return r
}

// Declare introduces a named type without fields.
func (r *Registry) Declare(name string, kind TypeKind, description string) (*Type, error) {
	if r.frozen {
		return nil, errors.Wrapf(ErrFrozen, "declare %s", name)
	}
	if name == "" {
		return nil, errors.New("type name must not be empty")
	}
	if _, ok := r.types[name]; ok {
		return nil, errors.Wrapf(ErrDuplicateType, "%s", name)
	}
	t := &Type{Name: name, Kind: kind, Description: description}
	r.types[name] = t
	r.order = append(r.order, name)
	return t, nil
}

// Attach sets the deferred field list of a declared object type.
func (r *Registry) Attach(name string, fields FieldsThunk) error {
	if r.frozen {
		return errors.Wrapf(ErrFrozen, "attach %s", name)
	}
	t, ok := r.types[name]
	if !ok {
		return errors.Wrapf(ErrUnknownType, "%s", name)
	}
	if t.Kind != TypeKindObject {
		return errors.Errorf("cannot attach fields to %s type %s", t.Kind, name)
	}
	if len(t.thunks) > 0 || t.index != nil {
		return errors.Errorf("fields of %s are already attached", name)
	}
	t.thunks = []FieldsThunk{fields}
	return nil
}

// Extend adds more deferred fields to a declared object type.
func (r *Registry) Extend(name string, fields FieldsThunk) error {
	if r.frozen {
		return errors.Wrapf(ErrFrozen, "extend %s", name)
	}
	t, ok := r.types[name]
	if !ok {
		return errors.Wrapf(ErrUnknownType, "%s", name)
	}
	if t.Kind != TypeKindObject {
		return errors.Errorf("cannot extend %s type %s", t.Kind, name)
	}
	if t.index != nil {
		return errors.Errorf("fields of %s were already produced", name)
	}
	t.thunks = append(t.thunks, fields)
	return nil
}

// QueryType returns the configured query root type name.
func (r *Registry) QueryType() string { return r.query }

// Object declares an object type and attaches its fields in one step.
func (r *Registry) Object(name, description string, fields FieldsThunk) error {
	if _, err := r.Declare(name, TypeKindObject, description); err != nil {
		return err
	}
	return r.Attach(name, fields)
}

// Input declares an input object type.
func (r *Registry) Input(name, description string, fields ...*InputValue) error {
	t, err := r.Declare(name, TypeKindInputObject, description)
	if err != nil {
		return err
	}
	t.InputFields = fields
	return nil
}

// Enum declares an enum type.
func (r *Registry) Enum(name, description string, values ...string) error {
	t, err := r.Declare(name, TypeKindEnum, description)
	if err != nil {
		return err
	}
	for _, v := range values {
		t.EnumValues = append(t.EnumValues, &EnumValue{Name: v})
	}
	return nil
}

// Scalar declares a custom scalar. Values are passed through unchanged.
func (r *Registry) Scalar(name, description string) error {
	_, err := r.Declare(name, TypeKindScalar, description)
	return err
}

// Directive registers an additional directive definition.
func (r *Registry) Directive(d *Directive) error {
	if r.frozen {
		return errors.Wrapf(ErrFrozen, "directive %s", d.Name)
	}
	if _, ok := r.directives[d.Name]; ok {
		return errors.Errorf("duplicate directive @%s", d.Name)
	}
	r.directives[d.Name] = d
	return nil
}

// SetQuery names the root query type.
func (r *Registry) SetQuery(name string) *Registry { r.query = name; return r }

// SetMutation names the root mutation type.
func (r *Registry) SetMutation(name string) *Registry { r.mutation = name; return r }

// SetDescription sets the schema description.
func (r *Registry) SetDescription(desc string) *Registry { r.desc = desc; return r }

// Lookup returns the named type. Object fields are produced on first lookup.
func (r *Registry) Lookup(name string) (*Type, error) {
	t, ok := r.types[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownType, "%s", name)
	}
	t.force()
	return t, nil
}

// Build forces every deferred field list, checks that all referenced types
// exist and that root fields carry resolvers, and freezes the registry.
func (r *Registry) Build() (*Schema, error) {
	if r.query == "" {
		return nil, errors.New("query root type is not set")
	}
	for _, name := range r.order {
		r.types[name].force()
	}
	for _, name := range r.order {
		if err := r.checkType(r.types[name]); err != nil {
			return nil, err
		}
	}
	for _, d := range r.directives {
		for _, arg := range d.Arguments {
			if err := r.checkRef(arg.Type, true); err != nil {
				return nil, errors.WithMessagef(err, "directive @%s(%s)", d.Name, arg.Name)
			}
		}
	}
	for _, root := range []string{r.query, r.mutation} {
		if root == "" {
			continue
		}
		t, ok := r.types[root]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownType, "root type %s", root)
		}
		if t.Kind != TypeKindObject {
			return nil, errors.Errorf("root type %s must be an object type", root)
		}
		if len(t.Fields) == 0 {
			return nil, errors.Errorf("root type %s defines no fields", root)
		}
		for _, f := range t.Fields {
			if f.Resolver == nil {
				return nil, errors.Errorf("root field %s.%s has no resolver", root, f.Name)
			}
		}
	}

	r.frozen = true
	types := make(map[string]*Type, len(r.types))
	for k, v := range r.types {
		types[k] = v
	}
	directives := make(map[string]*Directive, len(r.directives))
	for k, v := range r.directives {
		directives[k] = v
	}
	return &Schema{
		QueryType:    r.query,
		MutationType: r.mutation,
		Types:        types,
		Directives:   directives,
		Description:  r.desc,
	}, nil
}

// Names returns the declared type names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) checkType(t *Type) error {
	switch t.Kind {
	case TypeKindObject:
		if len(t.Fields) == 0 {
			return errors.Errorf("object type %s defines no fields", t.Name)
		}
		seen := make(map[string]struct{}, len(t.Fields))
		for _, f := range t.Fields {
			if _, dup := seen[f.Name]; dup {
				return errors.Errorf("field %s.%s is defined more than once", t.Name, f.Name)
			}
			seen[f.Name] = struct{}{}
			if err := r.checkRef(f.Type, false); err != nil {
				return errors.WithMessagef(err, "field %s.%s", t.Name, f.Name)
			}
			for _, a := range f.Arguments {
				if err := r.checkRef(a.Type, true); err != nil {
					return errors.WithMessagef(err, "argument %s.%s(%s)", t.Name, f.Name, a.Name)
				}
			}
		}
	case TypeKindInputObject:
		for _, f := range t.InputFields {
			if err := r.checkRef(f.Type, true); err != nil {
				return errors.WithMessagef(err, "input field %s.%s", t.Name, f.Name)
			}
		}
	}
	return nil
}

func (r *Registry) checkRef(ref *TypeRef, input bool) error {
	if ref == nil {
		return errors.New("missing type")
	}
	name := ref.GetNamedType()
	t, ok := r.types[name]
	if !ok {
		return errors.Wrapf(ErrUnknownType, "%s", name)
	}
	if input && !t.IsInput() {
		return errors.Errorf("%s is not an input type", name)
	}
	if !input && t.Kind == TypeKindInputObject {
		return errors.Errorf("%s is an input type", name)
	}
	return nil
}

// SortedTypeNames returns the schema's type names in lexical order.
func (s *Schema) SortedTypeNames() []string {
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
