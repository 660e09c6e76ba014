package executor

import (
	"fmt"

	language "github.com/hanpama/usergraph/internal/language"
	schema "github.com/hanpama/usergraph/internal/schema"
)

// validateOperation checks the selected operation against the schema before
// anything is resolved: every selected field exists on its parent type, leaf
// fields have no sub-selection, object fields have one, fragments exist and
// apply to the type they are spread into, and variables have input types.
// Argument checks happen per field at execution time.
func validateOperation(sch *schema.Schema, doc *language.QueryDocument, op *language.OperationDefinition, rootType *schema.Type) []GraphQLError {
	v := &validator{schema: sch, doc: doc, spreading: make(map[string]bool)}
	for _, vd := range op.VariableDefinitions {
		name := vd.Type.Name()
		t := sch.Types[name]
		switch {
		case t == nil:
			v.report(fmt.Sprintf("Unknown type %q.", name), nil, vd.Position)
		case !t.IsInput():
			v.report(fmt.Sprintf("Variable \"$%s\" cannot be non-input type %q.", vd.Variable, vd.Type.String()), nil, vd.Position)
		}
	}
	v.selectionSet(rootType, op.SelectionSet, Path{})
	return v.errs
}

type validator struct {
	schema    *schema.Schema
	doc       *language.QueryDocument
	spreading map[string]bool
	errs      []GraphQLError
}

func (v *validator) report(msg string, path Path, pos *language.Position) {
	v.errs = append(v.errs, validationError(msg, path, locationOf(pos)))
}

func (v *validator) selectionSet(parent *schema.Type, set language.SelectionSet, path Path) {
	for _, sel := range set {
		switch s := sel.(type) {
		case *language.Field:
			v.field(parent, s, path)
		case *language.InlineFragment:
			if v.typeCondition(parent, s.TypeCondition, s.Position) {
				v.selectionSet(parent, s.SelectionSet, path)
			}
		case *language.FragmentSpread:
			def := v.doc.Fragments.ForName(s.Name)
			if def == nil {
				v.report(fmt.Sprintf("Unknown fragment %q.", s.Name), path, s.Position)
				continue
			}
			if v.spreading[s.Name] {
				v.report(fmt.Sprintf("Cannot spread fragment %q within itself.", s.Name), path, s.Position)
				continue
			}
			if v.typeCondition(parent, def.TypeCondition, s.Position) {
				v.spreading[s.Name] = true
				v.selectionSet(parent, def.SelectionSet, path)
				delete(v.spreading, s.Name)
			}
		}
	}
}

func (v *validator) typeCondition(parent *schema.Type, cond string, pos *language.Position) bool {
	if cond == "" || cond == parent.Name {
		return true
	}
	if v.schema.Types[cond] == nil {
		v.report(fmt.Sprintf("Unknown type %q.", cond), nil, pos)
		return false
	}
	v.report(fmt.Sprintf("Fragment cannot be spread here as objects of type %q can never be of type %q.", parent.Name, cond), nil, pos)
	return false
}

func (v *validator) field(parent *schema.Type, f *language.Field, path Path) {
	responseName := f.Alias
	if responseName == "" {
		responseName = f.Name
	}
	fieldPath := appendPath(path, responseName)
	if f.Name == "__typename" {
		if len(f.SelectionSet) > 0 {
			v.report(fmt.Sprintf("Field %q must not have a selection since type \"String!\" has no subfields.", f.Name), fieldPath, f.Position)
		}
		return
	}
	def := parent.Field(f.Name)
	if def == nil {
		v.report(fmt.Sprintf("Cannot query field %q on type %q.", f.Name, parent.Name), fieldPath, f.Position)
		return
	}
	named := v.schema.Types[def.Type.GetNamedType()]
	if named == nil {
		v.report(fmt.Sprintf("Unknown type %q.", def.Type.GetNamedType()), fieldPath, f.Position)
		return
	}
	if named.IsLeaf() {
		if len(f.SelectionSet) > 0 {
			v.report(fmt.Sprintf("Field %q must not have a selection since type %q has no subfields.", f.Name, def.Type.String()), fieldPath, f.Position)
		}
		return
	}
	if len(f.SelectionSet) == 0 {
		v.report(fmt.Sprintf("Field %q of type %q must have a selection of subfields.", f.Name, def.Type.String()), fieldPath, f.Position)
		return
	}
	v.selectionSet(named, f.SelectionSet, fieldPath)
}
