package executor

import (
	language "github.com/hanpama/usergraph/internal/language"
	schema "github.com/hanpama/usergraph/internal/schema"
)

// collectedField is one response key and every field node merged into it.
type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

// fieldCollector groups the selections of one object by response name, in
// first-appearance order.
type fieldCollector struct {
	state      *executionState
	objectType *schema.Type
	groups     []collectedField
	byName     map[string]int
	visited    map[string]struct{}
}

// collectFields flattens selectionSet for objectType, expanding fragments
// whose type condition applies and dropping nodes excluded by @skip or
// @include.
func collectFields(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet) []collectedField {
	c := &fieldCollector{
		state:      state,
		objectType: objectType,
		byName:     map[string]int{},
		visited:    map[string]struct{}{},
	}
	c.walk(selectionSet)
	return c.groups
}

func (c *fieldCollector) walk(selectionSet language.SelectionSet) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if c.excluded(sel.Directives) {
				continue
			}
			c.add(sel)
		case *language.InlineFragment:
			if c.excluded(sel.Directives) || !c.applies(sel.TypeCondition) {
				continue
			}
			c.walk(sel.SelectionSet)
		case *language.FragmentSpread:
			if c.excluded(sel.Directives) {
				continue
			}
			if _, seen := c.visited[sel.Name]; seen {
				continue
			}
			c.visited[sel.Name] = struct{}{}
			def := c.state.document.Fragments.ForName(sel.Name)
			if def == nil || c.excluded(def.Directives) || !c.applies(def.TypeCondition) {
				continue
			}
			c.walk(def.SelectionSet)
		}
	}
}

func (c *fieldCollector) add(field *language.Field) {
	name := field.Alias
	if name == "" {
		name = field.Name
	}
	if i, ok := c.byName[name]; ok {
		c.groups[i].Fields = append(c.groups[i].Fields, field)
		return
	}
	c.byName[name] = len(c.groups)
	c.groups = append(c.groups, collectedField{ResponseName: name, Fields: []*language.Field{field}})
}

// applies reports whether a fragment on typeCondition selects fields of the
// collector's object type. Only object types exist here, so the condition
// must name the type itself.
func (c *fieldCollector) applies(typeCondition string) bool {
	return typeCondition == "" || typeCondition == c.objectType.Name
}

func (c *fieldCollector) excluded(directives language.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil && c.directiveFlag(d) {
		return true
	}
	if d := directives.ForName("include"); d != nil && !c.directiveFlag(d) {
		return true
	}
	return false
}

// directiveFlag evaluates the "if" argument of @skip or @include. A missing
// or non-boolean argument keeps the node: @skip reads as false and
// @include reads as true.
func (c *fieldCollector) directiveFlag(d *language.Directive) bool {
	arg := d.Arguments.ForName("if")
	fallback := d.Name == "include"
	if arg == nil {
		return fallback
	}
	v, _ := valueFromASTWithVars(arg.Value, c.state.variableValues)
	b, ok := v.(bool)
	if !ok {
		return fallback
	}
	return b
}
