package language

import "github.com/vektah/gqlparser/v2/ast"

// Document nodes read by the executor and the SDL builder. They alias the
// gqlparser AST so that callers need not import it directly.
type (
	QueryDocument       = ast.QueryDocument
	SchemaDocument      = ast.SchemaDocument
	OperationDefinition = ast.OperationDefinition
	Definition          = ast.Definition
	DefinitionList      = ast.DefinitionList

	SelectionSet   = ast.SelectionSet
	Field          = ast.Field
	InlineFragment = ast.InlineFragment
	FragmentSpread = ast.FragmentSpread

	Directive     = ast.Directive
	DirectiveList = ast.DirectiveList
	ArgumentList  = ast.ArgumentList
	Value         = ast.Value
	Type          = ast.Type
	Position      = ast.Position
)

type Operation = ast.Operation

const (
	Query    Operation = ast.Query
	Mutation Operation = ast.Mutation
)

type DefinitionKind = ast.DefinitionKind

// Definition kinds the SDL builder accepts.
const (
	Object      DefinitionKind = ast.Object
	Scalar      DefinitionKind = ast.Scalar
	Enum        DefinitionKind = ast.Enum
	InputObject DefinitionKind = ast.InputObject
)

type ValueKind = ast.ValueKind

const (
	Variable     ValueKind = ast.Variable
	IntValue     ValueKind = ast.IntValue
	FloatValue   ValueKind = ast.FloatValue
	StringValue  ValueKind = ast.StringValue
	BlockValue   ValueKind = ast.BlockValue
	BooleanValue ValueKind = ast.BooleanValue
	NullValue    ValueKind = ast.NullValue
	EnumValue    ValueKind = ast.EnumValue
	ListValue    ValueKind = ast.ListValue
	ObjectValue  ValueKind = ast.ObjectValue
)
