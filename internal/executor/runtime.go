package executor

import (
	"context"
)

// Runtime is the host side of execution: it resolves fields and serializes
// leaves. Per depth the executor first calls ResolveSync for every inline
// field, then BatchResolveAsync once with every async field of that depth;
// it never hands an async field to ResolveSync. Arguments are already
// coerced when a task arrives.
//
// Implementations must be safe for concurrent operations and must not mutate
// sources or arguments. A runtime should not start a resolver once ctx is
// done and should report ctx.Err() for that task instead.
type Runtime interface {
	// ResolveSync resolves one inline field. (nil, nil) is a GraphQL null.
	ResolveSync(ctx context.Context, task ResolveTask) (any, error)

	// BatchResolveAsync resolves the async fields of one depth. results[i]
	// belongs to tasks[i]; a failure of one task never fails another.
	BatchResolveAsync(ctx context.Context, tasks []ResolveTask) []AsyncResolveResult

	// SerializeLeafValue converts a scalar or enum value to its JSON form.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// ResolveTask identifies one field occurrence to resolve.
type ResolveTask struct {
	// ObjectType is the parent GraphQL object type name for the field.
	ObjectType string
	// Field is the GraphQL field name to resolve.
	Field string
	// Source is the parent object value (the root value for root fields).
	Source any
	// Args are the field arguments, coerced to Go values per the schema.
	Args map[string]any
	// Path is the response path of this occurrence.
	Path Path
}

type AsyncResolveResult struct {
	// Value is the resolved raw value prior to completion, or nil on error.
	Value any
	// Error contains a failure specific to this element; other elements in the
	// same batch are unaffected.
	Error error
}
