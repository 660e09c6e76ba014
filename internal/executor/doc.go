// Package executor runs GraphQL operations breadth-first against a Runtime.
//
// ExecuteRequest picks the operation, validates it against the schema,
// coerces variables and then walks the selection one depth at a time:
//
//   - Fields with schema.Field.Async unset are resolved inline through
//     Runtime.ResolveSync. Projecting a parent value never adds a depth.
//   - Async fields found while expanding a depth are queued and resolved by a
//     single Runtime.BatchResolveAsync call once the depth is fully expanded.
//     Their results are completed, and the next depth starts only after that.
//
// Mutation root fields are the exception: each one is executed, with its
// whole subtree, before the next root field starts, so side effects happen
// exactly once and in document order.
//
// # Errors
//
// Every error is a GraphQLError carrying a code extension:
//
//   - VALIDATION_ERROR: the document selects a field that does not exist, a
//     leaf with a selection or an object without one, or references an
//     unknown fragment. These abort the request before any resolver runs and
//     the result has no data. A missing or mistyped argument is also a
//     validation error, but it is scoped: the field resolves to null, its
//     resolver never runs, and siblings execute normally.
//   - RESOLUTION_ERROR: a resolver returned an error (or panicked, for
//     runtimes that recover), or the context ended.
//
// # Null propagation
//
// A null in a Non-Null position makes the nearest nullable ancestor null;
// when none exists the whole data is null. Each pending field remembers that
// ancestor (its boundary), so a late async failure can prune the response
// tree and drop queued work underneath it. List elements are independent:
// one failing element of a nullable item type becomes null and the rest of
// the list is kept.
//
// # Cancellation
//
// The context is checked between depths. Once it is done, queued fields fail
// with the context error and no further batch is issued.
package executor
