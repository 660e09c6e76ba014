// Package resolve implements executor.Runtime on top of the resolvers bound
// to schema fields. Fields without a resolver project the same-named
// attribute of their parent value.
package resolve

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/usergraph/internal/executor"
	"github.com/hanpama/usergraph/internal/schema"
)

// DefaultConcurrency bounds the number of resolvers running at once within
// one execution depth.
const DefaultConcurrency = 16

// Runtime implements executor.Runtime for schemas built with a schema.Registry.
// Invariants and boundaries:
//   - Async fields of one depth are resolved concurrently, at most
//     Concurrency at a time. Results keep the order of the input tasks and
//     a failure of one task never affects another.
//   - A resolver that panics fails its own field only; the panic is logged
//     and reported as a resolution error.
//   - A resolver is never started once ctx is done; its task reports ctx.Err().
//   - Fields without a resolver read the parent value (see Project).
type Runtime struct {
	schema      *schema.Schema
	logger      *zap.Logger
	concurrency int
}

var _ executor.Runtime = (*Runtime)(nil)

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used to report recovered resolver panics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

// WithConcurrency bounds concurrent resolver calls per depth. n <= 0 means
// unbounded.
func WithConcurrency(n int) Option {
	return func(r *Runtime) { r.concurrency = n }
}

func NewRuntime(s *schema.Schema, opts ...Option) *Runtime {
	r := &Runtime{schema: s, logger: zap.NewNop(), concurrency: DefaultConcurrency}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ResolveSync runs the field inline: either its resolver or the default
// projection from the source value.
func (r *Runtime) ResolveSync(ctx context.Context, task executor.ResolveTask) (any, error) {
	return r.resolve(ctx, task)
}

// BatchResolveAsync resolves the tasks of one depth concurrently.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.ResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}
	if len(tasks) == 1 {
		v, err := r.resolve(ctx, tasks[0])
		results[0] = executor.AsyncResolveResult{Value: v, Error: err}
		return results
	}

	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, t := range tasks {
		g.Go(func() error {
			v, err := r.resolve(ctx, t)
			results[i] = executor.AsyncResolveResult{Value: v, Error: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runtime) resolve(ctx context.Context, task executor.ResolveTask) (value any, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	field := r.schema.Field(task.ObjectType, task.Field)
	if field == nil {
		return nil, fmt.Errorf("no field %s.%s in schema", task.ObjectType, task.Field)
	}
	if field.Resolver == nil {
		return Project(task.Source, task.Field), nil
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("resolver panicked",
				zap.String("field", task.ObjectType+"."+task.Field),
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()),
			)
			value, err = nil, fmt.Errorf("internal error resolving %s.%s", task.ObjectType, task.Field)
		}
	}()

	path := make([]any, len(task.Path))
	for i, e := range task.Path {
		path[i] = e
	}
	return field.Resolver.Resolve(ctx, schema.ResolveParams{
		Source: task.Source,
		Args:   task.Args,
		Info: schema.ResolveInfo{
			Schema:     r.schema,
			ParentType: task.ObjectType,
			FieldName:  task.Field,
			Path:       path,
		},
	})
}

// SerializeLeafValue converts resolved scalar and enum values to their
// response representation.
func (r *Runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	_ = ctx
	var enum *schema.Type
	if t := r.schema.Types[typeName]; t != nil && t.Kind == schema.TypeKindEnum {
		enum = t
	}
	return SerializeLeaf(typeName, enum, value)
}
