package executor

import (
	"context"
	"sync"
)

// MockResolver resolves one field occurrence for MockRuntime.
type MockResolver func(ctx context.Context, source any, args map[string]any) (any, error)

// Call kinds recorded by MockRuntime.
const (
	CallKindSync  = "sync"
	CallKindAsync = "async"
)

// NewMockValueResolver returns a resolver that always yields val.
func NewMockValueResolver(val any) MockResolver {
	return func(context.Context, any, map[string]any) (any, error) { return val, nil }
}

// NewMockErrorResolver returns a resolver that always fails with err.
func NewMockErrorResolver(err error) MockResolver {
	return func(context.Context, any, map[string]any) (any, error) { return nil, err }
}

// Call records one resolver invocation. Tasks of the same BatchResolveAsync
// call share a BatchID starting at 1; sync calls have BatchID 0.
type Call struct {
	Kind       string
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
	BatchID    int
}

// MockRuntime is a Runtime backed by a "Type.field" keyed resolver table.
// Fields without a resolver resolve to null. Every invocation is recorded.
type MockRuntime struct {
	// Serialize, when set, replaces the identity leaf serialization.
	Serialize func(typeName string, value any) (any, error)

	mu        sync.Mutex
	resolvers map[string]MockResolver
	calls     []Call
	batches   int
}

var _ Runtime = (*MockRuntime)(nil)

func NewMockRuntime(resolvers map[string]MockResolver) *MockRuntime {
	m := &MockRuntime{resolvers: make(map[string]MockResolver, len(resolvers))}
	for k, r := range resolvers {
		m.resolvers[k] = r
	}
	return m
}

func (m *MockRuntime) SetResolver(objectType, field string, resolver MockResolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolvers[objectType+"."+field] = resolver
}

func (m *MockRuntime) invoke(ctx context.Context, kind string, batch int, task ResolveTask) AsyncResolveResult {
	m.mu.Lock()
	r := m.resolvers[task.ObjectType+"."+task.Field]
	m.calls = append(m.calls, Call{
		Kind:       kind,
		ObjectType: task.ObjectType,
		Field:      task.Field,
		Source:     task.Source,
		Args:       task.Args,
		BatchID:    batch,
	})
	m.mu.Unlock()

	if r == nil {
		return AsyncResolveResult{}
	}
	v, err := r(ctx, task.Source, task.Args)
	return AsyncResolveResult{Value: v, Error: err}
}

func (m *MockRuntime) ResolveSync(ctx context.Context, task ResolveTask) (any, error) {
	res := m.invoke(ctx, CallKindSync, 0, task)
	return res.Value, res.Error
}

// BatchResolveAsync runs tasks one field at a time: fields in order of first
// appearance, and tasks of one field in input order.
func (m *MockRuntime) BatchResolveAsync(ctx context.Context, tasks []ResolveTask) []AsyncResolveResult {
	if len(tasks) == 0 {
		return nil
	}
	m.mu.Lock()
	m.batches++
	batch := m.batches
	m.mu.Unlock()

	var order []string
	byField := map[string][]int{}
	for i, t := range tasks {
		key := t.ObjectType + "." + t.Field
		if _, ok := byField[key]; !ok {
			order = append(order, key)
		}
		byField[key] = append(byField[key], i)
	}

	results := make([]AsyncResolveResult, len(tasks))
	for _, key := range order {
		for _, i := range byField[key] {
			results[i] = m.invoke(ctx, CallKindAsync, batch, tasks[i])
		}
	}
	return results
}

func (m *MockRuntime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if m.Serialize == nil {
		return value, nil
	}
	return m.Serialize(typeName, value)
}

// GetCalls returns the recorded calls in invocation order.
func (m *MockRuntime) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Reset forgets recorded calls. Resolvers are kept.
func (m *MockRuntime) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.batches = 0
}
