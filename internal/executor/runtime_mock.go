package executor

import (
	"context"
	"fmt"
	"sync"
)

// MockResolver resolves a single item; MockRuntime adapts it for batched calls in tests.
type MockResolver func(ctx context.Context, source any, args map[string]any) (any, error)

// CallKind identifies whether a call was from ResolveSync or BatchResolveAsync.
const (
	CallKindSync  = "sync"
	CallKindAsync = "async"
)

// NewMockValueResolver returns a MockResolver that always returns val.
func NewMockValueResolver(val any) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return val, nil
	}
}

// NewMockErrorResolver returns a MockResolver that always returns err.
func NewMockErrorResolver(err error) MockResolver {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return nil, err
	}
}

// Call is one task-level invocation record. Async calls made in the same
// flush share a BatchID.
type Call struct {
	Kind       string
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
	Path       string
	BatchID    int // 0 for sync
}

// MockRuntime implements Runtime with a resolver registry and a call log.
// Fields without a registered resolver read the response name from a
// map[string]any source.
type MockRuntime struct {
	mu        sync.Mutex
	resolvers map[string]MockResolver
	calls     []Call
	batchSeq  int

	typeResolver func(value any) (string, error)
	serializer   func(typeName string, val any) (any, error)
}

// NewMockRuntime creates a MockRuntime. Keys are of the form "ObjectType.field".
func NewMockRuntime(resolvers map[string]MockResolver) *MockRuntime {
	m := &MockRuntime{
		resolvers: make(map[string]MockResolver, len(resolvers)),
		typeResolver: func(value any) (string, error) {
			if obj, ok := value.(map[string]any); ok {
				if typename, ok := obj["__typename"].(string); ok {
					return typename, nil
				}
			}
			return "", fmt.Errorf("cannot resolve type of %T", value)
		},
	}
	for k, v := range resolvers {
		m.resolvers[k] = v
	}
	return m
}

// SetResolver registers or replaces the resolver for objectType.field.
func (m *MockRuntime) SetResolver(objectType, field string, resolver MockResolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolvers[objectType+"."+field] = resolver
}

// SetTypeResolver replaces the abstract type resolver.
func (m *MockRuntime) SetTypeResolver(f func(value any) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typeResolver = f
}

// SetSerializer replaces the leaf serializer. By default leaves pass through.
func (m *MockRuntime) SetSerializer(f func(typeName string, val any) (any, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serializer = f
}

func (m *MockRuntime) resolve(ctx context.Context, task ResolveTask) (any, error) {
	m.mu.Lock()
	r := m.resolvers[task.ObjectType+"."+task.Field]
	m.mu.Unlock()
	if r != nil {
		return r(ctx, task.Source, task.Args)
	}
	if obj, ok := task.Source.(map[string]any); ok {
		return obj[task.Path[len(task.Path)-1].(string)], nil
	}
	return nil, nil
}

func (m *MockRuntime) record(kind string, task ResolveTask, batchID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{
		Kind:       kind,
		ObjectType: task.ObjectType,
		Field:      task.Field,
		Source:     task.Source,
		Args:       task.Args,
		Path:       task.Path.String(),
		BatchID:    batchID,
	})
}

func (m *MockRuntime) ResolveSync(ctx context.Context, task ResolveTask) (any, error) {
	m.record(CallKindSync, task, 0)
	return m.resolve(ctx, task)
}

// BatchResolveAsync resolves tasks sequentially in task order.
func (m *MockRuntime) BatchResolveAsync(ctx context.Context, tasks []ResolveTask) []ResolveResult {
	m.mu.Lock()
	m.batchSeq++
	batchID := m.batchSeq
	m.mu.Unlock()

	results := make([]ResolveResult, len(tasks))
	for i, task := range tasks {
		m.record(CallKindAsync, task, batchID)
		v, err := m.resolve(ctx, task)
		results[i] = ResolveResult{Value: v, Error: err}
	}
	return results
}

func (m *MockRuntime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	m.mu.Lock()
	f := m.typeResolver
	m.mu.Unlock()
	return f(value)
}

func (m *MockRuntime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	m.mu.Lock()
	f := m.serializer
	m.mu.Unlock()
	if f == nil {
		return value, nil
	}
	return f(typeName, value)
}

// GetCalls returns a copy of the recorded calls in order.
func (m *MockRuntime) GetCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// BatchCount returns how many times BatchResolveAsync was invoked.
func (m *MockRuntime) BatchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchSeq
}

// Reset clears recorded calls and counters. Resolvers remain.
func (m *MockRuntime) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.batchSeq = 0
}
