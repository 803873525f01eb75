package resolver

import (
	"context"
	"fmt"
	"reflect"

	"golang.org/x/sync/errgroup"

	executor "github.com/hanpama/catstronauts/internal/executor"
)

const defaultConcurrency = 8

// Runtime implements executor.Runtime on top of a Map.
type Runtime struct {
	resolvers   Map
	concurrency int
}

var _ executor.Runtime = (*Runtime)(nil)

type Option func(*Runtime)

// WithConcurrency bounds how many resolvers of one batch run at once.
// Values below 1 mean no bound.
func WithConcurrency(n int) Option {
	return func(r *Runtime) { r.concurrency = n }
}

func NewRuntime(m Map, opts ...Option) *Runtime {
	r := &Runtime{resolvers: m, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveSync reads the field off the parent value.
func (r *Runtime) ResolveSync(ctx context.Context, task executor.ResolveTask) (any, error) {
	return Property(task.Source, task.Field), nil
}

// BatchResolveAsync runs the bound resolver of every task concurrently.
// Results keep task order and a failing task does not affect the others.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.ResolveTask) []executor.ResolveResult {
	results := make([]executor.ResolveResult, len(tasks))
	if len(tasks) == 1 {
		results[0] = r.resolve(ctx, tasks[0])
		return results
	}

	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i := range tasks {
		g.Go(func() error {
			results[i] = r.resolve(ctx, tasks[i])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runtime) resolve(ctx context.Context, task executor.ResolveTask) (res executor.ResolveResult) {
	fn, ok := r.resolvers.Lookup(task.ObjectType, task.Field)
	if !ok {
		return executor.ResolveResult{Value: Property(task.Source, task.Field)}
	}
	defer func() {
		if p := recover(); p != nil {
			res = executor.ResolveResult{Error: fmt.Errorf("resolver: panic in %s.%s: %v", task.ObjectType, task.Field, p)}
		}
	}()
	v, err := fn(ctx, task.Source, task.Args, Info{
		ParentType: task.ObjectType,
		FieldName:  task.Field,
		Path:       task.Path,
		ReturnType: task.ReturnType,
	})
	return executor.ResolveResult{Value: v, Error: err}
}

// ResolveType names the concrete object type of value. Maps may carry it in
// a "__typename" key; other values use their Go type name.
func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	if m, ok := value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok {
			return name, nil
		}
		return "", fmt.Errorf("resolver: cannot resolve %s: map value has no __typename", abstractType)
	}
	rv := reflect.Indirect(reflect.ValueOf(value))
	if !rv.IsValid() || rv.Type().Name() == "" {
		return "", fmt.Errorf("resolver: cannot resolve %s from %T", abstractType, value)
	}
	return rv.Type().Name(), nil
}

func (r *Runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	return SerializeLeaf(typeName, value)
}
