// Package resolver binds schema fields to Go functions and adapts the
// bindings to the executor's Runtime interface.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vektah/gqlparser/v2/ast"

	executor "github.com/hanpama/catstronauts/internal/executor"
	schema "github.com/hanpama/catstronauts/internal/schema"
)

// Func computes the value of one field. ctx is the request context, parent
// the value produced for the enclosing object and args the coerced field
// arguments.
type Func func(ctx context.Context, parent any, args map[string]any, info Info) (any, error)

// Info describes the field being resolved.
type Info struct {
	ParentType string
	FieldName  string
	Path       executor.Path
	ReturnType *ast.Type
}

// Map is a registration table keyed by object type name, then field name.
// Fields absent from the map are read from the parent value.
type Map map[string]map[string]Func

// Lookup returns the function registered for typeName.field.
func (m Map) Lookup(typeName, field string) (Func, bool) {
	fields, ok := m[typeName]
	if !ok {
		return nil, false
	}
	fn, ok := fields[field]
	return fn, ok && fn != nil
}

// Check verifies that every binding names an existing field of an object
// type in s. All offending bindings are reported.
func (m Map) Check(s *schema.Schema) error {
	var errs []error
	for _, typeName := range sortedKeys(m) {
		def := s.Type(typeName)
		if def == nil {
			errs = append(errs, fmt.Errorf("resolver: type %s is not defined in the schema", typeName))
			continue
		}
		if def.Kind != ast.Object {
			errs = append(errs, fmt.Errorf("resolver: type %s is %s, want OBJECT", typeName, def.Kind))
			continue
		}
		for _, field := range sortedKeys(m[typeName]) {
			if m[typeName][field] == nil {
				errs = append(errs, fmt.Errorf("resolver: %s.%s is bound to a nil function", typeName, field))
				continue
			}
			if def.Fields.ForName(field) == nil {
				errs = append(errs, fmt.Errorf("resolver: field %s.%s is not defined in the schema", typeName, field))
			}
		}
	}
	return errors.Join(errs...)
}

// Apply marks every bound field of s as async so the executor batches it.
func (m Map) Apply(s *schema.Schema) {
	for typeName, fields := range m {
		for field := range fields {
			s.SetAsync(typeName, field)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
