package executor

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"
)

// Runtime is the host integration surface used by the Executor to resolve
// field values, abstract types and leaf values.
//
// General contract
//   - The Executor performs a breadth-first execution. At each depth it drains
//     all synchronous fields first via ResolveSync, then calls
//     BatchResolveAsync ONCE with all async tasks collected at that depth.
//   - ResolveSync is never invoked for fields the schema marks async, and
//     BatchResolveAsync is only invoked with at least one task.
//   - Errors are converted into located GraphQL errors. Non-Null fields
//     propagate null up to the nearest nullable ancestor.
//   - Implementations must be safe for concurrent use and must not mutate
//     source or args values.
//
// BatchResolveAsync must return one result per task, in task order
// (results[i] corresponds to tasks[i]). Failures of one task do not affect
// the others.
type Runtime interface {
	// ResolveSync resolves a field whose value can be read from its parent.
	// Return (nil, nil) to produce a GraphQL null for nullable fields.
	ResolveSync(ctx context.Context, task ResolveTask) (any, error)

	// BatchResolveAsync resolves one execution depth of resolver-backed fields.
	BatchResolveAsync(ctx context.Context, tasks []ResolveTask) []ResolveResult

	// ResolveType returns the concrete object type name of a value whose
	// static type is the interface or union abstractType.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue coerces a scalar or enum value into a JSON-safe Go
	// value. Enums serialize to their symbolic name.
	SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error)
}

// ResolveTask describes a single field resolution.
type ResolveTask struct {
	// ObjectType is the parent object type name, e.g. "Query" for root fields.
	ObjectType string
	// Field is the schema field name (not the response alias).
	Field string
	// Source is the parent value; the root value for root fields.
	Source any
	// Args are the field arguments coerced per the schema.
	Args map[string]any
	// Path is the response path of the field.
	Path Path
	// ReturnType is the declared type of the field.
	ReturnType *ast.Type
}

// ResolveResult is the outcome of one ResolveTask.
type ResolveResult struct {
	Value any
	Error error
}
