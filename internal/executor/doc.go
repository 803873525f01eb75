// Package executor implements a breadth-first GraphQL executor that resolves
// one depth of resolver-backed fields per batch.
//
// # Execution model
//
// Fields are split in two classes by the schema's async marks:
//   - Sync fields are read straight off their parent value via
//     Runtime.ResolveSync and completed immediately. Descending through sync
//     fields never adds a batch.
//   - Async fields are queued while the current depth expands, then handed to
//     Runtime.BatchResolveAsync in a single call once the depth is drained.
//     Objects returned by a batch are expanded the same way, and their async
//     children form the next batch.
//
// For a query whose deepest chain crosses d async fields, BatchResolveAsync is
// called exactly d times.
//
// # Completion and null propagation
//
// Values are completed per GraphQL rules: Non-Null unwraps, lists complete
// item by item with index-aware paths, leaves go through
// Runtime.SerializeLeafValue, and abstract values through Runtime.ResolveType
// before completing as objects.
//
// A null in a Non-Null position nulls the nearest nullable ancestor, which may
// be the whole data entry. Every queued field carries that ancestor's path so
// the rule also holds for values that arrive in a later batch. Once a
// position is nulled, queued work below it is dropped before the next batch.
//
// Errors are collected as located errors with a response path and the query
// location of the field. Execution continues past them where the type system
// allows partial results.
//
// # Cancellation
//
// The context is checked before each batch. When it is done, every queued
// task fails with the context error instead of reaching the Runtime.
package executor
