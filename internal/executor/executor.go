package executor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vektah/gqlparser/v2/ast"

	schema "github.com/hanpama/catstronauts/internal/schema"
)

// Executor runs operations against a schema using a Runtime.
type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, s *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: s}
}

// Schema returns the schema the executor runs against.
func (e *Executor) Schema() *schema.Schema { return e.schema }

// executionState holds the state of a single operation.
type executionState struct {
	ctx            context.Context
	runtime        Runtime
	schema         *schema.Schema
	document       *ast.QueryDocument
	variableValues map[string]any

	pending []pendingTask
	errors  []Error

	// response positions that were set to null; tasks below them are dropped
	nullified map[string]struct{}
	dataNull  bool
}

// pendingTask is an async field waiting for the next batch flush.
type pendingTask struct {
	task   ResolveTask
	fields []*ast.Field
	// nearest nullable position at or above the field
	target Path
}

// asyncPending is the placeholder written for a field until its batch is
// flushed. It is always overwritten or unreachable once execution finishes.
type asyncPending struct{}

// ExecuteRequest executes the named operation of document. operationName may
// be empty when the document holds a single operation.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *ast.QueryDocument,
	operationName string,
	variableValues map[string]any,
	rootValue any,
) *Result {
	operation := getOperation(document, operationName)
	if operation == nil {
		return &Result{Errors: []Error{{Message: "operation not found"}}}
	}

	coerced, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return &Result{Errors: []Error{{Message: err.Error()}}}
	}

	rootType := e.schema.RootType(operation.Operation)
	if rootType == nil {
		return &Result{Errors: []Error{{Message: fmt.Sprintf("root type not found for %s operation", operation.Operation)}}}
	}

	state := &executionState{
		ctx:            ctx,
		runtime:        e.runtime,
		schema:         e.schema,
		document:       document,
		variableValues: coerced,
		errors:         []Error{},
		nullified:      make(map[string]struct{}),
	}

	data := executeSelectionSet(state, rootType, operation.SelectionSet, rootValue, Path{}, Path{})
	if data == nil {
		state.dataNull = true
	}

	// one flush per async depth
	for len(state.pending) > 0 && !state.dataNull {
		tasks := state.takePending()
		if len(tasks) == 0 {
			break
		}
		var results []ResolveResult
		if err := ctx.Err(); err != nil {
			results = make([]ResolveResult, len(tasks))
			for i := range results {
				results[i].Error = err
			}
		} else {
			batch := make([]ResolveTask, len(tasks))
			for i, pt := range tasks {
				batch[i] = pt.task
			}
			results = state.runtime.BatchResolveAsync(ctx, batch)
		}
		for i, pt := range tasks {
			var res ResolveResult
			if i < len(results) {
				res = results[i]
			} else {
				res.Error = fmt.Errorf("runtime returned %d results for %d tasks", len(results), len(tasks))
			}
			completeAsyncField(state, pt, res, data)
			if state.dataNull {
				break
			}
		}
	}

	if state.dataNull {
		return &Result{Data: nil, Errors: state.errors}
	}
	return &Result{Data: data, Errors: state.errors}
}

// executeSelectionSet executes the selection set of one object value. It
// returns nil when a Non-Null child completed to null, which nulls the
// object itself. target is the nearest nullable position at or above path.
func executeSelectionSet(state *executionState, objectType *ast.Definition, selectionSet ast.SelectionSet, objectValue any, path Path, target Path) map[string]any {
	grouped := collectFields(state, objectType, selectionSet)
	resultMap := make(map[string]any, len(grouped.fields))

	for _, cf := range grouped.orderedFields() {
		fieldName := cf.Fields[0].Name
		fieldPath := path.append(cf.ResponseName)

		if fieldName == "__typename" {
			resultMap[cf.ResponseName] = objectType.Name
			continue
		}

		fieldDef := state.schema.FieldDefinition(objectType, fieldName)
		if fieldDef == nil {
			state.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", fieldName, objectType.Name), fieldPath, cf.Fields)
			continue
		}

		fieldTarget := target
		if !schema.IsNonNull(fieldDef.Type) {
			fieldTarget = fieldPath
		}

		value := executeField(state, objectType, fieldDef, objectValue, cf.Fields, fieldPath, fieldTarget)
		if _, ok := value.(asyncPending); ok {
			resultMap[cf.ResponseName] = value
			continue
		}
		if isNullish(value) {
			if schema.IsNonNull(fieldDef.Type) {
				return nil
			}
			state.markNullified(fieldPath)
			resultMap[cf.ResponseName] = nil
			continue
		}
		resultMap[cf.ResponseName] = value
	}

	return resultMap
}

func executeField(state *executionState, objectType *ast.Definition, fieldDef *ast.FieldDefinition, source any, fields []*ast.Field, path Path, target Path) any {
	args, ok := coerceArgumentValues(state, fieldDef, fields[0].Arguments, path, fields)
	if !ok {
		return nil
	}
	task := ResolveTask{
		ObjectType: objectType.Name,
		Field:      fieldDef.Name,
		Source:     source,
		Args:       args,
		Path:       path,
		ReturnType: fieldDef.Type,
	}

	if state.schema.IsAsync(objectType.Name, fieldDef.Name) {
		state.pending = append(state.pending, pendingTask{task: task, fields: fields, target: target})
		return asyncPending{}
	}

	value, err := state.runtime.ResolveSync(state.ctx, task)
	if err != nil {
		state.addError(err.Error(), path, fields)
		return nil
	}
	if isNullish(value) && schema.IsNonNull(fieldDef.Type) {
		state.addNonNullError(task, fields)
		return nil
	}
	return completeValue(state, fieldDef.Type, fields, value, path, target)
}

// takePending drains the queue, dropping tasks below nullified positions.
func (s *executionState) takePending() []pendingTask {
	live := make([]pendingTask, 0, len(s.pending))
	for _, pt := range s.pending {
		if s.hasNullifiedPrefix(pt.task.Path) {
			continue
		}
		live = append(live, pt)
	}
	s.pending = nil
	return live
}

// completeAsyncField writes the completed value of one async task into the
// response tree, propagating null to the task's target when needed.
func completeAsyncField(state *executionState, pt pendingTask, res ResolveResult, data map[string]any) {
	path := pt.task.Path
	if state.hasNullifiedPrefix(path) {
		return
	}

	var completed any
	switch {
	case res.Error != nil:
		state.addError(res.Error.Error(), path, pt.fields)
	case isNullish(res.Value) && schema.IsNonNull(pt.task.ReturnType):
		state.addNonNullError(pt.task, pt.fields)
	default:
		completed = completeValue(state, pt.task.ReturnType, pt.fields, res.Value, path, pt.target)
	}

	if !isNullish(completed) {
		setValueAtPath(data, path, completed)
		return
	}
	if schema.IsNonNull(pt.task.ReturnType) {
		state.nullify(data, pt.target)
		return
	}
	setValueAtPath(data, path, nil)
	state.markNullified(path)
}

// nullify sets the response position p to null and drops everything below.
func (s *executionState) nullify(data map[string]any, p Path) {
	if len(p) == 0 {
		s.dataNull = true
		return
	}
	setValueAtPath(data, p, nil)
	s.markNullified(p)
}

// completeValue completes result against fieldType. target is the nearest
// nullable position at or above path.
func completeValue(state *executionState, fieldType *ast.Type, fields []*ast.Field, result any, path Path, target Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", path), path, fields)
			}
			return nil
		}
		completed := completeValue(state, schema.Nullable(fieldType), fields, result, path, target)
		if isNullish(completed) {
			return nil
		}
		return completed
	}

	if isNullish(result) {
		return nil
	}

	if schema.IsList(fieldType) {
		return completeListValue(state, fieldType, fields, result, path, target)
	}

	namedType := schema.NamedType(fieldType)
	def := state.schema.Type(namedType)
	if def == nil {
		state.addError(fmt.Sprintf("Unknown type: %s", namedType), path, fields)
		return nil
	}

	switch {
	case schema.IsLeaf(def):
		serialized, err := state.runtime.SerializeLeafValue(state.ctx, namedType, result)
		if err != nil {
			state.addError(err.Error(), path, fields)
			return nil
		}
		return serialized
	case def.Kind == ast.Object:
		return completeObjectValue(state, def, fields, result, path, target)
	case schema.IsAbstract(def):
		return completeAbstractValue(state, def, fields, result, path, target)
	default:
		state.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", def.Kind), path, fields)
		return nil
	}
}

func completeListValue(state *executionState, listType *ast.Type, fields []*ast.Field, result any, path Path, target Path) any {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			state.addError(fmt.Sprintf("Expected list value, got %T", result), path, fields)
			return nil
		}
		items = make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Elem(listType)
	completed := make([]any, len(items))
	for i, item := range items {
		itemPath := path.append(i)
		itemTarget := target
		if !schema.IsNonNull(inner) {
			itemTarget = itemPath
		}
		v := completeValue(state, inner, fields, item, itemPath, itemTarget)
		if isNullish(v) {
			if schema.IsNonNull(inner) {
				return nil
			}
			state.markNullified(itemPath)
			completed[i] = nil
			continue
		}
		completed[i] = v
	}
	return completed
}

func completeObjectValue(state *executionState, objectType *ast.Definition, fields []*ast.Field, result any, path Path, target Path) any {
	sub := mergeSelectionSets(fields)
	out := executeSelectionSet(state, objectType, sub, result, path, target)
	if out == nil {
		return nil
	}
	return out
}

func completeAbstractValue(state *executionState, abstractType *ast.Definition, fields []*ast.Field, result any, path Path, target Path) any {
	typeName, err := state.runtime.ResolveType(state.ctx, abstractType.Name, result)
	if err != nil {
		state.addError(err.Error(), path, fields)
		return nil
	}
	objectType := state.schema.Type(typeName)
	if objectType == nil || objectType.Kind != ast.Object {
		state.addError(fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", abstractType.Name, typeName), path, fields)
		return nil
	}
	if !state.schema.IsPossibleType(abstractType, objectType) {
		state.addError(fmt.Sprintf("Runtime Object type %s is not a possible type for %s", typeName, abstractType.Name), path, fields)
		return nil
	}
	return completeObjectValue(state, objectType, fields, result, path, target)
}

func (s *executionState) markNullified(p Path) {
	if len(p) == 0 {
		return
	}
	s.nullified[p.String()] = struct{}{}
}

func (s *executionState) hasNullifiedPrefix(p Path) bool {
	if s.dataNull {
		return true
	}
	if len(s.nullified) == 0 {
		return false
	}
	for i := 1; i <= len(p); i++ {
		if _, ok := s.nullified[p[:i].String()]; ok {
			return true
		}
	}
	return false
}

func (s *executionState) addError(message string, path Path, fields []*ast.Field) {
	e := Error{Message: message, Path: path}
	if len(fields) > 0 && fields[0].Position != nil {
		e.Locations = []Location{{Line: fields[0].Position.Line, Column: fields[0].Position.Column}}
	}
	s.errors = append(s.errors, e)
}

func (s *executionState) addNonNullError(task ResolveTask, fields []*ast.Field) {
	s.addError(fmt.Sprintf("Cannot return null for non-nullable field %s.%s", task.ObjectType, task.Field), task.Path, fields)
}

func (s *executionState) hasErrorAtPath(path Path) bool {
	for _, err := range s.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

// getOperation picks the operation by name, or the only operation when name
// is empty.
func getOperation(document *ast.QueryDocument, operationName string) *ast.OperationDefinition {
	if operationName == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0]
		}
		return nil
	}
	return document.Operations.ForName(operationName)
}

// setValueAtPath writes value into the response tree. Intermediate positions
// must already exist; writes below a missing or null position are ignored.
func setValueAtPath(root map[string]any, path Path, value any) {
	if len(path) == 0 {
		return
	}
	var current any = root
	for _, elem := range path[:len(path)-1] {
		switch e := elem.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return
			}
			current = m[e]
		case int:
			list, ok := current.([]any)
			if !ok || e >= len(list) {
				return
			}
			current = list[e]
		}
	}
	switch last := path[len(path)-1].(type) {
	case string:
		if m, ok := current.(map[string]any); ok {
			m[last] = value
		}
	case int:
		if list, ok := current.([]any); ok && last < len(list) {
			list[last] = value
		}
	}
}

func mergeSelectionSets(fields []*ast.Field) ast.SelectionSet {
	var merged ast.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish returns true for nil interfaces and typed nils.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
