package executor

import (
	"context"
	"fmt"
	"reflect"

	language "github.com/hanpama/usergraph/internal/language"
	schema "github.com/hanpama/usergraph/internal/schema"
)

type Path []PathElement

type PathElement any

// executionState holds the state during query execution
type executionState struct {
	runtime        Runtime
	schema         *schema.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	context        context.Context
	asyncTaskGroup []asyncTask
	errors         []GraphQLError
	// prefixes of paths that have been nullified (tombstoned)
	nullifiedPrefix map[string]struct{}
	// set when null propagated past every root field
	dataNull bool
}

// asyncTask represents a pending async field resolution
type asyncTask struct {
	Task         ResolveTask
	ResponsePath Path
	// Boundary is where a null lands when this field is Non-Null and fails:
	// the nearest nullable ancestor, or the empty path for data itself.
	Boundary  Path
	FieldType *schema.TypeRef
	Fields    []*language.Field
}

type asyncPending struct{}

type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// Schema returns the schema the executor validates and executes against.
func (e *Executor) Schema() *schema.Schema { return e.schema }

func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation, gqlErr := getOperation(document, operationName)
	if gqlErr != nil {
		return &ExecutionResult{Errors: []GraphQLError{*gqlErr}}
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	default:
		return &ExecutionResult{Errors: []GraphQLError{validationError(fmt.Sprintf("unsupported operation type: %s", operation.Operation), nil)}}
	}
	if rootType == nil {
		return &ExecutionResult{Errors: []GraphQLError{validationError(fmt.Sprintf("Schema is not configured for %ss.", operation.Operation), nil)}}
	}

	if errs := validateOperation(e.schema, document, operation, rootType); len(errs) > 0 {
		return &ExecutionResult{Errors: errs}
	}

	coercedVariableValues, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{validationError(err.Error(), nil)}}
	}

	if err := ctx.Err(); err != nil {
		return &ExecutionResult{Errors: []GraphQLError{resolutionError(err.Error(), nil)}}
	}

	state := &executionState{
		runtime:         e.runtime,
		schema:          e.schema,
		document:        document,
		variableValues:  coercedVariableValues,
		context:         ctx,
		errors:          []GraphQLError{},
		nullifiedPrefix: make(map[string]struct{}),
	}

	responseRoot := make(map[string]any)
	grouped := collectFields(state, rootType, operation.SelectionSet)

	if operation.Operation == language.Mutation {
		// Root mutation fields run one after another; each field's subtree
		// is fully completed before the next field starts.
		for _, cf := range grouped {
			if state.dataNull {
				break
			}
			for k, v := range executeFields(state, rootType, []collectedField{cf}, initialValue, Path{}, Path{}) {
				responseRoot[k] = v
			}
			state.drain(responseRoot)
		}
	} else {
		for k, v := range executeFields(state, rootType, grouped, initialValue, Path{}, Path{}) {
			responseRoot[k] = v
		}
		state.drain(responseRoot)
	}

	if state.dataNull {
		return &ExecutionResult{Data: nil, Errors: state.errors}
	}
	return &ExecutionResult{Data: responseRoot, Errors: state.errors}
}

// drain runs the depth-wise batch loop until no async work is queued.
func (s *executionState) drain(responseRoot map[string]any) {
	for len(s.asyncTaskGroup) > 0 && !s.dataNull {
		if err := s.context.Err(); err != nil {
			pending := s.asyncTaskGroup
			s.asyncTaskGroup = nil
			for _, at := range pending {
				completeAsyncField(s, at, AsyncResolveResult{Error: err}, responseRoot)
			}
			return
		}
		filtered, results := flushAsyncTasks(s)
		for i, at := range filtered {
			var r AsyncResolveResult
			if i < len(results) {
				r = results[i]
			} else {
				r.Error = fmt.Errorf("runtime returned %d results for %d tasks", len(results), len(filtered))
			}
			completeAsyncField(s, at, r, responseRoot)
		}
	}
	s.asyncTaskGroup = nil
}

// executeSelectionSet executes a selection set without flushing
func executeSelectionSet(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path, boundary Path) map[string]any {
	groupedFields := collectFields(state, objectType, selectionSet)
	return executeFields(state, objectType, groupedFields, objectValue, path, boundary)
}

// executeFields executes collected fields of one object. It returns nil when
// a Non-Null field came back null, so the object itself must become null.
// boundary is the nearest nullable position at or above the object.
func executeFields(state *executionState, objectType *schema.Type, fields []collectedField, objectValue any, path, boundary Path) map[string]any {
	resultMap := make(map[string]any, len(fields))

	for _, collectedField := range fields {
		responseName := collectedField.ResponseName
		fieldPath := appendPath(path, responseName)

		fieldResult := executeFieldGroup(state, objectType, objectValue, collectedField.Fields, fieldPath, boundary)

		if collectedField.Fields[0].Name == "__typename" {
			resultMap[responseName] = fieldResult
			continue
		}

		fieldDef := objectType.Field(collectedField.Fields[0].Name)
		if fieldDef == nil {
			continue
		}

		if schema.IsNonNull(fieldDef.Type) && isNullish(fieldResult) {
			if len(path) > 0 {
				state.markNullifiedPrefix(path)
				return nil
			}
			state.dataNull = true
			resultMap[responseName] = nil
			continue
		}

		if isNullish(fieldResult) {
			resultMap[responseName] = nil
		} else {
			resultMap[responseName] = fieldResult
		}
	}

	return resultMap
}

func executeFieldGroup(state *executionState, objectType *schema.Type, objectValue any, fields []*language.Field, path, boundary Path) any {
	field := fields[0]
	fieldName := field.Name

	if fieldName == "__typename" {
		return objectType.Name
	}

	fieldDef := objectType.Field(fieldName)
	if fieldDef == nil {
		state.errors = append(state.errors, validationError(
			fmt.Sprintf("Cannot query field %q on type %q.", fieldName, objectType.Name), path, locationOf(field.Position)))
		return nil
	}

	argumentValues, err := coerceArgumentValues(state.schema, objectType, fieldDef, field.Arguments, state.variableValues)
	if err != nil {
		state.errors = append(state.errors, validationError(err.Error(), path, locationOf(field.Position)))
		return nil
	}

	task := ResolveTask{
		ObjectType: objectType.Name,
		Field:      fieldName,
		Source:     objectValue,
		Args:       argumentValues,
		Path:       path,
	}
	if !fieldDef.Async {
		resolvedValue := resolveSyncField(state, task)
		return completeValue(state, fieldDef.Type, fields, resolvedValue, path, nullableBoundary(fieldDef.Type, path, boundary))
	}
	state.asyncTaskGroup = append(state.asyncTaskGroup, asyncTask{
		Task:         task,
		ResponsePath: path,
		Boundary:     boundary,
		FieldType:    fieldDef.Type,
		Fields:       fields,
	})
	return asyncPending{}
}

// flushAsyncTasks flushes tasks and returns results (filtered by tombstones)
func flushAsyncTasks(state *executionState) ([]asyncTask, []AsyncResolveResult) {
	filtered := make([]asyncTask, 0, len(state.asyncTaskGroup))
	for _, at := range state.asyncTaskGroup {
		if state.hasNullifiedPrefix(at.ResponsePath) {
			continue
		}
		filtered = append(filtered, at)
	}
	state.asyncTaskGroup = nil
	if len(filtered) == 0 {
		return nil, nil
	}

	tasks := make([]ResolveTask, len(filtered))
	for i, at := range filtered {
		tasks[i] = at.Task
	}
	results := state.runtime.BatchResolveAsync(state.context, tasks)
	return filtered, results
}

// completeAsyncField completes a single async result, with non-null propagation and pruning
func completeAsyncField(state *executionState, at asyncTask, res AsyncResolveResult, responseRoot map[string]any) {
	path := at.ResponsePath
	if state.dataNull || state.hasNullifiedPrefix(path) {
		return
	}

	if res.Error != nil {
		state.errors = append(state.errors, errorFromResolver(res.Error, path))
		if schema.IsNonNull(at.FieldType) {
			state.nullify(responseRoot, at.Boundary)
			return
		}
		setValueAtPath(responseRoot, path, nil)
		return
	}

	completed := completeValue(state, at.FieldType, at.Fields, res.Value, path, nullableBoundary(at.FieldType, path, at.Boundary))

	if schema.IsNonNull(at.FieldType) && isNullish(completed) {
		state.nullify(responseRoot, at.Boundary)
		return
	}

	if isNullish(completed) {
		setValueAtPath(responseRoot, path, nil)
	} else {
		setValueAtPath(responseRoot, path, completed)
	}
}

// nullify writes null at boundary and drops all pending work beneath it.
func (s *executionState) nullify(responseRoot map[string]any, boundary Path) {
	if len(boundary) == 0 {
		s.dataNull = true
		s.asyncTaskGroup = nil
		return
	}
	setValueAtPath(responseRoot, boundary, nil)
	s.markNullifiedPrefix(boundary)
}

// nullableBoundary returns the position that absorbs a null produced below a
// value of type t at path.
func nullableBoundary(t *schema.TypeRef, path, parent Path) Path {
	if schema.IsNonNull(t) {
		return parent
	}
	return path
}

// completeValue completes a value. boundary is the nearest nullable position
// at or above path, used by async descendants.
func completeValue(state *executionState, fieldType *schema.TypeRef, fields []*language.Field, result any, path, boundary Path) any {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.errors = append(state.errors, resolutionError(fmt.Sprintf("Cannot return null for non-nullable field %s", pathToString(path)), path))
			}
			return nil
		}
		completed := completeValue(state, schema.Unwrap(fieldType), fields, result, path, boundary)
		if isNullish(completed) {
			return nil
		}
		return completed
	}

	if isNullish(result) {
		return nil
	}

	if schema.IsList(fieldType) {
		return completeListValue(state, fieldType, fields, result, path, boundary)
	}
	namedType := schema.GetNamedType(fieldType)
	typeObj := state.schema.Types[namedType]
	if typeObj == nil {
		state.errors = append(state.errors, resolutionError(fmt.Sprintf("Unknown type: %s", namedType), path))
		return nil
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		serialized, err := state.runtime.SerializeLeafValue(state.context, namedType, result)
		if err != nil {
			state.errors = append(state.errors, resolutionError(err.Error(), path))
			return nil
		}
		return serialized
	case schema.TypeKindObject:
		return completeObjectValue(state, typeObj, fields, result, path, boundary)
	default:
		state.errors = append(state.errors, resolutionError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typeObj.Kind), path))
		return nil
	}
}

// completeListValue completes a list value. Elements keep the order of the
// resolved sequence; a failed nullable element becomes null in place.
func completeListValue(state *executionState, listType *schema.TypeRef, fields []*language.Field, result any, path, boundary Path) any {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			state.errors = append(state.errors, resolutionError(fmt.Sprintf("Expected list value, got %T", result), path))
			return nil
		}
		items = make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Unwrap(listType)
	completed := make([]any, len(items))
	for i, item := range items {
		p := appendPath(path, i)
		v := completeValue(state, inner, fields, item, p, nullableBoundary(inner, p, boundary))
		if schema.IsNonNull(inner) && isNullish(v) {
			state.markNullifiedPrefix(path)
			return nil
		}
		if isNullish(v) {
			completed[i] = nil
		} else {
			completed[i] = v
		}
	}
	return completed
}

func completeObjectValue(state *executionState, objectType *schema.Type, fields []*language.Field, result any, path, boundary Path) any {
	if obj := executeSelectionSet(state, objectType, mergeSelectionSets(fields), result, path, boundary); obj != nil {
		return obj
	}
	return nil
}

func pathToString(path Path) string {
	result := ""
	for i, elem := range path {
		if i > 0 {
			result += "."
		}
		switch v := elem.(type) {
		case string:
			result += v
		case int:
			result += fmt.Sprintf("[%d]", v)
		}
	}
	return result
}

func appendPath(path Path, elem PathElement) Path {
	newPath := make(Path, len(path)+1)
	copy(newPath, path)
	newPath[len(path)] = elem
	return newPath
}

// Prefix tombstone helpers
func (s *executionState) markNullifiedPrefix(p Path) {
	key := pathToString(p)
	if key != "" {
		s.nullifiedPrefix[key] = struct{}{}
	}
}

func (s *executionState) hasNullifiedPrefix(p Path) bool {
	if len(s.nullifiedPrefix) == 0 {
		return false
	}
	cur := Path{}
	for _, elem := range p {
		cur = append(cur, elem)
		if _, ok := s.nullifiedPrefix[pathToString(cur)]; ok {
			return true
		}
	}
	return false
}

// getOperation retrieves the operation from the document
func getOperation(document *language.QueryDocument, operationName string) (*language.OperationDefinition, *GraphQLError) {
	if len(document.Operations) == 0 {
		err := validationError("document contains no operations", nil)
		return nil, &err
	}
	if operationName == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0], nil
		}
		err := validationError("operationName is required when the document contains multiple operations", nil)
		return nil, &err
	}
	if op := document.Operations.ForName(operationName); op != nil {
		return op, nil
	}
	err := validationError(fmt.Sprintf("Unknown operation named %q.", operationName), nil)
	return nil, &err
}

// hasErrorAtPath reports whether an error with the given path already exists.
func (state *executionState) hasErrorAtPath(path Path) bool {
	for _, err := range state.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

// resolveSyncField resolves a field synchronously
func resolveSyncField(state *executionState, task ResolveTask) any {
	value, err := state.runtime.ResolveSync(state.context, task)
	if err != nil {
		state.errors = append(state.errors, errorFromResolver(err, task.Path))
		return nil
	}
	return value
}

// errorFromResolver locates a runtime error at path, keeping the extensions
// of errors that are already GraphQL errors.
func errorFromResolver(err error, path Path) GraphQLError {
	var gqlErr GraphQLError
	switch e := err.(type) {
	case GraphQLError:
		gqlErr = e
	case *GraphQLError:
		gqlErr = *e
	default:
		return resolutionError(err.Error(), path)
	}
	gqlErr.Path = path
	if gqlErr.Code() == "" {
		ext := map[string]any{"code": CodeResolution}
		for k, v := range gqlErr.Extensions {
			ext[k] = v
		}
		gqlErr.Extensions = ext
	}
	return gqlErr
}

// Helper function to set value at a specific path in response tree
func setValueAtPath(responseRoot map[string]any, path Path, value any) {
	if len(path) == 0 {
		return
	}
	current := any(responseRoot)
	for _, elem := range path[:len(path)-1] {
		switch e := elem.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return
			}
			next, exists := m[e]
			if !exists {
				next = make(map[string]any)
				m[e] = next
			}
			current = next
		case int:
			slice, ok := current.([]any)
			if !ok || e >= len(slice) {
				return
			}
			current = slice[e]
		}
	}
	switch fe := path[len(path)-1].(type) {
	case string:
		if m, ok := current.(map[string]any); ok {
			m[fe] = value
		}
	case int:
		if slice, ok := current.([]any); ok && fe < len(slice) {
			slice[fe] = value
		}
	}
}

// mergeSelectionSets merges selection sets from multiple fields
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
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

func locationOf(pos *language.Position) Location {
	if pos == nil {
		return Location{}
	}
	return Location{Line: pos.Line, Column: pos.Column}
}
