package executor

import (
	"github.com/vektah/gqlparser/v2/ast"
)

// collectedFieldMap groups fields by response name in query order.
type collectedFieldMap struct {
	fields []collectedField
	index  map[string]int
}

type collectedField struct {
	ResponseName string
	Fields       []*ast.Field
}

func newCollectedFieldMap() *collectedFieldMap {
	return &collectedFieldMap{
		fields: make([]collectedField, 0),
		index:  make(map[string]int),
	}
}

func (cfm *collectedFieldMap) add(responseName string, field *ast.Field) {
	if idx, exists := cfm.index[responseName]; exists {
		cfm.fields[idx].Fields = append(cfm.fields[idx].Fields, field)
		return
	}
	cfm.index[responseName] = len(cfm.fields)
	cfm.fields = append(cfm.fields, collectedField{
		ResponseName: responseName,
		Fields:       []*ast.Field{field},
	})
}

func (cfm *collectedFieldMap) orderedFields() []collectedField {
	return cfm.fields
}

func collectFields(state *executionState, objectType *ast.Definition, selectionSet ast.SelectionSet) *collectedFieldMap {
	grouped := newCollectedFieldMap()
	collectFieldsImpl(state, objectType, selectionSet, grouped, make(map[string]bool))
	return grouped
}

func collectFieldsImpl(state *executionState, objectType *ast.Definition, selectionSet ast.SelectionSet, grouped *collectedFieldMap, visitedFragments map[string]bool) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *ast.Field:
			if !shouldIncludeNode(state, sel.Directives) {
				continue
			}
			responseName := sel.Alias
			if responseName == "" {
				responseName = sel.Name
			}
			grouped.add(responseName, sel)

		case *ast.InlineFragment:
			if !shouldIncludeNode(state, sel.Directives) {
				continue
			}
			if !doesFragmentTypeApply(state, objectType, sel.TypeCondition) {
				continue
			}
			collectFieldsImpl(state, objectType, sel.SelectionSet, grouped, visitedFragments)

		case *ast.FragmentSpread:
			if !shouldIncludeNode(state, sel.Directives) {
				continue
			}
			if visitedFragments[sel.Name] {
				continue
			}
			visitedFragments[sel.Name] = true

			fragment := state.document.Fragments.ForName(sel.Name)
			if fragment == nil {
				continue
			}
			if !doesFragmentTypeApply(state, objectType, fragment.TypeCondition) {
				continue
			}
			if !shouldIncludeNode(state, fragment.Directives) {
				continue
			}
			collectFieldsImpl(state, objectType, fragment.SelectionSet, grouped, visitedFragments)
		}
	}
}

// doesFragmentTypeApply reports whether a fragment with the given type
// condition applies to objectType, including interface and union conditions.
func doesFragmentTypeApply(state *executionState, objectType *ast.Definition, typeCondition string) bool {
	if typeCondition == "" || typeCondition == objectType.Name {
		return true
	}
	conditionType := state.schema.Type(typeCondition)
	if conditionType == nil {
		return false
	}
	switch conditionType.Kind {
	case ast.Interface, ast.Union:
		return state.schema.IsPossibleType(conditionType, objectType)
	default:
		return false
	}
}

// shouldIncludeNode evaluates @skip and @include.
func shouldIncludeNode(state *executionState, directives ast.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := directiveArgument(state, skip, "if").(bool); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := directiveArgument(state, include, "if").(bool); ok && !v {
			return false
		}
	}
	return true
}

func directiveArgument(state *executionState, directive *ast.Directive, name string) any {
	arg := directive.Arguments.ForName(name)
	if arg == nil || arg.Value == nil {
		return nil
	}
	v, err := arg.Value.Value(state.variableValues)
	if err != nil {
		return nil
	}
	return v
}
