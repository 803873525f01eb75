package introspection

import (
	"github.com/vektah/gqlparser/v2/ast"

	schema "github.com/hanpama/catstronauts/internal/schema"
)

// typeNode is the source value of a __Type. Named types carry def; LIST and
// NON_NULL wrappers carry ofType.
type typeNode struct {
	kind   string
	def    *ast.Definition
	ofType *typeNode
}

// inputValue is the source value of an __InputValue. Arguments and input
// object fields are both described by it.
type inputValue struct {
	name         string
	description  string
	typ          *ast.Type
	defaultValue *ast.Value
	directives   ast.DirectiveList
}

func namedNode(def *ast.Definition) *typeNode {
	if def == nil {
		return nil
	}
	return &typeNode{kind: string(def.Kind), def: def}
}

func typeRefNode(s *schema.Schema, t *ast.Type) *typeNode {
	switch {
	case t == nil:
		return nil
	case t.NonNull:
		return &typeNode{kind: "NON_NULL", ofType: typeRefNode(s, schema.Nullable(t))}
	case t.Elem != nil:
		return &typeNode{kind: "LIST", ofType: typeRefNode(s, t.Elem)}
	default:
		return namedNode(s.Type(t.NamedType))
	}
}

func argumentValues(args ast.ArgumentDefinitionList) []inputValue {
	out := make([]inputValue, 0, len(args))
	for _, a := range args {
		out = append(out, inputValue{
			name:         a.Name,
			description:  a.Description,
			typ:          a.Type,
			defaultValue: a.DefaultValue,
			directives:   a.Directives,
		})
	}
	return out
}

func inputFieldValues(fields ast.FieldList) []inputValue {
	out := make([]inputValue, 0, len(fields))
	for _, f := range fields {
		out = append(out, inputValue{
			name:         f.Name,
			description:  f.Description,
			typ:          f.Type,
			defaultValue: f.DefaultValue,
			directives:   f.Directives,
		})
	}
	return out
}

func deprecation(directives ast.DirectiveList) (bool, any) {
	d := directives.ForName("deprecated")
	if d == nil {
		return false, nil
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return true, arg.Value.Raw
	}
	return true, "No longer supported"
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
