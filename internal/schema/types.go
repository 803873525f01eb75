package schema

import "github.com/vektah/gqlparser/v2/ast"

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *ast.Type) bool { return t != nil && t.NonNull }

// IsList reports whether the type is a list, ignoring an outer Non-Null.
func IsList(t *ast.Type) bool { return t != nil && t.Elem != nil }

// Nullable strips an outer Non-Null wrapper.
func Nullable(t *ast.Type) *ast.Type {
	if t == nil || !t.NonNull {
		return t
	}
	return &ast.Type{NamedType: t.NamedType, Elem: t.Elem, Position: t.Position}
}

// Elem returns the item type of a list type.
func Elem(t *ast.Type) *ast.Type { return Nullable(t).Elem }

// NamedType returns the innermost named type for the given reference.
func NamedType(t *ast.Type) string {
	if t == nil {
		return ""
	}
	return t.Name()
}

// IsLeaf reports whether def is a scalar or enum.
func IsLeaf(def *ast.Definition) bool {
	return def != nil && (def.Kind == ast.Scalar || def.Kind == ast.Enum)
}

// IsAbstract reports whether def is an interface or union.
func IsAbstract(def *ast.Definition) bool {
	return def != nil && (def.Kind == ast.Interface || def.Kind == ast.Union)
}
