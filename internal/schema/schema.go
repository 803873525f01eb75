package schema

import (
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// Schema is an executable GraphQL schema: the validated gqlparser schema plus
// the set of fields that must be resolved by a registered resolver rather than
// by reading the parent value.
type Schema struct {
	*ast.Schema

	async map[fieldKey]struct{}
}

type fieldKey struct {
	typeName string
	field    string
}

// Load parses and validates sdl. The built-in prelude (scalars, @skip,
// @include, introspection types) is added by the parser.
func Load(name, sdl string) (*Schema, error) {
	s, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", name, err)
	}
	return New(s), nil
}

// New wraps an already validated schema. No field is async.
func New(s *ast.Schema) *Schema {
	return &Schema{Schema: s, async: make(map[fieldKey]struct{})}
}

// SetAsync marks typeName.field as resolver-backed.
func (s *Schema) SetAsync(typeName, field string) *Schema {
	s.async[fieldKey{typeName, field}] = struct{}{}
	return s
}

// IsAsync reports whether typeName.field is resolver-backed.
func (s *Schema) IsAsync(typeName, field string) bool {
	_, ok := s.async[fieldKey{typeName, field}]
	return ok
}

// AsyncFields returns the number of resolver-backed fields.
func (s *Schema) AsyncFields() int { return len(s.async) }

// RootType returns the root object type for op, or nil if the schema does not
// define one.
func (s *Schema) RootType(op ast.Operation) *ast.Definition {
	switch op {
	case ast.Query:
		return s.Query
	case ast.Mutation:
		return s.Mutation
	case ast.Subscription:
		return s.Subscription
	}
	return nil
}

// Type returns the named type definition or nil.
func (s *Schema) Type(name string) *ast.Definition { return s.Types[name] }

// FieldDefinition looks up a field on an object or interface. The meta fields
// __schema and __type are only visible on the query root.
func (s *Schema) FieldDefinition(objectType *ast.Definition, name string) *ast.FieldDefinition {
	if objectType == nil {
		return nil
	}
	if objectType == s.Query {
		switch name {
		case "__schema":
			return schemaMetaField
		case "__type":
			return typeMetaField
		}
	}
	return objectType.Fields.ForName(name)
}

// IsPossibleType reports whether concrete is a possible runtime type of the
// abstract (interface or union) type.
func (s *Schema) IsPossibleType(abstract *ast.Definition, concrete *ast.Definition) bool {
	if abstract == nil || concrete == nil {
		return false
	}
	if abstract.Name == concrete.Name {
		return true
	}
	for _, t := range s.GetPossibleTypes(abstract) {
		if t.Name == concrete.Name {
			return true
		}
	}
	return false
}

var schemaMetaField = &ast.FieldDefinition{
	Name:        "__schema",
	Description: "Access the current type schema of this server.",
	Type:        ast.NonNullNamedType("__Schema", nil),
}

var typeMetaField = &ast.FieldDefinition{
	Name:        "__type",
	Description: "Request the type information of a single type.",
	Arguments: ast.ArgumentDefinitionList{
		{Name: "name", Type: ast.NonNullNamedType("String", nil)},
	},
	Type: ast.NamedType("__Type", nil),
}
