// Package introspection answers __schema and __type queries from the
// executable schema.
package introspection

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	executor "github.com/hanpama/catstronauts/internal/executor"
	schema "github.com/hanpama/catstronauts/internal/schema"
)

// ErrDisabled is returned for introspection fields by a Disabled runtime.
var ErrDisabled = errors.New("introspection is disabled")

// Wrap returns a Runtime that resolves the introspection meta fields and
// the __Schema, __Type, __Field, __InputValue, __EnumValue and __Directive
// types from s. Everything else goes to base.
func Wrap(base executor.Runtime, s *schema.Schema) executor.Runtime {
	return &runtime{base: base, schema: s}
}

// Disabled returns a Runtime that fails __schema and __type with
// ErrDisabled.
func Disabled(base executor.Runtime, s *schema.Schema) executor.Runtime {
	return &runtime{base: base, schema: s, disabled: true}
}

type runtime struct {
	base     executor.Runtime
	schema   *schema.Schema
	disabled bool
}

func (r *runtime) ResolveSync(ctx context.Context, task executor.ResolveTask) (any, error) {
	if r.schema.Query != nil && task.ObjectType == r.schema.Query.Name {
		switch task.Field {
		case "__schema", "__type":
			if r.disabled {
				return nil, ErrDisabled
			}
			if task.Field == "__schema" {
				return r.schema, nil
			}
			name, _ := task.Args["name"].(string)
			return namedNode(r.schema.Type(name)), nil
		}
	}

	if r.disabled {
		return r.base.ResolveSync(ctx, task)
	}

	switch task.ObjectType {
	case "__Schema":
		return r.schemaField(task.Field), nil
	case "__Type":
		if t, ok := task.Source.(*typeNode); ok {
			return r.typeField(t, task.Field, task.Args), nil
		}
	case "__Field":
		if f, ok := task.Source.(*ast.FieldDefinition); ok {
			return r.fieldField(f, task.Field, task.Args), nil
		}
	case "__InputValue":
		if v, ok := task.Source.(inputValue); ok {
			return r.inputValueField(v, task.Field), nil
		}
	case "__EnumValue":
		if v, ok := task.Source.(*ast.EnumValueDefinition); ok {
			return enumValueField(v, task.Field), nil
		}
	case "__Directive":
		if d, ok := task.Source.(*ast.DirectiveDefinition); ok {
			return directiveField(d, task.Field, task.Args), nil
		}
	}
	return r.base.ResolveSync(ctx, task)
}

func (r *runtime) BatchResolveAsync(ctx context.Context, tasks []executor.ResolveTask) []executor.ResolveResult {
	return r.base.BatchResolveAsync(ctx, tasks)
}

func (r *runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return r.base.ResolveType(ctx, abstractType, value)
}

func (r *runtime) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	return r.base.SerializeLeafValue(ctx, typeName, value)
}

func (r *runtime) schemaField(field string) any {
	s := r.schema
	switch field {
	case "description":
		return optional(s.Description)
	case "types":
		names := make([]string, 0, len(s.Types))
		for name := range s.Types {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]*typeNode, len(names))
		for i, name := range names {
			out[i] = namedNode(s.Types[name])
		}
		return out
	case "queryType":
		return namedNode(s.Query)
	case "mutationType":
		return namedNode(s.Mutation)
	case "subscriptionType":
		return namedNode(s.Subscription)
	case "directives":
		names := make([]string, 0, len(s.Directives))
		for name := range s.Directives {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]*ast.DirectiveDefinition, len(names))
		for i, name := range names {
			out[i] = s.Directives[name]
		}
		return out
	}
	return nil
}

func (r *runtime) typeField(t *typeNode, field string, args map[string]any) any {
	if t.def == nil {
		switch field {
		case "kind":
			return t.kind
		case "ofType":
			return t.ofType
		}
		return nil
	}

	def := t.def
	includeDeprecated, _ := args["includeDeprecated"].(bool)
	switch field {
	case "kind":
		return t.kind
	case "name":
		return def.Name
	case "description":
		return optional(def.Description)
	case "specifiedByURL":
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil && arg.Value != nil {
				return arg.Value.Raw
			}
		}
		return nil
	case "fields":
		if def.Kind != ast.Object && def.Kind != ast.Interface {
			return nil
		}
		out := []*ast.FieldDefinition{}
		for _, f := range def.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			if deprecated, _ := deprecation(f.Directives); deprecated && !includeDeprecated {
				continue
			}
			out = append(out, f)
		}
		return out
	case "interfaces":
		if def.Kind != ast.Object && def.Kind != ast.Interface {
			return nil
		}
		out := []*typeNode{}
		for _, name := range def.Interfaces {
			if n := namedNode(r.schema.Type(name)); n != nil {
				out = append(out, n)
			}
		}
		return out
	case "possibleTypes":
		if def.Kind != ast.Interface && def.Kind != ast.Union {
			return nil
		}
		out := []*typeNode{}
		for _, pt := range r.schema.GetPossibleTypes(def) {
			out = append(out, namedNode(pt))
		}
		return out
	case "enumValues":
		if def.Kind != ast.Enum {
			return nil
		}
		out := []*ast.EnumValueDefinition{}
		for _, v := range def.EnumValues {
			if deprecated, _ := deprecation(v.Directives); deprecated && !includeDeprecated {
				continue
			}
			out = append(out, v)
		}
		return out
	case "inputFields":
		if def.Kind != ast.InputObject {
			return nil
		}
		return filterDeprecated(inputFieldValues(def.Fields), includeDeprecated)
	case "isOneOf":
		if def.Kind != ast.InputObject {
			return nil
		}
		return def.Directives.ForName("oneOf") != nil
	}
	return nil
}

func (r *runtime) fieldField(f *ast.FieldDefinition, field string, args map[string]any) any {
	switch field {
	case "name":
		return f.Name
	case "description":
		return optional(f.Description)
	case "args":
		includeDeprecated, _ := args["includeDeprecated"].(bool)
		return filterDeprecated(argumentValues(f.Arguments), includeDeprecated)
	case "type":
		return typeRefNode(r.schema, f.Type)
	case "isDeprecated":
		deprecated, _ := deprecation(f.Directives)
		return deprecated
	case "deprecationReason":
		_, reason := deprecation(f.Directives)
		return reason
	}
	return nil
}

func (r *runtime) inputValueField(v inputValue, field string) any {
	switch field {
	case "name":
		return v.name
	case "description":
		return optional(v.description)
	case "type":
		return typeRefNode(r.schema, v.typ)
	case "defaultValue":
		if v.defaultValue == nil {
			return nil
		}
		return v.defaultValue.String()
	case "isDeprecated":
		deprecated, _ := deprecation(v.directives)
		return deprecated
	case "deprecationReason":
		_, reason := deprecation(v.directives)
		return reason
	}
	return nil
}

func enumValueField(v *ast.EnumValueDefinition, field string) any {
	switch field {
	case "name":
		return v.Name
	case "description":
		return optional(v.Description)
	case "isDeprecated":
		deprecated, _ := deprecation(v.Directives)
		return deprecated
	case "deprecationReason":
		_, reason := deprecation(v.Directives)
		return reason
	}
	return nil
}

func directiveField(d *ast.DirectiveDefinition, field string, args map[string]any) any {
	switch field {
	case "name":
		return d.Name
	case "description":
		return optional(d.Description)
	case "isRepeatable":
		return d.IsRepeatable
	case "locations":
		out := make([]string, len(d.Locations))
		for i, l := range d.Locations {
			out[i] = string(l)
		}
		return out
	case "args":
		includeDeprecated, _ := args["includeDeprecated"].(bool)
		return filterDeprecated(argumentValues(d.Arguments), includeDeprecated)
	}
	return nil
}

func filterDeprecated(values []inputValue, includeDeprecated bool) []inputValue {
	if includeDeprecated {
		return values
	}
	out := values[:0]
	for _, v := range values {
		if deprecated, _ := deprecation(v.directives); !deprecated {
			out = append(out, v)
		}
	}
	return out
}
