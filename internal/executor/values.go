package executor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"

	schema "github.com/hanpama/catstronauts/internal/schema"
)

// coerceVariableValues coerces the provided variables against the
// operation's variable definitions.
func coerceVariableValues(
	s *schema.Schema,
	operation *ast.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, error) {
	coerced := make(map[string]any)
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variableValues[name]
		if !ok {
			switch {
			case varDef.DefaultValue != nil:
				dv, err := varDef.DefaultValue.Value(nil)
				if err != nil {
					return nil, fmt.Errorf("variable $%s has invalid default value: %w", name, err)
				}
				val = dv
			case t.NonNull:
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, t.String())
			default:
				continue
			}
		}
		if val == nil && t.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, t.String())
		}
		cv, err := coerceInputValue(s, val, t)
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %w", name, t.String(), err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceArgumentValues coerces the arguments of one field. It records an
// error and returns false when a value cannot be coerced.
func coerceArgumentValues(
	state *executionState,
	fieldDef *ast.FieldDefinition,
	arguments ast.ArgumentList,
	path Path,
	fields []*ast.Field,
) (map[string]any, bool) {
	coerced := make(map[string]any, len(fieldDef.Arguments))
	for _, argDef := range fieldDef.Arguments {
		name := argDef.Name
		arg := arguments.ForName(name)

		provided := arg != nil && arg.Value != nil
		if provided && arg.Value.Kind == ast.Variable {
			_, provided = state.variableValues[arg.Value.Raw]
		}

		if !provided {
			switch {
			case argDef.DefaultValue != nil:
				dv, err := argDef.DefaultValue.Value(nil)
				if err == nil {
					dv, err = coerceInputValue(state.schema, dv, argDef.Type)
				}
				if err != nil {
					state.addError(fmt.Sprintf("argument '%s' has invalid default value: %v", name, err), path, fields)
					return nil, false
				}
				coerced[name] = dv
			case argDef.Type.NonNull:
				state.addError(fmt.Sprintf("argument '%s' of required type %s was not provided", name, argDef.Type.String()), path, fields)
				return nil, false
			}
			continue
		}

		val, err := arg.Value.Value(state.variableValues)
		if err == nil {
			val, err = coerceInputValue(state.schema, val, argDef.Type)
		}
		if err != nil {
			state.addError(fmt.Sprintf("argument '%s' cannot be coerced: %v", name, err), path, fields)
			return nil, false
		}
		coerced[name] = val
	}
	return coerced, true
}

// coerceInputValue coerces a Go value to the given input type.
func coerceInputValue(s *schema.Schema, value any, t *ast.Type) (any, error) {
	if t.NonNull {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type %s", t.String())
		}
		return coerceInputValue(s, value, schema.Nullable(t))
	}
	if value == nil {
		return nil, nil
	}

	if schema.IsList(t) {
		inner := schema.Elem(t)
		items, ok := value.([]any)
		if !ok {
			// a single value is coerced to a list of one
			item, err := coerceInputValue(s, value, inner)
			if err != nil {
				return nil, err
			}
			return []any{item}, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			cv, err := coerceInputValue(s, item, inner)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = cv
		}
		return out, nil
	}

	def := s.Type(t.NamedType)
	if def == nil {
		return nil, fmt.Errorf("unknown type %s", t.NamedType)
	}

	switch def.Kind {
	case ast.Scalar:
		return coerceScalar(def.Name, value)
	case ast.Enum:
		name, ok := value.(string)
		if !ok || def.EnumValues.ForName(name) == nil {
			return nil, fmt.Errorf("cannot coerce %v to enum %s", value, def.Name)
		}
		return name, nil
	case ast.InputObject:
		return coerceInputObject(s, def, value)
	default:
		return nil, fmt.Errorf("type %s is not an input type", def.Name)
	}
}

func coerceInputObject(s *schema.Schema, def *ast.Definition, value any) (any, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot coerce %T to input object %s", value, def.Name)
	}
	for key := range obj {
		if def.Fields.ForName(key) == nil {
			return nil, fmt.Errorf("unknown field '%s' on input object %s", key, def.Name)
		}
	}
	out := make(map[string]any, len(def.Fields))
	for _, f := range def.Fields {
		v, present := obj[f.Name]
		if !present {
			switch {
			case f.DefaultValue != nil:
				dv, err := f.DefaultValue.Value(nil)
				if err != nil {
					return nil, err
				}
				v = dv
			case f.Type.NonNull:
				return nil, fmt.Errorf("required field '%s' of input object %s was not provided", f.Name, def.Name)
			default:
				continue
			}
		}
		cv, err := coerceInputValue(s, v, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", f.Name, err)
		}
		out[f.Name] = cv
	}
	return out, nil
}

func coerceScalar(name string, value any) (any, error) {
	switch name {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		if v, ok := value.(string); ok {
			return v, nil
		}
	case "Boolean":
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case "ID":
		return coerceToID(value)
	default:
		return value, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to %s", value, value, name)
}

func coerceToInt(value any) (any, error) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("cannot coerce %v to Int", v)
		}
		n = int64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %v to Int", v)
		}
		n = i
	default:
		return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return nil, fmt.Errorf("cannot coerce %d to Int: out of 32-bit range", n)
	}
	return int(n), nil
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return v.String(), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}
