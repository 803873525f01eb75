package resolver

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Property reads the field name from source. Maps are read by key; structs
// by json tag, then by case-insensitive field name. Pointers are followed.
// Anything that does not carry the field yields nil.
func Property(source any, name string) any {
	if source == nil {
		return nil
	}
	if m, ok := source.(map[string]any); ok {
		return m[name]
	}

	rv := reflect.ValueOf(source)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil
		}
		return v.Interface()
	case reflect.Struct:
		index, ok := structField(rv.Type(), name)
		if !ok {
			return nil
		}
		// a nil embedded pointer carries no promoted fields
		f, err := rv.FieldByIndexErr(index)
		if err != nil {
			return nil
		}
		return f.Interface()
	default:
		return nil
	}
}

// structField finds the field by json tag, then by case-insensitive name.
// Fields promoted from embedded structs are visible; outer fields shadow
// them.
func structField(t reflect.Type, name string) ([]int, bool) {
	var fallback []int
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == "-" {
			continue
		}
		if f.Anonymous && tag == "" && underlyingStruct(f.Type) {
			continue
		}
		if tag == name {
			return f.Index, true
		}
		if fallback == nil && strings.EqualFold(f.Name, name) {
			fallback = f.Index
		}
	}
	return fallback, fallback != nil
}

func underlyingStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// SerializeLeaf converts a scalar or enum value into its JSON form.
func SerializeLeaf(typeName string, value any) (any, error) {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, nil
	}

	switch typeName {
	case "Int":
		return serializeInt(rv)
	case "Float":
		switch {
		case rv.CanFloat():
			return rv.Float(), nil
		case rv.CanInt():
			return float64(rv.Int()), nil
		case rv.CanUint():
			return float64(rv.Uint()), nil
		}
	case "String":
		if rv.Kind() == reflect.String {
			return rv.String(), nil
		}
		if s, ok := rv.Interface().(fmt.Stringer); ok {
			return s.String(), nil
		}
	case "ID":
		switch {
		case rv.Kind() == reflect.String:
			return rv.String(), nil
		case rv.CanInt():
			return strconv.FormatInt(rv.Int(), 10), nil
		case rv.CanUint():
			return strconv.FormatUint(rv.Uint(), 10), nil
		}
		if s, ok := rv.Interface().(fmt.Stringer); ok {
			return s.String(), nil
		}
	case "Boolean":
		if rv.Kind() == reflect.Bool {
			return rv.Bool(), nil
		}
	default:
		// enums serialize to their name; custom scalars pass through
		if rv.Kind() == reflect.String {
			return rv.String(), nil
		}
		if s, ok := rv.Interface().(fmt.Stringer); ok {
			return s.String(), nil
		}
		return rv.Interface(), nil
	}
	return nil, fmt.Errorf("%s cannot represent value: %v (%T)", typeName, value, value)
}

func serializeInt(rv reflect.Value) (any, error) {
	var n int64
	switch {
	case rv.CanInt():
		n = rv.Int()
	case rv.CanUint():
		if rv.Uint() > math.MaxInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %d", rv.Uint())
		}
		n = int64(rv.Uint())
	case rv.CanFloat():
		f := rv.Float()
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %v", f)
		}
		if f > math.MaxInt32 || f < math.MinInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %v", f)
		}
		n = int64(f)
	default:
		return nil, fmt.Errorf("Int cannot represent value: %v (%s)", rv.Interface(), rv.Type())
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %d", n)
	}
	return int32(n), nil
}
