// Package params normalizes the loosely-typed form values a workflow hands to
// the ContentStudio node (strings, lists, JSON-encoded strings and nested
// collection objects) into canonical Go values.
package params

import (
	"math"
	"reflect"
	"strconv"
)

// Kind identifies the shape of a raw parameter value.
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindList
	KindObject
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	case KindScalar:
		return "scalar"
	default:
		return "none"
	}
}

// Value is a raw parameter value tagged with its shape. Build one with Of.
type Value struct {
	kind Kind
	str  string
	list []any
	obj  map[string]any
	raw  any
}

// Of classifies v. Typed slices and maps (e.g. []string, []map[string]any)
// are widened to []any and map[string]any.
func Of(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case Value:
		return t
	case string:
		return Value{kind: KindString, str: t, raw: t}
	case []any:
		return Value{kind: KindList, list: t, raw: t}
	case map[string]any:
		return Value{kind: KindObject, obj: t, raw: t}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		list := make([]any, rv.Len())
		for i := range list {
			list[i] = rv.Index(i).Interface()
		}
		return Value{kind: KindList, list: list, raw: v}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{kind: KindScalar, raw: v}
		}
		obj := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			obj[iter.Key().String()] = iter.Value().Interface()
		}
		return Value{kind: KindObject, obj: obj, raw: v}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Value{}
		}
		return Of(rv.Elem().Interface())
	}
	return Value{kind: KindScalar, raw: v}
}

// Kind reports the shape of the value.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether the value is absent.
func (v Value) IsZero() bool { return v.kind == KindNone }

// Raw returns the value as it was passed to Of.
func (v Value) Raw() any { return v.raw }

// Str returns the string payload for KindString values.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// List returns the list payload for KindList values.
func (v Value) List() ([]any, bool) { return v.list, v.kind == KindList }

// Object returns the object payload for KindObject values.
func (v Value) Object() (map[string]any, bool) { return v.obj, v.kind == KindObject }

// Field returns the named entry of an object value.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	raw, ok := v.obj[name]
	if !ok {
		return Value{}, false
	}
	return Of(raw), true
}

// Truthy follows the host's loose truthiness: nil, "", 0, false and NaN are
// false, everything else (including empty lists and objects) is true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	case int:
		return t != 0
	case int64:
		return t != 0
	case int32:
		return t != 0
	case uint:
		return t != 0
	case uint64:
		return t != 0
	}
	return true
}

// Stringify renders scalars the way the remote API expects identifiers:
// integral floats lose their fraction, nil becomes "".
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case interface{ String() string }:
		return t.String()
	}
	return reflectString(v)
}

func reflectString(v any) string {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.String:
		return rv.String()
	}
	return ""
}
