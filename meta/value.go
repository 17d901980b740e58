// Package meta implements the reflective type surface of the object kernel:
// class descriptors, the process-wide registry, type-erased invoker
// adapters, and the tagged value type used to pass arguments and results
// across that boundary.
package meta

import "fmt"

// Kind is the textual type tag carried by a Value, used for diagnostics and
// for the conversion checks invoker adapters must perform.
type Kind string

// Bounded palette of primitive kinds plus an escape hatch for opaque user
// types: NewValue tags every Go type outside the primitive palette as
// KindObject, and no other Kind can be attached to a Value.
const (
	KindInvalid Kind = ""
	KindBool    Kind = "bool"
	KindInt     Kind = "int"
	KindInt64   Kind = "int64"
	KindFloat64 Kind = "float64"
	KindString  Kind = "string"
	KindObject  Kind = "object"
)

// Value is the sum-type container that crosses the meta boundary: property
// getters/setters, method arguments and return values, and signal emit
// arguments are all Values.
type Value struct {
	kind Kind
	raw  any
}

// Invalid returns the zero Value, used for "no result" (void invocations,
// failed conversions).
func Invalid() Value { return Value{} }

// NewValue wraps v, inferring its Kind from its dynamic Go type. Types with
// no primitive match are tagged KindObject and carried opaquely.
func NewValue(v any) Value {
	switch v.(type) {
	case nil:
		return Invalid()
	case bool:
		return Value{kind: KindBool, raw: v}
	case int:
		return Value{kind: KindInt, raw: v}
	case int64:
		return Value{kind: KindInt64, raw: v}
	case float64:
		return Value{kind: KindFloat64, raw: v}
	case string:
		return Value{kind: KindString, raw: v}
	default:
		return Value{kind: KindObject, raw: v}
	}
}

// Kind reports the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v carries anything (the zero Value is invalid).
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Interface returns the underlying value as any.
func (v Value) Interface() any { return v.raw }

func (v Value) String() string {
	if !v.IsValid() {
		return "<invalid>"
	}
	return fmt.Sprintf("%s(%v)", v.kind, v.raw)
}

// Bool returns the boolean payload and whether v actually holds a bool.
func (v Value) Bool() (bool, bool) {
	b, ok := v.raw.(bool)
	return b, ok
}

// Int returns the int payload and whether v actually holds an int.
func (v Value) Int() (int, bool) {
	i, ok := v.raw.(int)
	return i, ok
}

// Int64 returns the int64 payload and whether v actually holds an int64.
func (v Value) Int64() (int64, bool) {
	i, ok := v.raw.(int64)
	return i, ok
}

// Float64 returns the float64 payload and whether v actually holds a float64.
func (v Value) Float64() (float64, bool) {
	f, ok := v.raw.(float64)
	return f, ok
}

// AsString returns the string payload and whether v actually holds a string.
func (v Value) AsString() (string, bool) {
	s, ok := v.raw.(string)
	return s, ok
}

// As extracts v's payload as T, the generic equivalent of the typed
// accessors above, used by invoker adapters to pull typed arguments out of
// an argv slice.
func As[T any](v Value) (T, bool) {
	t, ok := v.raw.(T)
	return t, ok
}
