// Package value implements the hierarchical, order-preserving value tree
// shared by the format codecs, the merge engine and the git source: the
// single in-memory representation every property source is parsed into
// before it is merged, flattened or re-emitted.
package value

import "math"

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the tagged sum type at the root of the config data model:
// Null | Bool | Int | Float | String | Array | Object. Values are
// immutable once constructed.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  *OrderedMap
}

// Null is the zero Value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(i int64) Value { return Value{kind: KindInt, i: i} }

func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

func String(s string) Value { return Value{kind: KindString, s: s} }

// Array wraps a slice of Values. The slice is copied so callers may not
// mutate a constructed Value through its original slice.
func Array(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)

	return Value{kind: KindArray, arr: cp}
}

// Object wraps an OrderedMap. Ownership of the map transfers to the Value.
func Object(m *OrderedMap) Value {
	if m == nil {
		m = NewOrderedMap()
	}

	return Value{kind: KindObject, obj: m}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}

	return v.b, true
}

func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}

	return v.i, true
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}

	return v.f, true
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}

	return v.s, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}

	return v.arr, true
}

func (v Value) AsObject() (*OrderedMap, bool) {
	if v.kind != KindObject {
		return nil, false
	}

	return v.obj, true
}

// Scalar reports whether v is anything other than Object. Arrays count
// as scalar here, although Flatten expands them into indexed keys.
func (v Value) Scalar() bool { return v.kind != KindObject }

// Clone returns a deep, independent copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		cp := make([]Value, len(v.arr))
		for i, e := range v.arr {
			cp[i] = e.Clone()
		}

		return Value{kind: KindArray, arr: cp}
	case KindObject:
		return Value{kind: KindObject, obj: v.obj.Clone()}
	default:
		return v
	}
}

// Equal performs structural equality. Floats compare by bit-identical
// IEEE-754 representation so that NaN equals NaN, letting Values be used
// as map/set keys and in reproducible test fixtures.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return math.Float64bits(v.f) == math.Float64bits(o.f)
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}

		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}

		return true
	case KindObject:
		return v.obj.Equal(o.obj)
	default:
		return false
	}
}
