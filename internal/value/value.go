// Package value implements the polymorphic runtime value model shared
// by the interpreter and the source-code back end's runtime ABI: a
// tagged union with Null, Bool, Int, Double, String, List, Map and a
// Custom escape hatch for embedder-supplied types.
package value

import (
	"fmt"
	"sort"
	"strconv"
)

// Kind identifies which case of the Value union is active.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindList
	KindMap
	KindCustom
)

// Custom is the capability set an embedder implements to expose its
// own types to templates without going through the built-in kinds.
type Custom interface {
	String() string
	Int() int64
	Double() float64
	Bool() bool
	MemberByName(name string) (Value, bool)
	MemberByIndex(i int) (Value, bool)
	KeyAt(i int) (Value, bool)
	Len() int
}

// Value is the sealed tagged-union runtime datum. The zero Value is
// Null. Values are immutable; iteration, member access and coercion
// never mutate the receiver.
type Value struct {
	kind   Kind
	b      bool
	i      int64
	d      float64
	s      string
	list   []Value
	keys   []string
	mp     map[string]Value
	custom Custom
}

// Null is the shared singleton every "soft miss" resolves to: unknown
// variables, unknown members, and out-of-range indices all return
// this exact Value so callers can compare against it by identity of
// meaning (Kind() == KindNull), not by address — Go values are copied,
// so address stability is expressed as "always this Kind, never an
// error" rather than a pointer.
var Null = Value{kind: KindNull}

// NewBool wraps a bool.
func NewBool(b bool) Value { return Value{kind: KindBool, b: b} }

// NewInt wraps a signed 64-bit integer.
func NewInt(i int64) Value { return Value{kind: KindInt, i: i} }

// NewDouble wraps a float64.
func NewDouble(d float64) Value { return Value{kind: KindDouble, d: d} }

// NewString wraps a string.
func NewString(s string) Value { return Value{kind: KindString, s: s} }

// NewList wraps an ordered list of values.
func NewList(items []Value) Value { return Value{kind: KindList, list: items} }

// NewMap wraps a string-keyed map, preserving the given key order for
// iteration (the map itself has no order, so callers that care about
// iteration order should pass keys sorted or in insertion order).
func NewMap(keys []string, m map[string]Value) Value {
	return Value{kind: KindMap, keys: keys, mp: m}
}

// NewMapUnordered builds a map Value from a plain Go map, iterating
// its keys in sorted order for reproducible rendering.
func NewMapUnordered(m map[string]Value) Value {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return NewMap(keys, m)
}

// NewCustom wraps an embedder-supplied Custom value.
func NewCustom(c Custom) Value { return Value{kind: KindCustom, custom: c} }

// Kind reports which case of the union is active.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the Empty/Null singleton.
func (v Value) IsNull() bool { return v.kind == KindNull }

// ToString implements the total string coercion of the Value model:
// every kind has a defined, panic-free textual form.
func (v Value) ToString() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		if v.b {
			return "1"
		}
		return ""
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return strconv.FormatFloat(v.d, 'g', -1, 64)
	case KindString:
		return v.s
	case KindList:
		return fmt.Sprintf("Array(%d)", len(v.list))
	case KindMap:
		return "Array"
	case KindCustom:
		return v.custom.String()
	default:
		return ""
	}
}

// ToInt implements the total numeric coercion: strings parse via
// strconv, non-numeric strings coerce to 0, exactly as spec'd in
// SPEC_FULL.md's resolution of the numeric<->string open question.
func (v Value) ToInt() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindDouble:
		return int64(v.d)
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(v.s, 64); err == nil {
			return int64(f)
		}
		return 0
	case KindCustom:
		return v.custom.Int()
	default:
		return 0
	}
}

// ToDouble is ToInt's floating counterpart.
func (v Value) ToDouble() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindDouble:
		return v.d
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		if f, err := strconv.ParseFloat(v.s, 64); err == nil {
			return f
		}
		return 0
	case KindCustom:
		return v.custom.Double()
	default:
		return 0
	}
}

// ToBool implements the total boolean coercion.
func (v Value) ToBool() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindDouble:
		return v.d != 0
	case KindString:
		return v.s != ""
	case KindList:
		return len(v.list) > 0
	case KindMap:
		return len(v.keys) > 0
	case KindCustom:
		return v.custom.Bool()
	default:
		return false
	}
}

// Size returns the string length of the value's ToString() form, per
// the Value model's size() capability.
func (v Value) Size() int {
	return len(v.ToString())
}

// MemberCount returns how many members v exposes for iteration.
func (v Value) MemberCount() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.keys)
	case KindCustom:
		return v.custom.Len()
	default:
		return 0
	}
}

// MemberByName looks up a named member (map key, or a Custom's own
// notion of a name). Misses return Null, never an error.
func (v Value) MemberByName(name string) Value {
	switch v.kind {
	case KindMap:
		if mv, ok := v.mp[name]; ok {
			return mv
		}
		return Null
	case KindCustom:
		if mv, ok := v.custom.MemberByName(name); ok {
			return mv
		}
		return Null
	default:
		return Null
	}
}

// MemberByIndex looks up the i'th member in iteration order. Misses
// (out of range) return Null.
func (v Value) MemberByIndex(i int) Value {
	switch v.kind {
	case KindList:
		if i >= 0 && i < len(v.list) {
			return v.list[i]
		}
		return Null
	case KindMap:
		if i >= 0 && i < len(v.keys) {
			return v.mp[v.keys[i]]
		}
		return Null
	case KindCustom:
		if mv, ok := v.custom.MemberByIndex(i); ok {
			return mv
		}
		return Null
	default:
		return Null
	}
}

// KeyAt returns the key associated with the i'th member, if the value
// has a notion of keys (map: its string key wrapped as a Value; list:
// the integer index). Returns Null, false when there is no key (e.g.
// a scalar).
func (v Value) KeyAt(i int) (Value, bool) {
	switch v.kind {
	case KindMap:
		if i >= 0 && i < len(v.keys) {
			return NewString(v.keys[i]), true
		}
		return Null, false
	case KindList:
		if i >= 0 && i < len(v.list) {
			return NewInt(int64(i)), true
		}
		return Null, false
	case KindCustom:
		return v.custom.KeyAt(i)
	default:
		return Null, false
	}
}

// TypeName returns the Value model's kind name, used in RuntimeError
// messages for mixed-type comparisons.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}
