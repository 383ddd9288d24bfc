package value

// Variant is a convenience wrapper embedders use to build a Data
// environment from ordinary Go values without hand-writing Value
// constructors at every call site. It mirrors the constructor set the
// original Value model exposes for scalar types (bool, ints, floats,
// strings, slices and maps of Variant, or a raw Value).
type Variant struct {
	v Value
}

// Of builds a Variant from a Go value using the widest applicable
// conversion; unsupported types coerce to Null rather than panicking,
// consistent with the Value model's "never an error" soft-miss policy.
func Of(x interface{}) Variant {
	switch t := x.(type) {
	case nil:
		return Variant{Null}
	case Value:
		return Variant{t}
	case Variant:
		return t
	case bool:
		return Variant{NewBool(t)}
	case int:
		return Variant{NewInt(int64(t))}
	case int32:
		return Variant{NewInt(int64(t))}
	case int64:
		return Variant{NewInt(t)}
	case float32:
		return Variant{NewDouble(float64(t))}
	case float64:
		return Variant{NewDouble(t)}
	case string:
		return Variant{NewString(t)}
	case []Variant:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = e.Value()
		}
		return Variant{NewList(items)}
	case []interface{}:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = Of(e).Value()
		}
		return Variant{NewList(items)}
	case map[string]Variant:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = e.Value()
		}
		return Variant{NewMapUnordered(m)}
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = Of(e).Value()
		}
		return Variant{NewMapUnordered(m)}
	case Custom:
		return Variant{NewCustom(t)}
	default:
		return Variant{Null}
	}
}

// Value returns the underlying Value.
func (v Variant) Value() Value { return v.v }
