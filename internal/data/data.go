// Package data implements the embedder-provided variable and modifier
// environment (Data) a Template is rendered against. Data is read-only
// during rendering; anything a template assigns at runtime goes into
// the Handler's local scope instead.
package data

import "github.com/basalt-tpl/smarty/internal/value"

// Callback lazily produces a Value the first time a variable name is
// referenced. If cache is true the produced Value is memoized for the
// lifetime of the Data object; if false, it is invoked on every
// lookup.
type Callback func() value.Value

type callbackEntry struct {
	fn    Callback
	cache bool
	value value.Value
	cached bool
}

// Data is the mapping from variable name to Value, plus the modifier
// registry, that a Template is rendered against.
type Data struct {
	variables map[string]value.Value
	callbacks map[string]*callbackEntry
	modifiers map[string]Modifier
}

// New creates an empty Data environment with the built-in modifiers
// (toupper, tolower) pre-registered.
func New() *Data {
	d := &Data{
		variables: make(map[string]value.Value),
		callbacks: make(map[string]*callbackEntry),
		modifiers: make(map[string]Modifier),
	}
	registerBuiltinModifiers(d)
	return d
}

// Assign binds name to v for the lifetime of this Data object.
func (d *Data) Assign(name string, v value.Value) *Data {
	d.variables[name] = v
	return d
}

// AssignVariant is a convenience wrapper around Assign for embedders
// building Data from plain Go values.
func (d *Data) AssignVariant(name string, v value.Variant) *Data {
	return d.Assign(name, v.Value())
}

// RegisterCallback binds name to a Callback, invoked lazily the first
// time the template references it.
func (d *Data) RegisterCallback(name string, fn Callback, cache bool) *Data {
	d.callbacks[name] = &callbackEntry{fn: fn, cache: cache}
	return d
}

// Modifier registers a Modifier under name, overwriting any existing
// registration (including one of the two pre-registered built-ins).
func (d *Data) Modifier(name string, m Modifier) *Data {
	d.modifiers[name] = m
	return d
}

// Value looks up a variable by name. Misses, including a name that
// names neither a variable nor a callback, resolve to value.Null,
// never an error, per the Value model's soft-miss policy.
func (d *Data) Value(name string) value.Value {
	if v, ok := d.variables[name]; ok {
		return v
	}
	if cb, ok := d.callbacks[name]; ok {
		if cb.cache && cb.cached {
			return cb.value
		}
		v := cb.fn()
		if cb.cache {
			cb.value = v
			cb.cached = true
		}
		return v
	}
	return value.Null
}

// FindModifier looks up a registered Modifier by name. A nil, ok=false
// result means "no such modifier"; callers apply that as a no-op pass
// through, per the ABI's modifier lookup contract.
func (d *Data) FindModifier(name string) (Modifier, bool) {
	m, ok := d.modifiers[name]
	return m, ok
}
