package data

import "github.com/basalt-tpl/smarty/internal/value"

// Modifier is a named transformer chained after '|' in an expression.
// Apply must be pure: it may allocate new Values but must never mutate
// Data or any Value it was not itself given.
type Modifier interface {
	Apply(v value.Value, params []value.Value) value.Value
}

// ModifierFunc adapts a plain function to the Modifier interface, the
// way http.HandlerFunc adapts a function to http.Handler.
type ModifierFunc func(v value.Value, params []value.Value) value.Value

// Apply calls f.
func (f ModifierFunc) Apply(v value.Value, params []value.Value) value.Value {
	return f(v, params)
}
