// Package handler implements the per-render execution context both
// back ends drive: the output buffer, local variable scope, iterator
// stack and managed-value arena described in spec.md §3/§4.7.
package handler

import (
	"strings"

	"github.com/basalt-tpl/smarty/internal/data"
	"github.com/basalt-tpl/smarty/internal/escape"
	"github.com/basalt-tpl/smarty/internal/value"
)

// iterSlot disambiguates nested/sibling foreach loops that happen to
// bind the same magic variable name, keyed by (value variable name,
// scope id) per
// SPEC_FULL.md's resolution of the iterator-slot open question.
type iterSlot struct {
	name    string
	scopeID int
	iter    *value.Iterator
}

// Handler is the per-render state passed as "userdata" to every ABI
// callback. It is not safe for concurrent use; each concurrent render
// of a compiled Template must construct its own Handler.
type Handler struct {
	buf      strings.Builder
	data     *data.Data
	escaper  escape.Escaper
	locals   map[string]value.Value
	iterStk  []iterSlot
	arena    []value.Value
	failed   bool
	errMsg   string
}

// New creates a Handler bound to a read-only Data environment and an
// output escaper, reserving 4 KiB of output buffer up front.
func New(d *data.Data, esc escape.Escaper) *Handler {
	h := &Handler{
		data:    d,
		escaper: esc,
		locals:  make(map[string]value.Value),
	}
	h.buf.Grow(4096)
	return h
}

// Write appends raw bytes to the output buffer.
func (h *Handler) Write(s string) {
	h.buf.WriteString(s)
}

// Output appends a Value's string form, passing it through the active
// escaper when escape is true.
func (h *Handler) Output(v value.Value, escapeIt bool) {
	s := v.ToString()
	if escapeIt {
		s = h.escaper.Escape(s)
	}
	h.buf.WriteString(s)
}

// String returns the buffered output so far.
func (h *Handler) String() string {
	return h.buf.String()
}

// Variable resolves a name against the local scope first, then Data.
// A miss at both levels returns value.Null, never an error.
func (h *Handler) Variable(name string) value.Value {
	if v, ok := h.locals[name]; ok {
		return v
	}
	return h.data.Value(name)
}

// Member resolves a named member of parent. A miss returns
// value.Null.
func (h *Handler) Member(parent value.Value, name string) value.Value {
	return parent.MemberByName(name)
}

// MemberAt resolves the member of parent at the given index. A miss
// returns value.Null.
func (h *Handler) MemberAt(parent value.Value, index int64) value.Value {
	return parent.MemberByIndex(int(index))
}

// Modifier looks up a registered modifier by name; ok is false when
// none is registered, meaning "pass the value through unchanged".
func (h *Handler) Modifier(name string) (data.Modifier, bool) {
	return h.data.FindModifier(name)
}

// ApplyModifier runs m against v with params and registers every
// result with the managed-value arena, whether or not it differs from
// the input (ownership transfers to the Handler per spec.md §3).
func (h *Handler) ApplyModifier(m data.Modifier, v value.Value, params []value.Value) value.Value {
	out := m.Apply(v, params)
	h.arena = append(h.arena, out)
	return out
}

// Assign binds an existing Value to a local variable.
func (h *Handler) Assign(name string, v value.Value) {
	h.locals[name] = v
}

// AssignManaged binds a freshly constructed Value (int/bool/string
// literal assignment) to a local variable and registers it with the
// arena.
func (h *Handler) AssignManaged(name string, v value.Value) {
	h.arena = append(h.arena, v)
	h.locals[name] = v
}

// Unassign removes a local binding, used when a ForEach's magic
// variables go out of scope.
func (h *Handler) Unassign(name string) {
	delete(h.locals, name)
}

// Iterate is the body of the member_iter ABI callback and the engine
// behind ForEach: on first entry for a given (valueVar, scopeID) it
// pushes a fresh Iterator and binds valueVar (and keyVar, if given) to
// its first member; on subsequent calls it advances the existing
// Iterator; on exhaustion it pops the slot, unbinds both magic
// variables and reports false so the loop terminates.
func (h *Handler) Iterate(source value.Value, scopeID int, valueVar string, keyVar string) bool {
	if idx := h.findIterSlot(valueVar, scopeID); idx >= 0 {
		slot := h.iterStk[idx]
		slot.iter.Next()
		if !slot.iter.Valid() {
			h.popIterSlot(idx)
			h.Unassign(valueVar)
			if keyVar != "" {
				h.Unassign(keyVar)
			}
			return false
		}
		h.bindIterCurrent(slot.iter, valueVar, keyVar)
		return true
	}

	it := value.NewIterator(source)
	if !it.Valid() {
		return false
	}
	h.iterStk = append(h.iterStk, iterSlot{name: valueVar, scopeID: scopeID, iter: it})
	h.bindIterCurrent(it, valueVar, keyVar)
	return true
}

func (h *Handler) bindIterCurrent(it *value.Iterator, valueVar, keyVar string) {
	h.Assign(valueVar, it.CurrentValue())
	if keyVar != "" {
		if k, ok := it.CurrentKey(); ok {
			h.Assign(keyVar, k)
		}
	}
}

func (h *Handler) findIterSlot(name string, scopeID int) int {
	for i := len(h.iterStk) - 1; i >= 0; i-- {
		if h.iterStk[i].name == name && h.iterStk[i].scopeID == scopeID {
			return i
		}
	}
	return -1
}

func (h *Handler) popIterSlot(idx int) {
	h.iterStk = append(h.iterStk[:idx], h.iterStk[idx+1:]...)
}

// SetEscaper swaps the active escaper, used by an {escape}/{mode}
// directive to change how subsequent Output calls encode their
// values.
func (h *Handler) SetEscaper(esc escape.Escaper) {
	h.escaper = esc
}

// Fail marks the render as failed with a RuntimeError message. It is
// used by ABI callbacks that detect a fatal runtime condition
// (division by zero, mixed-type comparison) without unwinding the Go
// call stack via panic/recover.
func (h *Handler) Fail(msg string) {
	h.failed = true
	h.errMsg = msg
}

// Failed reports whether Fail has been called during this render.
func (h *Handler) Failed() bool { return h.failed }

// Error returns the message passed to Fail, if any.
func (h *Handler) Error() string { return h.errMsg }

// ArenaSize reports how many managed values the Handler has registered
// during its render. The Handler never clears the arena, so the count
// stays as it is after a render completes; Go's GC reclaims the values
// once the Handler itself is dropped.
func (h *Handler) ArenaSize() int { return len(h.arena) }
