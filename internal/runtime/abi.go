package runtime

import (
	"github.com/basalt-tpl/smarty/internal/data"
	"github.com/basalt-tpl/smarty/internal/escape"
	"github.com/basalt-tpl/smarty/internal/handler"
	"github.com/basalt-tpl/smarty/internal/value"
)

// ABI is the fixed, versioned record of callback functions described
// in spec.md §4.6. Both the interpreter back end and the generated Go
// source back end call exclusively through an ABI value bound to a
// particular Handler; nothing else couples emitted code to the
// runtime, so a caller may substitute escapers/hooks by constructing a
// different Handler without re-linking anything.
//
// Every method takes the bound Handler implicitly (it is a receiver
// method, the Go equivalent of the "userdata" pointer every native
// signature threads through).
type ABI struct {
	h *handler.Handler
}

// Bind constructs the ABI record for one render's Handler.
func Bind(h *handler.Handler) *ABI {
	return &ABI{h: h}
}

// Write appends bytes to the output buffer.
func (a *ABI) Write(s string) { a.h.Write(s) }

// Output appends v's escaped or raw string form.
func (a *ABI) Output(v value.Value, escapeIt bool) { a.h.Output(v, escapeIt) }

// Member resolves a named member of v. Never returns an error; a miss
// is value.Null.
func (a *ABI) Member(v value.Value, name string) value.Value { return a.h.Member(v, name) }

// MemberAt resolves the member of v at index. Never returns an error.
func (a *ABI) MemberAt(v value.Value, index int64) value.Value { return a.h.MemberAt(v, index) }

// Variable resolves a name against local scope then Data. Never
// returns an error.
func (a *ABI) Variable(name string) value.Value { return a.h.Variable(name) }

// ToString is the total string coercion.
func (a *ABI) ToString(v value.Value) string { return v.ToString() }

// ToNumeric is the total integer coercion.
func (a *ABI) ToNumeric(v value.Value) int64 { return v.ToInt() }

// ToDouble is the total floating coercion.
func (a *ABI) ToDouble(v value.Value) float64 { return v.ToDouble() }

// ToBoolean is the total boolean coercion.
func (a *ABI) ToBoolean(v value.Value) bool { return v.ToBool() }

// Size returns the string length of v's ToString() form.
func (a *ABI) Size(v value.Value) int64 { return int64(v.Size()) }

// FindModifier looks up a modifier by name. ok is false when none is
// registered, meaning "pass the value through unchanged".
func (a *ABI) FindModifier(name string) (data.Modifier, bool) { return a.h.Modifier(name) }

// ApplyModifier runs m against v and params, transferring ownership of
// a newly allocated result to the Handler's arena.
func (a *ABI) ApplyModifier(m data.Modifier, v value.Value, params []value.Value) value.Value {
	return a.h.ApplyModifier(m, v, params)
}

// Strcmp reports byte-for-byte string equality, the ABI's strcmp
// callback used for string comparison operators.
func (a *ABI) Strcmp(x, y string) bool { return x == y }

// Assign binds an existing Value to a local variable.
func (a *ABI) Assign(name string, v value.Value) { a.h.Assign(name, v) }

// AssignNumeric assigns a freshly minted integer Value.
func (a *ABI) AssignNumeric(i int64, name string) { a.h.AssignManaged(name, value.NewInt(i)) }

// AssignBoolean assigns a freshly minted boolean Value.
func (a *ABI) AssignBoolean(b bool, name string) { a.h.AssignManaged(name, value.NewBool(b)) }

// AssignString assigns a freshly minted string Value.
func (a *ABI) AssignString(s string, name string) { a.h.AssignManaged(name, value.NewString(s)) }

// MemberIter is the ForEach driver: advances or creates the iterator
// slot for (valueVar, scopeID) over source, binding valueVar (and
// keyVar, if non-empty) to the current member. Returns false when
// iteration is exhausted or source has no members.
func (a *ABI) MemberIter(source value.Value, scopeID int, valueVar, keyVar string) bool {
	return a.h.Iterate(source, scopeID, valueVar, keyVar)
}

// CreateIterator, ValidIterator, IteratorKey, IteratorValue and
// IteratorNext expose the standalone iterator primitives of §4.6 for
// callers that want to walk a Value's members outside of a ForEach
// statement (the generated code for ForEach itself uses MemberIter,
// which already tracks iterator lifetime on the Handler's stack).
func (a *ABI) CreateIterator(v value.Value) *value.Iterator { return value.NewIterator(v) }

func (a *ABI) ValidIterator(it *value.Iterator) bool { return it.Valid() }

func (a *ABI) IteratorKey(it *value.Iterator) value.Value {
	k, ok := it.CurrentKey()
	if !ok {
		return value.Null
	}
	return k
}

func (a *ABI) IteratorValue(it *value.Iterator) value.Value { return it.CurrentValue() }

func (a *ABI) IteratorNext(it *value.Iterator) { it.Next() }

// SetEscaper changes the Handler's active escaper by name, backing
// the {escape}/{mode} directive.
func (a *ABI) SetEscaper(name string) { a.h.SetEscaper(escape.Get(name)) }

// Fail records a fatal runtime condition without panicking, matching
// spec.md §5's JIT exception-handling rule: aborts are converted into
// recoverable errors via this per-render hook rather than the
// process-exit default.
func (a *ABI) Fail(format string, args ...interface{}) {
	a.h.Fail(NewRuntimeError(format, args...).Error())
}

// Failed reports whether Fail has been called during this render.
func (a *ABI) Failed() bool { return a.h.Failed() }

// Error returns the message passed to the most recent Fail call.
func (a *ABI) Error() string { return a.h.Error() }
