package data

import (
	"strings"

	"github.com/basalt-tpl/smarty/internal/value"
)

// registerBuiltinModifiers installs the two modifiers the original
// design notes call out as retained globals: toupper and tolower.
// Every other modifier (hashing, case conversion beyond these two,
// counting, ...) is left to the embedder, per spec.md's scope.
func registerBuiltinModifiers(d *Data) {
	d.Modifier("toupper", ModifierFunc(func(v value.Value, _ []value.Value) value.Value {
		return value.NewString(strings.ToUpper(v.ToString()))
	}))
	d.Modifier("tolower", ModifierFunc(func(v value.Value, _ []value.Value) value.Value {
		return value.NewString(strings.ToLower(v.ToString()))
	}))
}
