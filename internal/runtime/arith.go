package runtime

import "github.com/basalt-tpl/smarty/internal/value"

// Add, Sub, Mul, Div, Mod, Neg, and the Cmp family implement the
// numeric/comparison semantics both back ends compile against: the
// interpreter's stack machine calls them directly, and the generated
// Go source back end calls them by qualified name so a compiled
// template plugin never has to embed this logic itself.

func Add(abi *ABI, l, r value.Value) value.Value { return arith(abi, l, r, '+') }
func Sub(abi *ABI, l, r value.Value) value.Value { return arith(abi, l, r, '-') }
func Mul(abi *ABI, l, r value.Value) value.Value { return arith(abi, l, r, '*') }
func Mod(abi *ABI, l, r value.Value) value.Value { return arith(abi, l, r, '%') }

func arith(abi *ABI, l, r value.Value, op byte) value.Value {
	if l.Kind() == value.KindDouble || r.Kind() == value.KindDouble {
		lf, rf := abi.ToDouble(l), abi.ToDouble(r)
		switch op {
		case '+':
			return value.NewDouble(lf + rf)
		case '-':
			return value.NewDouble(lf - rf)
		case '*':
			return value.NewDouble(lf * rf)
		case '%':
			if int64(rf) == 0 {
				abi.Fail("modulo by zero")
				return value.NewDouble(0)
			}
			return value.NewDouble(float64(int64(lf) % int64(rf)))
		}
	}
	li, ri := abi.ToNumeric(l), abi.ToNumeric(r)
	switch op {
	case '+':
		return value.NewInt(li + ri)
	case '-':
		return value.NewInt(li - ri)
	case '*':
		return value.NewInt(li * ri)
	case '%':
		if ri == 0 {
			abi.Fail("modulo by zero")
			return value.NewInt(0)
		}
		return value.NewInt(li % ri)
	}
	return value.Null
}

// Div always checks for a zero divisor and only demotes to Integer
// when both operands are Integer and the division is exact,
// following spec.md's numeric promotion rule.
func Div(abi *ABI, l, r value.Value) value.Value {
	rf := abi.ToDouble(r)
	if rf == 0 {
		abi.Fail("division by zero")
		return value.NewInt(0)
	}
	if l.Kind() != value.KindInt || r.Kind() != value.KindInt {
		return value.NewDouble(abi.ToDouble(l) / rf)
	}
	li, ri := abi.ToNumeric(l), abi.ToNumeric(r)
	if li%ri == 0 {
		return value.NewInt(li / ri)
	}
	return value.NewDouble(float64(li) / float64(ri))
}

// Neg negates a numeric value, staying Double only when the operand
// already was one.
func Neg(abi *ABI, v value.Value) value.Value {
	if v.Kind() == value.KindDouble {
		return value.NewDouble(-abi.ToDouble(v))
	}
	return value.NewInt(-abi.ToNumeric(v))
}

// Eq and Ne implement the Value model's equality rule: strings compare
// by strcmp, Null is equal only to Null, Int and Double compare as
// double after coercion, Bool compares only with Bool, and anything
// else with a type
// mismatch (or a same-kind pair that carries no total order, like two
// lists) is reported through abi.Fail rather than silently coerced.
func Eq(abi *ABI, l, r value.Value) value.Value { return value.NewBool(valuesEqual(abi, l, r)) }
func Ne(abi *ABI, l, r value.Value) value.Value { return value.NewBool(!valuesEqual(abi, l, r)) }

func valuesEqual(abi *ABI, l, r value.Value) bool {
	if l.Kind() == value.KindString && r.Kind() == value.KindString {
		return abi.Strcmp(l.ToString(), r.ToString())
	}
	if l.Kind() == value.KindNull || r.Kind() == value.KindNull {
		return l.Kind() == r.Kind()
	}
	if !comparableByCoercion(l, r) {
		abi.Fail("cannot compare %s and %s", l.TypeName(), r.TypeName())
		return false
	}
	return abi.ToDouble(l) == abi.ToDouble(r)
}

// Lt, Le, Gt, Ge order two values: lexicographically when both are
// strings, numerically otherwise. Ordering values of mismatched kind
// (Bool against Int, String against Int) or a non-orderable kind on
// either side (a list, map or custom) is reported through abi.Fail
// rather than silently coerced, matching spec.md §7's mixed-type
// comparison case; this can only be reached at runtime for a
// comparison whose static type was deferred (a TValue operand), since
// a concretely known mismatch is already rejected at compile time.
func Lt(abi *ABI, l, r value.Value) value.Value { return cmp(abi, l, r, '<') }
func Le(abi *ABI, l, r value.Value) value.Value { return cmp(abi, l, r, 'l') }
func Gt(abi *ABI, l, r value.Value) value.Value { return cmp(abi, l, r, '>') }
func Ge(abi *ABI, l, r value.Value) value.Value { return cmp(abi, l, r, 'g') }

func cmp(abi *ABI, l, r value.Value, op byte) value.Value {
	if l.Kind() == value.KindString && r.Kind() == value.KindString {
		ls, rs := l.ToString(), r.ToString()
		switch op {
		case '<':
			return value.NewBool(ls < rs)
		case 'l':
			return value.NewBool(ls <= rs)
		case '>':
			return value.NewBool(ls > rs)
		case 'g':
			return value.NewBool(ls >= rs)
		}
	}
	if !comparableByCoercion(l, r) {
		abi.Fail("cannot order %s and %s", l.TypeName(), r.TypeName())
		return value.NewBool(false)
	}
	lf, rf := abi.ToDouble(l), abi.ToDouble(r)
	switch op {
	case '<':
		return value.NewBool(lf < rf)
	case 'l':
		return value.NewBool(lf <= rf)
	case '>':
		return value.NewBool(lf > rf)
	case 'g':
		return value.NewBool(lf >= rf)
	}
	return value.NewBool(false)
}

func orderable(v value.Value) bool {
	switch v.Kind() {
	case value.KindInt, value.KindDouble, value.KindBool, value.KindString:
		return true
	default:
		return false
	}
}

// comparableByCoercion reports whether l and r may be compared through
// total coercion to double. Both operands must be individually
// orderable, and either share a kind (Bool with Bool, String with
// String) or both be numeric (Int/Double mix freely under the
// spec's numeric promotion rule). A String paired with a Bool or a
// number, or two same-kind values that carry no order (List, Map),
// is not comparableByCoercion.
func comparableByCoercion(l, r value.Value) bool {
	if !orderable(l) || !orderable(r) {
		return false
	}
	if l.Kind() == r.Kind() {
		return true
	}
	return isNumericKind(l.Kind()) && isNumericKind(r.Kind())
}

func isNumericKind(k value.Kind) bool {
	return k == value.KindInt || k == value.KindDouble
}

// MemberDynamic dispatches parent[index] to a named or positional
// lookup depending on the index Value's kind, since the grammar makes
// no static distinction between $m["key"] and $list[0].
func MemberDynamic(abi *ABI, parent, idx value.Value) value.Value {
	if idx.Kind() == value.KindString {
		return abi.Member(parent, idx.ToString())
	}
	return abi.MemberAt(parent, idx.ToInt())
}

// ApplyModifierByName looks up and runs a modifier, passing the value
// through unchanged when the name isn't registered, matching
// spec.md's "unknown modifier is a no-op" rule.
func ApplyModifierByName(abi *ABI, name string, base value.Value, params []value.Value) value.Value {
	m, ok := abi.FindModifier(name)
	if !ok {
		return base
	}
	return abi.ApplyModifier(m, base, params)
}
