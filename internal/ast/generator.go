package ast

// Generator is the seam described in spec.md §4.3: the AST never
// touches a back end's internals, it only calls these methods, in
// tree order, as it walks. The interpreter back end implements
// Generator by emitting bytecode into an in-memory Chunk; the source
// back end implements it by emitting Go source text. Both walk the
// exact same tree through the exact same interface.
//
// Expression-shaped arguments (left, right, parent, cond, ...) are
// AST subtrees, not already-computed values: a Generator method is
// responsible for calling Emit on them itself, at whatever point in
// its own lowering scheme that value is needed. This lets an
// interpreter back end honor stack discipline (push operands, then
// combine) while a source back end can instead recurse straight into
// nested Go expression syntax with no explicit stack at all.
type Generator interface {
	// Raw copies text to output verbatim.
	Raw(text string)

	// Output emits expr's string form, escaped through the active
	// escaper when escapeIt is true.
	Output(expr Expression, escapeIt bool)

	// WriteExpr emits expr's string form unescaped. Exposed for ABI
	// completeness (spec.md §4.6 lists write() and output() as
	// distinct callbacks) even though the current grammar only ever
	// drives Output.
	WriteExpr(expr Expression)

	// Condition lowers an if/elseif/else chain.
	Condition(cond Expression, then Statement, els Statement)

	// VarPointer resolves a bare variable reference.
	VarPointer(name string)

	// MemberByName resolves parent.name.
	MemberByName(parent Expression, name string)

	// MemberByExpr resolves parent[index].
	MemberByExpr(parent Expression, index Expression)

	// BoolLit, NumericLit, DoubleLit and StringLit push a literal.
	BoolLit(b bool)
	NumericLit(i int64)
	DoubleLit(d float64)
	StringLit(s string)

	// StringOf, NumericOf and BooleanOf coerce an already-resolved
	// variable or subexpression to a primitive type via the ABI's
	// total coercions.
	StringOf(expr Expression)
	NumericOf(expr Expression)
	BooleanOf(expr Expression)

	// Arithmetic operators.
	Plus(left, right Expression)
	Minus(left, right Expression)
	Multiply(left, right Expression)
	Divide(left, right Expression)
	Modulo(left, right Expression)

	// Comparison operators, always producing a Boolean.
	Equals(left, right Expression)
	NotEquals(left, right Expression)
	Lesser(left, right Expression)
	LesserEquals(left, right Expression)
	Greater(left, right Expression)
	GreaterEquals(left, right Expression)

	// Boolean operators. BooleanAnd and BooleanOr short-circuit: the
	// right operand's Emit is only invoked when its value would
	// change the result.
	BooleanAnd(left, right Expression)
	BooleanOr(left, right Expression)
	Not(expr Expression)
	Negate(expr Expression)

	// Modifiers lowers a filter chain applied to base, left to right.
	Modifiers(chain []ModifierApplication, base Expression)

	// ForEach lowers a foreach/foreachelse loop. keyVar is "" when no
	// key was bound.
	ForEach(source Expression, keyVar, valueVar string, scopeID int, body, els Statement)

	// Assign lowers a variable assignment.
	Assign(name string, expr Expression)

	// SetEscape lowers an {escape}/{mode} directive.
	SetEscape(name string)
}
