package ast

// BinOp identifies a binary operator; the parser attaches one of these
// to a Binary node based on the token it shifted.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

func (op BinOp) comparison() bool {
	return op >= OpEq && op <= OpGe
}

func (op BinOp) boolean() bool {
	return op == OpAnd || op == OpOr
}

// UnOp identifies a unary operator.
type UnOp int

const (
	OpNeg UnOp = iota
	OpNot
)

// LiteralBool is a `true`/`false` literal.
type LiteralBool struct{ Value bool }

func (*LiteralBool) isExpression()        {}
func (*LiteralBool) StaticType() Type     { return TBoolean }
func (n *LiteralBool) Emit(g Generator)   { g.BoolLit(n.Value) }

// LiteralInt is an integer literal.
type LiteralInt struct{ Value int64 }

func (*LiteralInt) isExpression()      {}
func (*LiteralInt) StaticType() Type   { return TInteger }
func (n *LiteralInt) Emit(g Generator) { g.NumericLit(n.Value) }

// LiteralDouble is a floating-point literal.
type LiteralDouble struct{ Value float64 }

func (*LiteralDouble) isExpression()      {}
func (*LiteralDouble) StaticType() Type   { return TDouble }
func (n *LiteralDouble) Emit(g Generator) { g.DoubleLit(n.Value) }

// LiteralString is a quoted string literal.
type LiteralString struct{ Value string }

func (*LiteralString) isExpression()      {}
func (*LiteralString) StaticType() Type   { return TString }
func (n *LiteralString) Emit(g Generator) { g.StringLit(n.Value) }

// VarRef is a bare `$name` reference, resolved against local scope
// then Data. Its static type is always Value: what a variable holds
// is known only at render time.
type VarRef struct{ Name string }

func (*VarRef) isExpression()      {}
func (*VarRef) StaticType() Type   { return TValue }
func (n *VarRef) Emit(g Generator) { g.VarPointer(n.Name) }

// MemberByName is `parent.name`.
type MemberByName struct {
	Parent Expression
	Name   string
}

func (*MemberByName) isExpression()      {}
func (*MemberByName) StaticType() Type   { return TValue }
func (n *MemberByName) Emit(g Generator) { g.MemberByName(n.Parent, n.Name) }

// MemberByExpr is `parent[index]`, where index may be a string key or
// an integer position; which one applies is resolved at render time
// from the index Value's kind.
type MemberByExpr struct {
	Parent Expression
	Index  Expression
}

func (*MemberByExpr) isExpression()      {}
func (*MemberByExpr) StaticType() Type   { return TValue }
func (n *MemberByExpr) Emit(g Generator) { g.MemberByExpr(n.Parent, n.Index) }

// Filter is a `base|mod1:p1|mod2:p2` chain applied left to right. Its
// static type is Value: a modifier's return kind isn't known until it
// runs.
type Filter struct {
	Base  Expression
	Chain []ModifierApplication
}

func (*Filter) isExpression()      {}
func (*Filter) StaticType() Type   { return TValue }
func (n *Filter) Emit(g Generator) { g.Modifiers(n.Chain, n.Base) }

// Binary is a two-operand arithmetic, comparison or boolean
// expression. Static type follows spec.md §4.2's promotion table:
// arithmetic promotes to Double only on literal evidence of a Double
// operand, comparison and boolean operators always yield Boolean.
type Binary struct {
	Op          BinOp
	Left, Right Expression
	typ         Type
}

// NewBinary computes Op's static result type from its operands and
// returns the constructed node. Comparisons between two concretely
// known, incompatible, non-numeric static types are rejected here
// with a returned error that the parser wraps in a CompileError, matching
// spec.md §7's "unsupported mixed-type comparison" compile-time case;
// a comparison touching a Value-typed (TValue) operand is deferred to
// the runtime check in the generated comparison code.
func NewBinary(op BinOp, left, right Expression) (*Binary, error) {
	n := &Binary{Op: op, Left: left, Right: right}
	switch {
	case op.comparison():
		n.typ = TBoolean
		if err := checkComparable(left.StaticType(), right.StaticType()); err != nil {
			return nil, err
		}
	case op.boolean():
		n.typ = TBoolean
	default:
		lt, rt := left.StaticType(), right.StaticType()
		if lt == TDouble || rt == TDouble {
			n.typ = TDouble
		} else {
			n.typ = TInteger
		}
	}
	return n, nil
}

func checkComparable(l, r Type) error {
	if l == TValue || r == TValue {
		return nil
	}
	if l == r {
		return nil
	}
	if l.numeric() && r.numeric() {
		return nil
	}
	return &StaticTypeError{Left: l, Right: r}
}

func (n *Binary) isExpression()    {}
func (n *Binary) StaticType() Type { return n.typ }

func (n *Binary) Emit(g Generator) {
	switch n.Op {
	case OpAdd:
		g.Plus(n.Left, n.Right)
	case OpSub:
		g.Minus(n.Left, n.Right)
	case OpMul:
		g.Multiply(n.Left, n.Right)
	case OpDiv:
		g.Divide(n.Left, n.Right)
	case OpMod:
		g.Modulo(n.Left, n.Right)
	case OpEq:
		g.Equals(n.Left, n.Right)
	case OpNe:
		g.NotEquals(n.Left, n.Right)
	case OpLt:
		g.Lesser(n.Left, n.Right)
	case OpLe:
		g.LesserEquals(n.Left, n.Right)
	case OpGt:
		g.Greater(n.Left, n.Right)
	case OpGe:
		g.GreaterEquals(n.Left, n.Right)
	case OpAnd:
		g.BooleanAnd(n.Left, n.Right)
	case OpOr:
		g.BooleanOr(n.Left, n.Right)
	}
}

// StaticTypeError reports a comparison between two concretely known
// and incompatible static types, caught during parsing rather than
// deferred to render time.
type StaticTypeError struct {
	Left, Right Type
}

func (e *StaticTypeError) Error() string {
	return "cannot compare " + e.Left.String() + " with " + e.Right.String()
}

// Unary is a one-operand `!expr` or `-expr` expression.
type Unary struct {
	Op   UnOp
	Expr Expression
}

func (n *Unary) isExpression() {}

func (n *Unary) StaticType() Type {
	if n.Op == OpNot {
		return TBoolean
	}
	if n.Expr.StaticType() == TDouble {
		return TDouble
	}
	return TInteger
}

func (n *Unary) Emit(g Generator) {
	if n.Op == OpNot {
		g.Not(n.Expr)
	} else {
		g.Negate(n.Expr)
	}
}
