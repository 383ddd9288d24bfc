package interp

import (
	"fmt"

	"github.com/basalt-tpl/smarty/internal/ast"
	"github.com/basalt-tpl/smarty/internal/value"
)

// codeGen implements ast.Generator by emitting bytecode into a
// builder. It never touches a Handler directly; that happens later,
// at Execute time, through the vm.
type codeGen struct {
	b *builder
}

// Compile lowers root through the Generator interface into a Chunk.
// The stack is guaranteed empty when Execute finishes: every
// statement-shaped Emit call consumes exactly the operands it pushed.
func Compile(root ast.Statement) *Chunk {
	g := &codeGen{b: newBuilder()}
	root.Emit(g)
	return g.b.build()
}

func (g *codeGen) Raw(text string) {
	g.b.emit(OpRaw, g.b.addName(text), 0, 0)
}

func (g *codeGen) Output(expr ast.Expression, escapeIt bool) {
	expr.Emit(g)
	flag := 0
	if escapeIt {
		flag = 1
	}
	g.b.emit(OpOutput, flag, 0, 0)
}

func (g *codeGen) WriteExpr(expr ast.Expression) {
	expr.Emit(g)
	g.b.emit(OpOutput, 0, 0, 0)
}

func (g *codeGen) Condition(cond ast.Expression, then, els ast.Statement) {
	cond.Emit(g)
	g.b.emit(OpBooleanOf, 0, 0, 0)
	jmp := g.b.emit(OpJumpIfFalse, -1, 0, 0)
	then.Emit(g)
	if els == nil {
		g.b.patchTarget(jmp, g.b.here())
		return
	}
	doneJmp := g.b.emit(OpJump, -1, 0, 0)
	g.b.patchTarget(jmp, g.b.here())
	els.Emit(g)
	g.b.patchTarget(doneJmp, g.b.here())
}

func (g *codeGen) VarPointer(name string) {
	g.b.emit(OpVarPointer, g.b.addName(name), 0, 0)
}

func (g *codeGen) MemberByName(parent ast.Expression, name string) {
	parent.Emit(g)
	g.b.emit(OpMemberByName, g.b.addName(name), 0, 0)
}

func (g *codeGen) MemberByExpr(parent, index ast.Expression) {
	parent.Emit(g)
	index.Emit(g)
	g.b.emit(OpMemberByExpr, 0, 0, 0)
}

func (g *codeGen) BoolLit(v bool) {
	flag := 0
	if v {
		flag = 1
	}
	g.b.emit(OpBoolLit, flag, 0, 0)
}

func (g *codeGen) NumericLit(i int64) {
	g.b.emit(OpNumericLit, g.b.addConst(value.NewInt(i)), 0, 0)
}

func (g *codeGen) DoubleLit(d float64) {
	g.b.emit(OpDoubleLit, g.b.addConst(value.NewDouble(d)), 0, 0)
}

func (g *codeGen) StringLit(s string) {
	g.b.emit(OpStringLit, g.b.addConst(value.NewString(s)), 0, 0)
}

func (g *codeGen) StringOf(expr ast.Expression) {
	expr.Emit(g)
	g.b.emit(OpStringOf, 0, 0, 0)
}

func (g *codeGen) NumericOf(expr ast.Expression) {
	expr.Emit(g)
	g.b.emit(OpNumericOf, 0, 0, 0)
}

func (g *codeGen) BooleanOf(expr ast.Expression) {
	expr.Emit(g)
	g.b.emit(OpBooleanOf, 0, 0, 0)
}

func (g *codeGen) binary(op Op, left, right ast.Expression) {
	left.Emit(g)
	right.Emit(g)
	g.b.emit(op, 0, 0, 0)
}

func (g *codeGen) Plus(l, r ast.Expression)          { g.binary(OpAdd, l, r) }
func (g *codeGen) Minus(l, r ast.Expression)         { g.binary(OpSub, l, r) }
func (g *codeGen) Multiply(l, r ast.Expression)      { g.binary(OpMul, l, r) }
func (g *codeGen) Divide(l, r ast.Expression)        { g.binary(OpDiv, l, r) }
func (g *codeGen) Modulo(l, r ast.Expression)        { g.binary(OpMod, l, r) }
func (g *codeGen) Equals(l, r ast.Expression)        { g.binary(OpEq, l, r) }
func (g *codeGen) NotEquals(l, r ast.Expression)     { g.binary(OpNe, l, r) }
func (g *codeGen) Lesser(l, r ast.Expression)        { g.binary(OpLt, l, r) }
func (g *codeGen) LesserEquals(l, r ast.Expression)  { g.binary(OpLe, l, r) }
func (g *codeGen) Greater(l, r ast.Expression)       { g.binary(OpGt, l, r) }
func (g *codeGen) GreaterEquals(l, r ast.Expression) { g.binary(OpGe, l, r) }

// BooleanAnd and BooleanOr short-circuit via explicit branches rather
// than an unconditional Op, matching spec.md §4.4's branch-based
// short-circuit requirement.
func (g *codeGen) BooleanAnd(l, r ast.Expression) {
	l.Emit(g)
	g.b.emit(OpBooleanOf, 0, 0, 0)
	falseJmp := g.b.emit(OpJumpIfFalse, -1, 0, 0)
	r.Emit(g)
	g.b.emit(OpBooleanOf, 0, 0, 0)
	endJmp := g.b.emit(OpJump, -1, 0, 0)
	g.b.patchTarget(falseJmp, g.b.here())
	g.b.emit(OpBoolLit, 0, 0, 0)
	g.b.patchTarget(endJmp, g.b.here())
}

func (g *codeGen) BooleanOr(l, r ast.Expression) {
	l.Emit(g)
	g.b.emit(OpBooleanOf, 0, 0, 0)
	trueJmp := g.b.emit(OpJumpIfTrue, -1, 0, 0)
	r.Emit(g)
	g.b.emit(OpBooleanOf, 0, 0, 0)
	endJmp := g.b.emit(OpJump, -1, 0, 0)
	g.b.patchTarget(trueJmp, g.b.here())
	g.b.emit(OpBoolLit, 1, 0, 0)
	g.b.patchTarget(endJmp, g.b.here())
}

func (g *codeGen) Not(expr ast.Expression) {
	expr.Emit(g)
	g.b.emit(OpBooleanOf, 0, 0, 0)
	g.b.emit(OpNot, 0, 0, 0)
}

func (g *codeGen) Negate(expr ast.Expression) {
	expr.Emit(g)
	g.b.emit(OpNeg, 0, 0, 0)
}

func (g *codeGen) Modifiers(chain []ast.ModifierApplication, base ast.Expression) {
	base.Emit(g)
	for _, m := range chain {
		for _, p := range m.Params {
			p.Emit(g)
		}
		g.b.emit(OpModifier, g.b.addName(m.Name), len(m.Params), 0)
	}
}

// ForEach lowers a foreach/foreachelse loop. Source is evaluated
// exactly once and stashed in a synthetic, user-unreachable slot
// (its name starts with '%', which the lexer's identifier grammar can
// never produce) so the loop body can re-fetch it every iteration
// without re-evaluating a possibly side-effecting expression.
func (g *codeGen) ForEach(source ast.Expression, keyVar, valueVar string, scopeID int, body, els ast.Statement) {
	valueIdx := g.b.addName(valueVar)
	keyIdx := -1
	if keyVar != "" {
		keyIdx = g.b.addName(keyVar)
	}
	synthIdx := g.b.addName(fmt.Sprintf("%%fe%d", scopeID))

	source.Emit(g)
	g.b.emit(OpDup, 0, 0, 0)
	g.b.emit(OpMemberCount, 0, 0, 0)
	zeroJmp := g.b.emit(OpJumpIfZero, -1, 0, 0)
	g.b.emit(OpAssign, synthIdx, 0, 0)

	loopStart := g.b.here()
	g.b.emit(OpVarPointer, synthIdx, 0, 0)
	g.b.emit(OpMemberIter, scopeID, valueIdx, keyIdx)
	exitJmp := g.b.emit(OpJumpIfFalse, -1, 0, 0)
	body.Emit(g)
	g.b.emit(OpJump, loopStart, 0, 0)
	g.b.patchTarget(exitJmp, g.b.here())

	doneJmp := g.b.emit(OpJump, -1, 0, 0)
	g.b.patchTarget(zeroJmp, g.b.here())
	g.b.emit(OpPop, 0, 0, 0)
	if els != nil {
		els.Emit(g)
	}
	g.b.patchTarget(doneJmp, g.b.here())
}

// Assign exercises the ABI's typed assignment callbacks when the
// right-hand side is a literal of the matching type, falling back to
// the generic Assign callback for everything else.
func (g *codeGen) Assign(name string, expr ast.Expression) {
	nameIdx := g.b.addName(name)
	switch lit := expr.(type) {
	case *ast.LiteralInt:
		g.b.emit(OpNumericLit, g.b.addConst(value.NewInt(lit.Value)), 0, 0)
		g.b.emit(OpAssignNumeric, nameIdx, 0, 0)
	case *ast.LiteralBool:
		g.BoolLit(lit.Value)
		g.b.emit(OpAssignBoolean, nameIdx, 0, 0)
	case *ast.LiteralString:
		g.b.emit(OpStringLit, g.b.addConst(value.NewString(lit.Value)), 0, 0)
		g.b.emit(OpAssignString, nameIdx, 0, 0)
	default:
		expr.Emit(g)
		g.b.emit(OpAssign, nameIdx, 0, 0)
	}
}

func (g *codeGen) SetEscape(name string) {
	g.b.emit(OpSetEscape, g.b.addName(name), 0, 0)
}
