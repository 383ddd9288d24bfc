// Package gosrc implements the "portable source" back end of
// spec.md §4.5: it walks an AST through the exact same Generator seam
// the interpreter uses, but instead of emitting bytecode it emits Go
// source text — a self-contained file exposing ShowTemplate(abi) and
// a Personalized flag, loadable as a plugin.
package gosrc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/basalt-tpl/smarty/internal/ast"
)

// codeGen implements ast.Generator by building nested Go expression
// text. There is no explicit value stack: an operand's Emit call
// leaves its generated text on codeGen's expr accumulator, which
// the caller immediately consumes, mirroring how the teacher's
// ElementNode.Generate recurses straight into child.Generate() rather
// than threading an intermediate representation through a stack.
type codeGen struct {
	body   strings.Builder
	indent int
	expr   []string // small stack of pending expression text, used only within a single Emit call tree
	tmp    int       // counter for synthetic local variable names
}

// Generate compiles root into a complete Go source file in package
// pkg, exposing ShowTemplate and Personalized.
func Generate(root ast.Statement, pkg string, personalized bool) string {
	g := &codeGen{indent: 1}
	root.Emit(g)

	var out strings.Builder
	fmt.Fprintf(&out, "package %s\n\n", pkg)
	out.WriteString("import (\n\t\"github.com/basalt-tpl/smarty/internal/runtime\"\n\t\"github.com/basalt-tpl/smarty/internal/value\"\n)\n\n")
	// Keeps the value import used when the body never mentions it.
	out.WriteString("var _ = value.Null\n\n")
	fmt.Fprintf(&out, "// Personalized reports whether this template reads request-specific\n// data (any variable reference), matching spec.md's rendering cache hint.\nvar Personalized = %v\n\n", personalized)
	out.WriteString("// ShowTemplate runs the compiled template body against abi. It never\n// panics: runtime failures are reported through abi.Fail and surfaced\n// by the caller checking the bound Handler's Failed/Error methods.\nfunc ShowTemplate(abi *runtime.ABI) error {\n")
	out.WriteString(g.body.String())
	out.WriteString("\treturn nil\n}\n")
	return out.String()
}

func (g *codeGen) write(format string, args ...interface{}) {
	g.body.WriteString(strings.Repeat("\t", g.indent))
	fmt.Fprintf(&g.body, format, args...)
	g.body.WriteString("\n")
}

func (g *codeGen) pushExpr(e string) { g.expr = append(g.expr, e) }

func (g *codeGen) popExpr() string {
	n := len(g.expr) - 1
	e := g.expr[n]
	g.expr = g.expr[:n]
	return e
}

// eval runs expr.Emit and returns the single expression string it
// produced, restoring the accumulator to its prior depth so nested
// eval calls compose correctly.
func (g *codeGen) eval(expr ast.Expression) string {
	depth := len(g.expr)
	expr.Emit(g)
	if len(g.expr) != depth+1 {
		panic("gosrc: Emit did not push exactly one expression")
	}
	return g.popExpr()
}

func (g *codeGen) newTemp(prefix string) string {
	g.tmp++
	return fmt.Sprintf("%s%d", prefix, g.tmp)
}

func (g *codeGen) Raw(text string) {
	g.write("abi.Write(%s)", strconv.Quote(text))
}

func (g *codeGen) Output(expr ast.Expression, escapeIt bool) {
	g.write("abi.Output(%s, %v)", g.eval(expr), escapeIt)
}

func (g *codeGen) WriteExpr(expr ast.Expression) {
	g.write("abi.Write(abi.ToString(%s))", g.eval(expr))
}

func (g *codeGen) Condition(cond ast.Expression, then, els ast.Statement) {
	g.write("if abi.ToBoolean(%s) {", g.eval(cond))
	g.indent++
	then.Emit(g)
	g.indent--
	if els == nil {
		g.write("}")
		return
	}
	g.write("} else {")
	g.indent++
	els.Emit(g)
	g.indent--
	g.write("}")
}

func (g *codeGen) VarPointer(name string) {
	g.pushExpr(fmt.Sprintf("abi.Variable(%s)", strconv.Quote(name)))
}

func (g *codeGen) MemberByName(parent ast.Expression, name string) {
	p := g.eval(parent)
	g.pushExpr(fmt.Sprintf("abi.Member(%s, %s)", p, strconv.Quote(name)))
}

func (g *codeGen) MemberByExpr(parent, index ast.Expression) {
	p := g.eval(parent)
	i := g.eval(index)
	idx := g.newTemp("idx")
	g.write("%s := %s", idx, i)
	g.pushExpr(fmt.Sprintf("runtime.MemberDynamic(abi, %s, %s)", p, idx))
}

func (g *codeGen) BoolLit(v bool) {
	g.pushExpr(fmt.Sprintf("value.NewBool(%v)", v))
}

func (g *codeGen) NumericLit(i int64) {
	g.pushExpr(fmt.Sprintf("value.NewInt(%d)", i))
}

func (g *codeGen) DoubleLit(d float64) {
	g.pushExpr(fmt.Sprintf("value.NewDouble(%s)", strconv.FormatFloat(d, 'g', -1, 64)))
}

func (g *codeGen) StringLit(s string) {
	g.pushExpr(fmt.Sprintf("value.NewString(%s)", strconv.Quote(s)))
}

func (g *codeGen) StringOf(expr ast.Expression) {
	g.pushExpr(fmt.Sprintf("value.NewString(abi.ToString(%s))", g.eval(expr)))
}

func (g *codeGen) NumericOf(expr ast.Expression) {
	g.pushExpr(fmt.Sprintf("value.NewInt(abi.ToNumeric(%s))", g.eval(expr)))
}

func (g *codeGen) BooleanOf(expr ast.Expression) {
	g.pushExpr(fmt.Sprintf("value.NewBool(abi.ToBoolean(%s))", g.eval(expr)))
}

func (g *codeGen) binary(fn string, l, r ast.Expression) {
	lv, rv := g.eval(l), g.eval(r)
	g.pushExpr(fmt.Sprintf("%s(abi, %s, %s)", fn, lv, rv))
}

func (g *codeGen) Plus(l, r ast.Expression)          { g.binary("runtime.Add", l, r) }
func (g *codeGen) Minus(l, r ast.Expression)         { g.binary("runtime.Sub", l, r) }
func (g *codeGen) Multiply(l, r ast.Expression)      { g.binary("runtime.Mul", l, r) }
func (g *codeGen) Divide(l, r ast.Expression)        { g.binary("runtime.Div", l, r) }
func (g *codeGen) Modulo(l, r ast.Expression)        { g.binary("runtime.Mod", l, r) }
func (g *codeGen) Equals(l, r ast.Expression)        { g.binary("runtime.Eq", l, r) }
func (g *codeGen) NotEquals(l, r ast.Expression)     { g.binary("runtime.Ne", l, r) }
func (g *codeGen) Lesser(l, r ast.Expression)        { g.binary("runtime.Lt", l, r) }
func (g *codeGen) LesserEquals(l, r ast.Expression)  { g.binary("runtime.Le", l, r) }
func (g *codeGen) Greater(l, r ast.Expression)       { g.binary("runtime.Gt", l, r) }
func (g *codeGen) GreaterEquals(l, r ast.Expression) { g.binary("runtime.Ge", l, r) }

// BooleanAnd and BooleanOr short-circuit for free: they compile to a
// native Go if/else assigning into a synthetic bool local, so the
// right operand's generated statements are only ever reached when
// they'd change the result.
func (g *codeGen) BooleanAnd(l, r ast.Expression) {
	res := g.newTemp("and")
	lv := g.eval(l)
	g.write("%s := false", res)
	g.write("if abi.ToBoolean(%s) {", lv)
	g.indent++
	rv := g.eval(r)
	g.write("%s = abi.ToBoolean(%s)", res, rv)
	g.indent--
	g.write("}")
	g.pushExpr(fmt.Sprintf("value.NewBool(%s)", res))
}

func (g *codeGen) BooleanOr(l, r ast.Expression) {
	res := g.newTemp("or")
	lv := g.eval(l)
	g.write("%s := true", res)
	g.write("if !abi.ToBoolean(%s) {", lv)
	g.indent++
	rv := g.eval(r)
	g.write("%s = abi.ToBoolean(%s)", res, rv)
	g.indent--
	g.write("}")
	g.pushExpr(fmt.Sprintf("value.NewBool(%s)", res))
}

func (g *codeGen) Not(expr ast.Expression) {
	g.pushExpr(fmt.Sprintf("value.NewBool(!abi.ToBoolean(%s))", g.eval(expr)))
}

func (g *codeGen) Negate(expr ast.Expression) {
	v := g.eval(expr)
	g.pushExpr(fmt.Sprintf("runtime.Neg(abi, %s)", v))
}

func (g *codeGen) Modifiers(chain []ast.ModifierApplication, base ast.Expression) {
	cur := g.eval(base)
	for _, m := range chain {
		var params []string
		for _, p := range m.Params {
			params = append(params, g.eval(p))
		}
		tmp := g.newTemp("mv")
		g.write("%s := runtime.ApplyModifierByName(abi, %s, %s, []value.Value{%s})",
			tmp, strconv.Quote(m.Name), cur, strings.Join(params, ", "))
		cur = tmp
	}
	g.pushExpr(cur)
}

// ForEach lowers to a Go do-while shape: the first MemberIter call
// both creates the iterator and reports whether it has a first
// member, so a single condition serves as both the foreachelse guard
// and the loop's advance step.
func (g *codeGen) ForEach(source ast.Expression, keyVar, valueVar string, scopeID int, body, els ast.Statement) {
	src := g.newTemp("src")
	g.write("%s := %s", src, g.eval(source))
	cont := g.newTemp("more")
	g.write("%s := abi.MemberIter(%s, %d, %s, %s)", cont, src, scopeID, strconv.Quote(valueVar), strconv.Quote(keyVar))
	g.write("if !%s {", cont)
	g.indent++
	if els != nil {
		els.Emit(g)
	}
	g.indent--
	g.write("} else {")
	g.indent++
	g.write("for %s {", cont)
	g.indent++
	body.Emit(g)
	g.write("%s = abi.MemberIter(%s, %d, %s, %s)", cont, src, scopeID, strconv.Quote(valueVar), strconv.Quote(keyVar))
	g.indent--
	g.write("}")
	g.indent--
	g.write("}")
}

func (g *codeGen) Assign(name string, expr ast.Expression) {
	switch lit := expr.(type) {
	case *ast.LiteralInt:
		g.write("abi.AssignNumeric(%d, %s)", lit.Value, strconv.Quote(name))
	case *ast.LiteralBool:
		g.write("abi.AssignBoolean(%v, %s)", lit.Value, strconv.Quote(name))
	case *ast.LiteralString:
		g.write("abi.AssignString(%s, %s)", strconv.Quote(lit.Value), strconv.Quote(name))
	default:
		g.write("abi.Assign(%s, %s)", strconv.Quote(name), g.eval(expr))
	}
}

func (g *codeGen) SetEscape(name string) {
	g.write("abi.SetEscaper(%s)", strconv.Quote(name))
}
