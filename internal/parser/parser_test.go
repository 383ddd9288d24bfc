package parser

import (
	"errors"
	"testing"

	"github.com/basalt-tpl/smarty/internal/ast"
	"github.com/basalt-tpl/smarty/internal/runtime"
)

func mustParse(t *testing.T, src string) (ast.Statement, bool) {
	t.Helper()
	body, personalized, err := New("t", src).Parse()
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return body, personalized
}

func TestParseRawOnly(t *testing.T) {
	body, personalized := mustParse(t, "hello world")
	seq := body.(*ast.Sequence)
	if len(seq.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(seq.Stmts))
	}
	raw, ok := seq.Stmts[0].(*ast.Raw)
	if !ok || raw.Text != "hello world" {
		t.Fatalf("expected Raw(%q), got %#v", "hello world", seq.Stmts[0])
	}
	if personalized {
		t.Fatal("raw-only template must not be personalized")
	}
}

func TestParseOutputMarksPersonalized(t *testing.T) {
	body, personalized := mustParse(t, "hi {$name}!")
	if !personalized {
		t.Fatal("expected personalized")
	}
	seq := body.(*ast.Sequence)
	out, ok := seq.Stmts[1].(*ast.Output)
	if !ok {
		t.Fatalf("expected Output, got %#v", seq.Stmts[1])
	}
	ref, ok := out.Expr.(*ast.VarRef)
	if !ok || ref.Name != "name" {
		t.Fatalf("expected VarRef(name), got %#v", out.Expr)
	}
}

func TestParseAssignShorthand(t *testing.T) {
	body, _ := mustParse(t, "{$x=1}")
	seq := body.(*ast.Sequence)
	as, ok := seq.Stmts[0].(*ast.Assign)
	if !ok || as.Name != "x" {
		t.Fatalf("expected Assign(x), got %#v", seq.Stmts[0])
	}
	lit, ok := as.Expr.(*ast.LiteralInt)
	if !ok || lit.Value != 1 {
		t.Fatalf("expected LiteralInt(1), got %#v", as.Expr)
	}
}

func TestParseAssignDirective(t *testing.T) {
	body, _ := mustParse(t, `{assign "hi" to $greeting}`)
	seq := body.(*ast.Sequence)
	as, ok := seq.Stmts[0].(*ast.Assign)
	if !ok || as.Name != "greeting" {
		t.Fatalf("expected Assign(greeting), got %#v", seq.Stmts[0])
	}
}

func TestParseIfElse(t *testing.T) {
	body, _ := mustParse(t, "{if $x > 1}big{else}small{/if}")
	seq := body.(*ast.Sequence)
	ifNode, ok := seq.Stmts[0].(*ast.If)
	if !ok {
		t.Fatalf("expected If, got %#v", seq.Stmts[0])
	}
	bin, ok := ifNode.Cond.(*ast.Binary)
	if !ok || bin.Op != ast.OpGt {
		t.Fatalf("expected Binary(OpGt), got %#v", ifNode.Cond)
	}
	if ifNode.Then == nil || ifNode.Els == nil {
		t.Fatal("expected both branches populated")
	}
}

func TestParseIfElseIfChain(t *testing.T) {
	body, _ := mustParse(t, "{if $x==1}a{elseif $x==2}b{else}c{/if}")
	seq := body.(*ast.Sequence)
	root := seq.Stmts[0].(*ast.If)
	nested, ok := root.Els.(*ast.If)
	if !ok {
		t.Fatalf("expected elseif to nest as *ast.If, got %#v", root.Els)
	}
	if nested.Els == nil {
		t.Fatal("expected nested else branch")
	}
}

func TestParseForeachWithKey(t *testing.T) {
	// "var AS $v (=> $k)?": the name right after "as" is the value
	// variable, the name after "=>" is the key variable.
	body, _ := mustParse(t, "{foreach $items as $value => $key}{$key}:{$value}{foreachelse}empty{/foreach}")
	seq := body.(*ast.Sequence)
	fe, ok := seq.Stmts[0].(*ast.ForEach)
	if !ok {
		t.Fatalf("expected ForEach, got %#v", seq.Stmts[0])
	}
	if fe.ValueVar != "value" || fe.KeyVar != "key" {
		t.Fatalf("expected value=value key=key, got value=%q key=%q", fe.ValueVar, fe.KeyVar)
	}
	if fe.Els == nil {
		t.Fatal("expected foreachelse body")
	}
}

func TestParseForeachInFormBindsSourceAndLoopVarCorrectly(t *testing.T) {
	// "$v IN var": the bare variable before "in" is the loop variable,
	// the expression after "in" is the source.
	body, _ := mustParse(t, "{foreach $item in $list}{$item}{/foreach}")
	seq := body.(*ast.Sequence)
	fe, ok := seq.Stmts[0].(*ast.ForEach)
	if !ok {
		t.Fatalf("expected ForEach, got %#v", seq.Stmts[0])
	}
	if fe.ValueVar != "item" {
		t.Fatalf("expected loop variable %q, got %q", "item", fe.ValueVar)
	}
	src, ok := fe.Source.(*ast.VarRef)
	if !ok || src.Name != "list" {
		t.Fatalf("expected source to be $list, got %#v", fe.Source)
	}
}

func TestParseForeachScopeIDsDiffer(t *testing.T) {
	body, _ := mustParse(t, "{foreach $a as $v}{foreach $b as $v}{/foreach}{/foreach}")
	seq := body.(*ast.Sequence)
	outer := seq.Stmts[0].(*ast.ForEach)
	innerSeq := outer.Body.(*ast.Sequence)
	inner := innerSeq.Stmts[0].(*ast.ForEach)
	if outer.ScopeID == inner.ScopeID {
		t.Fatalf("expected distinct scope ids, both are %d", outer.ScopeID)
	}
}

func TestParseFilterChainWithParams(t *testing.T) {
	body, _ := mustParse(t, `{$name|truncate:10|toupper}`)
	seq := body.(*ast.Sequence)
	out := seq.Stmts[0].(*ast.Output)
	f, ok := out.Expr.(*ast.Filter)
	if !ok {
		t.Fatalf("expected Filter, got %#v", out.Expr)
	}
	if len(f.Chain) != 2 || f.Chain[0].Name != "truncate" || f.Chain[1].Name != "toupper" {
		t.Fatalf("unexpected chain: %#v", f.Chain)
	}
	if len(f.Chain[0].Params) != 1 {
		t.Fatalf("expected 1 param on truncate, got %d", len(f.Chain[0].Params))
	}
}

func TestParseMemberAndIndex(t *testing.T) {
	body, _ := mustParse(t, `{$user.name}-{$list[0]}`)
	seq := body.(*ast.Sequence)
	out1 := seq.Stmts[0].(*ast.Output)
	if _, ok := out1.Expr.(*ast.MemberByName); !ok {
		t.Fatalf("expected MemberByName, got %#v", out1.Expr)
	}
	out2 := seq.Stmts[2].(*ast.Output)
	if _, ok := out2.Expr.(*ast.MemberByExpr); !ok {
		t.Fatalf("expected MemberByExpr, got %#v", out2.Expr)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	// 1+2*3 must parse as 1+(2*3), so the outer node is the '+'.
	body, _ := mustParse(t, "{1+2*3}")
	seq := body.(*ast.Sequence)
	out := seq.Stmts[0].(*ast.Output)
	top, ok := out.Expr.(*ast.Binary)
	if !ok || top.Op != ast.OpAdd {
		t.Fatalf("expected top-level OpAdd, got %#v", out.Expr)
	}
	right, ok := top.Right.(*ast.Binary)
	if !ok || right.Op != ast.OpMul {
		t.Fatalf("expected right child OpMul, got %#v", top.Right)
	}
}

func TestFilterBindsTighterThanComparison(t *testing.T) {
	// $a|toupper == $b must parse as ($a|toupper) == $b.
	body, _ := mustParse(t, "{if $a|toupper == $b}x{/if}")
	seq := body.(*ast.Sequence)
	ifNode := seq.Stmts[0].(*ast.If)
	cmp := ifNode.Cond.(*ast.Binary)
	if cmp.Op != ast.OpEq {
		t.Fatalf("expected OpEq at top, got %v", cmp.Op)
	}
	if _, ok := cmp.Left.(*ast.Filter); !ok {
		t.Fatalf("expected Filter on the left of ==, got %#v", cmp.Left)
	}
}

func TestUnaryNotAndNegate(t *testing.T) {
	body, _ := mustParse(t, "{if !$flag}skip{/if}")
	seq := body.(*ast.Sequence)
	ifNode := seq.Stmts[0].(*ast.If)
	un, ok := ifNode.Cond.(*ast.Unary)
	if !ok || un.Op != ast.OpNot {
		t.Fatalf("expected Unary(OpNot), got %#v", ifNode.Cond)
	}
}

func TestCompileErrorOnStaticTypeMismatch(t *testing.T) {
	_, _, err := New("t", `{if "a" == 1}x{/if}`).Parse()
	if err == nil {
		t.Fatal("expected a compile error for string/int comparison")
	}
}

func TestSyntaxErrorReportsExpectedSet(t *testing.T) {
	_, _, err := New("t", "{if $x}no endif").Parse()
	if err == nil {
		t.Fatal("expected a syntax error for missing {/if}")
	}
	var se *runtime.SyntaxError
	if !errors.As(err, &se) || len(se.Expected) == 0 {
		t.Fatalf("expected a SyntaxError listing the expected tokens, got %v", err)
	}
}

func TestLiteralBlockPassesThrough(t *testing.T) {
	body, _ := mustParse(t, "{literal}{$not.a.var}{/literal}")
	seq := body.(*ast.Sequence)
	raw, ok := seq.Stmts[0].(*ast.Raw)
	if !ok || raw.Text != "{$not.a.var}" {
		t.Fatalf("expected literal raw passthrough, got %#v", seq.Stmts[0])
	}
}

func TestSetEscapeDirective(t *testing.T) {
	body, _ := mustParse(t, `{escape "url"}{$x}`)
	seq := body.(*ast.Sequence)
	se, ok := seq.Stmts[0].(*ast.SetEscape)
	if !ok || se.Name != "url" {
		t.Fatalf("expected SetEscape(url), got %#v", seq.Stmts[0])
	}
}

func TestBareEscapeDirectiveResetsToDefault(t *testing.T) {
	body, _ := mustParse(t, `{escape}{$x}`)
	seq := body.(*ast.Sequence)
	se, ok := seq.Stmts[0].(*ast.SetEscape)
	if !ok || se.Name != "" {
		t.Fatalf("expected SetEscape(\"\"), got %#v", seq.Stmts[0])
	}
}

func TestBareModeDirectiveIsRejected(t *testing.T) {
	_, _, err := New("t", `{mode}{$x}`).Parse()
	if err == nil {
		t.Fatal("expected a syntax error for {mode} with no escaper name")
	}
}
