package interp

import (
	"testing"

	"github.com/basalt-tpl/smarty/internal/ast"
	"github.com/basalt-tpl/smarty/internal/data"
	"github.com/basalt-tpl/smarty/internal/escape"
	"github.com/basalt-tpl/smarty/internal/handler"
	"github.com/basalt-tpl/smarty/internal/parser"
	"github.com/basalt-tpl/smarty/internal/runtime"
	"github.com/basalt-tpl/smarty/internal/value"
)

func render(t *testing.T, src string, d *data.Data) (string, *handler.Handler) {
	t.Helper()
	p := parser.New("test", src)
	stmt, _, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	h := handler.New(d, escape.Get("html"))
	if err := Run(stmt, h); err != nil {
		t.Fatalf("run: %v", err)
	}
	return h.String(), h
}

func TestLiteralOutput(t *testing.T) {
	out, _ := render(t, "hello world", data.New())
	if out != "hello world" {
		t.Fatalf("got %q", out)
	}
}

func TestVariableSubstitution(t *testing.T) {
	d := data.New().Assign("name", value.NewString("Ada"))
	out, _ := render(t, "hi {$name}!", d)
	if out != "hi Ada!" {
		t.Fatalf("got %q", out)
	}
}

func TestEscapingAppliesToOutput(t *testing.T) {
	d := data.New().Assign("x", value.NewString("<b>"))
	out, _ := render(t, "{$x}", d)
	if out != "&lt;b&gt;" {
		t.Fatalf("got %q", out)
	}
}

func TestIfElse(t *testing.T) {
	d := data.New().Assign("flag", value.NewBool(false))
	out, _ := render(t, "{if $flag}yes{else}no{/if}", d)
	if out != "no" {
		t.Fatalf("got %q", out)
	}
}

func TestIfElseIfChain(t *testing.T) {
	d := data.New().Assign("n", value.NewInt(2))
	out, _ := render(t, "{if $n==1}one{elseif $n==2}two{else}other{/if}", d)
	if out != "two" {
		t.Fatalf("got %q", out)
	}
}

func TestForeachOverList(t *testing.T) {
	list := value.NewList([]value.Value{value.NewInt(1), value.NewInt(2), value.NewInt(3)})
	d := data.New().Assign("items", list)
	out, _ := render(t, "{foreach $items as $it}[{$it}]{/foreach}", d)
	if out != "[1][2][3]" {
		t.Fatalf("got %q", out)
	}
}

func TestForeachElseOnEmpty(t *testing.T) {
	d := data.New().Assign("items", value.NewList(nil))
	out, _ := render(t, "{foreach $items as $it}[{$it}]{foreachelse}empty{/foreach}", d)
	if out != "empty" {
		t.Fatalf("got %q", out)
	}
}

func TestForeachWithKey(t *testing.T) {
	// "var AS $v (=> $k)?": $value binds the map value, $key the map key.
	m := value.NewMap([]string{"a", "b"}, map[string]value.Value{
		"a": value.NewInt(1),
		"b": value.NewInt(2),
	})
	d := data.New().Assign("m", m)
	out, _ := render(t, "{foreach $m as $value => $key}{$key}={$value};{/foreach}", d)
	if out != "a=1;b=2;" {
		t.Fatalf("got %q", out)
	}
}

func TestForeachInFormOverList(t *testing.T) {
	list := value.NewList([]value.Value{value.NewInt(0), value.NewInt(1), value.NewInt(2), value.NewInt(3), value.NewInt(4)})
	d := data.New().Assign("list", list)
	out, _ := render(t, "{foreach $item in $list}item: {$item}\n{/foreach}", d)
	if out != "item: 0\nitem: 1\nitem: 2\nitem: 3\nitem: 4\n" {
		t.Fatalf("got %q", out)
	}
}

func TestNestedForeachScopesDoNotCollide(t *testing.T) {
	outer := value.NewList([]value.Value{value.NewInt(1), value.NewInt(2)})
	inner := value.NewList([]value.Value{value.NewInt(9), value.NewInt(8)})
	d := data.New().Assign("outer", outer).Assign("inner", inner)
	out, _ := render(t, "{foreach $outer as $o}{foreach $inner as $i}{$o}-{$i};{/foreach}{/foreach}", d)
	if out != "1-9;1-8;2-9;2-8;" {
		t.Fatalf("got %q", out)
	}
}

func TestAssignShadowsThenRestoresOnRerender(t *testing.T) {
	d := data.New().Assign("var", value.NewInt(0))
	for i := 1; i <= 2; i++ {
		out, _ := render(t, "{$var}-{$var=1}-{$var}", d)
		if out != "0--1" {
			t.Fatalf("render %d: got %q", i, out)
		}
	}
}

func TestBooleanShortCircuitAnd(t *testing.T) {
	d := data.New().Assign("a", value.NewBool(false))
	out, _ := render(t, "{if $a && $missing.deep.chain}yes{else}no{/if}", d)
	if out != "no" {
		t.Fatalf("got %q", out)
	}
}

func TestBooleanShortCircuitOr(t *testing.T) {
	d := data.New().Assign("a", value.NewBool(true))
	out, _ := render(t, "{if $a || $missing.deep.chain}yes{else}no{/if}", d)
	if out != "yes" {
		t.Fatalf("got %q", out)
	}
}

func TestFilterChainApplied(t *testing.T) {
	d := data.New().Assign("name", value.NewString("ada"))
	out, _ := render(t, "{$name|toupper}", d)
	if out != "ADA" {
		t.Fatalf("got %q", out)
	}
}

func TestFilterChainWithParam(t *testing.T) {
	d := data.New().Assign("name", value.NewString("abcdef"))
	d.Modifier("truncate", data.ModifierFunc(func(v value.Value, params []value.Value) value.Value {
		n := int(params[0].ToInt())
		s := v.ToString()
		if n < len(s) {
			s = s[:n]
		}
		return value.NewString(s)
	}))
	out, _ := render(t, "{$name|truncate:3}", d)
	if out != "abc" {
		t.Fatalf("got %q", out)
	}
}

func TestArithmeticPromotesToDouble(t *testing.T) {
	out, _ := render(t, "{1 + 2.5}", data.New())
	if out != "3.5" {
		t.Fatalf("got %q", out)
	}
}

func TestIntegerDivisionYieldsDoubleOnRemainder(t *testing.T) {
	out, _ := render(t, "{7 / 2}", data.New())
	if out != "3.5" {
		t.Fatalf("got %q", out)
	}
}

func TestDivisionByZeroFails(t *testing.T) {
	p := parser.New("test", "{1 / 0}")
	stmt, _, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	h := handler.New(data.New(), escape.Get("html"))
	if err := Run(stmt, h); err == nil {
		t.Fatal("expected division by zero to fail")
	}
}

func TestRuntimeMixedTypeComparisonFails(t *testing.T) {
	d := data.New().Assign("v", value.NewList([]value.Value{value.NewInt(1)}))
	p := parser.New("test", "{if $v > 1}yes{/if}")
	stmt, _, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	h := handler.New(d, escape.Get("html"))
	if err := Run(stmt, h); err == nil {
		t.Fatal("expected an unorderable comparison to fail at runtime")
	}
}

func TestRuntimeMixedTypeEqualityFails(t *testing.T) {
	d := data.New().
		Assign("a", value.NewList([]value.Value{value.NewInt(1)})).
		Assign("b", value.NewList([]value.Value{value.NewInt(2)}))
	p := parser.New("test", "{if $a == $b}yes{/if}")
	stmt, _, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	h := handler.New(d, escape.Get("html"))
	if err := Run(stmt, h); err == nil {
		t.Fatal("expected comparing two lists to fail at runtime, not silently coerce to equal")
	}
}

func TestRuntimeBoolIntEqualityFails(t *testing.T) {
	d := data.New().
		Assign("a", value.NewBool(true)).
		Assign("b", value.NewInt(1))
	p := parser.New("test", "{if $a == $b}yes{/if}")
	stmt, _, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	h := handler.New(d, escape.Get("html"))
	if err := Run(stmt, h); err == nil {
		t.Fatal("expected comparing bool and int to fail at runtime")
	}
}

func TestMemberByIndexAndByName(t *testing.T) {
	m := value.NewMap([]string{"a"}, map[string]value.Value{"a": value.NewString("x")})
	list := value.NewList([]value.Value{value.NewString("first")})
	d := data.New().Assign("m", m).Assign("list", list)
	out, _ := render(t, "{$m.a}-{$m[\"a\"]}-{$list[0]}", d)
	if out != "x-x-first" {
		t.Fatalf("got %q", out)
	}
}

func TestSetEscapeDirectiveSwapsEscaper(t *testing.T) {
	d := data.New().Assign("x", value.NewString("<b>"))
	out, _ := render(t, "{escape \"raw\"}{$x}", d)
	if out != "<b>" {
		t.Fatalf("got %q", out)
	}
}

func TestBareEscapeDirectiveResetsToDefault(t *testing.T) {
	// A render()-constructed Handler starts with the html escaper, but
	// a bare {escape} always resets to the language default ("raw"),
	// per spec.md's "when absent, the default is raw" rule.
	d := data.New().Assign("x", value.NewString("<b>"))
	out, _ := render(t, "{escape}{$x}", d)
	if out != "<b>" {
		t.Fatalf("got %q", out)
	}
}

func TestPersonalizedFlagSetOnlyByVariableUse(t *testing.T) {
	p := parser.New("test", "static only")
	_, personalized, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if personalized {
		t.Fatal("purely static template must not be marked personalized")
	}

	p2 := parser.New("test", "{$x}")
	_, personalized2, err := p2.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !personalized2 {
		t.Fatal("variable-using template must be marked personalized")
	}
}

func mustCompile(t *testing.T, src string) *ast.Statement {
	t.Helper()
	p := parser.New("test", src)
	stmt, _, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return &stmt
}

func TestCompileProducesReusableChunk(t *testing.T) {
	stmt := mustCompile(t, "{$name}")
	chunk := Compile(*stmt)

	for _, name := range []string{"Ada", "Grace"} {
		d := data.New().Assign("name", value.NewString(name))
		h := handler.New(d, escape.Get("html"))
		if err := Execute(chunk, runtime.Bind(h)); err != nil {
			t.Fatalf("execute: %v", err)
		}
		if h.String() != name {
			t.Fatalf("got %q, want %q", h.String(), name)
		}
	}
}
