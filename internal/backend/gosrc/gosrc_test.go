package gosrc

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	tplparser "github.com/basalt-tpl/smarty/internal/parser"
)

// mustGenerate parses src as a template and returns its generated Go
// source text plus the personalized flag the parser reported.
func mustGenerate(t *testing.T, src, pkg string) (string, bool) {
	t.Helper()
	p := tplparser.New("test", src)
	stmt, personalized, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return Generate(stmt, pkg, personalized), personalized
}

// assertValidGo confirms the generated file parses as syntactically
// valid Go, without ever invoking the go tool: go/parser is a pure
// library, not the toolchain's build/vet/test/run/get surface.
func assertValidGo(t *testing.T, src string) {
	t.Helper()
	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, "generated.go", src, parser.AllErrors); err != nil {
		t.Fatalf("generated source is not valid Go: %v\n---\n%s", err, src)
	}
}

func TestGenerateLiteralOnly(t *testing.T) {
	src, personalized := mustGenerate(t, "hello world", "tpl")
	assertValidGo(t, src)
	if personalized {
		t.Fatal("static template should not be personalized")
	}
	if !strings.Contains(src, `abi.Write("hello world")`) {
		t.Fatalf("missing raw write:\n%s", src)
	}
}

func TestGenerateVariableOutput(t *testing.T) {
	src, personalized := mustGenerate(t, "hi {$name}!", "tpl")
	assertValidGo(t, src)
	if !personalized {
		t.Fatal("template using a variable should be personalized")
	}
	if !strings.Contains(src, `abi.Variable("name")`) {
		t.Fatalf("missing variable reference:\n%s", src)
	}
	if !strings.Contains(src, "abi.Output(") {
		t.Fatalf("missing output call:\n%s", src)
	}
}

func TestGenerateIfElse(t *testing.T) {
	src, _ := mustGenerate(t, "{if $a}yes{else}no{/if}", "tpl")
	assertValidGo(t, src)
	if !strings.Contains(src, "if abi.ToBoolean(") {
		t.Fatalf("missing condition:\n%s", src)
	}
	if !strings.Contains(src, "} else {") {
		t.Fatalf("missing else branch:\n%s", src)
	}
}

func TestGenerateForeach(t *testing.T) {
	src, _ := mustGenerate(t, "{foreach $items as $it}[{$it}]{foreachelse}empty{/foreach}", "tpl")
	assertValidGo(t, src)
	if !strings.Contains(src, "abi.MemberIter(") {
		t.Fatalf("missing MemberIter call:\n%s", src)
	}
	if !strings.Contains(src, "for more2 {") && !strings.Contains(src, "for ") {
		t.Fatalf("missing for loop:\n%s", src)
	}
}

func TestGenerateForeachWithKey(t *testing.T) {
	src, _ := mustGenerate(t, "{foreach $m as $k => $v}{$k}={$v};{/foreach}", "tpl")
	assertValidGo(t, src)
	if !strings.Contains(src, `"k"`) || !strings.Contains(src, `"v"`) {
		t.Fatalf("missing key/value var names:\n%s", src)
	}
}

func TestGenerateFilterChain(t *testing.T) {
	src, _ := mustGenerate(t, "{$name|toupper|truncate:3}", "tpl")
	assertValidGo(t, src)
	if !strings.Contains(src, "runtime.ApplyModifierByName(abi, \"toupper\"") {
		t.Fatalf("missing first modifier call:\n%s", src)
	}
	if !strings.Contains(src, "runtime.ApplyModifierByName(abi, \"truncate\"") {
		t.Fatalf("missing second modifier call:\n%s", src)
	}
}

func TestGenerateBooleanShortCircuit(t *testing.T) {
	src, _ := mustGenerate(t, "{if $a && $b}yes{/if}", "tpl")
	assertValidGo(t, src)
	if !strings.Contains(src, ":= false") {
		t.Fatalf("expected a short-circuit accumulator local:\n%s", src)
	}
}

func TestGenerateAssignShorthandUsesTypedFastPath(t *testing.T) {
	src, _ := mustGenerate(t, "{$var=1}", "tpl")
	assertValidGo(t, src)
	if !strings.Contains(src, "abi.AssignNumeric(1, \"var\")") {
		t.Fatalf("expected typed numeric assignment fast path:\n%s", src)
	}
}

func TestGenerateSetEscape(t *testing.T) {
	src, _ := mustGenerate(t, "{escape \"raw\"}{$x}", "tpl")
	assertValidGo(t, src)
	if !strings.Contains(src, `abi.SetEscaper("raw")`) {
		t.Fatalf("missing SetEscaper call:\n%s", src)
	}
}

func TestGenerateMemberAccess(t *testing.T) {
	src, _ := mustGenerate(t, "{$m.a}-{$list[0]}", "tpl")
	assertValidGo(t, src)
	if !strings.Contains(src, `abi.Member(`) {
		t.Fatalf("missing named member access:\n%s", src)
	}
	if !strings.Contains(src, "runtime.MemberDynamic(abi,") {
		t.Fatalf("missing dynamic member access:\n%s", src)
	}
}

func TestGeneratedFileDeclaresPackageAndExports(t *testing.T) {
	src, _ := mustGenerate(t, "static", "rendered")
	assertValidGo(t, src)
	if !strings.HasPrefix(src, "package rendered") {
		t.Fatalf("expected package declaration first, got:\n%s", src)
	}
	if !strings.Contains(src, "func ShowTemplate(abi *runtime.ABI) error {") {
		t.Fatalf("missing ShowTemplate signature:\n%s", src)
	}
	if !strings.Contains(src, "var Personalized = false") {
		t.Fatalf("missing Personalized var:\n%s", src)
	}
}
