package template

import (
	"strings"
	"testing"

	"github.com/basalt-tpl/smarty/internal/data"
	"github.com/basalt-tpl/smarty/internal/value"
)

func TestProcessLiteralTemplate(t *testing.T) {
	tpl, err := Parse("greeting.tpl", "hello {$name}!")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	d := data.New().Assign("name", value.NewString("Ada"))
	out, err := tpl.Process(d, "html")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out != "hello Ada!" {
		t.Fatalf("got %q", out)
	}
}

func TestProcessReusesCompiledChunkAcrossRenders(t *testing.T) {
	tpl, err := Parse("t.tpl", "{$x}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, v := range []string{"a", "b", "c"} {
		d := data.New().Assign("x", value.NewString(v))
		out, err := tpl.Process(d, "raw")
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		if out != v {
			t.Fatalf("got %q, want %q", out, v)
		}
	}
}

func TestPersonalizedReflectsVariableUse(t *testing.T) {
	static, err := Parse("s.tpl", "static text")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if static.Personalized() {
		t.Fatal("static template must not be personalized")
	}

	dynamic, err := Parse("d.tpl", "{$x}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !dynamic.Personalized() {
		t.Fatal("template referencing a variable must be personalized")
	}
}

func TestCompileEmitsValidGoSource(t *testing.T) {
	tpl, err := Parse("c.tpl", "hi {$name}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	src := tpl.Compile("rendered")
	if !strings.HasPrefix(src, "package rendered") {
		t.Fatalf("expected package declaration, got:\n%s", src)
	}
	if !strings.Contains(src, "func ShowTemplate(") {
		t.Fatalf("missing ShowTemplate:\n%s", src)
	}
}

func TestArtifactKeyDiffersByBackend(t *testing.T) {
	tpl, err := Parse("k.tpl", "{$x}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tpl.ArtifactKey("interp") == tpl.ArtifactKey("gosrc") {
		t.Fatal("interp and gosrc artifact keys must differ")
	}
}

func TestProcessSurfacesRuntimeErrorAsWrappedError(t *testing.T) {
	tpl, err := Parse("bad.tpl", "{1 / 0}")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := tpl.Process(data.New(), "html"); err == nil {
		t.Fatal("expected division by zero to surface as an error")
	}
}
