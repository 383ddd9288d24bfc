// Package template is the embedding façade: it parses a template
// source once into an AST, then either interprets it (Process) or
// emits the portable Go source back end (Compile), whose built plugin
// LoadCompiled opens as a separate CompiledTemplate.
package template

import (
	"fmt"

	"github.com/basalt-tpl/smarty/internal/ast"
	"github.com/basalt-tpl/smarty/internal/backend/gosrc"
	"github.com/basalt-tpl/smarty/internal/backend/interp"
	"github.com/basalt-tpl/smarty/internal/data"
	"github.com/basalt-tpl/smarty/internal/escape"
	"github.com/basalt-tpl/smarty/internal/handler"
	"github.com/basalt-tpl/smarty/internal/parser"
	"github.com/basalt-tpl/smarty/internal/runtime"
	"github.com/basalt-tpl/smarty/internal/smcache"
)

// Template is a parsed, back-end-agnostic template ready to be
// rendered against any number of independent Data environments.
type Template struct {
	name         string
	source       string
	root         ast.Statement
	personalized bool
	chunk        *interp.Chunk // lazily built on first interpreted render
}

// Parse compiles source into a Template. name is used only for error
// messages (typically a file path).
func Parse(name, source string) (*Template, error) {
	p := parser.New(name, source)
	root, personalized, err := p.Parse()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return &Template{name: name, source: source, root: root, personalized: personalized}, nil
}

// Personalized reports whether the template reads any request-specific
// data (a variable reference of any kind). A template that isn't can
// be rendered once and its output cached verbatim.
func (t *Template) Personalized() bool { return t.personalized }

// Process renders t against d, encoding output through the named
// escaper ("html", "css", "js", "url", "raw"; unknown names fall back
// to raw), using the interpreter back end.
func (t *Template) Process(d *data.Data, encoding string) (string, error) {
	if t.chunk == nil {
		t.chunk = interp.Compile(t.root)
	}
	h := handler.New(d, escape.Get(encoding))
	abi := runtime.Bind(h)
	if err := interp.Execute(t.chunk, abi); err != nil {
		return "", fmt.Errorf("rendering %s: %w", t.name, err)
	}
	return h.String(), nil
}

// Compile emits the portable Go source back end's rendition of t,
// declaring the given package name. The result is a self-contained
// .go file exposing ShowTemplate(abi) and Personalized, suitable for
// `go build -buildmode=plugin`.
func (t *Template) Compile(pkg string) string {
	return gosrc.Generate(t.root, pkg, t.personalized)
}

// ArtifactKey computes this template's compiled-artifact cache key
// for backend ("interp" or "gosrc"), so a caller populating an
// smcache.Cache never has to re-derive the hashing scheme itself.
func (t *Template) ArtifactKey(backend string) string {
	return smcache.ArtifactKey(t.source, backend)
}
