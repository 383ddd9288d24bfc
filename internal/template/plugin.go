package template

import (
	"fmt"
	"plugin"

	"github.com/basalt-tpl/smarty/internal/data"
	"github.com/basalt-tpl/smarty/internal/escape"
	"github.com/basalt-tpl/smarty/internal/handler"
	"github.com/basalt-tpl/smarty/internal/runtime"
)

// CompiledTemplate wraps a loaded plugin built from the source back
// end's output: `smarty compile ... --build` produces the .so this
// loads.
type CompiledTemplate struct {
	showTemplate func(abi *runtime.ABI) error
	personalized bool
}

// LoadCompiled opens a .so built with `go build -buildmode=plugin`
// from Template.Compile's output and resolves its ShowTemplate and
// Personalized symbols. The standard library's plugin package is the
// only way to load a Go plugin at all, so this is the one place in
// the toolchain that reaches for stdlib by necessity rather than
// choice.
func LoadCompiled(path string) (*CompiledTemplate, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading template plugin %s: %w", path, err)
	}
	showSym, err := p.Lookup("ShowTemplate")
	if err != nil {
		return nil, fmt.Errorf("plugin %s missing ShowTemplate: %w", path, err)
	}
	show, ok := showSym.(func(*runtime.ABI) error)
	if !ok {
		return nil, fmt.Errorf("plugin %s: ShowTemplate has unexpected signature", path)
	}
	personalizedSym, err := p.Lookup("Personalized")
	if err != nil {
		return nil, fmt.Errorf("plugin %s missing Personalized: %w", path, err)
	}
	personalized, ok := personalizedSym.(*bool)
	if !ok {
		return nil, fmt.Errorf("plugin %s: Personalized has unexpected type", path)
	}
	return &CompiledTemplate{showTemplate: show, personalized: *personalized}, nil
}

// Personalized reports the compiled template's cached-once-if-static hint.
func (c *CompiledTemplate) Personalized() bool { return c.personalized }

// Process renders the compiled template against d, exactly like
// Template.Process but skipping parsing and bytecode compilation
// entirely, for an embedder that has built the template's plugin.
// (`smarty watch` does not load plugins; it renders through
// Template.Process.)
func (c *CompiledTemplate) Process(d *data.Data, encoding string) (string, error) {
	h := handler.New(d, escape.Get(encoding))
	abi := runtime.Bind(h)
	if err := c.showTemplate(abi); err != nil {
		return "", err
	}
	if h.Failed() {
		return "", fmt.Errorf("rendering compiled template: %s", h.Error())
	}
	return h.String(), nil
}
