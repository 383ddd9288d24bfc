package interp

import (
	"github.com/basalt-tpl/smarty/internal/ast"
	"github.com/basalt-tpl/smarty/internal/handler"
	"github.com/basalt-tpl/smarty/internal/runtime"
)

// Run compiles root and executes it against h in one step, for
// callers that don't need to cache the intermediate Chunk. Template
// callers that render the same source repeatedly should call Compile
// once and Execute the resulting Chunk against each Handler instead.
func Run(root ast.Statement, h *handler.Handler) error {
	return Execute(Compile(root), runtime.Bind(h))
}
