package ast

// Statement is one node of the template's control-flow tree: raw text,
// an output, an if/else, a foreach, an assignment, or a sequence of
// other statements. Emit walks the node through g, letting a back end
// decide how each operation is realized (bytecode, Go source, ...).
type Statement interface {
	isStatement()
	Emit(g Generator)
}

// Expression is one node of the value-producing tree: a literal, a
// variable path, a modifier chain, or an operator application. Every
// Expression carries a StaticType computed once at parse time.
type Expression interface {
	isExpression()
	Emit(g Generator)
	StaticType() Type
}
