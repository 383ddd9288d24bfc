package ast

// Raw is a span of template text copied to output verbatim.
type Raw struct{ Text string }

func (*Raw) isStatement()    {}
func (n *Raw) Emit(g Generator) { g.Raw(n.Text) }

// Output is `{$expr}`: prints expr's string form through the active
// escaper.
type Output struct{ Expr Expression }

func (*Output) isStatement()      {}
func (n *Output) Emit(g Generator) { g.Output(n.Expr, true) }

// If is `{if cond}then{elseif ...}...{else}els{/if}`. Els may itself
// be another *If (an elseif chain) or nil.
type If struct {
	Cond     Expression
	Then     Statement
	Els      Statement
}

func (*If) isStatement()      {}
func (n *If) Emit(g Generator) { g.Condition(n.Cond, n.Then, n.Els) }

// ForEach is `{foreach $source as $value}body{foreachelse}els{/foreach}`
// (KeyVar is empty when no `$value => $key` form was used). ScopeID is
// assigned by the parser, one per ForEach node in the tree, and
// disambiguates the iterator slot when a name is reused by nested or
// sibling loops.
type ForEach struct {
	Source           Expression
	KeyVar, ValueVar string
	ScopeID          int
	Body             Statement
	Els              Statement
}

func (*ForEach) isStatement() {}
func (n *ForEach) Emit(g Generator) {
	g.ForEach(n.Source, n.KeyVar, n.ValueVar, n.ScopeID, n.Body, n.Els)
}

// Assign is `{assign expr to $name}` or `{$name=expr}`.
type Assign struct {
	Name string
	Expr Expression
}

func (*Assign) isStatement()      {}
func (n *Assign) Emit(g Generator) { g.Assign(n.Name, n.Expr) }

// SetEscape is `{escape "name"}` or `{mode "name"}`: it changes the
// Handler's active escaper for the remainder of the render, in
// execution order along with everything else in the sequence it
// belongs to.
type SetEscape struct{ Name string }

func (*SetEscape) isStatement()      {}
func (n *SetEscape) Emit(g Generator) { g.SetEscape(n.Name) }

// Sequence groups zero or more statements produced by parsing a
// template's top level or a block's body.
type Sequence struct{ Stmts []Statement }

func (*Sequence) isStatement() {}
func (n *Sequence) Emit(g Generator) {
	for _, s := range n.Stmts {
		s.Emit(g)
	}
}
