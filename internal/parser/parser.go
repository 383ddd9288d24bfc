// Package parser implements a recursive-descent, operator-precedence
// parser over the token stream produced by internal/lexer, building
// internal/ast nodes eagerly as described in spec.md §4.2.
package parser

import (
	"strconv"

	"github.com/basalt-tpl/smarty/internal/ast"
	"github.com/basalt-tpl/smarty/internal/lexer"
	"github.com/basalt-tpl/smarty/internal/runtime"
	"github.com/basalt-tpl/smarty/internal/token"
)

// maxDepth bounds nested directives and parenthesized expressions,
// turning runaway recursion into a StackOverflow instead of a Go
// stack overflow.
const maxDepth = 200

// Parser turns one template's token stream into its AST.
type Parser struct {
	lex          *lexer.Lexer
	tok          token.Token
	peekTok      token.Token
	peeked       bool
	personalized bool
	depth        int
	nextScope    int
}

// New constructs a Parser over source, tagging error positions with
// filename (may be empty).
func New(filename, source string) *Parser {
	return &Parser{lex: lexer.New(filename, source)}
}

// Parse scans and parses the entire template, returning its top-level
// statement and whether it references at least one variable anywhere
// in its tree (spec.md's "personalized" template).
func (p *Parser) Parse() (ast.Statement, bool, error) {
	if err := p.advance(); err != nil {
		return nil, false, err
	}
	body, stop, err := p.parseSequence(topStopSet)
	if err != nil {
		return nil, false, err
	}
	if stop != token.EOF {
		return nil, false, p.unexpected([]string{"EOF"})
	}
	return body, p.personalized, nil
}

var topStopSet = map[token.Kind]bool{token.EOF: true}
var ifStopSet = map[token.Kind]bool{token.ElseIf: true, token.Else: true, token.EndIf: true}
var endIfSet = map[token.Kind]bool{token.EndIf: true}
var foreachStopSet = map[token.Kind]bool{token.ForeachElse: true, token.EndForeach: true}
var endForeachSet = map[token.Kind]bool{token.EndForeach: true}

// parseSequence collects statements until it either exhausts input or
// sees a directive keyword in stop, in which case it returns without
// consuming that keyword: the caller (an if/foreach production) reads
// it off p.tok next.
func (p *Parser) parseSequence(stop map[token.Kind]bool) (ast.Statement, token.Kind, error) {
	if err := p.enter(); err != nil {
		return nil, token.EOF, err
	}
	defer p.leave()

	var stmts []ast.Statement
	for {
		switch p.tok.Kind {
		case token.EOF:
			if stop[token.EOF] {
				return &ast.Sequence{Stmts: stmts}, token.EOF, nil
			}
			return nil, token.EOF, p.unexpected(stopNames(stop))
		case token.Raw:
			stmts = append(stmts, &ast.Raw{Text: p.tok.Lexeme})
			if err := p.advance(); err != nil {
				return nil, token.EOF, err
			}
		case token.OpenBrace:
			if err := p.advance(); err != nil {
				return nil, token.EOF, err
			}
			if stop[p.tok.Kind] {
				return &ast.Sequence{Stmts: stmts}, p.tok.Kind, nil
			}
			stmt, err := p.parseDirective()
			if err != nil {
				return nil, token.EOF, err
			}
			stmts = append(stmts, stmt)
		default:
			return nil, token.EOF, p.unexpected([]string{"template text or directive"})
		}
	}
}

func stopNames(stop map[token.Kind]bool) []string {
	names := make([]string, 0, len(stop))
	for k := range stop {
		names = append(names, k.String())
	}
	return names
}

func (p *Parser) parseDirective() (ast.Statement, error) {
	switch p.tok.Kind {
	case token.If:
		return p.parseIf()
	case token.Foreach:
		return p.parseForeach()
	case token.Assign:
		return p.parseAssignDirective()
	case token.Escape, token.Mode:
		return p.parseSetEscape()
	case token.Variable:
		return p.parseVariableDirective()
	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.EndBraces); err != nil {
			return nil, err
		}
		return &ast.Output{Expr: expr}, nil
	}
}

// parseVariableDirective disambiguates `{$v}` (an output) from
// `{$v=expr}` (an assignment shorthand) with one token of lookahead.
func (p *Parser) parseVariableDirective() (ast.Statement, error) {
	nxt, err := p.peek()
	if err != nil {
		return nil, err
	}
	if nxt.Kind == token.AssignOp {
		name := p.tok.Lexeme
		if err := p.advance(); err != nil { // consume Variable
			return nil, err
		}
		if err := p.advance(); err != nil { // consume '='
			return nil, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.EndBraces); err != nil {
			return nil, err
		}
		return &ast.Assign{Name: name, Expr: expr}, nil
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.EndBraces); err != nil {
		return nil, err
	}
	return &ast.Output{Expr: expr}, nil
}

func (p *Parser) parseAssignDirective() (ast.Statement, error) {
	if err := p.advance(); err != nil { // consume 'assign'
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.To); err != nil {
		return nil, err
	}
	if p.tok.Kind != token.Variable {
		return nil, p.unexpected([]string{"$variable"})
	}
	name := p.tok.Lexeme
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expect(token.EndBraces); err != nil {
		return nil, err
	}
	return &ast.Assign{Name: name, Expr: expr}, nil
}

func (p *Parser) parseSetEscape() (ast.Statement, error) {
	kw := p.tok.Kind
	if err := p.advance(); err != nil { // consume 'escape'/'mode'
		return nil, err
	}
	var name string
	switch p.tok.Kind {
	case token.String, token.Ident:
		name = p.tok.Lexeme
		if err := p.advance(); err != nil {
			return nil, err
		}
	case token.EndBraces:
		// Bare "{escape}" (not "{mode}", which always names an
		// escaper) resets to the default: escape.Get treats an empty
		// name the same way, so no special-casing is needed downstream.
		if kw != token.Escape {
			return nil, p.unexpected([]string{"escaper name"})
		}
	default:
		return nil, p.unexpected([]string{"escaper name"})
	}
	if err := p.expect(token.EndBraces); err != nil {
		return nil, err
	}
	return &ast.SetEscape{Name: name}, nil
}

// parseIf parses the full if/elseif*/else?/endif chain, folding
// elseif branches into nested *ast.If values threaded through Els.
func (p *Parser) parseIf() (ast.Statement, error) {
	if err := p.advance(); err != nil { // consume 'if'
		return nil, err
	}
	root := &ast.If{}
	cur := root
	for {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cur.Cond = cond
		if err := p.expect(token.EndBraces); err != nil {
			return nil, err
		}
		body, stop, err := p.parseSequence(ifStopSet)
		if err != nil {
			return nil, err
		}
		cur.Then = body

		switch stop {
		case token.ElseIf:
			if err := p.advance(); err != nil { // consume 'elseif'
				return nil, err
			}
			next := &ast.If{}
			cur.Els = next
			cur = next
			continue
		case token.Else:
			if err := p.advance(); err != nil { // consume 'else'
				return nil, err
			}
			if err := p.expect(token.EndBraces); err != nil {
				return nil, err
			}
			elseBody, stop2, err := p.parseSequence(endIfSet)
			if err != nil {
				return nil, err
			}
			if stop2 != token.EndIf {
				return nil, p.unexpected([]string{"endif"})
			}
			cur.Els = elseBody
			if err := p.advance(); err != nil { // consume 'endif'
				return nil, err
			}
			return root, p.expect(token.EndBraces)
		case token.EndIf:
			if err := p.advance(); err != nil { // consume 'endif'
				return nil, err
			}
			return root, p.expect(token.EndBraces)
		default:
			return nil, p.unexpected([]string{"elseif", "else", "endif"})
		}
	}
}

func (p *Parser) parseForeach() (ast.Statement, error) {
	if err := p.advance(); err != nil { // consume 'foreach'
		return nil, err
	}
	firstExpr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	var source ast.Expression
	var valueVar string

	switch p.tok.Kind {
	case token.In:
		// "$v IN var": firstExpr must be the bare loop variable; the
		// source expression comes after the keyword.
		varRef, ok := firstExpr.(*ast.VarRef)
		if !ok {
			return nil, p.unexpected([]string{"$variable"})
		}
		valueVar = varRef.Name
		if err := p.advance(); err != nil { // consume 'in'
			return nil, err
		}
		source, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	case token.As:
		// "var AS $v": firstExpr is the source expression; the loop
		// variable comes after the keyword.
		source = firstExpr
		if err := p.advance(); err != nil { // consume 'as'
			return nil, err
		}
		if p.tok.Kind != token.Variable {
			return nil, p.unexpected([]string{"$variable"})
		}
		valueVar = p.tok.Lexeme
		if err := p.advance(); err != nil {
			return nil, err
		}
	default:
		return nil, p.unexpected([]string{"as", "in"})
	}

	var keyVar string
	if p.tok.Kind == token.FatArrow {
		if err := p.advance(); err != nil { // consume '=>'
			return nil, err
		}
		if p.tok.Kind != token.Variable {
			return nil, p.unexpected([]string{"$variable"})
		}
		keyVar = p.tok.Lexeme
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if err := p.expect(token.EndBraces); err != nil {
		return nil, err
	}

	scopeID := p.nextScope
	p.nextScope++

	body, stop, err := p.parseSequence(foreachStopSet)
	if err != nil {
		return nil, err
	}
	node := &ast.ForEach{Source: source, KeyVar: keyVar, ValueVar: valueVar, ScopeID: scopeID, Body: body}

	switch stop {
	case token.ForeachElse:
		if err := p.advance(); err != nil { // consume 'foreachelse'
			return nil, err
		}
		if err := p.expect(token.EndBraces); err != nil {
			return nil, err
		}
		elseBody, stop2, err := p.parseSequence(endForeachSet)
		if err != nil {
			return nil, err
		}
		if stop2 != token.EndForeach {
			return nil, p.unexpected([]string{"endforeach"})
		}
		node.Els = elseBody
	case token.EndForeach:
		// nothing more to gather
	default:
		return nil, p.unexpected([]string{"foreachelse", "endforeach"})
	}

	if err := p.advance(); err != nil { // consume 'endforeach'
		return nil, err
	}
	return node, p.expect(token.EndBraces)
}

// --- expressions, tightest-last per spec.md's precedence table:
// or < and < (==,!=) < (<,<=,>,>=) < (+,-) < (*,/,%) <
// (unary !, unary -) < (| filter) < (. [])

func (p *Parser) parseExpr() (ast.Expression, error) { return p.parseOr() }

func (p *Parser) parseOr() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == token.OrOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left, err = p.mkBinary(ast.OpOr, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == token.AndAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left, err = p.mkBinary(ast.OpAnd, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Expression, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == token.Eq || p.tok.Kind == token.Ne {
		op := ast.OpEq
		if p.tok.Kind == token.Ne {
			op = ast.OpNe
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left, err = p.mkBinary(op, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parseRelational() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOp
		switch p.tok.Kind {
		case token.Lt:
			op = ast.OpLt
		case token.Le:
			op = ast.OpLe
		case token.Gt:
			op = ast.OpGt
		case token.Ge:
			op = ast.OpGe
		default:
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left, err = p.mkBinary(op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == token.Plus || p.tok.Kind == token.Minus {
		op := ast.OpAdd
		if p.tok.Kind == token.Minus {
			op = ast.OpSub
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left, err = p.mkBinary(op, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOp
		switch p.tok.Kind {
		case token.Star:
			op = ast.OpMul
		case token.Slash:
			op = ast.OpDiv
		case token.Percent:
			op = ast.OpMod
		default:
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left, err = p.mkBinary(op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	switch p.tok.Kind {
	case token.Not:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.OpNot, Expr: expr}, nil
	case token.Minus:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.OpNeg, Expr: expr}, nil
	default:
		return p.parseFilterChain()
	}
}

func (p *Parser) parseFilterChain() (ast.Expression, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != token.Pipe {
		return base, nil
	}
	var chain []ast.ModifierApplication
	for p.tok.Kind == token.Pipe {
		if err := p.advance(); err != nil { // consume '|'
			return nil, err
		}
		if p.tok.Kind != token.Ident {
			return nil, p.unexpected([]string{"modifier name"})
		}
		name := p.tok.Lexeme
		if err := p.advance(); err != nil {
			return nil, err
		}
		var params []ast.Expression
		for p.tok.Kind == token.Colon {
			if err := p.advance(); err != nil { // consume ':'
				return nil, err
			}
			// Params generalize to any postfix expression (literal,
			// variable or member access), not literals alone.
			param, err := p.parsePostfix()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
		}
		chain = append(chain, ast.ModifierApplication{Name: name, Params: params})
	}
	return &ast.Filter{Base: base, Chain: chain}, nil
}

func (p *Parser) parsePostfix() (ast.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.tok.Kind {
		case token.Dot:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.Kind != token.Ident {
				return nil, p.unexpected([]string{"member name"})
			}
			name := p.tok.Lexeme
			if err := p.advance(); err != nil {
				return nil, err
			}
			expr = &ast.MemberByName{Parent: expr, Name: name}
		case token.LBracket:
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			expr = &ast.MemberByExpr{Parent: expr, Index: idx}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.tok
	switch tok.Kind {
	case token.Int:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return nil, &runtime.CompileError{Message: "integer literal out of range: " + tok.Lexeme}
		}
		return &ast.LiteralInt{Value: n}, nil
	case token.Float:
		if err := p.advance(); err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, &runtime.CompileError{Message: "double literal out of range: " + tok.Lexeme}
		}
		return &ast.LiteralDouble{Value: f}, nil
	case token.String:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.LiteralString{Value: tok.Lexeme}, nil
	case token.True:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.LiteralBool{Value: true}, nil
	case token.False:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.LiteralBool{Value: false}, nil
	case token.Variable:
		if err := p.advance(); err != nil {
			return nil, err
		}
		p.personalized = true
		return &ast.VarRef{Name: tok.Lexeme}, nil
	case token.LParen:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return expr, nil
	default:
		return nil, p.unexpected([]string{"expression"})
	}
}

// mkBinary constructs a Binary node, translating a statically
// detected type mismatch into a CompileError.
func (p *Parser) mkBinary(op ast.BinOp, left, right ast.Expression) (ast.Expression, error) {
	n, err := ast.NewBinary(op, left, right)
	if err != nil {
		return nil, &runtime.CompileError{Message: err.Error()}
	}
	return n, nil
}

// --- token stream plumbing

func (p *Parser) advance() error {
	if p.peeked {
		p.tok = p.peekTok
		p.peeked = false
		return nil
	}
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) peek() (token.Token, error) {
	if p.peeked {
		return p.peekTok, nil
	}
	tok, err := p.lex.Next()
	if err != nil {
		return token.Token{}, err
	}
	p.peekTok = tok
	p.peeked = true
	return tok, nil
}

func (p *Parser) expect(k token.Kind) error {
	if p.tok.Kind != k {
		return p.unexpected([]string{k.String()})
	}
	return p.advance()
}

func (p *Parser) unexpected(expected []string) error {
	return &runtime.SyntaxError{Pos: p.tok.Pos, Got: p.tok.String(), Expected: expected}
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return &runtime.StackOverflow{Pos: p.tok.Pos}
	}
	return nil
}

func (p *Parser) leave() { p.depth-- }
