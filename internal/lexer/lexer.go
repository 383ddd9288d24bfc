// Package lexer implements the mode-driven lexical analyzer for the
// smarty template language: a text mode that emits literal spans, and
// an expression mode entered on '{' that emits keywords, literals,
// operators and punctuation.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/basalt-tpl/smarty/internal/token"
)

// LexError is a fatal, per-template error raised for a malformed
// token (unterminated string, unterminated directive, invalid
// character in expression mode).
type LexError struct {
	Pos     token.Pos
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

type mode int

const (
	modeText mode = iota
	modeExpr
)

// Lexer scans a template source buffer into a Token stream, one Next()
// call at a time, in the style of a hand-written recursive scanner:
// callers pull tokens rather than the lexer pushing them down a
// channel, which keeps the parser's one-token lookahead simple.
type Lexer struct {
	input    string
	filename string
	pos      int
	line     int
	col      int
	mode     mode
}

// New creates a Lexer over source, tagging error positions with
// filename (may be empty).
func New(filename, source string) *Lexer {
	return &Lexer{
		input:    source,
		filename: filename,
		line:     1,
		col:      1,
		mode:     modeText,
	}
}

func (l *Lexer) here() token.Pos {
	return token.Pos{Line: l.line, Column: l.col}
}

func (l *Lexer) errorf(format string, args ...interface{}) (token.Token, error) {
	err := &LexError{Pos: l.here(), Message: fmt.Sprintf(format, args...)}
	return token.Token{Kind: token.Error, Pos: l.here()}, err
}

// peekByte returns the byte at pos+offset, or 0 past the end.
func (l *Lexer) peekByte(offset int) byte {
	i := l.pos + offset
	if i >= len(l.input) {
		return 0
	}
	return l.input[i]
}

func (l *Lexer) advance() byte {
	c := l.input[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.input)
}

// Next returns the next Token in the stream, or an error if the
// source is malformed at the current position.
func (l *Lexer) Next() (token.Token, error) {
	if l.mode == modeText {
		return l.lexText()
	}
	return l.lexExpr()
}

// lexText scans literal text up to the next '{' that begins a
// directive. A '{' followed by whitespace is treated as a literal
// brace (Smarty-compatible behavior) and is folded into the raw run.
func (l *Lexer) lexText() (token.Token, error) {
	start := l.pos
	startPos := l.here()

	for !l.eof() {
		if l.input[l.pos] == '{' && l.startsDirective() {
			if n, ok := l.matchLiteralOpen(); ok {
				// Flush any raw text collected so far, then swallow the
				// whole {literal}...{/literal} span as one raw token.
				if l.pos > start {
					return token.Token{Kind: token.Raw, Lexeme: l.input[start:l.pos], Pos: startPos}, nil
				}
				return l.lexLiteralBlock(n)
			}
			break
		}
		l.advance()
	}

	if l.pos > start {
		return token.Token{Kind: token.Raw, Lexeme: l.input[start:l.pos], Pos: startPos}, nil
	}

	if l.eof() {
		return token.Token{Kind: token.EOF, Pos: l.here()}, nil
	}

	// We're sitting on a directive-opening '{'.
	l.advance()
	l.mode = modeExpr
	return token.Token{Kind: token.OpenBrace, Lexeme: "{", Pos: startPos}, nil
}

// matchLiteralOpen reports whether the '{' at the current position
// opens a "{literal}" directive, without consuming input. On a match
// it returns the number of bytes from '{' up to and including the
// matching '}'.
func (l *Lexer) matchLiteralOpen() (int, bool) {
	rest := l.input[l.pos:]
	if !strings.HasPrefix(rest, "{") {
		return 0, false
	}
	body := strings.TrimLeft(rest[1:], " \t")
	if !strings.HasPrefix(strings.ToLower(body), "literal") {
		return 0, false
	}
	after := strings.TrimLeft(body[len("literal"):], " \t")
	if !strings.HasPrefix(after, "}") {
		return 0, false
	}
	consumedBody := len(rest[1:]) - len(after) + 1
	return 1 + consumedBody, true
}

// lexLiteralBlock consumes a {literal}...{/literal} directive (whose
// opener is n bytes long, starting at the current position) and
// returns everything in between as a single Raw token.
func (l *Lexer) lexLiteralBlock(n int) (token.Token, error) {
	pos := l.here()
	for i := 0; i < n; i++ {
		l.advance()
	}

	bodyStart := l.pos
	const closer = "{/literal}"
	idx := strings.Index(strings.ToLower(l.input[l.pos:]), closer)
	if idx < 0 {
		return l.errorf("unterminated {literal} block")
	}
	bodyEnd := l.pos + idx
	for l.pos < bodyEnd {
		l.advance()
	}
	for i := 0; i < len(closer); i++ {
		l.advance()
	}
	return token.Token{Kind: token.Raw, Lexeme: l.input[bodyStart:bodyEnd], Pos: pos}, nil
}

// startsDirective reports whether the '{' at the current position
// opens a directive, as opposed to being a literal brace. A brace
// followed by whitespace, or by nothing at all, is literal.
func (l *Lexer) startsDirective() bool {
	next := l.peekByte(1)
	if next == 0 {
		return false
	}
	if next == ' ' || next == '\t' || next == '\n' || next == '\r' {
		return false
	}
	return true
}

// lexExpr scans one token inside a directive: keywords, identifiers,
// variables, literals and operators, terminated by '}'.
func (l *Lexer) lexExpr() (token.Token, error) {
	l.skipSpace()

	if l.eof() {
		return l.errorf("unterminated directive")
	}

	pos := l.here()
	c := l.input[l.pos]

	switch {
	case c == '}':
		l.advance()
		l.mode = modeText
		return token.Token{Kind: token.EndBraces, Lexeme: "}", Pos: pos}, nil
	case c == '$':
		return l.lexVariable()
	case c == '"' || c == '\'':
		return l.lexString(c)
	case isDigit(c):
		return l.lexNumber()
	case c == '/' && isIdentStart(l.peekByte(1)):
		// Closing tags: "{/if}" and "{/foreach}".
		l.advance()
		tok, err := l.lexIdentOrKeyword()
		if err != nil {
			return tok, err
		}
		switch tok.Kind {
		case token.If:
			return token.Token{Kind: token.EndIf, Lexeme: "/" + tok.Lexeme, Pos: pos}, nil
		case token.Foreach:
			return token.Token{Kind: token.EndForeach, Lexeme: "/" + tok.Lexeme, Pos: pos}, nil
		}
		return l.errorf("unknown closing tag %q", "/"+tok.Lexeme)
	case isIdentStart(c):
		return l.lexIdentOrKeyword()
	default:
		return l.lexOperator()
	}
}

func (l *Lexer) skipSpace() {
	for !l.eof() {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.advance()
		default:
			return
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func (l *Lexer) lexVariable() (token.Token, error) {
	pos := l.here()
	l.advance() // consume '$'
	start := l.pos
	if l.eof() || !isIdentStart(l.input[l.pos]) {
		return l.errorf("expected identifier after '$'")
	}
	for !l.eof() && isIdentCont(l.input[l.pos]) {
		l.advance()
	}
	return token.Token{Kind: token.Variable, Lexeme: l.input[start:l.pos], Pos: pos}, nil
}

func (l *Lexer) lexIdentOrKeyword() (token.Token, error) {
	pos := l.here()
	start := l.pos
	for !l.eof() && isIdentCont(l.input[l.pos]) {
		l.advance()
	}
	word := l.input[start:l.pos]
	if kw, ok := token.Keywords[strings.ToLower(word)]; ok {
		return token.Token{Kind: kw, Lexeme: word, Pos: pos}, nil
	}
	return token.Token{Kind: token.Ident, Lexeme: word, Pos: pos}, nil
}

func (l *Lexer) lexNumber() (token.Token, error) {
	pos := l.here()
	start := l.pos
	isFloat := false
	for !l.eof() && isDigit(l.input[l.pos]) {
		l.advance()
	}
	if !l.eof() && l.input[l.pos] == '.' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1]) {
		isFloat = true
		l.advance()
		for !l.eof() && isDigit(l.input[l.pos]) {
			l.advance()
		}
	}
	if !l.eof() && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		save := l.pos
		saveLine, saveCol := l.line, l.col
		l.advance()
		if !l.eof() && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.advance()
		}
		if !l.eof() && isDigit(l.input[l.pos]) {
			isFloat = true
			for !l.eof() && isDigit(l.input[l.pos]) {
				l.advance()
			}
		} else {
			l.pos, l.line, l.col = save, saveLine, saveCol
		}
	}
	kind := token.Int
	if isFloat {
		kind = token.Float
	}
	return token.Token{Kind: kind, Lexeme: l.input[start:l.pos], Pos: pos}, nil
}

// lexString scans a single- or double-quoted string with backslash
// escapes (\n \t \\ \" \').
func (l *Lexer) lexString(quote byte) (token.Token, error) {
	pos := l.here()
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.eof() {
			return l.errorf("unterminated string literal")
		}
		c := l.input[l.pos]
		if c == quote {
			l.advance()
			break
		}
		if c == '\\' {
			l.advance()
			if l.eof() {
				return l.errorf("unterminated string literal")
			}
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '\'':
				sb.WriteByte('\'')
			case '"':
				sb.WriteByte('"')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
			continue
		}
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		for i := 0; i < size; i++ {
			l.advance()
		}
		sb.WriteRune(r)
	}
	return token.Token{Kind: token.String, Lexeme: sb.String(), Pos: pos}, nil
}

var twoCharOps = map[string]token.Kind{
	"==": token.Eq,
	"!=": token.Ne,
	"<=": token.Le,
	">=": token.Ge,
	"&&": token.AndAnd,
	"||": token.OrOr,
	"=>": token.FatArrow,
}

var oneCharOps = map[byte]token.Kind{
	'+': token.Plus,
	'-': token.Minus,
	'*': token.Star,
	'/': token.Slash,
	'%': token.Percent,
	'<': token.Lt,
	'>': token.Gt,
	'!': token.Not,
	'|': token.Pipe,
	':': token.Colon,
	'.': token.Dot,
	'[': token.LBracket,
	']': token.RBracket,
	'(': token.LParen,
	')': token.RParen,
	',': token.Comma,
	'=': token.AssignOp,
}

func (l *Lexer) lexOperator() (token.Token, error) {
	pos := l.here()
	if l.pos+1 < len(l.input) {
		two := l.input[l.pos : l.pos+2]
		if kind, ok := twoCharOps[two]; ok {
			l.advance()
			l.advance()
			return token.Token{Kind: kind, Lexeme: two, Pos: pos}, nil
		}
	}
	c := l.input[l.pos]
	if kind, ok := oneCharOps[c]; ok {
		l.advance()
		return token.Token{Kind: kind, Lexeme: string(c), Pos: pos}, nil
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	if !unicode.IsPrint(r) {
		return l.errorf("invalid character %q", r)
	}
	return l.errorf("invalid character %q in expression", r)
}
