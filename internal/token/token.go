// Package token defines the lexical tokens produced by the smarty lexer
// and consumed by the parser.
package token

import "fmt"

// Kind identifies the category of a Token.
type Kind int

const (
	EOF Kind = iota
	Error

	// Structural
	Raw        // literal text between directives
	OpenBrace  // '{' entering expression mode
	EndBraces  // '}' leaving expression mode

	// Keywords
	If
	Else
	ElseIf
	EndIf
	Foreach
	EndForeach
	ForeachElse
	In
	As
	Assign
	To
	Is
	True
	False
	Escape
	Mode
	Literal
	EndLiteral

	// Literals / identifiers
	Int
	Float
	String
	Variable
	Ident

	// Operators & punctuation
	Plus
	Minus
	Star
	Slash
	Percent
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	AndAnd
	OrOr
	Not
	Pipe
	Colon
	Dot
	LBracket
	RBracket
	LParen
	RParen
	Comma
	AssignOp // '=' inside "{$v=expr}"
	FatArrow // '=>' inside "{foreach $src as $v => $k}"
)

var names = map[Kind]string{
	EOF:         "EOF",
	Error:       "ERROR",
	Raw:         "RAW",
	OpenBrace:   "{",
	EndBraces:   "}",
	If:          "if",
	Else:        "else",
	ElseIf:      "elseif",
	EndIf:       "endif",
	Foreach:     "foreach",
	EndForeach:  "endforeach",
	ForeachElse: "foreachelse",
	In:          "in",
	As:          "as",
	Assign:      "assign",
	To:          "to",
	Is:          "is",
	True:        "true",
	False:       "false",
	Escape:      "escape",
	Mode:        "mode",
	Literal:     "literal",
	EndLiteral:  "/literal",
	Int:         "INT",
	Float:       "FLOAT",
	String:      "STRING",
	Variable:    "VARIABLE",
	Ident:       "IDENT",
	Plus:        "+",
	Minus:       "-",
	Star:        "*",
	Slash:       "/",
	Percent:     "%",
	Eq:          "==",
	Ne:          "!=",
	Lt:          "<",
	Le:          "<=",
	Gt:          ">",
	Ge:          ">=",
	AndAnd:      "&&",
	OrOr:        "||",
	Not:         "!",
	Pipe:        "|",
	Colon:       ":",
	Dot:         ".",
	LBracket:    "[",
	RBracket:    "]",
	LParen:      "(",
	RParen:      ")",
	Comma:       ",",
	AssignOp:    "=",
	FatArrow:    "=>",
}

// Keywords maps the literal spelling of a keyword (as it appears in
// expression mode) to its Kind.
var Keywords = map[string]Kind{
	"if":          If,
	"else":        Else,
	"elseif":      ElseIf,
	"endif":       EndIf,
	"foreach":     Foreach,
	"endforeach":  EndForeach,
	"foreachelse": ForeachElse,
	"in":          In,
	"as":          As,
	"assign":      Assign,
	"to":          To,
	"is":          Is,
	"true":        True,
	"false":       False,
	"escape":      Escape,
	"mode":        Mode,
	"literal":     Literal,
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Pos is a source position, one-based for both line and column so it
// reads naturally in error messages.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a tagged pair of (Kind, lexeme) plus the position it was
// scanned at, used for diagnostics.
type Token struct {
	Kind   Kind
	Lexeme string
	Pos    Pos
}

func (t Token) String() string {
	if t.Lexeme == "" {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Lexeme)
}
