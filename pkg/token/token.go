// Package token defines the lexical tokens of the pype pipeline language.
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota

	// Literals
	IDENT  // standardize, t, _tmp1
	NUMBER // 123
	STRING // "hello"

	// Delimiters
	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }

	// Operators
	PLUS   // +
	MINUS  // -
	STAR   // *
	SLASH  // /
	ASSIGN // :=

	// Keywords
	INPUT
	OUTPUT
	IMPORT
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

var tokenNames = map[TokenType]string{
	EOF: "EOF",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",

	LPAREN: "(",
	RPAREN: ")",
	LBRACE: "{",
	RBRACE: "}",

	PLUS:   "+",
	MINUS:  "-",
	STAR:   "*",
	SLASH:  "/",
	ASSIGN: ":=",

	INPUT:  "input",
	OUTPUT: "output",
	IMPORT: "import",
}

// keywords maps reserved words to their token types. Matching is exact:
// "Input" is an ordinary identifier.
var keywords = map[string]TokenType{
	"input":  INPUT,
	"output": OUTPUT,
	"import": IMPORT,
}

// LookupIdent returns the keyword token type for ident, or IDENT if ident
// is not a reserved word.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a reserved word.
func IsKeyword(t TokenType) bool {
	return t >= INPUT && t <= IMPORT
}

// IsOperator returns true if the token type is one of the four arithmetic operators.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t <= SLASH
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string // raw lexeme as it appears in the source
	Value   any    // decoded value: int64 or *big.Int for NUMBER, unquoted text for STRING, name for IDENT
	Pos     Position
}

// String renders the token for diagnostics.
func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case IDENT, NUMBER, STRING:
		return fmt.Sprintf("%s %s", t.Type, t.Literal)
	default:
		return fmt.Sprintf("'%s'", t.Literal)
	}
}
