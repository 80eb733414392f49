package parser

import (
	"fmt"
	"iter"
	"math/big"
	"strconv"

	"github.com/leapstack-labs/pype/pkg/token"
)

// Lexer tokenizes pype source.
type Lexer struct {
	input     string
	pos       int  // current position in input
	readPos   int  // reading position (after current char)
	ch        byte // current char under examination
	line      int  // current line number (1-based)
	lineStart int  // offset of the first byte of the current line

	errors []error

	// Comments collected during lexing (for tooling)
	Comments []*token.Comment
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

// Errors returns the lexical errors recorded so far.
func (l *Lexer) Errors() []error {
	return l.errors
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' && l.readPos > 0 {
		l.line++
		l.lineStart = l.readPos
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// atEOF distinguishes the end of input from a literal NUL byte.
func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.pos - l.lineStart + 1,
		Offset: l.pos,
	}
}

// NextToken returns the next token. Illegal characters are recorded as
// errors and skipped; at the end of input NextToken keeps returning EOF.
func (l *Lexer) NextToken() token.Token {
	for {
		l.skipWhitespaceAndComments()

		pos := l.currentPos()
		if l.atEOF() {
			return token.Token{Type: token.EOF, Pos: pos}
		}

		switch l.ch {
		case '(':
			return l.single(token.LPAREN, pos)
		case ')':
			return l.single(token.RPAREN, pos)
		case '{':
			return l.single(token.LBRACE, pos)
		case '}':
			return l.single(token.RBRACE, pos)
		case '+':
			return l.single(token.PLUS, pos)
		case '-':
			return l.single(token.MINUS, pos)
		case '*':
			return l.single(token.STAR, pos)
		case '/':
			return l.single(token.SLASH, pos)
		case ':':
			if l.peekChar() == '=' {
				l.readChar()
				l.readChar()
				return token.Token{Type: token.ASSIGN, Literal: ":=", Pos: pos}
			}
		case '"':
			if tok, ok := l.readString(pos); ok {
				return tok
			}
			continue
		default:
			switch {
			case isDigit(l.ch):
				return l.readNumber(pos)
			case isLetter(l.ch) || l.ch == '_':
				lit := l.readIdentifier()
				return token.Token{Type: token.LookupIdent(lit), Literal: lit, Value: lit, Pos: pos}
			}
		}

		l.addError(pos, fmt.Sprintf(ErrIllegalCharacter, l.ch))
		l.readChar()
	}
}

func (l *Lexer) single(t token.TokenType, pos token.Position) token.Token {
	lit := string(l.ch)
	l.readChar()
	return token.Token{Type: t, Literal: lit, Pos: pos}
}

func (l *Lexer) addError(pos token.Position, msg string) {
	l.errors = append(l.errors, &LexError{Pos: pos, Message: msg})
}

// skipWhitespaceAndComments skips whitespace and collects comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEOF() {
		switch l.ch {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			l.readChar()
		case '#':
			l.collectLineComment()
		default:
			return
		}
	}
}

// collectLineComment collects a '#' comment up to, not including, the newline.
func (l *Lexer) collectLineComment() {
	startPos := l.currentPos()
	startOffset := l.pos

	for l.ch != '\n' && !l.atEOF() {
		l.readChar()
	}

	l.Comments = append(l.Comments, &token.Comment{
		Text: l.input[startOffset:l.pos],
		Span: token.Span{Start: startPos, End: l.currentPos()},
	})
}

// readString reads a double-quoted string. The contents are taken verbatim
// up to the next quote on the same line. An unterminated string is an error;
// only the opening quote is skipped so scanning resumes right after it.
func (l *Lexer) readString(pos token.Position) (token.Token, bool) {
	start := l.pos
	end := start + 1
	for end < len(l.input) && l.input[end] != '"' && l.input[end] != '\n' {
		end++
	}
	if end >= len(l.input) || l.input[end] != '"' {
		l.addError(pos, ErrUnterminatedString)
		l.readChar()
		return token.Token{}, false
	}

	for l.pos <= end {
		l.readChar()
	}
	return token.Token{
		Type:    token.STRING,
		Literal: l.input[start : end+1],
		Value:   l.input[start+1 : end],
		Pos:     pos,
	}, true
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a run of digits. The value is an int64 when it fits and
// a *big.Int otherwise.
func (l *Lexer) readNumber(pos token.Position) token.Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	lit := l.input[start:l.pos]

	var value any
	if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
		value = n
	} else {
		n, _ := new(big.Int).SetString(lit, 10)
		value = n
	}
	return token.Token{Type: token.NUMBER, Literal: lit, Value: value, Pos: pos}
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// Tokenize scans input completely. The returned tokens end with EOF.
func Tokenize(input string) ([]token.Token, []error) {
	l := NewLexer(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens, l.Errors()
}

// Tokens returns a lazy sequence of the tokens of input, excluding the final
// EOF. Every range over the sequence scans input again from the start.
// Lexical errors are dropped; use Tokenize or a Lexer to observe them.
func Tokens(input string) iter.Seq[token.Token] {
	return func(yield func(token.Token) bool) {
		l := NewLexer(input)
		for {
			tok := l.NextToken()
			if tok.Type == token.EOF || !yield(tok) {
				return
			}
		}
	}
}
