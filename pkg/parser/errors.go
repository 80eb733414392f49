package parser

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/pype/pkg/token"
)

// ParseError represents a syntax error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// LexError represents a lexical analysis error.
type LexError struct {
	Pos     token.Position
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrIllegalCharacter   = "illegal character %q"
	ErrUnterminatedString = "unterminated string literal"
	ErrUnexpectedToken    = "unexpected %s, expected %s"
	ErrTooManyErrors      = "too many errors"
)

// Diagnostics is the list of recoverable errors collected while lexing and
// parsing one source, in order of discovery. Every element is a *LexError
// or a *ParseError.
type Diagnostics []error

// HasErrors reports whether any diagnostic was recorded.
func (d Diagnostics) HasErrors() bool { return len(d) > 0 }

// Err joins the diagnostics into a single error, or returns nil.
func (d Diagnostics) Err() error {
	if len(d) == 0 {
		return nil
	}
	return errors.Join(d...)
}

// LexErrors returns the lexical diagnostics.
func (d Diagnostics) LexErrors() []*LexError {
	var out []*LexError
	for _, err := range d {
		var lexErr *LexError
		if errors.As(err, &lexErr) {
			out = append(out, lexErr)
		}
	}
	return out
}

// ParseErrors returns the syntax diagnostics.
func (d Diagnostics) ParseErrors() []*ParseError {
	var out []*ParseError
	for _, err := range d {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			out = append(out, parseErr)
		}
	}
	return out
}

// Position returns the source position carried by a diagnostic.
func Position(err error) (token.Position, bool) {
	var lexErr *LexError
	if errors.As(err, &lexErr) {
		return lexErr.Pos, true
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Pos, true
	}
	return token.Position{}, false
}
