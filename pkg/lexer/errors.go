package lexer

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/paramimport/pkg/token"
)

// Error represents a lexical analysis error.
type Error struct {
	Pos     token.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Common error messages
const (
	ErrUnterminatedString       = "unterminated string literal"
	ErrUnterminatedTripleString = "unterminated triple-quoted string literal"
	ErrEOFInStatement           = "unexpected EOF in multi-line statement"
	ErrStrayBackslash           = "unexpected character after line continuation"
)

func quoteRune(r rune) string {
	return strconv.QuoteRune(r)
}
