// Package lexer tokenizes Starlark/Python source into a token stream that
// covers every non-whitespace byte of the input, comments included.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/paramimport/pkg/token"
)

// Lexer tokenizes Starlark/Python input.
type Lexer struct {
	input string
	pos   int // byte offset of the next unread rune
	line  int // current line number (1-based)
	col   int // column of the next unread rune (1-based, runes)

	depth   int  // bracket nesting depth
	hasCode bool // current logical line holds a non-comment token
}

// New creates a new Lexer for the given input.
func New(input string) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
		col:   1,
	}
}

// Tokenize returns the full token stream of src, ending with an EOF token.
func Tokenize(src string) ([]token.Token, error) {
	l := New(src)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// peek returns the rune at the given byte offset from the current position.
func (l *Lexer) peek(ahead int) rune {
	if l.pos+ahead >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos+ahead:])
	return r
}

// advance consumes one rune.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) token(kind token.Kind, start token.Position) token.Token {
	return token.Token{
		Kind: kind,
		Text: l.input[start.Offset:l.pos],
		Span: token.Span{Start: start, End: l.currentPos()},
	}
}

func (l *Lexer) errorf(pos token.Position, msg string) *Error {
	return &Error{Pos: pos, Message: msg}
}

// skipWhitespace skips blanks that are not line breaks.
func (l *Lexer) skipWhitespace() {
	for !l.eof() {
		switch l.peek(0) {
		case ' ', '\t', '\f':
			l.advance()
		case '\r':
			if l.peek(1) == '\n' {
				return
			}
			l.advance()
		default:
			return
		}
	}
}

// Next returns the next token.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespace()

	start := l.currentPos()
	if l.eof() {
		if l.depth > 0 {
			return token.Token{}, l.errorf(start, ErrEOFInStatement)
		}
		return l.token(token.EOF, start), nil
	}

	ch := l.peek(0)
	switch {
	case ch == '#':
		for !l.eof() && l.peek(0) != '\n' && !(l.peek(0) == '\r' && l.peek(1) == '\n') {
			l.advance()
		}
		return l.token(token.COMMENT, start), nil

	case ch == '\n' || (ch == '\r' && l.peek(1) == '\n'):
		if ch == '\r' {
			l.advance()
		}
		l.advance()
		kind := token.NL
		if l.depth == 0 && l.hasCode {
			kind = token.NEWLINE
			l.hasCode = false
		}
		return l.token(kind, start), nil

	case ch == '\\':
		l.advance()
		switch {
		case l.peek(0) == '\n':
			l.advance()
		case l.peek(0) == '\r' && l.peek(1) == '\n':
			l.advance()
			l.advance()
		default:
			return token.Token{}, l.errorf(start, ErrStrayBackslash)
		}
		return l.token(token.CONTINUATION, start), nil
	}

	l.hasCode = true

	switch {
	case ch == '\'' || ch == '"':
		return l.readString(start)

	case isIdentStart(ch):
		for !l.eof() && isIdentPart(l.peek(0)) {
			l.advance()
		}
		if isStringPrefix(l.input[start.Offset:l.pos]) && (l.peek(0) == '\'' || l.peek(0) == '"') {
			return l.readString(start)
		}
		return l.token(token.NAME, start), nil

	case isDigit(ch) || (ch == '.' && isDigit(l.peek(1))):
		l.readNumber()
		return l.token(token.NUMBER, start), nil
	}

	if op := l.matchOperator(); op > 0 {
		for i := 0; i < op; i++ {
			l.advance()
		}
		tok := l.token(token.OP, start)
		switch tok.Text {
		case "(", "[", "{":
			l.depth++
		case ")", "]", "}":
			if l.depth > 0 {
				l.depth--
			}
		}
		return tok, nil
	}

	l.advance()
	return token.Token{}, l.errorf(start, "illegal character "+quoteRune(ch))
}

// readString reads a string literal whose optional prefix has already been
// consumed. The opening quote is at the current position.
func (l *Lexer) readString(start token.Position) (token.Token, error) {
	quote := l.advance()
	triple := l.peek(0) == quote && l.peek(1) == quote
	if triple {
		l.advance()
		l.advance()
	}

	for {
		if l.eof() {
			if triple {
				return token.Token{}, l.errorf(start, ErrUnterminatedTripleString)
			}
			return token.Token{}, l.errorf(start, ErrUnterminatedString)
		}

		ch := l.peek(0)
		switch {
		case ch == '\\':
			// An escaped rune never closes the literal, raw strings included.
			l.advance()
			if l.peek(0) == '\r' && l.peek(1) == '\n' {
				l.advance()
			}
			l.advance()
		case ch == '\n' && !triple:
			return token.Token{}, l.errorf(start, ErrUnterminatedString)
		case ch == quote && !triple:
			l.advance()
			return l.token(token.STRING, start), nil
		case ch == quote && l.peek(1) == quote && l.peek(2) == quote:
			l.advance()
			l.advance()
			l.advance()
			return l.token(token.STRING, start), nil
		default:
			l.advance()
		}
	}
}

// readNumber reads an int or float literal, including exponents.
func (l *Lexer) readNumber() {
	hex := l.peek(0) == '0' && (l.peek(1) == 'x' || l.peek(1) == 'X')
	for !l.eof() {
		ch := l.peek(0)
		switch {
		case isIdentPart(ch) || ch == '.':
			l.advance()
			if !hex && (ch == 'e' || ch == 'E') && (l.peek(0) == '+' || l.peek(0) == '-') {
				l.advance()
			}
		default:
			return
		}
	}
}

// operators lists operators longest first so the first match wins.
var operators = []string{
	"**=", "//=", "<<=", ">>=", "...",
	"**", "//", "==", "!=", "<=", ">=", "+=", "-=", "*=", "/=", "%=",
	"&=", "|=", "^=", "<<", ">>", "->", ":=",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "<", ">",
	"(", ")", "[", "]", "{", "}", ",", ":", ";", ".", "=", "@", "!",
}

// matchOperator returns the byte length of the operator at the current
// position, or 0 if there is none.
func (l *Lexer) matchOperator() int {
	rest := l.input[l.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			return len(op)
		}
	}
	return 0
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// isStringPrefix reports whether s is a valid string literal prefix.
func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "b", "rb", "br", "u":
		return true
	}
	return false
}
