// Package token defines the lexical tokens of Starlark/Python source.
//
// Tokens carry their original text and span so that consumers can rebuild
// the source exactly, which the comment remover relies on.
package token

import "fmt"

// Kind represents the kind of a lexical token.
type Kind int

const (
	// Special tokens
	EOF Kind = iota
	ILLEGAL

	COMMENT // # to end of line, without the newline
	NAME    // identifiers and keywords
	NUMBER  // 42, 0x2a, 1.5e3
	STRING  // 'a', "a", '''a''', r"a", b'a'
	OP      // operators and delimiters

	NEWLINE      // end of a logical line
	NL           // line break that does not end a logical line
	CONTINUATION // backslash-newline
)

var kindNames = map[Kind]string{
	EOF:          "EOF",
	ILLEGAL:      "ILLEGAL",
	COMMENT:      "COMMENT",
	NAME:         "NAME",
	NUMBER:       "NUMBER",
	STRING:       "STRING",
	OP:           "OP",
	NEWLINE:      "NEWLINE",
	NL:           "NL",
	CONTINUATION: "CONTINUATION",
}

// String returns a human-readable representation of the token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND(%d)", k)
}

// Token is a single lexical token with its original text and position.
type Token struct {
	Kind Kind
	Text string
	Span
}

// IsComment returns true if the token is a comment.
func (t Token) IsComment() bool {
	return t.Kind == COMMENT
}

// IsLineBreak returns true for NEWLINE and NL tokens.
func (t Token) IsLineBreak() bool {
	return t.Kind == NEWLINE || t.Kind == NL
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q at %s", t.Kind, t.Text, t.Start)
}
