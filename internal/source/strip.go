// Package source rewrites borrowed Starlark sources without changing their
// layout: comments are blanked in place and cut points are located by byte
// offset in the comment-free text.
package source

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/paramimport/pkg/lexer"
	"github.com/leapstack-labs/paramimport/pkg/token"
)

// StripComments returns src with every comment replaced by blanks of the same
// byte width. All other tokens keep their line, column and byte offset, and
// the whitespace between tokens is copied verbatim, so source without
// comments comes back unchanged.
//
// Lexer errors are returned as is.
func StripComments(src string) (string, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(src))

	last := 0
	for _, tok := range toks {
		b.WriteString(src[last:tok.Start.Offset])
		if tok.IsComment() {
			b.WriteString(strings.Repeat(" ", tok.Len()))
		} else {
			b.WriteString(tok.Text)
		}
		last = tok.End.Offset
	}
	b.WriteString(src[last:])

	return b.String(), nil
}

// Comments returns the comment tokens of src in source order.
func Comments(src string) ([]token.Token, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}

	var comments []token.Token
	for _, tok := range toks {
		if tok.IsComment() {
			comments = append(comments, tok)
		}
	}
	return comments, nil
}

// FindAll returns the start offset of every match of pattern in text.
func FindAll(text string, pattern *regexp.Regexp) []int {
	matches := pattern.FindAllStringIndex(text, -1)
	offsets := make([]int, 0, len(matches))
	for _, m := range matches {
		offsets = append(offsets, m[0])
	}
	return offsets
}

// CutBeforeLast returns text up to the last match of pattern. The second
// result is false, and text is returned unchanged, when nothing matches.
func CutBeforeLast(text string, pattern *regexp.Regexp) (string, bool) {
	offsets := FindAll(text, pattern)
	if len(offsets) == 0 {
		return text, false
	}
	return text[:offsets[len(offsets)-1]], true
}
