package source

import (
	"strings"

	"github.com/leapstack-labs/paramimport/pkg/lexer"
	"github.com/leapstack-labs/paramimport/pkg/token"
)

// Import is a top-level Python import statement.
type Import struct {
	// Module is the dotted module name, e.g. "rosparam_handler.parameter_generator_catkin".
	Module string
	// Names lists the names of a from-import; nil for "import *" and plain imports.
	Names []string
	token.Span
}

// DropImports blanks the top-level "from <module> import ..." and
// "import <module>" statements that drop accepts, keeping every byte offset
// and line break. Statements with aliases, relative modules or semicolons
// are left alone, as is anything that does not start in the first column.
//
// Lexer errors are returned as is.
func DropImports(src string, drop func(Import) bool) (string, error) {
	imports, err := Imports(src)
	if err != nil {
		return "", err
	}

	out := []byte(src)
	for _, imp := range imports {
		if !drop(imp) {
			continue
		}
		for i := imp.Start.Offset; i < imp.End.Offset; i++ {
			if out[i] != '\n' && out[i] != '\r' {
				out[i] = ' '
			}
		}
	}
	return string(out), nil
}

// Imports returns the top-level import statements of src that DropImports
// understands, in source order.
func Imports(src string) ([]Import, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}

	var imports []Import
	atStart := true
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch tok.Kind {
		case token.EOF:
			return imports, nil
		case token.NEWLINE:
			atStart = true
			continue
		case token.NL, token.COMMENT, token.CONTINUATION:
			continue
		}

		if !atStart {
			continue
		}
		atStart = false
		if tok.Kind != token.NAME || tok.Start.Column != 1 || (tok.Text != "from" && tok.Text != "import") {
			continue
		}

		end := i
		var words []token.Token
		for ; end < len(toks) && toks[end].Kind != token.NEWLINE && toks[end].Kind != token.EOF; end++ {
			switch toks[end].Kind {
			case token.NL, token.COMMENT, token.CONTINUATION:
			default:
				words = append(words, toks[end])
			}
		}
		if imp, ok := parseImport(words); ok {
			imports = append(imports, imp)
		}
		i = end - 1
	}
	return imports, nil
}

// parseImport recognizes "from a.b import *", "from a.b import x, y",
// "from a.b import (x, y)" and "import a.b".
func parseImport(words []token.Token) (Import, bool) {
	imp := Import{Span: token.Span{Start: words[0].Start, End: words[len(words)-1].End}}

	module, p, ok := dottedName(words, 1)
	if !ok {
		return Import{}, false
	}
	imp.Module = module

	if words[0].Text == "import" {
		return imp, p == len(words)
	}

	if p >= len(words) || words[p].Kind != token.NAME || words[p].Text != "import" {
		return Import{}, false
	}
	rest := words[p+1:]
	if len(rest) == 1 && rest[0].Text == "*" {
		return imp, true
	}

	if len(rest) >= 2 && rest[0].Text == "(" && rest[len(rest)-1].Text == ")" {
		rest = rest[1 : len(rest)-1]
	}
	for j, w := range rest {
		if j%2 == 1 {
			if w.Kind != token.OP || w.Text != "," {
				return Import{}, false
			}
			continue
		}
		if w.Kind != token.NAME || w.Text == "as" {
			return Import{}, false
		}
		imp.Names = append(imp.Names, w.Text)
	}
	return imp, len(imp.Names) > 0
}

// dottedName reads NAME ("." NAME)* starting at words[p] and returns it with
// the index of the first word after it.
func dottedName(words []token.Token, p int) (string, int, bool) {
	var parts []string
	for p < len(words) && words[p].Kind == token.NAME {
		parts = append(parts, words[p].Text)
		p++
		if p < len(words) && words[p].Kind == token.OP && words[p].Text == "." {
			p++
			continue
		}
		break
	}
	if len(parts) == 0 || words[p-1].Kind != token.NAME || parts[len(parts)-1] == "import" {
		return "", p, false
	}
	return strings.Join(parts, "."), p, true
}
