// Package modgraph follows "#pragma import" directives from file to file.
// It resolves import names through an injected Lookup and exposes direct
// imports as well as a cycle-safe transitive walk.
package modgraph

import (
	"regexp"
	"strings"

	"github.com/jward/glint/internal/syntax"
)

// quoted captures the text between the first and last double quote.
var quoted = regexp.MustCompile(`"(.*)"`)

// Directive is an import directive found at the top level of a file.
type Directive struct {
	Node syntax.Node
	Name string
}

// pragmaName returns the directive's name token: its first identifier child.
func pragmaName(pragma syntax.Node) syntax.Node {
	return syntax.FirstOfKind(pragma, syntax.KindIdentifier)
}

// pragmaParameter returns the directive text after the name token, trimmed.
func pragmaParameter(f *syntax.File, pragma, name syntax.Node) string {
	start := name.Range().End
	end := pragma.Range().End
	if start >= end || start < 0 || end > len(f.Source) {
		return ""
	}
	return strings.TrimSpace(f.Slice(syntax.Range{Start: start, End: end}))
}

// ImportName returns the target of a `#pragma import "<name>"` directive. It
// returns false for any other directive, including malformed imports.
func ImportName(f *syntax.File, pragma syntax.Node) (string, bool) {
	if pragma == nil || pragma.Kind() != syntax.KindPragma {
		return "", false
	}
	name := pragmaName(pragma)
	if name == nil || f.Text(name) != "import" {
		return "", false
	}
	m := quoted.FindStringSubmatch(pragmaParameter(f, pragma, name))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Directives lists the import directives that are direct children of the
// file root, in source order.
func Directives(f *syntax.File) []Directive {
	if f == nil || f.Root == nil {
		return nil
	}
	var out []Directive
	for c := f.Root.FirstChild(); c != nil; c = c.NextSibling() {
		if name, ok := ImportName(f, c); ok {
			out = append(out, Directive{Node: c, Name: name})
		}
	}
	return out
}
