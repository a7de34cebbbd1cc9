package sema

import (
	"github.com/jward/glint/internal/syntax"
	"github.com/jward/glint/internal/types"
)

// constantValue evaluates a literal argument, allowing unary signs and
// parentheses around it. Anything else is not a constant.
func constantValue(f *syntax.File, n syntax.Node) (float64, bool) {
	switch n.Kind() {
	case syntax.KindLiteral:
		return literalValue(f.Text(n))
	case syntax.KindIdentifier:
		switch f.Text(n) {
		case "true":
			return 1, true
		case "false":
			return 0, true
		}
	case syntax.KindParen:
		if inner := operand(n); inner != nil {
			return constantValue(f, inner)
		}
	case syntax.KindUnary:
		inner := operand(n)
		if inner == nil {
			return 0, false
		}
		v, ok := constantValue(f, inner)
		if !ok {
			return 0, false
		}
		switch opText(f, n) {
		case "-":
			return -v, true
		case "+":
			return v, true
		}
	}
	return 0, false
}

// RedundantConstructorArgs reports whether call is a vector constructor
// whose arguments are all the same constant, so that a single argument
// would build the same vector. It returns the range of source text that can
// be deleted: from the end of the first argument to the end of the last.
func (a *Analyzer) RedundantConstructorArgs(f *syntax.File, call syntax.Node) (syntax.Range, bool) {
	if !types.IsVectorName(CalleeName(f, call)) {
		return syntax.Range{}, false
	}
	args := Arguments(call)
	if len(args) < 2 {
		return syntax.Range{}, false
	}
	t := a.typerAt(f, call)
	for i := 0; i+1 < len(args); i++ {
		left, right := t.typeOf(args[i]), t.typeOf(args[i+1])
		if !types.Convertible(left, right) && !types.Convertible(right, left) {
			return syntax.Range{}, false
		}
		lv, ok := constantValue(f, args[i])
		if !ok {
			return syntax.Range{}, false
		}
		rv, ok := constantValue(f, args[i+1])
		if !ok || lv != rv {
			return syntax.Range{}, false
		}
	}
	return syntax.Range{Start: args[0].Range().End, End: args[len(args)-1].Range().End}, true
}
