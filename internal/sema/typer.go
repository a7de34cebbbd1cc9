package sema

import (
	"strconv"
	"strings"

	"github.com/jward/glint/internal/syntax"
	"github.com/jward/glint/internal/types"
)

// typer computes expression types inside one function body. Locals hold
// every parameter and every variable declared before the expression being
// typed in a block that encloses it.
type typer struct {
	a      *Analyzer
	file   *syntax.File
	locals map[string]types.Type
}

func (a *Analyzer) typerAt(f *syntax.File, n syntax.Node) *typer {
	t := &typer{a: a, file: f, locals: map[string]types.Type{}}
	fn := enclosingFunction(f, n)
	if fn == nil {
		return t
	}
	at := n.Range().Start
	for _, p := range parameters(fn) {
		if name := f.DeclName(p); name != "" {
			t.locals[name] = a.DeclaredType(f, p)
		}
	}
	body := syntax.FirstOfKind(fn, syntax.KindBlock)
	syntax.Inspect(body, func(c syntax.Node) bool {
		if c.Range().Start >= at {
			return false
		}
		// Blocks and statements such as for loops scope their declarations.
		if (c.Kind() == syntax.KindBlock || c.Kind() == syntax.KindOther) && c.Range().End <= at {
			return false
		}
		if c.Kind() == syntax.KindVariable {
			if name := f.DeclName(c); name != "" {
				t.locals[name] = a.DeclaredType(f, c)
			}
		}
		return true
	})
	return t
}

func enclosingFunction(f *syntax.File, n syntax.Node) syntax.Node {
	if f.Root == nil {
		return nil
	}
	r := n.Range()
	for c := f.Root.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Kind() != syntax.KindFunction {
			continue
		}
		if fr := c.Range(); fr.Start <= r.Start && r.End <= fr.End {
			return c
		}
	}
	return nil
}

func (t *typer) typeOf(n syntax.Node) types.Type {
	if n == nil {
		return types.Unknown
	}
	switch n.Kind() {
	case syntax.KindLiteral:
		return literalType(t.file.Text(n))
	case syntax.KindIdentifier:
		return t.identifier(t.file.Text(n))
	case syntax.KindCall:
		return t.call(n)
	case syntax.KindFieldAccess:
		return t.member(n)
	case syntax.KindSubscript:
		return t.subscript(n)
	case syntax.KindBinary:
		return t.binary(n)
	case syntax.KindUnary:
		return t.unary(n)
	case syntax.KindParen:
		return t.typeOf(operand(n))
	}
	return types.Unknown
}

func (t *typer) identifier(name string) types.Type {
	if typ, ok := t.locals[name]; ok {
		return typ
	}
	switch name {
	case "true", "false":
		return types.Scalar{Kind: types.Bool}
	}
	if el := t.a.resolver.FindGlobalNamedElement(t.file, name, syntax.KindVariable); el != nil {
		return t.a.DeclaredType(el.File, el.Node)
	}
	return types.Unknown
}

// call types a constructor as the constructed type and a function call as
// the return type shared by every lenient match.
func (t *typer) call(n syntax.Node) types.Type {
	name := CalleeName(t.file, n)
	if name == "" {
		return types.Unknown
	}
	if t.a.IsConstructor(t.file, name) {
		return t.a.TypeNamed(t.file, name)
	}
	cands := t.a.Candidates(t.file, name)
	if len(cands) == 0 {
		return types.Unknown
	}
	args := Arguments(n)
	argTypes := make([]types.Type, len(args))
	for i, arg := range args {
		argTypes[i] = t.typeOf(arg)
	}
	matches := Resolve(argTypes, cands, false)
	if len(matches) == 0 {
		return types.Unknown
	}
	ret := matches[0].Return
	for _, m := range matches[1:] {
		if !types.Equal(ret, m.Return) {
			return types.Unknown
		}
	}
	return ret
}

var swizzleSets = []string{"xyzw", "rgba", "stpq"}

// swizzleArity returns the component count of a swizzle selector valid for
// a value with arity components, or 0.
func swizzleArity(sel string, arity int) int {
	if len(sel) == 0 || len(sel) > 4 {
		return 0
	}
	for _, set := range swizzleSets {
		valid := true
		for _, r := range sel {
			i := strings.IndexRune(set, r)
			if i < 0 || i >= arity {
				valid = false
				break
			}
		}
		if valid {
			return len(sel)
		}
	}
	return 0
}

func (t *typer) member(n syntax.Node) types.Type {
	object := n.FirstChild()
	if object == nil {
		return types.Unknown
	}
	field := object.NextSibling()
	if field == nil {
		return types.Unknown
	}
	sel := t.file.Text(field)
	var base types.ScalarKind
	var arity int
	switch ot := t.typeOf(object).(type) {
	case *types.Struct:
		return ot.Field(sel)
	case types.Vector:
		base, arity = ot.Base, ot.Arity
	case types.Scalar:
		if ot.Kind == types.Opaque || ot.Kind == types.Void {
			return types.Unknown
		}
		base, arity = ot.Kind, 1
	default:
		return types.Unknown
	}
	switch count := swizzleArity(sel, arity); count {
	case 0:
		return types.Unknown
	case 1:
		return types.Scalar{Kind: base}
	default:
		return types.Vector{Base: base, Arity: count}
	}
}

func (t *typer) subscript(n syntax.Node) types.Type {
	switch ot := t.typeOf(n.FirstChild()).(type) {
	case types.Vector:
		return types.Scalar{Kind: ot.Base}
	case types.Matrix:
		return types.Vector{Base: ot.Base, Arity: ot.Rows}
	}
	return types.Unknown
}

func (t *typer) unary(n syntax.Node) types.Type {
	if opText(t.file, n) == "!" {
		return types.Scalar{Kind: types.Bool}
	}
	return t.typeOf(operand(n))
}

func (t *typer) binary(n syntax.Node) types.Type {
	var left, right syntax.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch {
		case c.Kind() == syntax.KindOperator || c.Kind() == syntax.KindToken:
		case left == nil:
			left = c
		default:
			right = c
		}
	}
	op := opText(t.file, n)
	switch op {
	case "==", "!=", "<", ">", "<=", ">=", "&&", "||", "^^":
		return types.Scalar{Kind: types.Bool}
	case ",":
		return t.typeOf(right)
	case "<<", ">>":
		return t.typeOf(left)
	}
	if strings.HasSuffix(op, "=") {
		return t.typeOf(left)
	}
	return arithmetic(t.typeOf(left), t.typeOf(right), op)
}

// arithmetic types a component-wise or linear-algebra operation.
func arithmetic(l, r types.Type, op string) types.Type {
	if types.IsUnknown(l) || types.IsUnknown(r) {
		return types.Unknown
	}
	switch lt := l.(type) {
	case types.Scalar:
		switch rt := r.(type) {
		case types.Scalar:
			if k, ok := types.CommonScalar(lt.Kind, rt.Kind); ok {
				return types.Scalar{Kind: k}
			}
		case types.Vector:
			if k, ok := types.CommonScalar(lt.Kind, rt.Base); ok {
				return types.Vector{Base: k, Arity: rt.Arity}
			}
		case types.Matrix:
			if k, ok := types.CommonScalar(lt.Kind, rt.Base); ok {
				return types.Matrix{Base: k, Cols: rt.Cols, Rows: rt.Rows}
			}
		}
	case types.Vector:
		switch rt := r.(type) {
		case types.Scalar:
			return arithmetic(r, l, op)
		case types.Vector:
			if k, ok := types.CommonScalar(lt.Base, rt.Base); ok && lt.Arity == rt.Arity {
				return types.Vector{Base: k, Arity: lt.Arity}
			}
		case types.Matrix:
			if k, ok := types.CommonScalar(lt.Base, rt.Base); ok && op == "*" && lt.Arity == rt.Rows {
				return types.Vector{Base: k, Arity: rt.Cols}
			}
		}
	case types.Matrix:
		switch rt := r.(type) {
		case types.Scalar:
			return arithmetic(r, l, op)
		case types.Vector:
			if k, ok := types.CommonScalar(lt.Base, rt.Base); ok && op == "*" && rt.Arity == lt.Cols {
				return types.Vector{Base: k, Arity: lt.Rows}
			}
		case types.Matrix:
			k, ok := types.CommonScalar(lt.Base, rt.Base)
			if !ok {
				break
			}
			if op == "*" && lt.Cols == rt.Rows {
				return types.Matrix{Base: k, Cols: rt.Cols, Rows: lt.Rows}
			}
			if op != "*" && lt.Cols == rt.Cols && lt.Rows == rt.Rows {
				return types.Matrix{Base: k, Cols: lt.Cols, Rows: lt.Rows}
			}
		}
	}
	return types.Unknown
}

// opText returns the text of n's first operator token.
func opText(f *syntax.File, n syntax.Node) string {
	op := syntax.FirstOfKind(n, syntax.KindOperator)
	if op == nil {
		return ""
	}
	return f.Text(op)
}

// operand returns the first child of n that is neither an operator nor
// punctuation.
func operand(n syntax.Node) syntax.Node {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Kind() != syntax.KindOperator && c.Kind() != syntax.KindToken {
			return c
		}
	}
	return nil
}

// literalType types a boolean or numeric literal by its spelling.
func literalType(text string) types.Type {
	switch text {
	case "true", "false":
		return types.Scalar{Kind: types.Bool}
	}
	lower := strings.ToLower(text)
	hex := strings.HasPrefix(lower, "0x")
	switch {
	case strings.HasSuffix(lower, "lf"):
		return types.Scalar{Kind: types.Double}
	case strings.HasSuffix(lower, "u"):
		return types.Scalar{Kind: types.Uint}
	case hex:
		return types.Scalar{Kind: types.Int}
	case strings.ContainsAny(lower, ".ef"):
		return types.Scalar{Kind: types.Float}
	}
	if _, err := strconv.ParseInt(lower, 0, 64); err == nil {
		return types.Scalar{Kind: types.Int}
	}
	return types.Unknown
}

// literalValue returns the numeric value of a literal spelling. Booleans
// map to 1 and 0.
func literalValue(text string) (float64, bool) {
	switch text {
	case "true":
		return 1, true
	case "false":
		return 0, true
	}
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "0x") || !strings.ContainsAny(lower, ".ef") {
		n, err := strconv.ParseInt(strings.TrimSuffix(lower, "u"), 0, 64)
		return float64(n), err == nil
	}
	lower = strings.TrimSuffix(lower, "lf")
	lower = strings.TrimRight(lower, "uf")
	v, err := strconv.ParseFloat(lower, 64)
	return v, err == nil
}
