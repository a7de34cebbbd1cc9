package sema

import (
	"context"
	"sync"

	"github.com/jward/glint/internal/modgraph"
	"github.com/jward/glint/internal/symbols"
	"github.com/jward/glint/internal/syntax"
	"github.com/jward/glint/internal/types"
)

// Analyzer answers type and call questions for one project snapshot. It is
// safe for concurrent use; memoized signatures are keyed by file revision.
type Analyzer struct {
	graph    *modgraph.Graph
	resolver *symbols.Resolver
	sigs     sync.Map // sigKey → *Signature
}

type sigKey struct {
	path     string
	revision string
	start    int
}

// NewAnalyzer creates an Analyzer over graph.
func NewAnalyzer(graph *modgraph.Graph) *Analyzer {
	return &Analyzer{graph: graph, resolver: symbols.NewResolver(graph)}
}

// Graph returns the module graph the analyzer resolves imports with.
func (a *Analyzer) Graph() *modgraph.Graph { return a.graph }

// Resolver returns the global symbol resolver.
func (a *Analyzer) Resolver() *symbols.Resolver { return a.resolver }

// TypeNamed resolves a type name as seen from f: builtin types first, then
// structs visible through the symbol resolver. Anything else is Unknown.
func (a *Analyzer) TypeNamed(f *syntax.File, name string) types.Type {
	return a.typeNamed(f, name, nil)
}

func (a *Analyzer) typeNamed(f *syntax.File, name string, visiting map[string]bool) types.Type {
	if name == "" {
		return types.Unknown
	}
	if t, ok := types.Parse(name); ok {
		return t
	}
	el := a.resolver.FindGlobalNamedElement(f, name, syntax.KindStruct)
	if el == nil || visiting[name] {
		return types.Unknown
	}
	if visiting == nil {
		visiting = map[string]bool{}
	}
	visiting[name] = true
	defer delete(visiting, name)

	st := &types.Struct{Name: name}
	for c := el.Node.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Kind() != syntax.KindField {
			continue
		}
		st.Fields = append(st.Fields, types.Field{
			Name: el.File.DeclName(c),
			Type: a.typeNamed(el.File, typeText(el.File, c), visiting),
		})
	}
	return st
}

// typeText returns the text of n's type specifier, or "".
func typeText(f *syntax.File, n syntax.Node) string {
	spec := syntax.FirstOfKind(n, syntax.KindTypeSpec)
	if spec == nil {
		return ""
	}
	return f.Text(spec)
}

// DeclaredType returns the declared type of a parameter, variable or field.
func (a *Analyzer) DeclaredType(f *syntax.File, n syntax.Node) types.Type {
	return a.TypeNamed(f, typeText(f, n))
}

// Signature builds the signature of a function declaration in f. A lone
// unnamed void parameter declares an empty parameter list.
func (a *Analyzer) Signature(f *syntax.File, fn syntax.Node) *Signature {
	key := sigKey{path: f.Path, revision: f.Revision, start: fn.Range().Start}
	if v, ok := a.sigs.Load(key); ok {
		return v.(*Signature)
	}
	sig := &Signature{
		Name:   f.DeclName(fn),
		Return: a.DeclaredType(f, fn),
		Params: []types.Type{},
		Decl:   DeclRef{Path: f.Path, Range: fn.Range()},
	}
	for _, p := range parameters(fn) {
		sig.Params = append(sig.Params, a.DeclaredType(f, p))
	}
	if len(sig.Params) == 1 && f.DeclName(parameters(fn)[0]) == "" {
		if s, ok := sig.Params[0].(types.Scalar); ok && s.Kind == types.Void {
			sig.Params = sig.Params[:0]
		}
	}
	v, _ := a.sigs.LoadOrStore(key, sig)
	return v.(*Signature)
}

func parameters(fn syntax.Node) []syntax.Node {
	var out []syntax.Node
	for c := fn.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Kind() == syntax.KindParameter {
			out = append(out, c)
		}
	}
	return out
}

// Candidates returns the signatures of every function named name visible
// from f, locals first.
func (a *Analyzer) Candidates(f *syntax.File, name string) []*Signature {
	var out []*Signature
	for _, el := range a.resolver.FindGlobalNamedElements(f, name, syntax.KindFunction) {
		out = append(out, a.Signature(el.File, el.Node))
	}
	return out
}

// IsConstructor reports whether a call to name from f constructs a value:
// name is a builtin type or a visible struct.
func (a *Analyzer) IsConstructor(f *syntax.File, name string) bool {
	if _, ok := types.Parse(name); ok {
		return true
	}
	return a.resolver.FindGlobalNamedElement(f, name, syntax.KindStruct) != nil
}

// ResolvePossibleCalledFunctions returns the functions a call expression in f
// may refer to, as Resolve does for its argument types. Constructor calls
// and calls without a plain callee name resolve to nothing.
func (a *Analyzer) ResolvePossibleCalledFunctions(f *syntax.File, call syntax.Node, strict bool) []*Signature {
	name := CalleeName(f, call)
	if name == "" || a.IsConstructor(f, name) {
		return nil
	}
	cands := a.Candidates(f, name)
	if len(cands) == 0 {
		return nil
	}
	return Resolve(a.ArgTypes(f, call), cands, strict)
}

// CalleeName returns the callee identifier of a call expression, or "".
func CalleeName(f *syntax.File, call syntax.Node) string {
	if call == nil || call.Kind() != syntax.KindCall {
		return ""
	}
	callee := call.FirstChild()
	if callee == nil || callee.Kind() != syntax.KindIdentifier {
		return ""
	}
	return f.Text(callee)
}

// Arguments returns the argument expressions of a call.
func Arguments(call syntax.Node) []syntax.Node {
	first := call.FirstChild()
	if first == nil {
		return nil
	}
	var out []syntax.Node
	for c := first.NextSibling(); c != nil; c = c.NextSibling() {
		if c.Kind() == syntax.KindToken {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ArgTypes types every argument of call in the scope enclosing it.
func (a *Analyzer) ArgTypes(f *syntax.File, call syntax.Node) []types.Type {
	t := a.typerAt(f, call)
	args := Arguments(call)
	out := make([]types.Type, len(args))
	for i, arg := range args {
		out[i] = t.typeOf(arg)
	}
	return out
}

// TypeOf types an expression in the scope enclosing it.
func (a *Analyzer) TypeOf(f *syntax.File, expr syntax.Node) types.Type {
	return a.typerAt(f, expr).typeOf(expr)
}

// Reachable lists the modules transitively imported by f.
func (a *Analyzer) Reachable(ctx context.Context, f *syntax.File) ([]*syntax.File, error) {
	return a.graph.Reachable(ctx, f)
}
