// Package symbols answers "which top-level declarations named N of kind K
// are visible from this file", composing a file's own declarations with
// those of the modules it imports.
package symbols

import (
	"context"

	"github.com/jward/glint/internal/modgraph"
	"github.com/jward/glint/internal/syntax"
)

// Element is a top-level named declaration.
type Element struct {
	File *syntax.File
	Node syntax.Node
	Name string
	Kind syntax.Kind
}

// IsDeclKind reports whether k is a kind that names a top-level element.
func IsDeclKind(k syntax.Kind) bool {
	switch k {
	case syntax.KindFunction, syntax.KindStruct, syntax.KindVariable:
		return true
	}
	return false
}

// TopLevel returns every named top-level declaration in f, in source order.
func TopLevel(f *syntax.File) []Element {
	if f == nil || f.Root == nil {
		return nil
	}
	var out []Element
	for c := f.Root.FirstChild(); c != nil; c = c.NextSibling() {
		if !IsDeclKind(c.Kind()) {
			continue
		}
		name := f.DeclName(c)
		if name == "" {
			continue
		}
		out = append(out, Element{File: f, Node: c, Name: name, Kind: c.Kind()})
	}
	return out
}

// Local returns the top-level declarations of f with the given name and kind.
func Local(f *syntax.File, name string, kind syntax.Kind) []Element {
	var out []Element
	for _, e := range TopLevel(f) {
		if e.Name == name && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Resolver looks up global declarations through a module graph.
type Resolver struct {
	graph *modgraph.Graph
}

// NewResolver creates a Resolver over graph.
func NewResolver(graph *modgraph.Graph) *Resolver {
	return &Resolver{graph: graph}
}

// FindGlobalNamedElements returns the matching declarations of scope
// followed by those of each module scope imports directly, in directive
// order. Imports of imports are not consulted.
func (r *Resolver) FindGlobalNamedElements(scope *syntax.File, name string, kind syntax.Kind) []Element {
	return append(Local(scope, name, kind), r.FindImportedNamedElements(scope, name, kind)...)
}

// FindImportedNamedElements returns the matching declarations of the
// modules scope imports directly, in directive order, leaving out scope's
// own declarations.
func (r *Resolver) FindImportedNamedElements(scope *syntax.File, name string, kind syntax.Kind) []Element {
	var out []Element
	for _, m := range r.graph.ImportedModules(scope) {
		out = append(out, Local(m, name, kind)...)
	}
	return out
}

// FindImportedNamedElement returns the first element
// FindImportedNamedElements would return, or nil.
func (r *Resolver) FindImportedNamedElement(scope *syntax.File, name string, kind syntax.Kind) *Element {
	found := r.FindImportedNamedElements(scope, name, kind)
	if len(found) == 0 {
		return nil
	}
	return &found[0]
}

// FindGlobalNamedElement returns the first element FindGlobalNamedElements
// would return, or nil.
func (r *Resolver) FindGlobalNamedElement(scope *syntax.File, name string, kind syntax.Kind) *Element {
	found := r.FindGlobalNamedElements(scope, name, kind)
	if len(found) == 0 {
		return nil
	}
	return &found[0]
}

// FindReachableNamedElements searches scope and every module reachable from
// it through imports, each visited once.
func (r *Resolver) FindReachableNamedElements(ctx context.Context, scope *syntax.File, name string, kind syntax.Kind) ([]Element, error) {
	var out []Element
	err := r.graph.Walk(ctx, scope, func(f *syntax.File) error {
		out = append(out, Local(f, name, kind)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
