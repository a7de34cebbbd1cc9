package modgraph

import (
	"context"
	"sync"

	"github.com/jward/glint/internal/syntax"
)

// Lookup is the project-wide file index. FilesByName returns every project
// file whose base name equals name.
type Lookup interface {
	FilesByName(name string) []*syntax.File
}

// Graph resolves imports against one immutable project snapshot. Results are
// memoized per file revision; a changed project gets a new Graph rather than
// an updated one.
type Graph struct {
	lookup Lookup
	names  sync.Map // memoKey → []string
	mods   sync.Map // memoKey → []*syntax.File
}

type memoKey struct {
	path     string
	revision string
}

func keyOf(f *syntax.File) memoKey {
	return memoKey{path: f.Path, revision: f.Revision}
}

// New creates a Graph over lookup.
func New(lookup Lookup) *Graph {
	return &Graph{lookup: lookup}
}

// ResolveImport returns the unique project file named name, or nil when no
// file or more than one file has that name. The source file is accepted for
// future directory scoping and is not consulted.
func (g *Graph) ResolveImport(source *syntax.File, name string) *syntax.File {
	files := g.lookup.FilesByName(name)
	if len(files) != 1 {
		return nil
	}
	return files[0]
}

// ImportedFilenames returns the import names of f's top-level directives.
func (g *Graph) ImportedFilenames(f *syntax.File) []string {
	key := keyOf(f)
	if v, ok := g.names.Load(key); ok {
		return v.([]string)
	}
	var names []string
	for _, d := range Directives(f) {
		names = append(names, d.Name)
	}
	v, _ := g.names.LoadOrStore(key, names)
	return v.([]string)
}

// ImportedModules returns the set of files f imports directly, in the
// order of their first directive. Imports that do not resolve, repeated
// imports and imports of f itself are skipped.
func (g *Graph) ImportedModules(f *syntax.File) []*syntax.File {
	key := keyOf(f)
	if v, ok := g.mods.Load(key); ok {
		return v.([]*syntax.File)
	}
	var mods []*syntax.File
	seen := map[string]bool{f.Path: true}
	for _, name := range g.ImportedFilenames(f) {
		target := g.ResolveImport(f, name)
		if target == nil || seen[target.Path] {
			continue
		}
		seen[target.Path] = true
		mods = append(mods, target)
	}
	v, _ := g.mods.LoadOrStore(key, mods)
	return v.([]*syntax.File)
}

// Walk visits f and every module reachable from it through imports, breadth
// first, each at most once. It stops early when fn returns an error or ctx is
// done.
func (g *Graph) Walk(ctx context.Context, f *syntax.File, fn func(*syntax.File) error) error {
	visited := map[string]bool{f.Path: true}
	queue := []*syntax.File{f}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		cur := queue[0]
		queue = queue[1:]
		if err := fn(cur); err != nil {
			return err
		}
		for _, next := range g.ImportedModules(cur) {
			if visited[next.Path] {
				continue
			}
			visited[next.Path] = true
			queue = append(queue, next)
		}
	}
	return nil
}

// Reachable returns every module transitively imported by f, excluding f
// itself, in breadth-first order.
func (g *Graph) Reachable(ctx context.Context, f *syntax.File) ([]*syntax.File, error) {
	var out []*syntax.File
	err := g.Walk(ctx, f, func(m *syntax.File) error {
		if m.Path != f.Path {
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Unresolved returns the top-level import directives of f whose target does
// not resolve to exactly one project file.
func (g *Graph) Unresolved(f *syntax.File) []Directive {
	var out []Directive
	for _, d := range Directives(f) {
		if g.ResolveImport(f, d.Name) == nil {
			out = append(out, d)
		}
	}
	return out
}
