package glint

import (
	"context"
	"sort"

	"github.com/jward/glint/internal/modgraph"
	"github.com/jward/glint/internal/sema"
	"github.com/jward/glint/internal/syntax"
)

// Snapshot is an immutable view of a project: a set of parsed files and the
// analysis caches built over them. All methods are safe for concurrent use.
// A change to the project produces a new Snapshot; caches are never
// invalidated in place.
type Snapshot struct {
	files    map[string]*syntax.File
	byName   map[string][]*syntax.File
	sorted   []*syntax.File
	analyzer *sema.Analyzer
}

func newSnapshot(files map[string]*syntax.File) *Snapshot {
	s := &Snapshot{
		files:  files,
		byName: make(map[string][]*syntax.File),
		sorted: make([]*syntax.File, 0, len(files)),
	}
	for _, f := range files {
		s.sorted = append(s.sorted, f)
	}
	sort.Slice(s.sorted, func(i, j int) bool { return s.sorted[i].Path < s.sorted[j].Path })
	for _, f := range s.sorted {
		s.byName[f.Name()] = append(s.byName[f.Name()], f)
	}
	s.analyzer = sema.NewAnalyzer(modgraph.New(s))
	return s
}

// with returns a new snapshot with f added or replaced.
func (s *Snapshot) with(fs ...*File) *Snapshot {
	files := make(map[string]*syntax.File, len(s.files)+len(fs))
	for p, f := range s.files {
		files[p] = f
	}
	for _, f := range fs {
		files[f.Path] = f
	}
	return newSnapshot(files)
}

// without returns a new snapshot lacking path.
func (s *Snapshot) without(path string) *Snapshot {
	files := make(map[string]*syntax.File, len(s.files))
	for p, f := range s.files {
		if p != path {
			files[p] = f
		}
	}
	return newSnapshot(files)
}

// FilesByName returns the files whose base name is name, ordered by path.
func (s *Snapshot) FilesByName(name string) []*File {
	return s.byName[name]
}

// File returns the file at path, or nil.
func (s *Snapshot) File(path string) *File {
	return s.files[path]
}

// Files returns every file ordered by path.
func (s *Snapshot) Files() []*File {
	return s.sorted
}

// Len returns the number of files.
func (s *Snapshot) Len() int {
	return len(s.files)
}

// Analyzer exposes the snapshot's analyzer.
func (s *Snapshot) Analyzer() *sema.Analyzer {
	return s.analyzer
}

// ResolvePossibleCalledFunctions returns the functions visible from f that
// accept the arguments of call: exactly when strict, allowing implicit
// conversions otherwise.
func (s *Snapshot) ResolvePossibleCalledFunctions(f *File, call Node, strict bool) []*Signature {
	return s.analyzer.ResolvePossibleCalledFunctions(f, call, strict)
}

// ResolveImport returns the unique file named name, or nil when there is
// none or more than one.
func (s *Snapshot) ResolveImport(source *File, name string) *File {
	return s.analyzer.Graph().ResolveImport(source, name)
}

// ImportedFilenames returns the names imported by f's top-level
// directives, in source order.
func (s *Snapshot) ImportedFilenames(f *File) []string {
	return s.analyzer.Graph().ImportedFilenames(f)
}

// ImportedModules returns the files f imports directly. Unresolved imports
// are omitted.
func (s *Snapshot) ImportedModules(f *File) []*File {
	return s.analyzer.Graph().ImportedModules(f)
}

// Reachable returns every file reachable from f through imports, excluding
// f, each once.
func (s *Snapshot) Reachable(ctx context.Context, f *File) ([]*File, error) {
	return s.analyzer.Reachable(ctx, f)
}

// FindGlobalNamedElements returns the top-level declarations named name of
// the given kind declared in scope or in a file it imports directly.
func (s *Snapshot) FindGlobalNamedElements(scope *File, name string, kind Kind) []Element {
	return s.analyzer.Resolver().FindGlobalNamedElements(scope, name, kind)
}

// FindGlobalNamedElement returns the first of FindGlobalNamedElements, or
// nil.
func (s *Snapshot) FindGlobalNamedElement(scope *File, name string, kind Kind) *Element {
	return s.analyzer.Resolver().FindGlobalNamedElement(scope, name, kind)
}

// FindImportedNamedElements is FindGlobalNamedElements without scope's own
// declarations.
func (s *Snapshot) FindImportedNamedElements(scope *File, name string, kind Kind) []Element {
	return s.analyzer.Resolver().FindImportedNamedElements(scope, name, kind)
}

// FindImportedNamedElement returns the first of FindImportedNamedElements,
// or nil.
func (s *Snapshot) FindImportedNamedElement(scope *File, name string, kind Kind) *Element {
	return s.analyzer.Resolver().FindImportedNamedElement(scope, name, kind)
}

// FindReachableNamedElements searches every file reachable from scope.
func (s *Snapshot) FindReachableNamedElements(ctx context.Context, scope *File, name string, kind Kind) ([]Element, error) {
	return s.analyzer.Resolver().FindReachableNamedElements(ctx, scope, name, kind)
}

// Calls analyzes every call expression in f.
func (s *Snapshot) Calls(ctx context.Context, f *File) ([]Call, error) {
	return s.analyzer.Calls(ctx, f)
}

// Check runs the built-in checks over f.
func (s *Snapshot) Check(ctx context.Context, f *File) ([]Diagnostic, error) {
	return s.analyzer.Check(ctx, f)
}
