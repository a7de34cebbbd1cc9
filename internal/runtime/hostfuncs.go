package runtime

import (
	"context"
	"log/slog"

	"github.com/risor-io/risor/object"

	"github.com/jward/glint/internal/modgraph"
	"github.com/jward/glint/internal/sema"
	"github.com/jward/glint/internal/syntax"
)

// fileArg resolves a path argument to a project file.
func fileArg(p Project, fn string, arg object.Object) (*syntax.File, *object.Error) {
	path, err := toString(arg)
	if err != nil {
		return nil, object.Errorf("%s: path %v", fn, err)
	}
	f := p.File(path)
	if f == nil {
		return nil, object.Errorf("%s: no such file %q", fn, path)
	}
	return f, nil
}

// rangeEntries adds the position keys shared by every node description.
func rangeEntries(f *syntax.File, rng syntax.Range, m map[string]object.Object) map[string]object.Object {
	line, col := f.Position(rng.Start)
	m["path"] = object.NewString(f.Path)
	m["start"] = object.NewInt(int64(rng.Start))
	m["end"] = object.NewInt(int64(rng.End))
	m["line"] = object.NewInt(int64(line))
	m["column"] = object.NewInt(int64(col))
	return m
}

func stringList(values []string) *object.List {
	items := make([]object.Object, len(values))
	for i, v := range values {
		items[i] = object.NewString(v)
	}
	return object.NewList(items)
}

// makeSourceFn creates the "source" host function.
//
// source(path) → string
func makeSourceFn(p Project) *object.Builtin {
	return object.NewBuiltin("source", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("source", 1, len(args))
		}
		f, errObj := fileArg(p, "source", args[0])
		if errObj != nil {
			return errObj
		}
		return object.NewString(string(f.Source))
	})
}

// makeFilesFn creates the "files" host function.
//
// files() → [path, ...] sorted
func makeFilesFn(p Project) *object.Builtin {
	return object.NewBuiltin("files", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("files", 0, len(args))
		}
		files := p.Files()
		paths := make([]string, len(files))
		for i, f := range files {
			paths[i] = f.Path
		}
		return stringList(paths)
	})
}

// makeImportsFn creates the "imports" host function. Each directive is
// described with its name, the path it resolves to ("" when unresolved)
// and its position.
//
// imports(path) → [{name, resolved, path, start, end, line, column}, ...]
func makeImportsFn(p Project) *object.Builtin {
	return object.NewBuiltin("imports", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("imports", 1, len(args))
		}
		f, errObj := fileArg(p, "imports", args[0])
		if errObj != nil {
			return errObj
		}
		graph := p.Analyzer().Graph()
		var items []object.Object
		for _, d := range modgraph.Directives(f) {
			resolved := ""
			if target := graph.ResolveImport(f, d.Name); target != nil {
				resolved = target.Path
			}
			items = append(items, object.NewMap(rangeEntries(f, d.Node.Range(), map[string]object.Object{
				"name":     object.NewString(d.Name),
				"resolved": object.NewString(resolved),
			})))
		}
		if items == nil {
			items = []object.Object{}
		}
		return object.NewList(items)
	})
}

// makeImportedFilesFn creates the "imported_files" host function.
//
// imported_files(path) → [name, ...] in directive order
func makeImportedFilesFn(p Project) *object.Builtin {
	return object.NewBuiltin("imported_files", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("imported_files", 1, len(args))
		}
		f, errObj := fileArg(p, "imported_files", args[0])
		if errObj != nil {
			return errObj
		}
		return stringList(p.Analyzer().Graph().ImportedFilenames(f))
	})
}

// makeResolveImportFn creates the "resolve_import" host function.
//
// resolve_import(path, name) → path or nil
func makeResolveImportFn(p Project) *object.Builtin {
	return object.NewBuiltin("resolve_import", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("resolve_import", 2, len(args))
		}
		f, errObj := fileArg(p, "resolve_import", args[0])
		if errObj != nil {
			return errObj
		}
		name, err := toString(args[1])
		if err != nil {
			return object.Errorf("resolve_import: name %v", err)
		}
		target := p.Analyzer().Graph().ResolveImport(f, name)
		if target == nil {
			return object.Nil
		}
		return object.NewString(target.Path)
	})
}

// makeFindGlobalsFn creates the "find_globals" host function. kind is one
// of "function", "struct" or "variable".
//
// find_globals(path, name, kind) → [{name, kind, path, start, end, line, column}, ...]
func makeFindGlobalsFn(p Project) *object.Builtin {
	return object.NewBuiltin("find_globals", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 3 {
			return object.NewArgsError("find_globals", 3, len(args))
		}
		f, errObj := fileArg(p, "find_globals", args[0])
		if errObj != nil {
			return errObj
		}
		name, err := toString(args[1])
		if err != nil {
			return object.Errorf("find_globals: name %v", err)
		}
		kindName, err := toString(args[2])
		if err != nil {
			return object.Errorf("find_globals: kind %v", err)
		}
		kind, ok := syntax.ParseKind(kindName)
		if !ok || !isGlobalKind(kind) {
			return object.Errorf("find_globals: unsupported kind %q", kindName)
		}

		var items []object.Object
		for _, el := range p.Analyzer().Resolver().FindGlobalNamedElements(f, name, kind) {
			items = append(items, object.NewMap(rangeEntries(el.File, el.Node.Range(), map[string]object.Object{
				"name": object.NewString(el.Name),
				"kind": object.NewString(el.Kind.String()),
			})))
		}
		if items == nil {
			items = []object.Object{}
		}
		return object.NewList(items)
	})
}

func isGlobalKind(k syntax.Kind) bool {
	return k == syntax.KindFunction || k == syntax.KindStruct || k == syntax.KindVariable
}

// makeCallsFn creates the "calls" host function. outcome is one of
// "resolved", "unknown_callee" or "possibly_incorrect"; candidates lists
// the signatures accepting the arguments through implicit conversions.
//
// calls(path) → [{name, constructor, outcome, args, candidates, path, start, end, line, column}, ...]
func makeCallsFn(p Project) *object.Builtin {
	return object.NewBuiltin("calls", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("calls", 1, len(args))
		}
		f, errObj := fileArg(p, "calls", args[0])
		if errObj != nil {
			return errObj
		}
		calls, err := p.Analyzer().Calls(ctx, f)
		if err != nil {
			return object.Errorf("calls: %v", err)
		}

		items := make([]object.Object, 0, len(calls))
		for _, c := range calls {
			argTypes := make([]string, len(c.Args))
			for i, t := range c.Args {
				argTypes[i] = t.String()
			}
			cands := make([]string, len(c.Lenient))
			for i, s := range c.Lenient {
				cands[i] = s.String()
			}
			items = append(items, object.NewMap(rangeEntries(f, c.Node.Range(), map[string]object.Object{
				"name":        object.NewString(c.Name),
				"constructor": object.NewBool(c.Constructor),
				"outcome":     object.NewString(c.Outcome.String()),
				"args":        stringList(argTypes),
				"candidates":  stringList(cands),
			})))
		}
		return object.NewList(items)
	})
}

// reporter collects the diagnostics a script reports.
type reporter struct {
	project Project
	file    *syntax.File
	diags   []sema.Diagnostic
}

// makeReportFn creates the "report" host function. kind and message are
// required; severity defaults to "warning", path to the file under check
// and the range to the start of the file.
//
// report({kind, message, severity?, path?, start?, end?})
func makeReportFn(rep *reporter) *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("report", 1, len(args))
		}
		m, err := mapArg(args[0])
		if err != nil {
			return object.Errorf("report: %v", err)
		}
		var kind, msg, sevName, path string
		for key, dst := range map[string]*string{"kind": &kind, "message": &msg, "severity": &sevName, "path": &path} {
			if *dst, err = m.str(key); err != nil {
				return object.Errorf("report: %v", err)
			}
		}
		if kind == "" || msg == "" {
			return object.Errorf("report: kind and message are required")
		}
		sev := sema.SeverityWarning
		if sevName != "" {
			sev = sema.Severity(sevName)
		}
		switch sev {
		case sema.SeverityError, sema.SeverityWarning, sema.SeverityWeakWarning:
		default:
			return object.Errorf("report: unknown severity %q", sev)
		}

		f := rep.file
		if path != "" && path != f.Path {
			if f = rep.project.File(path); f == nil {
				return object.Errorf("report: no such file %q", path)
			}
		}
		var rng syntax.Range
		if rng.Start, err = m.offset("start"); err != nil {
			return object.Errorf("report: %v", err)
		}
		if rng.End, err = m.offset("end"); err != nil {
			return object.Errorf("report: %v", err)
		}
		if rng.End < rng.Start {
			rng.End = rng.Start
		}
		if rng.Start < 0 || rng.End > len(f.Source) {
			return object.Errorf("report: range [%d, %d) outside %s", rng.Start, rng.End, f.Path)
		}

		rep.diags = append(rep.diags, sema.NewDiagnostic(f, sema.Kind(kind), sev, rng, msg))
		return object.Nil
	})
}

// logObject provides log.info/warn/error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg)
}
