package runtime

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/glint/internal/sema"
	"github.com/jward/glint/internal/syntax"
)

// Project is the read-only view of an analyzed project that rule scripts
// query. A snapshot of the engine satisfies it.
type Project interface {
	File(path string) *syntax.File
	Files() []*syntax.File
	Analyzer() *sema.Analyzer
}

// Runtime embeds a Risor VM and runs rule scripts against a Project.
// Scripts live as *.risor files at the top of the rules directory (or FS);
// subdirectories hold shared code reachable through Risor's import.
type Runtime struct {
	rulesDir string
	fsys     fs.FS
	logger   *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS loads rule scripts from fsys instead of from disk. Risor
// import statements resolve against the same FS.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger routes the scripts' log object to logger.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// NewRuntime creates a Runtime reading rules from rulesDir. An empty
// rulesDir without WithRuntimeFS yields a Runtime with no rules.
func NewRuntime(rulesDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{rulesDir: rulesDir}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Rules returns the rule script paths, relative to the rules root, sorted.
// A missing rules directory holds no rules.
func (r *Runtime) Rules() ([]string, error) {
	var entries []fs.DirEntry
	var err error
	switch {
	case r.fsys != nil:
		entries, err = fs.ReadDir(r.fsys, ".")
	case r.rulesDir != "":
		entries, err = os.ReadDir(r.rulesDir)
	default:
		return nil, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("runtime: listing rules: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".risor") {
			paths = append(paths, e.Name())
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// RulesHash hashes the names and contents of every rule script. Stored
// diagnostics are stale whenever it changes.
func (r *Runtime) RulesHash() (string, error) {
	paths, err := r.Rules()
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, p := range paths {
		src, err := r.LoadScript(p)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s\x00%s\x00", p, src)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// RunRules runs every rule script against f and returns the combined
// diagnostics. A failing script does not stop the others; the failures are
// summarized in the returned error.
func (r *Runtime) RunRules(ctx context.Context, p Project, f *syntax.File) ([]sema.Diagnostic, error) {
	paths, err := r.Rules()
	if err != nil {
		return nil, err
	}
	var diags []sema.Diagnostic
	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ds, err := r.RunScript(ctx, p, path, f)
		if err != nil {
			r.logger.Warn("rule failed", "rule", path, "file", f.Path, "error", err)
			errs = append(errs, err)
			continue
		}
		diags = append(diags, ds...)
	}
	if len(errs) > 0 {
		return diags, fmt.Errorf("runtime: %d rule(s) failed: %w", len(errs), errs[0])
	}
	return diags, nil
}

// RunScript loads and executes a rule script against f and returns the
// diagnostics it reported.
func (r *Runtime) RunScript(ctx context.Context, p Project, scriptPath string, f *syntax.File) ([]sema.Diagnostic, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.eval(ctx, p, src, scriptPath, f)
}

// RunSource executes Risor source directly. Useful for testing without
// script files.
func (r *Runtime) RunSource(ctx context.Context, p Project, source string, f *syntax.File) ([]sema.Diagnostic, error) {
	return r.eval(ctx, p, source, "<inline>", f)
}

func (r *Runtime) eval(ctx context.Context, p Project, source, label string, f *syntax.File) ([]sema.Diagnostic, error) {
	rep := &reporter{project: p, file: f}
	globals := r.buildGlobals(p, f, rep, label)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return rep.diags, nil
}

// buildImporter returns a Risor importer for the rules source, or nil when
// no rules source is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.rulesDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.rulesDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file from the rules FS or, relative paths
// joined to rulesDir, from disk.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.rulesDir, path)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// buildGlobals constructs the globals exposed to a script run against f.
func (r *Runtime) buildGlobals(p Project, f *syntax.File, rep *reporter, label string) map[string]any {
	return map[string]any{
		"file":           object.NewString(f.Path),
		"source":         makeSourceFn(p),
		"files":          makeFilesFn(p),
		"imports":        makeImportsFn(p),
		"imported_files": makeImportedFilesFn(p),
		"resolve_import": makeResolveImportFn(p),
		"find_globals":   makeFindGlobalsFn(p),
		"calls":          makeCallsFn(p),
		"report":         makeReportFn(rep),
		"log":            mustProxy(&logObject{logger: r.logger.With("rule", label)}),
	}
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
