package glint

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/viant/afs"

	"github.com/jward/glint/internal/discover"
	"github.com/jward/glint/internal/parse"
	"github.com/jward/glint/internal/runtime"
	"github.com/jward/glint/internal/store"
)

// Engine owns a project: it discovers and parses files, publishes immutable
// snapshots of them, runs the checks and optionally mirrors the results into
// a SQLite index.
type Engine struct {
	logger      *slog.Logger
	fileService afs.Service
	extensions  []string
	dbPath      string
	rulesDir    string
	rulesFS     fs.FS
	disabled    map[DiagnosticKind]bool
	workers     int

	finder  *discover.Finder
	runtime *runtime.Runtime
	store   *store.Store

	// mu serializes snapshot writers; readers only load snap.
	mu   sync.Mutex
	snap atomic.Pointer[Snapshot]
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithExtensions sets the file extensions treated as sources.
func WithExtensions(extensions ...string) Option {
	return func(e *Engine) {
		e.extensions = extensions
	}
}

// WithStore backs the Engine with a SQLite index at dbPath, used by Index.
func WithStore(dbPath string) Option {
	return func(e *Engine) {
		e.dbPath = dbPath
	}
}

// WithRulesDir loads rule scripts from dir on disk.
func WithRulesDir(dir string) Option {
	return func(e *Engine) {
		e.rulesDir = dir
	}
}

// WithRulesFS loads rule scripts from fsys. It takes precedence over
// WithRulesDir.
func WithRulesFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.rulesFS = fsys
	}
}

// WithDisabled suppresses diagnostics of the given kinds.
func WithDisabled(kinds ...string) Option {
	return func(e *Engine) {
		for _, k := range kinds {
			e.disabled[DiagnosticKind(k)] = true
		}
	}
}

// WithFileService reads project files through svc instead of the local
// file system.
func WithFileService(svc afs.Service) Option {
	return func(e *Engine) {
		e.fileService = svc
	}
}

// WithWorkers bounds the number of files parsed or checked concurrently.
// Values below 1 mean one worker per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// New creates an Engine with an empty snapshot.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{disabled: make(map[DiagnosticKind]bool)}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e.finder = discover.New(e.fileService, e.extensions)

	rtOpts := []runtime.RuntimeOption{runtime.WithLogger(e.logger)}
	if e.rulesFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.rulesFS))
	}
	e.runtime = runtime.NewRuntime(e.rulesDir, rtOpts...)

	if e.dbPath != "" {
		s, err := store.NewStore(e.dbPath)
		if err != nil {
			return nil, fmt.Errorf("glint: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("glint: migrate: %w", err)
		}
		e.store = s
	}

	e.snap.Store(newSnapshot(map[string]*File{}))
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the SQLite index, or nil when the Engine has none.
func (e *Engine) Store() *Store {
	return e.store
}

// Snapshot returns the current snapshot.
func (e *Engine) Snapshot() *Snapshot {
	return e.snap.Load()
}

// LoadDirectory replaces the project with the source files found under
// root.
func (e *Engine) LoadDirectory(ctx context.Context, root string) error {
	paths, err := e.finder.Files(ctx, root)
	if err != nil {
		return fmt.Errorf("glint: %w", err)
	}
	e.logger.Debug("discovered files", "root", root, "count", len(paths))

	e.mu.Lock()
	defer e.mu.Unlock()
	files, err := e.parseFiles(ctx, paths, e.Snapshot())
	if err != nil && files == nil {
		return err
	}
	byPath := make(map[string]*File, len(files))
	for _, f := range files {
		byPath[f.Path] = f
	}
	e.snap.Store(newSnapshot(byPath))
	return err
}

// LoadFiles adds or refreshes the given files, keeping the rest of the
// project.
func (e *Engine) LoadFiles(ctx context.Context, paths []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.Snapshot()
	files, err := e.parseFiles(ctx, paths, cur)
	if err != nil && files == nil {
		return err
	}
	e.snap.Store(cur.with(files...))
	return err
}

// SetSource sets the contents of path, as an editor buffer would. The
// previous parse is reused when the contents did not change.
func (e *Engine) SetSource(ctx context.Context, path string, src []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.Snapshot()
	if old := cur.File(path); old != nil && old.Revision == revisionOf(src) {
		return nil
	}
	f, err := parse.Parse(ctx, path, src)
	if err != nil {
		return fmt.Errorf("glint: %w", err)
	}
	e.snap.Store(cur.with(f))
	return nil
}

// RemoveFile drops path from the project. Unknown paths are ignored.
func (e *Engine) RemoveFile(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.Snapshot()
	if cur.File(path) == nil {
		return
	}
	e.snap.Store(cur.without(path))
}

// Check returns the diagnostics for path: the built-in checks followed by
// the rule scripts, minus disabled kinds, ordered by position. A failing
// rule script is reported as an error alongside the diagnostics the other
// checks produced.
func (e *Engine) Check(ctx context.Context, path string) ([]Diagnostic, error) {
	s := e.Snapshot()
	f := s.File(path)
	if f == nil {
		return nil, fmt.Errorf("glint: check %s: file not loaded", path)
	}
	return e.check(ctx, s, f)
}

func (e *Engine) check(ctx context.Context, s *Snapshot, f *File) ([]Diagnostic, error) {
	diags, err := s.Check(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("glint: check %s: %w", f.Path, err)
	}
	ruleDiags, ruleErr := e.runtime.RunRules(ctx, s, f)
	if ruleErr != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("glint: check %s: %w", f.Path, ctx.Err())
		}
		ruleErr = fmt.Errorf("glint: check %s: %w", f.Path, ruleErr)
	}
	diags = append(diags, ruleDiags...)

	out := diags[:0]
	for _, d := range diags {
		if !e.disabled[d.Kind] {
			out = append(out, d)
		}
	}
	sortDiagnostics(out)
	return out, ruleErr
}

func sortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Range.Start != b.Range.Start {
			return a.Range.Start < b.Range.Start
		}
		return a.Kind < b.Kind
	})
}
