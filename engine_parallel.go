package glint

import (
	"context"
	"fmt"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/jward/glint/internal/parse"
	"github.com/jward/glint/internal/syntax"
)

func revisionOf(src []byte) string {
	return syntax.Revision(src)
}

func (e *Engine) numWorkers(items int) int {
	n := e.workers
	if n < 1 {
		n = goruntime.NumCPU()
	}
	return max(1, min(n, items))
}

// parseFiles reads and parses paths with a worker pool. Files whose content
// matches their revision in prev are reused as is. Per-file failures are
// collected; the files that did parse are returned alongside the summary
// error. The result is nil only when the context was cancelled.
func (e *Engine) parseFiles(ctx context.Context, paths []string, prev *Snapshot) ([]*File, error) {
	if len(paths) == 0 {
		return []*File{}, nil
	}

	type result struct {
		file *File
		err  error
	}
	workCh := make(chan string, len(paths))
	for _, p := range paths {
		workCh <- p
	}
	close(workCh)
	resultCh := make(chan result, len(paths))

	var wg sync.WaitGroup
	for range e.numWorkers(len(paths)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range workCh {
				if ctx.Err() != nil {
					resultCh <- result{err: ctx.Err()}
					continue
				}
				f, err := e.loadFile(ctx, path, prev)
				if err != nil {
					err = fmt.Errorf("load %s: %w", path, err)
				}
				resultCh <- result{file: f, err: err}
			}
		}()
	}
	wg.Wait()
	close(resultCh)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files := make([]*File, 0, len(paths))
	var errs []error
	for r := range resultCh {
		if r.err != nil {
			e.logger.Warn("skipping file", "error", r.err)
			errs = append(errs, r.err)
			continue
		}
		files = append(files, r.file)
	}
	if len(errs) > 0 {
		return files, fmt.Errorf("glint: loading had %d error(s): %w", len(errs), errs[0])
	}
	return files, nil
}

func (e *Engine) loadFile(ctx context.Context, path string, prev *Snapshot) (*File, error) {
	src, err := e.finder.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	if old := prev.File(path); old != nil && old.Revision == revisionOf(src) {
		return old, nil
	}
	return parse.Parse(ctx, path, src)
}

// CheckAll checks every file of the current snapshot with a worker pool
// and returns the diagnostics ordered by path and position. Rule script
// failures are summarized in the returned error; the diagnostics of every
// file are still returned.
func (e *Engine) CheckAll(ctx context.Context) ([]Diagnostic, error) {
	s := e.Snapshot()
	return e.checkFiles(ctx, s, s.Files())
}

// CheckDirectory is CheckAll restricted to the files under dir. The rest of
// the project stays visible to import resolution.
func (e *Engine) CheckDirectory(ctx context.Context, dir string) ([]Diagnostic, error) {
	s := e.Snapshot()
	var files []*File
	for _, f := range s.Files() {
		if within(dir, f.Path) {
			files = append(files, f)
		}
	}
	return e.checkFiles(ctx, s, files)
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (e *Engine) checkFiles(ctx context.Context, s *Snapshot, files []*File) ([]Diagnostic, error) {
	if len(files) == 0 {
		return nil, nil
	}

	type result struct {
		diags []Diagnostic
		err   error
	}
	workCh := make(chan *File, len(files))
	for _, f := range files {
		workCh <- f
	}
	close(workCh)
	resultCh := make(chan result, len(files))

	var wg sync.WaitGroup
	for range e.numWorkers(len(files)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range workCh {
				diags, err := e.check(ctx, s, f)
				resultCh <- result{diags: diags, err: err}
			}
		}()
	}
	wg.Wait()
	close(resultCh)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []Diagnostic
	var errs []error
	for r := range resultCh {
		all = append(all, r.diags...)
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	sortDiagnostics(all)
	if len(errs) > 0 {
		return all, fmt.Errorf("glint: checking had %d error(s): %w", len(errs), errs[0])
	}
	return all, nil
}
