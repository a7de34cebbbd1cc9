// Package discover finds the shader sources of a project and reads them
// through an abstract file service.
package discover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// DefaultExtensions are the file extensions treated as shader sources when
// none are configured.
var DefaultExtensions = []string{".glsl", ".vert", ".frag", ".geom", ".comp", ".tesc", ".tese"}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
	"build":        {},
	"dist":         {},
	"out":          {},
}

// Finder lists and reads project files.
type Finder struct {
	fs         afs.Service
	extensions map[string]struct{}
}

// New returns a Finder matching extensions (DefaultExtensions when empty).
// A nil fs uses the local file system.
func New(fs afs.Service, extensions []string) *Finder {
	if fs == nil {
		fs = afs.New()
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	f := &Finder{fs: fs, extensions: make(map[string]struct{}, len(extensions))}
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions[strings.ToLower(ext)] = struct{}{}
	}
	return f
}

// Matches reports whether path has one of the Finder's extensions.
func (f *Finder) Matches(path string) bool {
	_, ok := f.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Files returns the absolute paths of the source files under root, sorted.
// Inside a git checkout only files git knows about (tracked or untracked
// but not ignored) are returned; elsewhere the root .gitignore applies.
// Hidden entries and well-known build directories are skipped.
func (f *Finder) Files(ctx context.Context, root string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("discover: %s: %w", root, err)
	}

	gitFiles := f.gitLsFiles(ctx, abs)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = f.loadGitignore(ctx, abs)
	}

	var out []string
	err = f.walk(ctx, abs, "", func(rel string) {
		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return
		}
		if f.Matches(rel) {
			out = append(out, filepath.Join(abs, rel))
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// walk lists dir (rel to the root) and calls fn for every regular file
// below it.
func (f *Finder) walk(ctx context.Context, dir, rel string, fn func(rel string)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	objects, err := f.fs.List(ctx, dir)
	if err != nil {
		return fmt.Errorf("discover: list %s: %w", dir, err)
	}
	for i, obj := range objects {
		name := obj.Name()
		if isSelf(i, obj.IsDir(), name, obj.URL(), dir) || strings.HasPrefix(name, ".") {
			continue
		}
		childRel := filepath.Join(rel, name)
		if obj.IsDir() {
			if _, skip := skipDirs[name]; skip {
				continue
			}
			if err := f.walk(ctx, filepath.Join(dir, name), childRel, fn); err != nil {
				return err
			}
			continue
		}
		if obj.Mode()&os.ModeSymlink != 0 {
			continue
		}
		fn(childRel)
	}
	return nil
}

// isSelf reports whether a listing entry is the listed directory itself,
// which afs returns ahead of the children.
func isSelf(i int, isDir bool, name, objURL, dir string) bool {
	if !isDir {
		return false
	}
	if strings.TrimSuffix(url.Path(objURL), "/") == dir {
		return true
	}
	return i == 0 && name == filepath.Base(dir)
}

// Read returns the contents of path.
func (f *Finder) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := f.fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("discover: read %s: %w", path, err)
	}
	return data, nil
}

// gitLsFiles lists the files git knows about under root, or returns nil
// when root is not a checkout. A .git file marks a worktree or submodule.
func (f *Finder) gitLsFiles(ctx context.Context, root string) map[string]struct{} {
	if ok, err := f.fs.Exists(ctx, filepath.Join(root, ".git")); err != nil || !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func (f *Finder) loadGitignore(ctx context.Context, root string) *ignore.GitIgnore {
	data, err := f.fs.DownloadWithURL(ctx, filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
}
