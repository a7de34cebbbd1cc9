package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func rels(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestFiles_ExtensionsAndOrder(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "main.frag", "void main() {}")
	writeFile(t, dir, "lib/common.glsl", "float f();")
	writeFile(t, dir, "lib/deep/noise.GLSL", "float n();")
	writeFile(t, dir, "readme.txt", "hello")
	writeFile(t, dir, ".hidden.glsl", "secret")

	paths, err := New(nil, nil).Files(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/common.glsl", "lib/deep/noise.GLSL", "main.frag"}, rels(t, dir, paths))
	for _, p := range paths {
		assert.True(t, filepath.IsAbs(p), p)
	}
}

func TestFiles_SkipDirs(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "main.glsl", "")
	writeFile(t, dir, "node_modules/pkg.glsl", "")
	writeFile(t, dir, "build/gen.glsl", "")
	writeFile(t, dir, ".cache/x.glsl", "")

	paths, err := New(nil, nil).Files(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.glsl"}, rels(t, dir, paths))
}

func TestFiles_CustomExtensions(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.glsl", "")
	writeFile(t, dir, "b.shader", "")

	paths, err := New(nil, []string{"shader"}).Files(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.shader"}, rels(t, dir, paths))
}

func TestFiles_Gitignore(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "generated/\n*.tmp.glsl\n")
	writeFile(t, dir, "main.glsl", "")
	writeFile(t, dir, "scratch.tmp.glsl", "")
	writeFile(t, dir, "generated/out.glsl", "")

	paths, err := New(nil, nil).Files(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.glsl"}, rels(t, dir, paths))
}

func TestFiles_GitCheckout(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	t.Parallel()
	dir := t.TempDir()
	cmd := exec.Command("git", "init", "-q")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())

	writeFile(t, dir, ".gitignore", "ignored.glsl\n")
	writeFile(t, dir, "kept.glsl", "")
	writeFile(t, dir, "ignored.glsl", "")

	paths, err := New(nil, nil).Files(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept.glsl"}, rels(t, dir, paths))
}

func TestFiles_GitFile(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	t.Parallel()
	repo := t.TempDir()
	cmd := exec.Command("git", "init", "-q")
	cmd.Dir = repo
	require.NoError(t, cmd.Run())
	writeFile(t, repo, ".git/info/exclude", "excluded.glsl\n")

	// A worktree or submodule checkout has a .git file pointing at the
	// repository instead of a .git directory.
	dir := t.TempDir()
	writeFile(t, dir, ".git", "gitdir: "+filepath.Join(repo, ".git")+"\n")
	writeFile(t, dir, "kept.glsl", "")
	writeFile(t, dir, "excluded.glsl", "")

	paths, err := New(nil, nil).Files(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept.glsl"}, rels(t, dir, paths))
}

func TestFiles_Cancelled(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "main.glsl", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil, nil).Files(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRead(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "main.glsl", "void main() {}")

	f := New(nil, nil)
	data, err := f.Read(context.Background(), filepath.Join(dir, "main.glsl"))
	require.NoError(t, err)
	assert.Equal(t, "void main() {}", string(data))

	_, err = f.Read(context.Background(), filepath.Join(dir, "absent.glsl"))
	require.Error(t, err)
}

func TestMatches(t *testing.T) {
	t.Parallel()
	f := New(nil, []string{".glsl", "vert"})
	assert.True(t, f.Matches("/a/b.glsl"))
	assert.True(t, f.Matches("b.VERT"))
	assert.False(t, f.Matches("b.frag"))
	assert.False(t, f.Matches("glsl"))
}
