package glint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/glint/rules"
)

const libGLSL = `float scale(float x) { return x * 2.0; }

struct Light { vec3 color; float power; };
`

const mainGLSL = `#pragma import "lib.glsl"

void main() {
    vec3 c = vec3(1, 1, 1);
    float a = scale(1);
    float b = scale(1.0);
}
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func loadedEngine(t *testing.T, opts ...Option) (*Engine, string) {
	t.Helper()
	dir := writeProject(t, map[string]string{"lib.glsl": libGLSL, "main.glsl": mainGLSL})
	e := newTestEngine(t, opts...)
	require.NoError(t, e.LoadDirectory(context.Background(), dir))
	return e, dir
}

func kindsOf(diags []Diagnostic) []DiagnosticKind {
	var out []DiagnosticKind
	for _, d := range diags {
		out = append(out, d.Kind)
	}
	return out
}

func TestNew_EmptySnapshot(t *testing.T) {
	e := newTestEngine(t)
	require.NotNil(t, e.Snapshot())
	assert.Equal(t, 0, e.Snapshot().Len())
	assert.Nil(t, e.Store())
	require.NoError(t, e.Close())
}

func TestNew_InvalidStorePath(t *testing.T) {
	_, err := New(WithStore("/nonexistent/dir/index.db"))
	require.Error(t, err)
}

func TestLoadDirectory(t *testing.T) {
	e, dir := loadedEngine(t)
	s := e.Snapshot()

	require.Equal(t, 2, s.Len())
	files := s.Files()
	assert.Equal(t, filepath.Join(dir, "lib.glsl"), files[0].Path)
	assert.Equal(t, filepath.Join(dir, "main.glsl"), files[1].Path)
	require.Len(t, s.FilesByName("lib.glsl"), 1)
}

func TestLoadDirectory_ReplacesProject(t *testing.T) {
	e, _ := loadedEngine(t)
	other := writeProject(t, map[string]string{"only.frag": "void main() {}\n"})

	require.NoError(t, e.LoadDirectory(context.Background(), other))
	s := e.Snapshot()
	require.Equal(t, 1, s.Len())
	assert.NotNil(t, s.File(filepath.Join(other, "only.frag")))
}

func TestLoadDirectory_Cancelled(t *testing.T) {
	dir := writeProject(t, map[string]string{"a.glsl": "void a() {}\n"})
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, e.LoadDirectory(ctx, dir))
	assert.Equal(t, 0, e.Snapshot().Len())
}

func TestLoadFiles_KeepsOtherFilesAndReportsFailures(t *testing.T) {
	e, dir := loadedEngine(t)
	extra := filepath.Join(dir, "extra.glsl")
	require.NoError(t, os.WriteFile(extra, []byte("float extra() { return 1.0; }\n"), 0o644))

	err := e.LoadFiles(context.Background(), []string{extra, filepath.Join(dir, "gone.glsl")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading had 1 error(s)")

	s := e.Snapshot()
	assert.Equal(t, 3, s.Len())
	assert.NotNil(t, s.File(extra))
}

func TestLoadFiles_ReusesUnchangedFiles(t *testing.T) {
	e, dir := loadedEngine(t)
	lib := filepath.Join(dir, "lib.glsl")
	before := e.Snapshot().File(lib)

	require.NoError(t, e.LoadFiles(context.Background(), []string{lib}))
	assert.Same(t, before, e.Snapshot().File(lib))
}

func TestSetSource_PublishesNewSnapshot(t *testing.T) {
	e, dir := loadedEngine(t)
	lib := filepath.Join(dir, "lib.glsl")
	old := e.Snapshot()

	require.NoError(t, e.SetSource(context.Background(), lib, []byte("float scale(int x) { return 1.0; }\n")))

	cur := e.Snapshot()
	assert.NotSame(t, old, cur)
	assert.Equal(t, libGLSL, string(old.File(lib).Source), "old snapshot is unchanged")
	assert.Contains(t, string(cur.File(lib).Source), "scale(int x)")
}

func TestSetSource_SameContentKeepsSnapshot(t *testing.T) {
	e, dir := loadedEngine(t)
	old := e.Snapshot()

	require.NoError(t, e.SetSource(context.Background(), filepath.Join(dir, "lib.glsl"), []byte(libGLSL)))
	assert.Same(t, old, e.Snapshot())
}

func TestSetSource_NewFile(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.SetSource(context.Background(), "/buf/new.glsl", []byte("void f() {}\n")))
	assert.NotNil(t, e.Snapshot().File("/buf/new.glsl"))
}

func TestRemoveFile(t *testing.T) {
	e, dir := loadedEngine(t)
	main := filepath.Join(dir, "main.glsl")

	e.RemoveFile(filepath.Join(dir, "lib.glsl"))
	e.RemoveFile("/not/loaded.glsl")
	require.Equal(t, 1, e.Snapshot().Len())

	diags, err := e.Check(context.Background(), main)
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	assert.Equal(t, UnresolvedImport, diags[0].Kind)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, "Unable to find file 'lib.glsl' to import.", diags[0].Message)
}

func TestCheck_BuiltinDiagnostics(t *testing.T) {
	e, dir := loadedEngine(t)
	main := filepath.Join(dir, "main.glsl")

	diags, err := e.Check(context.Background(), main)
	require.NoError(t, err)
	require.Equal(t, []DiagnosticKind{UnnecessaryCtorParameters, PossiblyIncorrectCall}, kindsOf(diags))

	ctor := diags[0]
	assert.Equal(t, 4, ctor.Line)
	assert.Equal(t, SeverityWeakWarning, ctor.Severity)
	require.NotNil(t, ctor.Fix)
	require.Len(t, ctor.Fix.Edits, 1)

	src := e.Snapshot().File(main).Source
	edit := ctor.Fix.Edits[0]
	fixed := string(src[:edit.Range.Start]) + edit.NewText + string(src[edit.Range.End:])
	assert.Contains(t, fixed, "vec3 c = vec3(1);")

	call := diags[1]
	assert.Equal(t, 5, call.Line)
	assert.Equal(t, SeverityWarning, call.Severity)
	assert.Equal(t, "scale(1)", string(src[call.Range.Start:call.Range.End]))
}

func TestCheck_Disabled(t *testing.T) {
	e, dir := loadedEngine(t, WithDisabled(string(UnnecessaryCtorParameters)))

	diags, err := e.Check(context.Background(), filepath.Join(dir, "main.glsl"))
	require.NoError(t, err)
	assert.Equal(t, []DiagnosticKind{PossiblyIncorrectCall}, kindsOf(diags))
}

func TestCheck_NotLoaded(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Check(context.Background(), "/nope.glsl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not loaded")
}

func TestCheck_ScopedLocalsDoNotShadowGlobals(t *testing.T) {
	e := newTestEngine(t)
	src := `float t = 1.0;
void g(float v) {}
void main() {
    if (true) { int t = 2; }
    for (int t = 0; t < 2; t++) {}
    g(t);
}
`
	require.NoError(t, e.SetSource(context.Background(), "/buf/scope.glsl", []byte(src)))

	diags, err := e.Check(context.Background(), "/buf/scope.glsl")
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestCheck_EmbeddedRules(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"lib.glsl":  libGLSL,
		"main.glsl": "#pragma import \"lib.glsl\"\n#pragma import \"lib.glsl\"\nvoid main() {}\n",
	})
	e := newTestEngine(t, WithRulesFS(rules.FS))
	require.NoError(t, e.LoadDirectory(context.Background(), dir))

	diags, err := e.Check(context.Background(), filepath.Join(dir, "main.glsl"))
	require.NoError(t, err)
	require.Equal(t, []DiagnosticKind{"duplicate-import"}, kindsOf(diags))
	assert.Equal(t, 2, diags[0].Line)
	assert.Equal(t, "File 'lib.glsl' is already imported.", diags[0].Message)
}

func TestCheck_RuleFailureKeepsDiagnostics(t *testing.T) {
	rulesDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rulesDir, "broken.risor"), []byte("undefined_function()\n"), 0o644))
	e, dir := loadedEngine(t, WithRulesDir(rulesDir))

	diags, err := e.Check(context.Background(), filepath.Join(dir, "main.glsl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule(s) failed")
	assert.Len(t, diags, 2)
}

func TestCheckAll(t *testing.T) {
	e, dir := loadedEngine(t, WithWorkers(2))

	diags, err := e.CheckAll(context.Background())
	require.NoError(t, err)
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, filepath.Join(dir, "main.glsl"), d.Path)
	}
	assert.Less(t, diags[0].Range.Start, diags[1].Range.Start)
}

func TestCheckAll_Empty(t *testing.T) {
	e := newTestEngine(t)
	diags, err := e.CheckAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestCheckDirectory_ResolvesImportsAcrossProject(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"common.glsl":     "float shade(float x) { return x; }\n",
		"other.glsl":      "#pragma import \"missing.glsl\"\n",
		"sub/main.glsl":   "#pragma import \"common.glsl\"\nvoid main() { float a = shade(1.0); }\n",
		"subway/ext.glsl": "#pragma import \"missing.glsl\"\n",
	})
	e := newTestEngine(t)
	require.NoError(t, e.LoadDirectory(context.Background(), dir))

	diags, err := e.CheckDirectory(context.Background(), filepath.Join(dir, "sub"))
	require.NoError(t, err)
	assert.Empty(t, diags)

	all, err := e.CheckAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []DiagnosticKind{UnresolvedImport, UnresolvedImport}, kindsOf(all))
}
