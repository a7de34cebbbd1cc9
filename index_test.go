package glint

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/glint/rules"
)

func indexedEngine(t *testing.T, dbPath string, opts ...Option) (*Engine, string) {
	t.Helper()
	e, dir := loadedEngine(t, append([]Option{WithStore(dbPath)}, opts...)...)
	_, err := e.Index(context.Background())
	require.NoError(t, err)
	return e, dir
}

func TestIndex_RequiresStore(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Index(context.Background())
	require.Error(t, err)
}

func TestIndex_MetadataErrorStopsIndexing(t *testing.T) {
	e, _ := loadedEngine(t, WithStore(filepath.Join(t.TempDir(), "index.db")))
	_, err := e.Store().DB().Exec("DROP TABLE metadata")
	require.NoError(t, err)

	stats, err := e.Index(context.Background())
	require.Error(t, err)
	assert.Nil(t, stats)
	assert.Contains(t, err.Error(), "metadata")

	files, err := e.Store().AllFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestIndex_StoresProject(t *testing.T) {
	e, dir := loadedEngine(t, WithStore(filepath.Join(t.TempDir(), "index.db")))

	stats, err := e.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 0, stats.Skipped)

	st := e.Store()
	lib, err := st.FileByPath(filepath.Join(dir, "lib.glsl"))
	require.NoError(t, err)
	assert.Equal(t, "lib.glsl", lib.BaseName)
	assert.Equal(t, e.Snapshot().File(lib.Path).Revision, lib.Hash)

	decls, err := st.DeclarationsByFile(lib.ID)
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Equal(t, "scale", decls[0].Name)
	assert.Equal(t, "function", decls[0].Kind)
	assert.Equal(t, "float", decls[0].TypeExpr)
	assert.Equal(t, []string{"float"}, decls[0].Params)
	assert.Equal(t, "Light", decls[1].Name)
	assert.Equal(t, "struct", decls[1].Kind)
	assert.Equal(t, []string{"vec3", "float"}, decls[1].Params)

	main, err := st.FileByPath(filepath.Join(dir, "main.glsl"))
	require.NoError(t, err)
	imps, err := st.ImportsByFile(main.ID)
	require.NoError(t, err)
	require.Len(t, imps, 1)
	assert.Equal(t, "lib.glsl", imps[0].Name)
	assert.Equal(t, lib.Path, imps[0].ResolvedPath)

	diags, err := st.DiagnosticsByFile(main.ID)
	require.NoError(t, err)
	require.Len(t, diags, 2)
	assert.Equal(t, string(UnnecessaryCtorParameters), diags[0].Kind)
	var fix Fix
	require.NoError(t, json.Unmarshal([]byte(diags[0].Fix), &fix))
	assert.Len(t, fix.Edits, 1)
	assert.Equal(t, string(PossiblyIncorrectCall), diags[1].Kind)
	assert.Empty(t, diags[1].Fix)

	hash, err := st.GetMetadata(rulesHashKey)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}

func TestIndex_SkipsUnchanged(t *testing.T) {
	e, _ := indexedEngine(t, filepath.Join(t.TempDir(), "index.db"))

	stats, err := e.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &IndexStats{Skipped: 2}, stats)
}

func TestIndex_BodyChangeDoesNotRecheckImporters(t *testing.T) {
	e, dir := indexedEngine(t, filepath.Join(t.TempDir(), "index.db"))
	lib := filepath.Join(dir, "lib.glsl")
	require.NoError(t, e.SetSource(context.Background(), lib,
		[]byte("float scale(float x) { return x * 3.0; }\n\nstruct Light { vec3 color; float power; };\n")))

	stats, err := e.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 0, stats.Rechecked)
	assert.Equal(t, 1, stats.Skipped)
}

func TestIndex_SignatureChangeRechecksImporters(t *testing.T) {
	e, dir := indexedEngine(t, filepath.Join(t.TempDir(), "index.db"))
	lib := filepath.Join(dir, "lib.glsl")
	require.NoError(t, e.SetSource(context.Background(), lib, []byte("float scale(int x) { return 1.0; }\n")))

	stats, err := e.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 1, stats.Rechecked)

	main, err := e.Store().FileByPath(filepath.Join(dir, "main.glsl"))
	require.NoError(t, err)
	diags, err := e.Store().DiagnosticsByFile(main.ID)
	require.NoError(t, err)
	var kinds []string
	for _, d := range diags {
		kinds = append(kinds, d.Kind)
	}
	assert.Equal(t, []string{string(UnnecessaryCtorParameters)}, kinds, "scale(1) now matches exactly")
}

func TestIndex_RechecksImportersTransitively(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"c.glsl": "struct S { float x; };\n",
		"b.glsl": "#pragma import \"c.glsl\"\nS make();\n",
		"a.glsl": "#pragma import \"b.glsl\"\nvoid g(float v) {}\nvoid main() { g(make().x); }\n",
	})
	e := newTestEngine(t, WithStore(filepath.Join(t.TempDir(), "index.db")))
	ctx := context.Background()
	require.NoError(t, e.LoadDirectory(ctx, dir))
	_, err := e.Index(ctx)
	require.NoError(t, err)

	a, err := e.Store().FileByPath(filepath.Join(dir, "a.glsl"))
	require.NoError(t, err)
	diags, err := e.Store().DiagnosticsByFile(a.ID)
	require.NoError(t, err)
	require.Empty(t, diags)

	require.NoError(t, e.SetSource(ctx, filepath.Join(dir, "c.glsl"), []byte("struct S { int x; };\n")))
	stats, err := e.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, &IndexStats{Indexed: 1, Rechecked: 2}, stats)

	live, err := e.Check(ctx, filepath.Join(dir, "a.glsl"))
	require.NoError(t, err)
	require.Equal(t, []DiagnosticKind{PossiblyIncorrectCall}, kindsOf(live))

	diags, err = e.Store().DiagnosticsByFile(a.ID)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, string(PossiblyIncorrectCall), diags[0].Kind)
}

func TestIndex_RemovedFileRechecksImporters(t *testing.T) {
	e, dir := indexedEngine(t, filepath.Join(t.TempDir(), "index.db"))
	lib := filepath.Join(dir, "lib.glsl")
	e.RemoveFile(lib)

	stats, err := e.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Removed)
	assert.Equal(t, 1, stats.Rechecked)

	gone, err := e.Store().FileByPath(lib)
	require.NoError(t, err)
	assert.Nil(t, gone)

	main, err := e.Store().FileByPath(filepath.Join(dir, "main.glsl"))
	require.NoError(t, err)
	diags, err := e.Store().DiagnosticsByFile(main.ID)
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	assert.Equal(t, string(UnresolvedImport), diags[0].Kind)
}

func TestIndex_RulesChangeRechecksEverything(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")
	first, dir := indexedEngine(t, dbPath)
	require.NoError(t, first.Close())

	e := newTestEngine(t, WithStore(dbPath), WithRulesFS(rules.FS))
	require.NoError(t, e.LoadDirectory(context.Background(), dir))

	stats, err := e.Index(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.RulesChanged)
	assert.Equal(t, 0, stats.Indexed)
	assert.Equal(t, 2, stats.Rechecked)

	stats, err = e.Index(context.Background())
	require.NoError(t, err)
	assert.False(t, stats.RulesChanged)
	assert.Equal(t, 2, stats.Skipped)
}
