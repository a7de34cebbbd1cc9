package glint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/glint/internal/sema"
	"github.com/jward/glint/internal/syntax"
)

func bufferSnapshot(t *testing.T, sources map[string]string) *Snapshot {
	t.Helper()
	e := newTestEngine(t)
	for path, src := range sources {
		require.NoError(t, e.SetSource(context.Background(), path, []byte(src)))
	}
	return e.Snapshot()
}

func firstCall(f *File, name string) Node {
	var found Node
	syntax.Inspect(f.Root, func(n syntax.Node) bool {
		if found != nil {
			return false
		}
		if n.Kind() == syntax.KindCall && sema.CalleeName(f, n) == name {
			found = n
			return false
		}
		return true
	})
	return found
}

func TestSnapshot_Imports(t *testing.T) {
	s := bufferSnapshot(t, map[string]string{
		"/p/lib.glsl":   libGLSL,
		"/p/main.glsl":  "#pragma import \"lib.glsl\"\n#pragma import \"none.glsl\"\nvoid main() {}\n",
		"/p/a/dup.glsl": "void a() {}\n",
		"/p/b/dup.glsl": "void b() {}\n",
	})
	main := s.File("/p/main.glsl")
	require.NotNil(t, main)

	assert.Equal(t, []string{"lib.glsl", "none.glsl"}, s.ImportedFilenames(main))
	assert.Equal(t, s.File("/p/lib.glsl"), s.ResolveImport(main, "lib.glsl"))
	assert.Nil(t, s.ResolveImport(main, "none.glsl"))
	assert.Nil(t, s.ResolveImport(main, "dup.glsl"), "ambiguous names do not resolve")

	mods := s.ImportedModules(main)
	require.Len(t, mods, 1)
	assert.Equal(t, "/p/lib.glsl", mods[0].Path)
}

func TestSnapshot_ReachableSurvivesCycles(t *testing.T) {
	s := bufferSnapshot(t, map[string]string{
		"/p/a.glsl": "#pragma import \"b.glsl\"\nvoid a() {}\n",
		"/p/b.glsl": "#pragma import \"c.glsl\"\nvoid b() {}\n",
		"/p/c.glsl": "#pragma import \"a.glsl\"\nvoid c() {}\n",
	})

	reach, err := s.Reachable(context.Background(), s.File("/p/a.glsl"))
	require.NoError(t, err)
	var paths []string
	for _, f := range reach {
		paths = append(paths, f.Path)
	}
	assert.ElementsMatch(t, []string{"/p/b.glsl", "/p/c.glsl"}, paths)

	direct := s.FindGlobalNamedElements(s.File("/p/a.glsl"), "c", KindFunction)
	assert.Empty(t, direct, "lookups follow direct imports only")
	deep, err := s.FindReachableNamedElements(context.Background(), s.File("/p/a.glsl"), "c", KindFunction)
	require.NoError(t, err)
	require.Len(t, deep, 1)
	assert.Equal(t, "/p/c.glsl", deep[0].File.Path)
}

func TestSnapshot_GlobalsAndCalls(t *testing.T) {
	s := bufferSnapshot(t, map[string]string{"/p/lib.glsl": libGLSL, "/p/main.glsl": mainGLSL})
	main := s.File("/p/main.glsl")

	el := s.FindGlobalNamedElement(main, "Light", KindStruct)
	require.NotNil(t, el)
	assert.Equal(t, "/p/lib.glsl", el.File.Path)
	assert.Nil(t, s.FindGlobalNamedElement(main, "Light", KindFunction))
	assert.NotNil(t, s.FindImportedNamedElement(main, "Light", KindStruct))
	assert.NotNil(t, s.FindGlobalNamedElement(main, "main", KindFunction))
	assert.Nil(t, s.FindImportedNamedElement(main, "main", KindFunction), "own declarations are not imported")
	assert.Empty(t, s.FindImportedNamedElements(s.File("/p/lib.glsl"), "Light", KindStruct))

	call := firstCall(main, "scale")
	require.NotNil(t, call)
	assert.Empty(t, s.ResolvePossibleCalledFunctions(main, call, true))
	lenient := s.ResolvePossibleCalledFunctions(main, call, false)
	require.Len(t, lenient, 1)
	assert.Equal(t, "float scale(float)", lenient[0].String())

	calls, err := s.Calls(context.Background(), main)
	require.NoError(t, err)
	require.Len(t, calls, 3)
	assert.True(t, calls[0].Constructor)
	assert.Equal(t, "possibly_incorrect", calls[1].Outcome.String())
	assert.Equal(t, "resolved", calls[2].Outcome.String())
}

func TestSnapshot_CheckCancelled(t *testing.T) {
	s := bufferSnapshot(t, map[string]string{"/p/lib.glsl": libGLSL, "/p/main.glsl": mainGLSL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Check(ctx, s.File("/p/main.glsl"))
	require.ErrorIs(t, err, context.Canceled)
}
