package modgraph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/glint/internal/syntax"
)

// fakeLookup is an in-memory project index keyed by base name.
type fakeLookup map[string][]*syntax.File

func (l fakeLookup) FilesByName(name string) []*syntax.File { return l[name] }

func (l fakeLookup) add(files ...*syntax.File) {
	for _, f := range files {
		l[f.Name()] = append(l[f.Name()], f)
	}
}

// importing builds a file whose top level holds one pragma per directive text.
func importing(path string, pragmas ...string) *syntax.File {
	var b syntax.Builder
	var items []*syntax.Element
	for _, p := range pragmas {
		items = append(items, b.Pragma(p))
		b.Newline()
	}
	return b.File(path, items...)
}

func TestImportName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{`import "a.glsl"`, "a.glsl", true},
		{`import    "dir/b.glsl"   `, "dir/b.glsl", true},
		{`import ""`, "", true},
		{`import "a" "b"`, `a" "b`, true},
		{`foo "a.glsl"`, "", false},
		{`import a.glsl`, "", false},
		{`"a.glsl"`, "", false},
		{`importx "a.glsl"`, "", false},
		{`optimize(on)`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			var b syntax.Builder
			p := b.Pragma(tt.text)
			f := b.File("main.glsl", p)
			got, ok := ImportName(f, p)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImportName_IgnoresOtherNodes(t *testing.T) {
	t.Parallel()
	var b syntax.Builder
	id := b.Ident("import")
	f := b.File("main.glsl", id)
	_, ok := ImportName(f, id)
	assert.False(t, ok)
	_, ok = ImportName(f, nil)
	assert.False(t, ok)
}

func TestImportedFilenames_TopLevelOnly(t *testing.T) {
	t.Parallel()
	var b syntax.Builder
	top := b.Pragma(`import "a.glsl"`)
	b.Newline()
	nested := b.Node(syntax.KindOther, b.Pragma(`import "hidden.glsl"`))
	b.Newline()
	other := b.Pragma(`once`)
	b.Newline()
	last := b.Pragma(`import "b.glsl"`)
	f := b.File("main.glsl", top, nested, other, last)

	g := New(fakeLookup{})
	assert.Equal(t, []string{"a.glsl", "b.glsl"}, g.ImportedFilenames(f))
}

func TestResolveImport(t *testing.T) {
	t.Parallel()

	main := importing("/p/main.glsl")
	unique := importing("/p/lib/unique.glsl")
	dupA := importing("/p/a/common.glsl")
	dupB := importing("/p/b/common.glsl")

	lookup := fakeLookup{}
	lookup.add(main, unique, dupA, dupB)
	g := New(lookup)

	assert.Same(t, unique, g.ResolveImport(main, "unique.glsl"))
	assert.Nil(t, g.ResolveImport(main, "missing.glsl"), "zero matches")
	assert.Nil(t, g.ResolveImport(main, "common.glsl"), "ambiguous matches")
}

func TestImportedModules_SkipsUnresolved(t *testing.T) {
	t.Parallel()

	main := importing("/p/main.glsl", `import "a.glsl"`, `import "missing.glsl"`, `import "b.glsl"`)
	a := importing("/p/a.glsl")
	b := importing("/p/b.glsl")

	lookup := fakeLookup{}
	lookup.add(main, a, b)
	g := New(lookup)

	mods := g.ImportedModules(main)
	require.Len(t, mods, 2)
	assert.Same(t, a, mods[0])
	assert.Same(t, b, mods[1])

	unresolved := g.Unresolved(main)
	require.Len(t, unresolved, 1)
	assert.Equal(t, "missing.glsl", unresolved[0].Name)
}

func TestImportedModules_DirectOnly(t *testing.T) {
	t.Parallel()

	a := importing("/p/a.glsl", `import "b.glsl"`)
	b := importing("/p/b.glsl", `import "c.glsl"`)
	c := importing("/p/c.glsl")

	lookup := fakeLookup{}
	lookup.add(a, b, c)
	g := New(lookup)

	mods := g.ImportedModules(a)
	require.Len(t, mods, 1)
	assert.Same(t, b, mods[0])
}

func TestImportedModules_Set(t *testing.T) {
	t.Parallel()

	a := importing("/p/a.glsl", `import "b.glsl"`, `import "b.glsl"`, `import "a.glsl"`, `import "c.glsl"`)
	b := importing("/p/b.glsl")
	c := importing("/p/c.glsl")

	lookup := fakeLookup{}
	lookup.add(a, b, c)
	g := New(lookup)

	mods := g.ImportedModules(a)
	require.Len(t, mods, 2, "repeated and self imports collapse")
	assert.Same(t, b, mods[0])
	assert.Same(t, c, mods[1])
	assert.Equal(t, []string{"b.glsl", "b.glsl", "a.glsl", "c.glsl"}, g.ImportedFilenames(a))
}

func TestReachable_Cycle(t *testing.T) {
	t.Parallel()

	a := importing("/p/a.glsl", `import "b.glsl"`)
	b := importing("/p/b.glsl", `import "a.glsl"`, `import "c.glsl"`)
	c := importing("/p/c.glsl", `import "b.glsl"`, `import "c.glsl"`)

	lookup := fakeLookup{}
	lookup.add(a, b, c)
	g := New(lookup)

	var visits []string
	err := g.Walk(context.Background(), a, func(f *syntax.File) error {
		visits = append(visits, f.Path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/p/a.glsl", "/p/b.glsl", "/p/c.glsl"}, visits)

	reach, err := g.Reachable(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, reach, 2)
	assert.Same(t, b, reach[0])
	assert.Same(t, c, reach[1])
}

func TestWalk_Cancelled(t *testing.T) {
	t.Parallel()

	a := importing("/p/a.glsl", `import "b.glsl"`)
	b := importing("/p/b.glsl", `import "a.glsl"`)
	lookup := fakeLookup{}
	lookup.add(a, b)
	g := New(lookup)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Reachable(ctx, a)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalk_StopsOnCallbackError(t *testing.T) {
	t.Parallel()

	a := importing("/p/a.glsl", `import "b.glsl"`)
	b := importing("/p/b.glsl")
	lookup := fakeLookup{}
	lookup.add(a, b)
	g := New(lookup)

	stop := errors.New("stop")
	var seen int
	err := g.Walk(context.Background(), a, func(*syntax.File) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}

func TestMemoizedPerRevision(t *testing.T) {
	t.Parallel()

	lookup := fakeLookup{}
	g := New(lookup)

	v1 := importing("/p/main.glsl", `import "a.glsl"`)
	v2 := importing("/p/main.glsl", `import "b.glsl"`)
	require.NotEqual(t, v1.Revision, v2.Revision)

	assert.Equal(t, []string{"a.glsl"}, g.ImportedFilenames(v1))
	assert.Equal(t, []string{"b.glsl"}, g.ImportedFilenames(v2))
	assert.Equal(t, []string{"a.glsl"}, g.ImportedFilenames(v1))
}
