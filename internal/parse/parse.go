// Package parse turns shader source into a syntax tree. It runs the
// tree-sitter C grammar over the source and lowers the result into
// syntax.Element nodes.
package parse

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/jward/glint/internal/syntax"
)

var (
	grammar     *sitter.Language
	grammarOnce sync.Once
)

func language() *sitter.Language {
	grammarOnce.Do(func() {
		grammar = c.GetLanguage()
	})
	return grammar
}

// qualifiers matches GLSL storage, precision and layout qualifiers the C
// grammar does not know. They are blanked out before parsing so that byte
// offsets stay unchanged.
var qualifiers = regexp.MustCompile(`\b(in|out|inout|uniform|attribute|varying|highp|mediump|lowp|flat|smooth|noperspective|centroid|coherent|readonly|writeonly|invariant|precise|subroutine)\b`)

var (
	layoutQualifier = regexp.MustCompile(`\blayout\s*\([^)]*\)`)
	precisionStmt   = regexp.MustCompile(`\bprecision\s+\w+\s+\w+\s*;`)
)

// mask blanks GLSL-only syntax outside preprocessor lines.
func mask(src []byte) []byte {
	lines := strings.SplitAfter(string(src), "\n")
	var b strings.Builder
	b.Grow(len(src))
	blank := func(s string) string { return strings.Repeat(" ", len(s)) }
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			b.WriteString(line)
			continue
		}
		line = precisionStmt.ReplaceAllStringFunc(line, blank)
		line = layoutQualifier.ReplaceAllStringFunc(line, blank)
		b.WriteString(qualifiers.ReplaceAllStringFunc(line, blank))
	}
	return []byte(b.String())
}

// Parse parses src and returns the lowered file. The returned file keeps the
// original source; only the parser sees the masked copy.
func Parse(ctx context.Context, path string, src []byte) (*syntax.File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(language())

	masked := mask(src)
	tree, err := parser.ParseCtx(ctx, nil, masked)
	if err != nil {
		return nil, fmt.Errorf("parse: %s: %w", path, err)
	}
	defer tree.Close()

	l := &lowerer{src: masked}
	root := tree.RootNode()
	var items []*syntax.Element
	for i := 0; i < int(root.NamedChildCount()); i++ {
		items = append(items, l.top(root.NamedChild(i))...)
	}
	return syntax.NewFile(path, src, syntax.NewElement(syntax.KindFile, syntax.Range{Start: 0, End: len(src)}, items...)), nil
}
