package syntax

import "strings"

// Element is the concrete, immutable tree produced by the parser and by
// Builder. Its links are set once at construction.
type Element struct {
	kind  Kind
	rng   Range
	first *Element
	next  *Element
}

// NewElement creates an element and links the given children in order.
func NewElement(kind Kind, rng Range, children ...*Element) *Element {
	e := &Element{kind: kind, rng: rng}
	var prev *Element
	for _, c := range children {
		if c == nil {
			continue
		}
		if prev == nil {
			e.first = c
		} else {
			prev.next = c
		}
		prev = c
	}
	return e
}

func (e *Element) Kind() Kind   { return e.kind }
func (e *Element) Range() Range { return e.rng }

func (e *Element) FirstChild() Node {
	if e.first == nil {
		return nil
	}
	return e.first
}

func (e *Element) NextSibling() Node {
	if e.next == nil {
		return nil
	}
	return e.next
}

// Builder assembles a tree and its source text together, for tests and for
// hosts that synthesize code. Tokens are separated by a single space unless
// the token text starts with a newline.
type Builder struct {
	buf strings.Builder
}

func (b *Builder) needsSpace(text string) bool {
	if b.buf.Len() == 0 || strings.HasPrefix(text, "\n") {
		return false
	}
	return !strings.HasSuffix(b.buf.String(), "\n")
}

// Token appends text to the source and returns a leaf element covering it.
func (b *Builder) Token(kind Kind, text string) *Element {
	if b.needsSpace(text) {
		b.buf.WriteByte(' ')
	}
	start := b.buf.Len()
	b.buf.WriteString(text)
	return NewElement(kind, Range{Start: start, End: b.buf.Len()})
}

// Node returns an element spanning its children. Children may have been
// appended to the source in any order; the span covers all of them.
func (b *Builder) Node(kind Kind, children ...*Element) *Element {
	rng := Range{Start: b.buf.Len(), End: b.buf.Len()}
	var spanned bool
	for _, c := range children {
		if c == nil {
			continue
		}
		if !spanned {
			rng = c.rng
			spanned = true
			continue
		}
		rng.Start = min(rng.Start, c.rng.Start)
		rng.End = max(rng.End, c.rng.End)
	}
	return NewElement(kind, rng, children...)
}

// Newline separates top-level items in the generated source.
func (b *Builder) Newline() {
	b.buf.WriteByte('\n')
}

// File wraps root and the accumulated source into a File.
func (b *Builder) File(path string, items ...*Element) *File {
	src := []byte(b.buf.String())
	root := NewElement(KindFile, Range{Start: 0, End: len(src)}, items...)
	return NewFile(path, src, root)
}
