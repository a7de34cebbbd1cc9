// Package syntax defines the tree-navigation capability the semantic core
// consumes. The core walks trees only through Node; concrete trees come from
// the parser (internal/parse) or from a Builder in tests.
package syntax

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
)

// Kind classifies a node.
type Kind uint8

const (
	KindOther      Kind = iota
	KindFile            // root of a source file
	KindPragma          // #pragma directive; children are its tokens
	KindDirective       // any other preprocessor directive
	KindToken           // directive token such as "#pragma"
	KindText            // uninterpreted text
	KindFunction        // function definition or prototype
	KindParameter       // function parameter
	KindStruct          // struct declaration
	KindField           // struct member
	KindVariable        // variable declaration (global or local)
	KindTypeSpec        // type specifier
	KindIdentifier      // name
	KindBlock           // compound statement
	KindCall            // call or constructor expression
	KindLiteral         // number or boolean literal
	KindFieldAccess     // member access or swizzle
	KindSubscript       // array subscript
	KindBinary          // binary expression
	KindUnary           // unary expression
	KindParen           // parenthesized expression
	KindOperator        // operator token inside an expression
)

var kindNames = [...]string{
	KindOther:       "other",
	KindFile:        "file",
	KindPragma:      "pragma",
	KindDirective:   "directive",
	KindToken:       "token",
	KindText:        "text",
	KindFunction:    "function",
	KindParameter:   "parameter",
	KindStruct:      "struct",
	KindField:       "field",
	KindVariable:    "variable",
	KindTypeSpec:    "type",
	KindIdentifier:  "identifier",
	KindBlock:       "block",
	KindCall:        "call",
	KindLiteral:     "literal",
	KindFieldAccess: "field_access",
	KindSubscript:   "subscript",
	KindBinary:      "binary",
	KindUnary:       "unary",
	KindParen:       "paren",
	KindOperator:    "operator",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return KindOther, false
}

// Range is a half-open byte range into a file's source.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by r.
func (r Range) Len() int { return r.End - r.Start }

// Node is the navigation capability over a syntax tree. Implementations must
// return an untyped nil from FirstChild and NextSibling when there is no such
// node.
type Node interface {
	Kind() Kind
	Range() Range
	FirstChild() Node
	NextSibling() Node
}

// File is a parsed source file: the unit of module identity.
type File struct {
	Path     string
	Source   []byte
	Root     Node
	Revision string // sha256 of Source
}

// NewFile wraps a parsed tree. The revision is derived from src.
func NewFile(path string, src []byte, root Node) *File {
	return &File{
		Path:     path,
		Source:   src,
		Root:     root,
		Revision: Revision(src),
	}
}

// Revision returns the content hash used to key caches for src.
func Revision(src []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(src))
}

// Name returns the base name of the file, which is what imports match on.
func (f *File) Name() string {
	return filepath.Base(f.Path)
}

// Text returns the source text covered by n.
func (f *File) Text(n Node) string {
	return f.Slice(n.Range())
}

// Slice returns the source text covered by r, clamped to the source bounds.
func (f *File) Slice(r Range) string {
	start, end := max(r.Start, 0), min(r.End, len(f.Source))
	if start >= end {
		return ""
	}
	return string(f.Source[start:end])
}

// Position converts a byte offset into a 1-based line and column.
func (f *File) Position(offset int) (line, col int) {
	line, col = 1, 1
	for i := 0; i < offset && i < len(f.Source); i++ {
		if f.Source[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// Children returns the direct children of n in order.
func Children(n Node) []Node {
	var out []Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, c)
	}
	return out
}

// FirstOfKind returns the first direct child of n with kind k, or nil.
func FirstOfKind(n Node, k Kind) Node {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Kind() == k {
			return c
		}
	}
	return nil
}

// Inspect walks the subtree rooted at n in depth-first order. Returning
// false from fn skips the children of the current node.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		Inspect(c, fn)
	}
}

// DeclName returns the declared name of a function, parameter, struct, field
// or variable node: the text of its first identifier child.
func (f *File) DeclName(n Node) string {
	id := FirstOfKind(n, KindIdentifier)
	if id == nil {
		return ""
	}
	return f.Text(id)
}
