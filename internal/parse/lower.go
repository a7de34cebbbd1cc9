package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/glint/internal/syntax"
)

type lowerer struct {
	src []byte
}

func span(n *sitter.Node) syntax.Range {
	return syntax.Range{Start: int(n.StartByte()), End: int(n.EndByte())}
}

func (l *lowerer) leaf(kind syntax.Kind, n *sitter.Node) *syntax.Element {
	return syntax.NewElement(kind, span(n))
}

func (l *lowerer) text(n *sitter.Node) string {
	return string(l.src[n.StartByte():n.EndByte()])
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// top lowers a direct child of the translation unit.
func (l *lowerer) top(n *sitter.Node) []*syntax.Element {
	switch n.Type() {
	case "preproc_call":
		return []*syntax.Element{l.directive(n)}
	case "preproc_include", "preproc_def", "preproc_function_def":
		return []*syntax.Element{l.leaf(syntax.KindDirective, n)}
	case "function_definition":
		return []*syntax.Element{l.function(n)}
	case "declaration":
		return l.declaration(n)
	case "struct_specifier":
		if s := l.structDecl(n); s != nil {
			return []*syntax.Element{s}
		}
		return nil
	case "comment":
		return nil
	}
	return []*syntax.Element{l.other(n)}
}

// directive lowers a preprocessor call. Pragmas get a name token and an
// argument text token; other directives stay opaque.
func (l *lowerer) directive(n *sitter.Node) *syntax.Element {
	start := int(n.StartByte())
	text := strings.TrimRight(l.text(n), " \t\r\n")
	end := start + len(text)

	i := 1 // past '#'
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	if !strings.HasPrefix(text[i:], "pragma") || syntax.IdentifierPrefix(text[i:]) != len("pragma") {
		return syntax.NewElement(syntax.KindDirective, syntax.Range{Start: start, End: end})
	}
	i += len("pragma")
	children := []*syntax.Element{syntax.NewElement(syntax.KindToken, syntax.Range{Start: start, End: start + i})}
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	if k := syntax.IdentifierPrefix(text[i:]); k > 0 {
		children = append(children, syntax.NewElement(syntax.KindIdentifier, syntax.Range{Start: start + i, End: start + i + k}))
		i += k
		for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
			i++
		}
	}
	if i < len(text) {
		children = append(children, syntax.NewElement(syntax.KindText, syntax.Range{Start: start + i, End: end}))
	}
	return syntax.NewElement(syntax.KindPragma, syntax.Range{Start: start, End: end}, children...)
}

// typeSpec lowers a type node. A struct reference is spanned by its name.
func (l *lowerer) typeSpec(n *sitter.Node) *syntax.Element {
	if n == nil {
		return nil
	}
	if n.Type() == "struct_specifier" {
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil
		}
		return l.leaf(syntax.KindTypeSpec, name)
	}
	return l.leaf(syntax.KindTypeSpec, n)
}

// declaratorName unwraps array, init and parenthesized declarators down to
// the declared identifier.
func declaratorName(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "identifier", "field_identifier", "type_identifier":
			return n
		case "function_declarator", "array_declarator", "init_declarator", "parenthesized_declarator", "pointer_declarator":
			n = n.ChildByFieldName("declarator")
		default:
			return nil
		}
	}
	return nil
}

func (l *lowerer) function(n *sitter.Node) *syntax.Element {
	decl := n.ChildByFieldName("declarator")
	for decl != nil && decl.Type() != "function_declarator" {
		decl = decl.ChildByFieldName("declarator")
	}
	children := []*syntax.Element{l.typeSpec(n.ChildByFieldName("type"))}
	if decl != nil {
		children = append(children, l.signature(decl)...)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		children = append(children, l.block(body))
	}
	return syntax.NewElement(syntax.KindFunction, span(n), children...)
}

// signature lowers a function declarator into its name and parameters.
func (l *lowerer) signature(decl *sitter.Node) []*syntax.Element {
	var out []*syntax.Element
	if name := declaratorName(decl); name != nil {
		out = append(out, l.leaf(syntax.KindIdentifier, name))
	}
	params := decl.ChildByFieldName("parameters")
	if params == nil {
		return out
	}
	for _, p := range namedChildren(params) {
		if p.Type() != "parameter_declaration" {
			continue
		}
		var pc []*syntax.Element
		pc = append(pc, l.typeSpec(p.ChildByFieldName("type")))
		if name := declaratorName(p.ChildByFieldName("declarator")); name != nil {
			pc = append(pc, l.leaf(syntax.KindIdentifier, name))
		}
		out = append(out, syntax.NewElement(syntax.KindParameter, span(p), pc...))
	}
	return out
}

// declaration lowers a declaration into one element per declarator. A
// struct defined inline is emitted first.
func (l *lowerer) declaration(n *sitter.Node) []*syntax.Element {
	typeNode := n.ChildByFieldName("type")
	var out []*syntax.Element
	if typeNode != nil && typeNode.Type() == "struct_specifier" {
		if s := l.structDecl(typeNode); s != nil {
			out = append(out, s)
		}
	}
	for _, d := range namedChildren(n) {
		if sameNode(d, typeNode) {
			continue
		}
		switch d.Type() {
		case "function_declarator":
			children := append([]*syntax.Element{l.typeSpec(typeNode)}, l.signature(d)...)
			out = append(out, syntax.NewElement(syntax.KindFunction, span(n), children...))
		case "identifier", "init_declarator", "array_declarator":
			name := declaratorName(d)
			if name == nil {
				continue
			}
			children := []*syntax.Element{l.typeSpec(typeNode), l.leaf(syntax.KindIdentifier, name)}
			if d.Type() == "init_declarator" {
				if v := d.ChildByFieldName("value"); v != nil {
					children = append(children, l.expr(v))
				}
			}
			out = append(out, syntax.NewElement(syntax.KindVariable, span(d), children...))
		}
	}
	return out
}

// structDecl lowers a struct definition; references without a body yield nil.
func (l *lowerer) structDecl(n *sitter.Node) *syntax.Element {
	name := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	if name == nil || body == nil {
		return nil
	}
	children := []*syntax.Element{l.leaf(syntax.KindIdentifier, name)}
	for _, f := range namedChildren(body) {
		if f.Type() != "field_declaration" {
			continue
		}
		typeNode := f.ChildByFieldName("type")
		for _, d := range namedChildren(f) {
			if sameNode(d, typeNode) {
				continue
			}
			fieldName := declaratorName(d)
			if fieldName == nil {
				continue
			}
			children = append(children, syntax.NewElement(syntax.KindField, span(d),
				l.typeSpec(typeNode), l.leaf(syntax.KindIdentifier, fieldName)))
		}
	}
	return syntax.NewElement(syntax.KindStruct, span(n), children...)
}

func (l *lowerer) block(n *sitter.Node) *syntax.Element {
	var children []*syntax.Element
	for _, c := range namedChildren(n) {
		children = append(children, l.statement(c)...)
	}
	return syntax.NewElement(syntax.KindBlock, span(n), children...)
}

func (l *lowerer) statement(n *sitter.Node) []*syntax.Element {
	switch n.Type() {
	case "declaration":
		return l.declaration(n)
	case "compound_statement":
		return []*syntax.Element{l.block(n)}
	case "comment":
		return nil
	}
	return []*syntax.Element{l.expr(n)}
}

// expr lowers an expression. Unrecognized nodes become KindOther with their
// named children lowered, so calls nested anywhere stay visible.
func (l *lowerer) expr(n *sitter.Node) *syntax.Element {
	switch n.Type() {
	case "identifier", "field_identifier", "primitive_type", "type_identifier":
		return l.leaf(syntax.KindIdentifier, n)
	case "number_literal", "true", "false":
		return l.leaf(syntax.KindLiteral, n)
	case "call_expression":
		children := []*syntax.Element{l.optExpr(n.ChildByFieldName("function"))}
		if args := n.ChildByFieldName("arguments"); args != nil {
			for _, a := range namedChildren(args) {
				if a.Type() == "comment" {
					continue
				}
				children = append(children, l.expr(a))
			}
		}
		return syntax.NewElement(syntax.KindCall, span(n), children...)
	case "field_expression":
		return syntax.NewElement(syntax.KindFieldAccess, span(n),
			l.optExpr(n.ChildByFieldName("argument")),
			l.optLeaf(syntax.KindIdentifier, n.ChildByFieldName("field")))
	case "subscript_expression":
		return syntax.NewElement(syntax.KindSubscript, span(n), l.children(n)...)
	case "binary_expression", "assignment_expression":
		return syntax.NewElement(syntax.KindBinary, span(n),
			l.optExpr(n.ChildByFieldName("left")),
			l.optLeaf(syntax.KindOperator, n.ChildByFieldName("operator")),
			l.optExpr(n.ChildByFieldName("right")))
	case "unary_expression", "update_expression":
		return syntax.NewElement(syntax.KindUnary, span(n),
			l.optLeaf(syntax.KindOperator, n.ChildByFieldName("operator")),
			l.optExpr(n.ChildByFieldName("argument")))
	case "parenthesized_expression":
		return syntax.NewElement(syntax.KindParen, span(n), l.children(n)...)
	}
	return syntax.NewElement(syntax.KindOther, span(n), l.children(n)...)
}

func (l *lowerer) children(n *sitter.Node) []*syntax.Element {
	var out []*syntax.Element
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "comment":
		case "declaration":
			out = append(out, l.declaration(c)...)
		case "compound_statement":
			out = append(out, l.block(c))
		default:
			out = append(out, l.expr(c))
		}
	}
	return out
}

func (l *lowerer) optExpr(n *sitter.Node) *syntax.Element {
	if n == nil {
		return nil
	}
	return l.expr(n)
}

func (l *lowerer) optLeaf(kind syntax.Kind, n *sitter.Node) *syntax.Element {
	if n == nil {
		return nil
	}
	return l.leaf(kind, n)
}

// other lowers an unrecognized top-level node, keeping nested declarations
// and expressions reachable but not top-level.
func (l *lowerer) other(n *sitter.Node) *syntax.Element {
	var children []*syntax.Element
	for _, c := range namedChildren(n) {
		children = append(children, l.top(c)...)
	}
	return syntax.NewElement(syntax.KindOther, span(n), children...)
}
