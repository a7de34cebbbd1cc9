package syntax

import "strings"

// IdentifierPrefix returns the length of the identifier at the start of s,
// or 0 when s does not start with one.
func IdentifierPrefix(s string) int {
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return i
		}
	}
	return len(s)
}

// Pragma appends a "#pragma <text>" directive. A leading identifier in text
// becomes the directive's name token; the rest is uninterpreted text.
func (b *Builder) Pragma(text string) *Element {
	children := []*Element{b.Token(KindToken, "#pragma")}
	text = strings.TrimSpace(text)
	if n := IdentifierPrefix(text); n > 0 {
		children = append(children, b.Token(KindIdentifier, text[:n]))
		text = strings.TrimSpace(text[n:])
	}
	if text != "" {
		children = append(children, b.Token(KindText, text))
	}
	return b.Node(KindPragma, children...)
}

// Ident appends an identifier.
func (b *Builder) Ident(name string) *Element {
	return b.Token(KindIdentifier, name)
}

// Type appends a type specifier.
func (b *Builder) Type(name string) *Element {
	return b.Token(KindTypeSpec, name)
}

// Lit appends a literal, e.g. "1", "2.5" or "true".
func (b *Builder) Lit(text string) *Element {
	return b.Token(KindLiteral, text)
}

// Param appends a parameter declaration. An empty name declares an unnamed
// parameter; an empty type leaves the type specifier out.
func (b *Builder) Param(typ, name string) *Element {
	var children []*Element
	if typ != "" {
		children = append(children, b.Type(typ))
	}
	if name != "" {
		children = append(children, b.Ident(name))
	}
	return b.Node(KindParameter, children...)
}

// Func appends a function. A nil body declares a prototype.
func (b *Builder) Func(ret, name string, params []*Element, body *Element) *Element {
	children := []*Element{b.Type(ret), b.Ident(name)}
	children = append(children, params...)
	children = append(children, body)
	return b.Node(KindFunction, children...)
}

// Params is a convenience for building a parameter list from type/name pairs.
func (b *Builder) Params(typeNames ...string) []*Element {
	var out []*Element
	for i := 0; i+1 < len(typeNames); i += 2 {
		out = append(out, b.Param(typeNames[i], typeNames[i+1]))
	}
	return out
}

// Block appends a compound statement.
func (b *Builder) Block(items ...*Element) *Element {
	open := b.Token(KindToken, "{")
	end := b.Token(KindToken, "}")
	children := append([]*Element{open}, items...)
	return b.Node(KindBlock, append(children, end)...)
}

// Var appends a variable declaration with an optional initializer.
func (b *Builder) Var(typ, name string, init *Element) *Element {
	return b.Node(KindVariable, b.Type(typ), b.Ident(name), init)
}

// Struct appends a struct declaration; fields come from type/name pairs.
func (b *Builder) Struct(name string, typeNames ...string) *Element {
	children := []*Element{b.Token(KindToken, "struct"), b.Ident(name)}
	for i := 0; i+1 < len(typeNames); i += 2 {
		children = append(children, b.Node(KindField, b.Type(typeNames[i]), b.Ident(typeNames[i+1])))
	}
	return b.Node(KindStruct, children...)
}

// Call appends a call expression.
func (b *Builder) Call(callee string, args ...*Element) *Element {
	children := append([]*Element{b.Ident(callee)}, args...)
	return b.Node(KindCall, children...)
}

// Member appends a member access or swizzle on object.
func (b *Builder) Member(object *Element, field string) *Element {
	return b.Node(KindFieldAccess, object, b.Ident(field))
}

// Binary appends a binary expression.
func (b *Builder) Binary(left *Element, op string, right *Element) *Element {
	return b.Node(KindBinary, left, b.Token(KindOperator, op), right)
}

// Unary appends a prefix unary expression.
func (b *Builder) Unary(op string, operand *Element) *Element {
	return b.Node(KindUnary, b.Token(KindOperator, op), operand)
}

// Paren appends a parenthesized expression.
func (b *Builder) Paren(inner *Element) *Element {
	return b.Node(KindParen, b.Token(KindToken, "("), inner, b.Token(KindToken, ")"))
}

// Index appends a subscript expression.
func (b *Builder) Index(object, index *Element) *Element {
	return b.Node(KindSubscript, object, index)
}
