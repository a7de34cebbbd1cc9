// Package types models the shading-language type system: scalars, vectors,
// matrices, structs, function types and the absorbing Unknown type, together
// with the implicit-conversion lattice used by overload resolution.
package types

import (
	"fmt"
	"strings"
)

// Type is one of Scalar, Vector, Matrix, Struct, Function or Unknown.
type Type interface {
	// String renders the canonical display name. It is used in messages only,
	// never for comparison.
	String() string
	isType()
}

// ScalarKind identifies a scalar type.
type ScalarKind uint8

const (
	Void ScalarKind = iota
	Bool
	Int
	Uint
	Float
	Double
	Opaque // samplers, images and other handle types; equal only by name
)

// Scalar is a single-component type.
type Scalar struct {
	Kind ScalarKind
	Name string // set for Opaque scalars only
}

func (Scalar) isType() {}

func (s Scalar) String() string {
	switch s.Kind {
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return s.Name
	}
}

// Vector is a 2-, 3- or 4-component vector of a scalar base.
type Vector struct {
	Base  ScalarKind
	Arity int
}

func (Vector) isType() {}

func (v Vector) String() string {
	switch v.Base {
	case Bool:
		return fmt.Sprintf("bvec%d", v.Arity)
	case Int:
		return fmt.Sprintf("ivec%d", v.Arity)
	case Uint:
		return fmt.Sprintf("uvec%d", v.Arity)
	case Double:
		return fmt.Sprintf("dvec%d", v.Arity)
	default:
		return fmt.Sprintf("vec%d", v.Arity)
	}
}

// Matrix is a Cols x Rows matrix of float or double.
type Matrix struct {
	Base ScalarKind
	Cols int
	Rows int
}

func (Matrix) isType() {}

func (m Matrix) String() string {
	prefix := "mat"
	if m.Base == Double {
		prefix = "dmat"
	}
	if m.Cols == m.Rows {
		return fmt.Sprintf("%s%d", prefix, m.Cols)
	}
	return fmt.Sprintf("%s%dx%d", prefix, m.Cols, m.Rows)
}

// Field is a named struct member.
type Field struct {
	Name string
	Type Type
}

// Struct is a user-declared aggregate. Two structs are the same type when
// their names match.
type Struct struct {
	Name   string
	Fields []Field
}

func (*Struct) isType() {}

func (s *Struct) String() string { return s.Name }

// Field returns the type of the named member, or Unknown.
func (s *Struct) Field(name string) Type {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Type
		}
	}
	return Unknown
}

// Function is the type of a callable.
type Function struct {
	Name   string
	Return Type
	Params []Type
}

func (*Function) isType() {}

func (f *Function) String() string {
	var b strings.Builder
	b.WriteString(f.Return.String())
	b.WriteByte(' ')
	b.WriteString(f.Name)
	b.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	return b.String()
}

type unknown struct{}

func (unknown) isType() {}

func (unknown) String() string { return "<unknown>" }

// Unknown stands in for any type that could not be determined. It converts
// to and from every type so that a failed upstream analysis never surfaces
// as a type mismatch.
var Unknown Type = unknown{}

// IsUnknown reports whether t is the Unknown type (or nil).
func IsUnknown(t Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(unknown)
	return ok
}
