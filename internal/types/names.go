package types

import (
	"regexp"
	"strconv"
	"strings"
)

var scalarNames = map[string]ScalarKind{
	"void":   Void,
	"bool":   Bool,
	"int":    Int,
	"uint":   Uint,
	"float":  Float,
	"double": Double,
}

var vectorPrefixes = map[string]ScalarKind{
	"vec":  Float,
	"bvec": Bool,
	"ivec": Int,
	"uvec": Uint,
	"dvec": Double,
}

var opaqueName = regexp.MustCompile(`^(atomic_uint|sampler(Shadow)?|[iu]?(sampler|image)(1D|2D|3D|Cube|2DRect|Buffer|1DArray|2DArray|CubeArray|2DMS|2DMSArray)(Shadow)?)$`)

// Parse maps a builtin type name to its Type. It returns false for names
// that are not builtin, such as struct names.
func Parse(name string) (Type, bool) {
	name = strings.TrimSpace(name)
	if k, ok := scalarNames[name]; ok {
		return Scalar{Kind: k}, true
	}
	for prefix, base := range vectorPrefixes {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			if n, ok := dimension(rest); ok {
				return Vector{Base: base, Arity: n}, true
			}
		}
	}
	if m, ok := parseMatrix(name); ok {
		return m, true
	}
	if opaqueName.MatchString(name) {
		return Scalar{Kind: Opaque, Name: name}, true
	}
	return nil, false
}

// IsVectorName reports whether name is a builtin vector type name.
func IsVectorName(name string) bool {
	t, ok := Parse(name)
	if !ok {
		return false
	}
	_, ok = t.(Vector)
	return ok
}

func parseMatrix(name string) (Matrix, bool) {
	base := Float
	rest, ok := strings.CutPrefix(name, "mat")
	if !ok {
		if rest, ok = strings.CutPrefix(name, "dmat"); !ok {
			return Matrix{}, false
		}
		base = Double
	}
	if cols, rows, found := strings.Cut(rest, "x"); found {
		c, ok1 := dimension(cols)
		r, ok2 := dimension(rows)
		if !ok1 || !ok2 {
			return Matrix{}, false
		}
		return Matrix{Base: base, Cols: c, Rows: r}, true
	}
	n, ok := dimension(rest)
	if !ok {
		return Matrix{}, false
	}
	return Matrix{Base: base, Cols: n, Rows: n}, true
}

func dimension(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 2 || n > 4 {
		return 0, false
	}
	return n, true
}
