package types

// scalarConversions lists the implicit conversions between scalar kinds.
// Every kind also converts to itself.
var scalarConversions = map[ScalarKind][]ScalarKind{
	Int:   {Uint, Float, Double},
	Uint:  {Float, Double},
	Float: {Double},
}

func scalarConvertible(from, to ScalarKind) bool {
	if from == to {
		return true
	}
	for _, k := range scalarConversions[from] {
		if k == to {
			return true
		}
	}
	return false
}

// Equal reports whether a and b denote the same type. Unknown is equal only
// to itself here; use Convertible for the absorbing behavior.
func Equal(a, b Type) bool {
	if IsUnknown(a) || IsUnknown(b) {
		return IsUnknown(a) && IsUnknown(b)
	}
	switch x := a.(type) {
	case Scalar:
		y, ok := b.(Scalar)
		return ok && x.Kind == y.Kind && (x.Kind != Opaque || x.Name == y.Name)
	case Vector:
		y, ok := b.(Vector)
		return ok && x == y
	case Matrix:
		y, ok := b.(Matrix)
		return ok && x == y
	case *Struct:
		y, ok := b.(*Struct)
		return ok && x.Name == y.Name
	case *Function:
		y, ok := b.(*Function)
		if !ok || x.Name != y.Name || len(x.Params) != len(y.Params) || !Equal(x.Return, y.Return) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Convertible reports whether a value of type from may be used where type to
// is expected, either unchanged or through an implicit conversion.
func Convertible(from, to Type) bool {
	if IsUnknown(from) || IsUnknown(to) {
		return true
	}
	if Equal(from, to) {
		return true
	}
	switch x := from.(type) {
	case Scalar:
		y, ok := to.(Scalar)
		return ok && x.Kind != Opaque && y.Kind != Opaque && scalarConvertible(x.Kind, y.Kind)
	case Vector:
		y, ok := to.(Vector)
		return ok && x.Arity == y.Arity && scalarConvertible(x.Base, y.Base)
	case Matrix:
		y, ok := to.(Matrix)
		return ok && x.Cols == y.Cols && x.Rows == y.Rows && scalarConvertible(x.Base, y.Base)
	}
	return false
}

// Level classifies how well an argument list matches a parameter list.
// Levels are ordered: Incompatible < Implicit < Exact.
type Level int

const (
	Incompatible Level = iota
	Implicit
	Exact
)

func (l Level) String() string {
	switch l {
	case Exact:
		return "exact"
	case Implicit:
		return "implicit"
	default:
		return "incompatible"
	}
}

// PositionLevel classifies a single argument against a single parameter.
// An Unknown on either side counts as an exact match.
func PositionLevel(arg, param Type) Level {
	switch {
	case IsUnknown(arg) || IsUnknown(param):
		return Exact
	case Equal(arg, param):
		return Exact
	case Convertible(arg, param):
		return Implicit
	default:
		return Incompatible
	}
}

// Compatibility reduces the positional levels of args against params to the
// worst one. A length mismatch is Incompatible without comparing positions.
func Compatibility(args, params []Type) Level {
	if len(args) != len(params) {
		return Incompatible
	}
	level := Exact
	for i := range args {
		l := PositionLevel(args[i], params[i])
		if l == Incompatible {
			return Incompatible
		}
		if l < level {
			level = l
		}
	}
	return level
}

// CommonScalar returns the kind both a and b implicitly convert to, preferring
// the wider of the two. It reports false when neither converts to the other.
func CommonScalar(a, b ScalarKind) (ScalarKind, bool) {
	if a == Opaque || b == Opaque || a == Void || b == Void {
		return 0, false
	}
	switch {
	case scalarConvertible(a, b):
		return b, true
	case scalarConvertible(b, a):
		return a, true
	}
	return 0, false
}
