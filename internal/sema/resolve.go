// Package sema implements the semantic checks over a parsed project:
// function signatures, overload resolution, expression typing, and the
// diagnostics derived from them.
package sema

import (
	"github.com/jward/glint/internal/syntax"
	"github.com/jward/glint/internal/types"
)

// DeclRef identifies the declaration a signature was built from. It is
// informational: a signature stays usable after its declaration changes.
type DeclRef struct {
	Path  string
	Range syntax.Range
}

// Signature is the immutable record of one callable declaration.
type Signature struct {
	Name   string
	Return types.Type
	Params []types.Type
	Decl   DeclRef
}

// Type returns the function type of s.
func (s *Signature) Type() *types.Function {
	return &types.Function{Name: s.Name, Return: s.Return, Params: s.Params}
}

func (s *Signature) String() string { return s.Type().String() }

// Resolve returns the candidates whose parameters accept args. With strict
// set only exact matches are kept; otherwise implicit conversions are
// accepted too. Candidates of a different arity never match. The result is
// not ranked.
func Resolve(args []types.Type, candidates []*Signature, strict bool) []*Signature {
	var out []*Signature
	for _, c := range candidates {
		if len(c.Params) != len(args) {
			continue
		}
		switch types.Compatibility(args, c.Params) {
		case types.Exact:
			out = append(out, c)
		case types.Implicit:
			if !strict {
				out = append(out, c)
			}
		}
	}
	return out
}

// Outcome classifies a call site from its strict and lenient match sets.
type Outcome uint8

const (
	// Resolved means at least one candidate matches exactly.
	Resolved Outcome = iota
	// UnknownCallee means nothing visible matches at all; the callee is
	// assumed to be defined elsewhere.
	UnknownCallee
	// PossiblyIncorrect means candidates exist but none match exactly.
	PossiblyIncorrect
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case UnknownCallee:
		return "unknown_callee"
	default:
		return "possibly_incorrect"
	}
}

// Classify applies the call-site policy to a strict and a lenient result.
func Classify(strict, lenient []*Signature) Outcome {
	switch {
	case len(strict) > 0:
		return Resolved
	case len(lenient) == 0:
		return UnknownCallee
	default:
		return PossiblyIncorrect
	}
}
