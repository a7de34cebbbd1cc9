package sema

import (
	"context"
	"fmt"

	"github.com/jward/glint/internal/syntax"
	"github.com/jward/glint/internal/types"
)

// Kind names a diagnostic class. The names double as the keys users
// disable checks with.
type Kind string

const (
	UnresolvedImport          Kind = "unresolved-import"
	PossiblyIncorrectCall     Kind = "possibly-incorrect-call"
	UnnecessaryCtorParameters Kind = "unnecessary-ctor-parameters"
)

// Kinds lists every diagnostic kind the checker produces.
var Kinds = []Kind{UnresolvedImport, PossiblyIncorrectCall, UnnecessaryCtorParameters}

// Severity orders how serious a diagnostic is.
type Severity string

const (
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityWeakWarning Severity = "weak_warning"
)

const (
	msgPossiblyIncorrect = "Possibly incorrect arguments: no function definition found that accepts these arguments"
	msgUnnecessaryParams = "Unnecessary parameters"
)

// Edit replaces Range with NewText.
type Edit struct {
	Range   syntax.Range `json:"range"`
	NewText string       `json:"new_text"`
}

// Fix is a suggested correction.
type Fix struct {
	Title string `json:"title"`
	Edits []Edit `json:"edits"`
}

// Diagnostic is one finding in one file.
type Diagnostic struct {
	Kind     Kind         `json:"kind"`
	Severity Severity     `json:"severity"`
	Path     string       `json:"path"`
	Range    syntax.Range `json:"range"`
	Line     int          `json:"line"`
	Column   int          `json:"column"`
	Message  string       `json:"message"`
	Fix      *Fix         `json:"fix,omitempty"`
}

// NewDiagnostic positions a diagnostic in f.
func NewDiagnostic(f *syntax.File, kind Kind, sev Severity, rng syntax.Range, msg string) Diagnostic {
	line, col := f.Position(rng.Start)
	return Diagnostic{
		Kind:     kind,
		Severity: sev,
		Path:     f.Path,
		Range:    rng,
		Line:     line,
		Column:   col,
		Message:  msg,
	}
}

// Call is the analysis of one call expression.
type Call struct {
	Node        syntax.Node
	Name        string
	Args        []types.Type
	Constructor bool
	Strict      []*Signature
	Lenient     []*Signature
	Outcome     Outcome
}

// Calls analyzes every call expression in f in source order.
func (a *Analyzer) Calls(ctx context.Context, f *syntax.File) ([]Call, error) {
	var nodes []syntax.Node
	syntax.Inspect(f.Root, func(n syntax.Node) bool {
		if n.Kind() == syntax.KindCall {
			nodes = append(nodes, n)
		}
		return true
	})

	out := make([]Call, 0, len(nodes))
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := CalleeName(f, n)
		if name == "" {
			continue
		}
		c := Call{Node: n, Name: name, Outcome: UnknownCallee}
		if a.IsConstructor(f, name) {
			c.Constructor = true
			out = append(out, c)
			continue
		}
		c.Args = a.ArgTypes(f, n)
		if cands := a.Candidates(f, name); len(cands) > 0 {
			c.Strict = Resolve(c.Args, cands, true)
			c.Lenient = Resolve(c.Args, cands, false)
		}
		c.Outcome = Classify(c.Strict, c.Lenient)
		out = append(out, c)
	}
	return out, nil
}

// Check runs every built-in check over f. Cancellation discards partial
// results.
func (a *Analyzer) Check(ctx context.Context, f *syntax.File) ([]Diagnostic, error) {
	var diags []Diagnostic
	for _, d := range a.graph.Unresolved(f) {
		diags = append(diags, NewDiagnostic(f, UnresolvedImport, SeverityError, d.Node.Range(),
			fmt.Sprintf("Unable to find file '%s' to import.", d.Name)))
	}

	calls, err := a.Calls(ctx, f)
	if err != nil {
		return nil, err
	}
	for _, c := range calls {
		if c.Outcome == PossiblyIncorrect {
			diags = append(diags, NewDiagnostic(f, PossiblyIncorrectCall, SeverityWarning, c.Node.Range(), msgPossiblyIncorrect))
		}
		if !c.Constructor {
			continue
		}
		if del, ok := a.RedundantConstructorArgs(f, c.Node); ok {
			d := NewDiagnostic(f, UnnecessaryCtorParameters, SeverityWeakWarning, c.Node.Range(), msgUnnecessaryParams)
			d.Fix = &Fix{Title: "Remove unnecessary parameters", Edits: []Edit{{Range: del}}}
			diags = append(diags, d)
		}
	}
	return diags, nil
}
