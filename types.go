package glint

import (
	"github.com/jward/glint/internal/sema"
	"github.com/jward/glint/internal/store"
	"github.com/jward/glint/internal/symbols"
	"github.com/jward/glint/internal/syntax"
	"github.com/jward/glint/internal/types"
)

// Public aliases for the internal types that appear in the Engine and
// Snapshot API.

type File = syntax.File
type Node = syntax.Node
type Range = syntax.Range
type Kind = syntax.Kind
type Element = symbols.Element
type Type = types.Type
type Signature = sema.Signature
type Call = sema.Call
type Diagnostic = sema.Diagnostic
type DiagnosticKind = sema.Kind
type Severity = sema.Severity
type Fix = sema.Fix
type Edit = sema.Edit
type Store = store.Store

// Declaration kinds accepted by the global lookups.
const (
	KindFunction = syntax.KindFunction
	KindStruct   = syntax.KindStruct
	KindVariable = syntax.KindVariable
)

// Built-in diagnostic kinds and severities.
const (
	UnresolvedImport          = sema.UnresolvedImport
	PossiblyIncorrectCall     = sema.PossiblyIncorrectCall
	UnnecessaryCtorParameters = sema.UnnecessaryCtorParameters

	SeverityError       = sema.SeverityError
	SeverityWarning     = sema.SeverityWarning
	SeverityWeakWarning = sema.SeverityWeakWarning
)
