package store

import "time"

type File struct {
	ID          int64
	Path        string
	BaseName    string
	Hash        string
	LineCount   int
	LastIndexed time.Time
}

// Declaration is a top-level named element of a file. Params holds the
// parameter type names of functions and the field type names of structs.
type Declaration struct {
	ID            int64
	FileID        int64
	Name          string
	Kind          string
	TypeExpr      string
	Params        []string
	SignatureHash string
	StartLine     int
	StartCol      int
	EndLine       int
	EndCol        int
}

// Import is a `#pragma import` directive. ResolvedPath is empty when the
// import did not resolve to exactly one file.
type Import struct {
	ID           int64
	FileID       int64
	Name         string
	ResolvedPath string
	Line         int
	Col          int
}

// Diagnostic is a stored finding. Fix holds the JSON encoding of the
// suggested fix, or "".
type Diagnostic struct {
	ID          int64
	FileID      int64
	Path        string // filled by queries, not stored
	Kind        string
	Severity    string
	Message     string
	StartOffset int
	EndOffset   int
	Line        int
	Col         int
	Fix         string
}

// FileBatch is everything indexed for one file, committed together.
type FileBatch struct {
	File         File
	Declarations []Declaration
	Imports      []Import
	Diagnostics  []Diagnostic
}
