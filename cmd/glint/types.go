package main

import "github.com/jward/glint"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIDiagnostic is a JSON-friendly diagnostic.
type CLIDiagnostic struct {
	File     string     `json:"file"`
	Line     int        `json:"line"`
	Col      int        `json:"col"`
	Start    int        `json:"start"`
	End      int        `json:"end"`
	Kind     string     `json:"kind"`
	Severity string     `json:"severity"`
	Message  string     `json:"message"`
	Fix      *glint.Fix `json:"fix,omitempty"`
}

// CLIImport is one import directive of a file.
type CLIImport struct {
	Name     string `json:"name"`
	Resolved string `json:"resolved,omitempty"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
}

// CLISymbol is a declaration visible from a file.
type CLISymbol struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Col       int    `json:"col"`
	Signature string `json:"signature,omitempty"`
}

// CLICall is the analysis of one call expression.
type CLICall struct {
	Name        string   `json:"name"`
	Line        int      `json:"line"`
	Col         int      `json:"col"`
	Constructor bool     `json:"constructor,omitempty"`
	Outcome     string   `json:"outcome,omitempty"`
	Args        []string `json:"args,omitempty"`
	Candidates  []string `json:"candidates,omitempty"`
}

// CLIIndexStats summarizes an index run.
type CLIIndexStats struct {
	Database     string `json:"database"`
	Files        int    `json:"files"`
	Indexed      int    `json:"indexed"`
	Rechecked    int    `json:"rechecked"`
	Skipped      int    `json:"skipped"`
	Removed      int    `json:"removed"`
	RulesChanged bool   `json:"rules_changed"`
}

// CLIDeclaration is a declaration read back from the index.
type CLIDeclaration struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	TypeExpr string   `json:"type_expr,omitempty"`
	Params   []string `json:"params,omitempty"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Col      int      `json:"col"`
}
