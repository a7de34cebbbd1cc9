// Package glint provides semantic analysis for GLSL sources that include one
// another through `#pragma import "<name>"` directives.
//
// # Pipeline
//
// An [Engine] discovers source files, parses them with tree-sitter into a
// lightweight syntax tree and publishes an immutable [Snapshot] of the
// project. Every analysis runs against a snapshot:
//
//  1. Module graph: import directives are resolved by base name. An import
//     resolves only when exactly one file in the project carries that name.
//
//  2. Symbols: top-level functions, structs and variables visible from a
//     file are its own declarations plus those of the files it imports
//     directly.
//
//  3. Calls: each call is resolved against the visible overloads twice,
//     once with exact parameter types and once allowing implicit
//     conversions. A call that only matches leniently is reported as
//     possibly incorrect.
//
// # Usage
//
//	e, err := glint.New(glint.WithRulesFS(rules.FS))
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	err = e.LoadDirectory(ctx, "path/to/shaders")
//	diags, err := e.CheckAll(ctx)
//
// # Diagnostics
//
// The built-in checks report unresolved imports (error), possibly incorrect
// calls (warning) and vector constructors whose arguments all repeat the
// same constant (weak warning, with a fix). Rule scripts add their own
// kinds. [WithDisabled] suppresses kinds by name.
//
// # Rules
//
// Rules are Risor scripts (*.risor) loaded from [WithRulesDir] or
// [WithRulesFS]. Each runs once per checked file and reports findings with
// report(). See the internal/runtime package for the globals exposed to
// scripts.
//
// # Incremental Indexing
//
// With [WithStore], [Engine.Index] mirrors the snapshot into SQLite. Files
// whose content hash did not change are skipped. When a file's declarations
// change, the files importing it are re-checked. A change to the rule
// scripts re-checks every file.
package glint
