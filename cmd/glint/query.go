package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/glint"
	"github.com/jward/glint/internal/modgraph"
	"github.com/jward/glint/internal/store"
)

var (
	flagKind       string
	flagTransitive bool
)

var importsCmd = &cobra.Command{
	Use:   "imports <file>",
	Short: "List a file's #pragma import directives and what they resolve to",
	Args:  cobra.ExactArgs(1),
	RunE:  runImports,
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file> <name>",
	Short: "Find the top-level declarations named <name> visible from a file",
	Args:  cobra.ExactArgs(2),
	RunE:  runSymbols,
}

var callsCmd = &cobra.Command{
	Use:   "calls <file>",
	Short: "Show how every call in a file resolves",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalls,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the index written by 'glint index'",
}

var queryDeclsCmd = &cobra.Command{
	Use:   "decls <name>",
	Short: "Find indexed declarations by name",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueryDecls,
}

var queryDiagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "List the diagnostics stored by the last index run",
	Args:  cobra.NoArgs,
	RunE:  runQueryDiagnostics,
}

func init() {
	symbolsCmd.Flags().StringVar(&flagKind, "kind", "", "declaration kind: function|struct|variable (default: all)")
	symbolsCmd.Flags().BoolVar(&flagTransitive, "transitive", false, "search every file reachable through imports, not only direct ones")
	queryDeclsCmd.Flags().StringVar(&flagKind, "kind", "", "declaration kind: function|struct|variable (default: all)")

	queryCmd.AddCommand(queryDeclsCmd)
	queryCmd.AddCommand(queryDiagnosticsCmd)
}

// --- Helpers ---

// openSnapshot loads the project containing file and returns its snapshot
// together with the parsed file.
func openSnapshot(cmd *cobra.Command, arg string) (*project, *glint.Snapshot, *glint.File, error) {
	t, err := resolveFile(arg)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := loadProject(cmd, t.dir())
	if err != nil {
		return nil, nil, nil, err
	}
	e, err := p.engine(false)
	if err != nil {
		return nil, nil, nil, err
	}
	defer e.Close()

	if err := p.load(cmd.Context(), e, p.root); err != nil {
		return nil, nil, nil, err
	}
	if e.Snapshot().File(t.path) == nil {
		if err := e.LoadFiles(cmd.Context(), []string{t.path}); err != nil {
			return nil, nil, nil, err
		}
	}
	s := e.Snapshot()
	return p, s, s.File(t.path), nil
}

// openStore opens the index database of the project around the working
// directory.
func openStore(cmd *cobra.Command) (*project, *store.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("getting cwd: %w", err)
	}
	p, err := loadProject(cmd, cwd)
	if err != nil {
		return nil, nil, err
	}
	dbPath := p.dbPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("database not found: %s (run 'glint index' first)", dbPath)
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return p, s, nil
}

// kinds returns the declaration kinds selected by --kind.
func kinds() ([]glint.Kind, error) {
	switch flagKind {
	case "":
		return []glint.Kind{glint.KindFunction, glint.KindStruct, glint.KindVariable}, nil
	case glint.KindFunction.String():
		return []glint.Kind{glint.KindFunction}, nil
	case glint.KindStruct.String():
		return []glint.Kind{glint.KindStruct}, nil
	case glint.KindVariable.String():
		return []glint.Kind{glint.KindVariable}, nil
	}
	return nil, fmt.Errorf("invalid kind %q: must be function, struct or variable", flagKind)
}

// --- Commands ---

func runImports(cmd *cobra.Command, args []string) error {
	p, s, f, err := openSnapshot(cmd, args[0])
	if err != nil {
		return outputError(cmd, "imports", err)
	}

	directives := modgraph.Directives(f)
	out := make([]CLIImport, 0, len(directives))
	for _, d := range directives {
		imp := CLIImport{Name: d.Name}
		if target := s.ResolveImport(f, d.Name); target != nil {
			imp.Resolved = relPath(p.root, target.Path)
		}
		imp.Line, imp.Col = f.Position(d.Node.Range().Start)
		out = append(out, imp)
	}
	return outputResult(cmd, CLIResult{Command: "imports", Results: out, TotalCount: count(len(out))})
}

func runSymbols(cmd *cobra.Command, args []string) error {
	ks, err := kinds()
	if err != nil {
		return outputError(cmd, "symbols", err)
	}
	p, s, f, err := openSnapshot(cmd, args[0])
	if err != nil {
		return outputError(cmd, "symbols", err)
	}

	out := []CLISymbol{}
	for _, k := range ks {
		var els []glint.Element
		if flagTransitive {
			local := s.FindGlobalNamedElements(f, args[1], k)
			reach, err := s.FindReachableNamedElements(cmd.Context(), f, args[1], k)
			if err != nil {
				return outputError(cmd, "symbols", err)
			}
			els = mergeElements(local, reach)
		} else {
			els = s.FindGlobalNamedElements(f, args[1], k)
		}
		for _, el := range els {
			sym := CLISymbol{Name: el.Name, Kind: el.Kind.String(), File: relPath(p.root, el.File.Path)}
			sym.Line, sym.Col = el.File.Position(el.Node.Range().Start)
			if el.Kind == glint.KindFunction {
				sym.Signature = s.Analyzer().Signature(el.File, el.Node).String()
			}
			out = append(out, sym)
		}
	}
	return outputResult(cmd, CLIResult{Command: "symbols", Results: out, TotalCount: count(len(out))})
}

// mergeElements appends the elements of b missing from a.
func mergeElements(a, b []glint.Element) []glint.Element {
	type key struct {
		path  string
		start int
	}
	seen := make(map[key]bool, len(a))
	for _, el := range a {
		seen[key{el.File.Path, el.Node.Range().Start}] = true
	}
	out := append([]glint.Element(nil), a...)
	for _, el := range b {
		if !seen[key{el.File.Path, el.Node.Range().Start}] {
			out = append(out, el)
		}
	}
	return out
}

func runCalls(cmd *cobra.Command, args []string) error {
	_, s, f, err := openSnapshot(cmd, args[0])
	if err != nil {
		return outputError(cmd, "calls", err)
	}
	calls, err := s.Calls(cmd.Context(), f)
	if err != nil {
		return outputError(cmd, "calls", err)
	}

	out := make([]CLICall, 0, len(calls))
	for _, c := range calls {
		cc := CLICall{Name: c.Name, Constructor: c.Constructor}
		cc.Line, cc.Col = f.Position(c.Node.Range().Start)
		if !c.Constructor {
			cc.Outcome = c.Outcome.String()
			for _, a := range c.Args {
				cc.Args = append(cc.Args, a.String())
			}
			for _, sig := range c.Lenient {
				cc.Candidates = append(cc.Candidates, sig.String())
			}
		}
		out = append(out, cc)
	}
	return outputResult(cmd, CLIResult{Command: "calls", Results: out, TotalCount: count(len(out))})
}

func runQueryDecls(cmd *cobra.Command, args []string) error {
	if _, err := kinds(); err != nil {
		return outputError(cmd, "query decls", err)
	}
	p, st, err := openStore(cmd)
	if err != nil {
		return outputError(cmd, "query decls", err)
	}
	defer st.Close()

	decls, err := st.DeclarationsByName(args[0], flagKind)
	if err != nil {
		return outputError(cmd, "query decls", err)
	}
	paths, err := filePaths(st)
	if err != nil {
		return outputError(cmd, "query decls", err)
	}
	out := make([]CLIDeclaration, 0, len(decls))
	for _, d := range decls {
		out = append(out, CLIDeclaration{
			Name:     d.Name,
			Kind:     d.Kind,
			TypeExpr: d.TypeExpr,
			Params:   d.Params,
			File:     relPath(p.root, paths[d.FileID]),
			Line:     d.StartLine,
			Col:      d.StartCol,
		})
	}
	return outputResult(cmd, CLIResult{Command: "query decls", Results: out, TotalCount: count(len(out))})
}

func runQueryDiagnostics(cmd *cobra.Command, args []string) error {
	p, st, err := openStore(cmd)
	if err != nil {
		return outputError(cmd, "query diagnostics", err)
	}
	defer st.Close()

	diags, err := st.AllDiagnostics()
	if err != nil {
		return outputError(cmd, "query diagnostics", err)
	}
	out := make([]CLIDiagnostic, 0, len(diags))
	for _, d := range diags {
		cd := CLIDiagnostic{
			File:     relPath(p.root, d.Path),
			Line:     d.Line,
			Col:      d.Col,
			Start:    d.StartOffset,
			End:      d.EndOffset,
			Kind:     d.Kind,
			Severity: d.Severity,
			Message:  d.Message,
		}
		if d.Fix != "" {
			fix, err := decodeFix(d.Fix)
			if err != nil {
				return outputError(cmd, "query diagnostics", err)
			}
			cd.Fix = fix
		}
		out = append(out, cd)
	}
	return outputResult(cmd, CLIResult{Command: "query diagnostics", Results: out, TotalCount: count(len(out))})
}

// filePaths maps every indexed file ID to its path.
func filePaths(st *store.Store) (map[int64]string, error) {
	files, err := st.AllFiles()
	if err != nil {
		return nil, err
	}
	paths := make(map[int64]string, len(files))
	for _, f := range files {
		paths[f.ID] = filepath.Clean(f.Path)
	}
	return paths, nil
}

func decodeFix(s string) (*glint.Fix, error) {
	var fix glint.Fix
	if err := json.Unmarshal([]byte(s), &fix); err != nil {
		return nil, fmt.Errorf("decoding fix: %w", err)
	}
	return &fix, nil
}
