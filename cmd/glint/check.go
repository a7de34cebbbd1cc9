package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/glint"
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Report diagnostics for a file or every source file under a directory",
	Long:  "Runs the built-in checks and the rule scripts. Exits non-zero when an error-severity diagnostic is found.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget(args)
	if err != nil {
		return outputError(cmd, "check", err)
	}
	p, err := loadProject(cmd, t.dir())
	if err != nil {
		return outputError(cmd, "check", err)
	}
	e, err := p.engine(false)
	if err != nil {
		return outputError(cmd, "check", err)
	}
	defer e.Close()

	ctx := cmd.Context()
	var diags []glint.Diagnostic
	var checkErr error
	if err := p.load(ctx, e, p.root); err != nil {
		return outputError(cmd, "check", err)
	}
	if t.isDir {
		diags, checkErr = e.CheckDirectory(ctx, t.path)
	} else {
		if e.Snapshot().File(t.path) == nil {
			// Not discovered, e.g. an unlisted extension: check it anyway.
			if err := e.LoadFiles(ctx, []string{t.path}); err != nil {
				return outputError(cmd, "check", err)
			}
		}
		diags, checkErr = e.Check(ctx, t.path)
	}
	if diags == nil && checkErr != nil {
		return outputError(cmd, "check", checkErr)
	}

	out := make([]CLIDiagnostic, 0, len(diags))
	hasErrors := false
	for _, d := range diags {
		out = append(out, diagnosticToCLI(d, p.root))
		if d.Severity == glint.SeverityError {
			hasErrors = true
		}
	}
	result := CLIResult{Command: "check", Results: out, TotalCount: count(len(out))}
	if checkErr != nil {
		result.Error = checkErr.Error()
	}
	if err := outputResult(cmd, result); err != nil {
		return err
	}
	if checkErr != nil {
		if flagFormat == "json" {
			errorHandled = true
		}
		return checkErr
	}
	if hasErrors {
		return errFindings
	}
	return nil
}

// diagnosticToCLI converts a diagnostic, shortening its path relative to
// root when it lies inside it.
func diagnosticToCLI(d glint.Diagnostic, root string) CLIDiagnostic {
	return CLIDiagnostic{
		File:     relPath(root, d.Path),
		Line:     d.Line,
		Col:      d.Column,
		Start:    d.Range.Start,
		End:      d.Range.End,
		Kind:     string(d.Kind),
		Severity: string(d.Severity),
		Message:  d.Message,
		Fix:      d.Fix,
	}
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
