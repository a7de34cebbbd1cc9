package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// formatDiagnosticsText writes compiler-style "file:line:col: severity:
// message [kind]" lines.
func formatDiagnosticsText(w io.Writer, diags []CLIDiagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s:%d:%d: %s: %s [%s]\n", d.File, d.Line, d.Col, d.Severity, d.Message, d.Kind)
	}
}

func formatImportsText(w io.Writer, imports []CLIImport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tRESOLVED\tLINE")
	for _, imp := range imports {
		resolved := imp.Resolved
		if resolved == "" {
			resolved = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", imp.Name, resolved, imp.Line)
	}
	tw.Flush()
}

func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tFILE\tLINE\tSIGNATURE")
	for _, s := range syms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.Name, s.Kind, s.File, s.Line, s.Signature)
	}
	tw.Flush()
}

func formatCallsText(w io.Writer, calls []CLICall) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tCOL\tNAME\tOUTCOME\tARGS")
	for _, c := range calls {
		outcome := c.Outcome
		if c.Constructor {
			outcome = "constructor"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", c.Line, c.Col, c.Name, outcome, strings.Join(c.Args, ", "))
	}
	tw.Flush()
}

func formatDeclarationsText(w io.Writer, decls []CLIDeclaration) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tTYPE\tFILE\tLINE")
	for _, d := range decls {
		typ := d.TypeExpr
		if len(d.Params) > 0 {
			typ += "(" + strings.Join(d.Params, ", ") + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", d.Name, d.Kind, typ, d.File, d.Line)
	}
	tw.Flush()
}

func formatIndexStatsText(w io.Writer, s CLIIndexStats) {
	fmt.Fprintf(w, "Indexed %d file(s): %d updated, %d rechecked, %d unchanged, %d removed\n",
		s.Files, s.Indexed, s.Rechecked, s.Skipped, s.Removed)
	if s.RulesChanged {
		fmt.Fprintln(w, "Rules changed since the last run.")
	}
	fmt.Fprintf(w, "Database: %s\n", s.Database)
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIDiagnostic:
		formatDiagnosticsText(w, v)
	case []CLIImport:
		formatImportsText(w, v)
	case []CLISymbol:
		formatSymbolsText(w, v)
	case []CLICall:
		formatCallsText(w, v)
	case []CLIDeclaration:
		formatDeclarationsText(w, v)
	case CLIIndexStats:
		formatIndexStatsText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	if result.TotalCount != nil {
		fmt.Fprintf(w, "\n%d result(s)\n", *result.TotalCount)
	}
	return nil
}

// outputResult writes a CLIResult to the command's output in the selected
// format.
func outputResult(cmd *cobra.Command, result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(cmd.OutOrStdout(), result)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(cmd *cobra.Command, command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

func count(n int) *int {
	return &n
}
