package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var flagForce bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Write declarations, imports and diagnostics to the SQLite index",
	Long:  "Parses every source file under path and mirrors the results into the index database. Unchanged files are skipped.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete the database and reindex from scratch")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	t, err := resolveTarget(args)
	if err != nil {
		return outputError(cmd, "index", err)
	}
	if !t.isDir {
		return outputError(cmd, "index", fmt.Errorf("not a directory: %s", t.path))
	}
	p, err := loadProject(cmd, t.path)
	if err != nil {
		return outputError(cmd, "index", err)
	}

	dbPath := p.dbPath()
	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return outputError(cmd, "index", fmt.Errorf("removing database for --force: %w", err))
		}
		p.logger.Info("cleared database", "path", dbPath)
	}

	e, err := p.engine(true)
	if err != nil {
		return outputError(cmd, "index", err)
	}
	defer e.Close()

	ctx := cmd.Context()
	if err := p.load(ctx, e, t.path); err != nil {
		return outputError(cmd, "index", err)
	}
	stats, err := e.Index(ctx)
	if err != nil {
		return outputError(cmd, "index", fmt.Errorf("indexing: %w", err))
	}
	p.logger.Info("index complete", "root", t.path, "duration", time.Since(start).Round(time.Millisecond))

	return outputResult(cmd, CLIResult{
		Command: "index",
		Results: CLIIndexStats{
			Database:     dbPath,
			Files:        e.Snapshot().Len(),
			Indexed:      stats.Indexed,
			Rechecked:    stats.Rechecked,
			Skipped:      stats.Skipped,
			Removed:      stats.Removed,
			RulesChanged: stats.RulesChanged,
		},
	})
}
