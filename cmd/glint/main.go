package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/glint"
	"github.com/jward/glint/internal/config"
	"github.com/jward/glint/rules"
)

var (
	flagFormat    string
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
	flagRulesDir  string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// errFindings makes check exit non-zero once its report has been written.
var errFindings = errors.New("error-severity diagnostics found")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled && !errors.Is(err, errFindings) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "glint",
	Short:         "Semantic checks for GLSL projects using #pragma import",
	Long:          "glint parses GLSL sources, follows #pragma import directives between them and reports unresolved imports, suspicious calls and redundant constructor arguments.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .glint.yaml at the repo root)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text|json")
	rootCmd.PersistentFlags().StringVar(&flagRulesDir, "rules-dir", "", "load rule scripts from this directory instead of the built-in rules")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(importsCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(callsCmd)
	rootCmd.AddCommand(queryCmd)
}

// project is the configuration resolved for one invocation.
type project struct {
	root   string
	cfg    *config.Config
	logger *slog.Logger
}

// loadProject finds the repo root above startDir and applies the config file
// and flag overrides, in that order.
func loadProject(cmd *cobra.Command, startDir string) (*project, error) {
	root := findRepoRoot(startDir)
	cfgPath := flagConfig
	if cfgPath == "" {
		cfgPath = filepath.Join(root, config.FileName)
	}
	cfg, err := config.Load(cmd.Context(), nil, cfgPath)
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	if flagRulesDir != "" {
		cfg.RulesDir = flagRulesDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return &project{root: root, cfg: cfg, logger: logger}, nil
}

func (p *project) dbPath() string {
	return config.Path(p.root, p.cfg.DB)
}

// engine builds an Engine from the project configuration. The built-in
// rules are used unless a rules directory is configured.
func (p *project) engine(withStore bool) (*glint.Engine, error) {
	opts := []glint.Option{
		glint.WithLogger(p.logger),
		glint.WithDisabled(p.cfg.Disable...),
	}
	if len(p.cfg.Extensions) > 0 {
		opts = append(opts, glint.WithExtensions(p.cfg.Extensions...))
	}
	if p.cfg.RulesDir != "" {
		opts = append(opts, glint.WithRulesDir(config.Path(p.root, p.cfg.RulesDir)))
	} else {
		opts = append(opts, glint.WithRulesFS(rules.FS))
	}
	if withStore {
		dbPath := p.dbPath()
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
		}
		opts = append(opts, glint.WithStore(dbPath))
	}
	e, err := glint.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return e, nil
}

// load loads dir into e. Files that fail to load are logged and skipped;
// only a load that produced nothing is an error.
func (p *project) load(ctx context.Context, e *glint.Engine, dir string) error {
	err := e.LoadDirectory(ctx, dir)
	if err == nil {
		return nil
	}
	if e.Snapshot().Len() == 0 || ctx.Err() != nil {
		return fmt.Errorf("loading %s: %w", dir, err)
	}
	p.logger.Warn("some files were skipped", "error", err)
	return nil
}

// target is a resolved path argument.
type target struct {
	path  string
	isDir bool
}

// dir is the directory a target's project is discovered from.
func (t target) dir() string {
	if t.isDir {
		return t.path
	}
	return filepath.Dir(t.path)
}

// resolveTarget returns the absolute path of the argument, "." by default.
func resolveTarget(args []string) (target, error) {
	p := "."
	if len(args) > 0 {
		p = args[0]
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return target{}, fmt.Errorf("resolving path %q: %w", p, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return target{}, fmt.Errorf("path not found: %s", abs)
	}
	return target{path: abs, isDir: info.IsDir()}, nil
}

// resolveFile resolves a file argument and checks that it is not a
// directory.
func resolveFile(arg string) (target, error) {
	t, err := resolveTarget([]string{arg})
	if err != nil {
		return target{}, err
	}
	if t.isDir {
		return target{}, fmt.Errorf("not a file: %s", t.path)
	}
	return t, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}
