// Package config loads the project configuration file.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up at the project root.
const FileName = ".glint.yaml"

// Config is the project configuration. Relative paths are relative to the
// project root.
type Config struct {
	Extensions []string `yaml:"extensions"`
	Disable    []string `yaml:"disable"`
	RulesDir   string   `yaml:"rules_dir"`
	DB         string   `yaml:"db"`
	LogLevel   string   `yaml:"log_level"`
	LogFormat  string   `yaml:"log_format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		DB:        filepath.Join(".glint", "index.db"),
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads the configuration at URL. A missing file yields Default();
// fields absent from the file keep their defaults.
func Load(ctx context.Context, fs afs.Service, URL string) (*Config, error) {
	if fs == nil {
		fs = afs.New()
	}
	cfg := Default()
	ok, err := fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", URL, err)
	}
	if !ok {
		return cfg, nil
	}
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", URL, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", URL, err)
	}
	return cfg, cfg.Validate()
}

// LoadDir reads FileName from root.
func LoadDir(ctx context.Context, fs afs.Service, root string) (*Config, error) {
	return Load(ctx, fs, filepath.Join(root, FileName))
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: invalid log_format %q (must be text or json)", c.LogFormat)
	}
	for _, ext := range c.Extensions {
		if strings.TrimPrefix(ext, ".") == "" {
			return fmt.Errorf("config: empty extension")
		}
	}
	return nil
}

// Path resolves p against root unless it is absolute or empty.
func Path(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
