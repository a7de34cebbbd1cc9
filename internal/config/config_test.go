package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
	return dir
}

func TestLoadDir_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := LoadDir(context.Background(), nil, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadDir_OverridesDefaults(t *testing.T) {
	t.Parallel()
	dir := writeConfig(t, `
extensions: [".glsl", ".vert"]
disable: ["unnecessary-ctor-parameters"]
rules_dir: .glint/rules
log_level: debug
`)

	cfg, err := LoadDir(context.Background(), nil, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{".glsl", ".vert"}, cfg.Extensions)
	assert.Equal(t, []string{"unnecessary-ctor-parameters"}, cfg.Disable)
	assert.Equal(t, ".glint/rules", cfg.RulesDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, Default().DB, cfg.DB, "unset fields keep defaults")
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadDir_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "extensions: [", "config:"},
		{"bad level", "log_level: loud", "invalid log level"},
		{"bad format", "log_format: xml", "invalid log_format"},
		{"empty extension", `extensions: ["."]`, "empty extension"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadDir(context.Background(), nil, writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("/root", ".glint", "index.db"), Path("/root", filepath.Join(".glint", "index.db")))
	assert.Equal(t, "/abs/x.db", Path("/root", "/abs/x.db"))
	assert.Equal(t, "", Path("/root", ""))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	for name, want := range map[string]string{"": "INFO", "debug": "DEBUG", "Warn": "WARN", "warning": "WARN", "ERROR": "ERROR"} {
		lvl, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, lvl.String(), name)
	}
	_, err := ParseLevel("trace")
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewLogger("warn", "json", &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "file", "a.glsl")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"file":"a.glsl"`)

	buf.Reset()
	logger, err = Default().Logger(&buf)
	require.NoError(t, err)
	logger.Info("text line")
	assert.Contains(t, buf.String(), "msg=\"text line\"")

	_, err = NewLogger("info", "xml", &buf)
	require.Error(t, err)
}
