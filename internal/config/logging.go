package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a level name to a slog level. An empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(name) {
	case "", "INFO":
		return slog.LevelInfo, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", name)
}

// NewLogger builds a text or JSON slog logger writing to dest (stderr when
// nil).
func NewLogger(level, format string, dest io.Writer) (*slog.Logger, error) {
	if dest == nil {
		dest = os.Stderr
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(dest, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(dest, opts)), nil
	}
	return nil, fmt.Errorf("config: invalid log format %q", format)
}

// Logger builds the logger described by c.
func (c *Config) Logger(dest io.Writer) (*slog.Logger, error) {
	return NewLogger(c.LogLevel, c.LogFormat, dest)
}
