// Package logging configures the process-wide log/slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logging configuration options.
type Config struct {
	// Level is the minimum log level to output.
	Level slog.Level
	// JSON switches the handler from text to JSON lines.
	JSON bool
	// Output is the writer to write logs to. Defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig reads LOG_LEVEL (DEBUG, INFO, WARN, ERROR; default INFO) and
// LOG_FORMAT ("json" or "text"; default text) from the environment.
func DefaultConfig() Config {
	return FromEnv(os.Getenv)
}

// FromEnv is DefaultConfig with an injectable lookup.
func FromEnv(getenv func(string) string) Config {
	cfg := Config{
		Level:  slog.LevelInfo,
		Output: os.Stderr,
	}
	if strings.EqualFold(strings.TrimSpace(getenv("LOG_FORMAT")), "json") {
		cfg = ProductionConfig()
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.Level = parseLogLevel(v)
	}
	return cfg
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ProductionConfig returns JSON output at INFO. It is the base of FromEnv
// when LOG_FORMAT=json.
func ProductionConfig() Config {
	return Config{
		Level:  slog.LevelInfo,
		JSON:   true,
		Output: os.Stderr,
	}
}

// New builds a logger without touching the process default.
func New(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return slog.New(handler)
}

// Setup builds a logger from cfg and installs it as the slog default.
func Setup(cfg Config) *slog.Logger {
	logger := New(cfg)
	slog.SetDefault(logger)
	return logger
}
