package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Format selects the log output encoding.
type Format string

const (
	// FormatJSON emits one JSON object per line.
	FormatJSON Format = "json"

	// FormatText emits logfmt-style key=value lines.
	FormatText Format = "text"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string

	// Format is the output encoding ("json" or "text").
	Format string

	// AddSource includes the file and line of the call site in each entry.
	AddSource bool

	// RedactSecrets scrubs API keys and bearer tokens from messages and
	// attribute values before they reach the output.
	RedactSecrets bool

	// Writer receives the encoded entries. Defaults to os.Stderr so
	// completion output on stdout stays pipeable.
	Writer io.Writer
}

// New builds a slog.Logger from cfg.
//
// The returned logger appends the request-scoped fields stored by this
// package's context helpers to every record logged through a carrying
// context, and, when RedactSecrets is set, scrubs credentials from
// everything it writes.
func New(cfg Config) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var inner slog.Handler
	switch format {
	case FormatJSON:
		inner = slog.NewJSONHandler(writer, opts)
	default:
		inner = slog.NewTextHandler(writer, opts)
	}

	var redactor *Redactor
	if cfg.RedactSecrets {
		redactor = NewRedactor()
	}

	return slog.New(NewHandler(inner, redactor)), nil
}

// parseLevel parses a log level string into slog.Level.
func parseLevel(levelStr string) (slog.Level, error) {
	switch levelStr {
	case "debug", "DEBUG":
		return slog.LevelDebug, nil
	case "info", "INFO", "":
		return slog.LevelInfo, nil
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn, nil
	case "error", "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// parseFormat parses a log format string into Format.
func parseFormat(formatStr string) (Format, error) {
	switch formatStr {
	case "json", "JSON":
		return FormatJSON, nil
	case "text", "TEXT", "":
		return FormatText, nil
	default:
		return FormatText, fmt.Errorf("unknown log format: %s", formatStr)
	}
}
