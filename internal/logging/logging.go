// Package logging builds the zerolog logger shared by rack's components.
//
// The interactive browser owns the terminal, so logs go to a file by
// default. One-shot commands may also mirror them to stderr in console format.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Options configure New.
type Options struct {
	Level string
	// Path is the log file. Empty disables file output.
	Path string
	// Console mirrors log lines to Stderr in human-readable form.
	Console bool
	// Stderr overrides os.Stderr for console output.
	Stderr io.Writer
}

// New returns a logger and a close func for the underlying file.
func New(opts Options) (zerolog.Logger, func() error, error) {
	var writers []io.Writer
	closer := func() error { return nil }

	if path := strings.TrimSpace(opts.Path); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("create log dir: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, file)
		closer = file.Close
	}
	if opts.Console {
		out := opts.Stderr
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"})
	}
	if len(writers) == 0 {
		return zerolog.Nop(), closer, nil
	}

	level := ParseLevel(opts.Level)
	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger, closer, nil
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Component returns a child logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
