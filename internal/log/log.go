// Package log provides the shared logging setup for ragvault.
//
// Components receive a *slog.Logger through their constructor and may add
// context with logger.With(). There are no package-level logger globals
// outside of process startup.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is an alias for *slog.Logger, used as a constructor dependency.
type Logger = *slog.Logger

// Config controls handler construction.
type Config struct {
	// Level is the minimum level to emit. Zero value is slog.LevelInfo.
	Level slog.Level

	// JSON selects the JSON handler instead of the text handler.
	JSON bool

	// AddSource includes the source position in each record.
	AddSource bool
}

// New creates a logger writing to stderr.
func New(cfg Config) Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter creates a logger writing to w. Used by tests to capture
// output in a buffer.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// NewNop returns a logger that discards everything. Test use only.
func NewNop() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a config string to a slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
