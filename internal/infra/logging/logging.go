// Package logging builds the process logger. Output goes to stderr and
// is mirrored to .musher/logs/musher.log so a daemonized loop leaves a
// trail the operator can tail.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/musher-dev/musher/internal/domain"
)

// ParseLevel parses a log level string into slog.Level. Unknown values
// fall back to info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger writing to stderr and the state-directory log
// file. The returned closer owns the file handle. If the log file
// cannot be opened, logging degrades to stderr only.
func New(musherDir string, level slog.Level) (*slog.Logger, io.Closer) {
	writer := io.Writer(os.Stderr)
	var closer io.Closer = io.NopCloser(nil)

	path := domain.LogPath(musherDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err == nil {
		//nolint:gosec // log file readable by repository users
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640); err == nil {
			writer = io.MultiWriter(os.Stderr, f)
			closer = f
		}
	}

	logger := slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: level,
	}))
	return logger, closer
}

// NewStderr creates a stderr-only logger, used before the state
// directory is known (e.g. during init).
func NewStderr(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
