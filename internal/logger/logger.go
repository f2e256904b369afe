// Package logger builds the process-wide slog logger with file rotation.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures logger construction.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string

	// Dir, when set, adds a rotating JSON log file under it alongside stdout.
	// Empty means stdout only, which suits the one-shot CLIs.
	Dir string
}

// New builds a JSON slog logger. With a log directory it writes to both
// stdout and a size-rotated file; if the directory cannot be created it
// falls back to stdout alone rather than failing startup.
func New(opts Options) *slog.Logger {
	var w io.Writer = os.Stdout

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err == nil {
			w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   filepath.Join(opts.Dir, "ratewatch.log"),
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			})
		}
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(opts.Level)}))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
