package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// TestParseLevel verifies level mapping with the info fallback.
func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "", want: slog.LevelInfo},
		{in: "shouting", want: slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := parseLevel(tc.in); got != tc.want {
			t.Fatalf("parseLevel(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

// TestNew_WithDir verifies the log directory is created and logging does not
// panic with the file writer attached.
func TestNew_WithDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "logs")
	log := New(Options{Level: "debug", Dir: dir})
	log.Info("started", "component", "test")

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("log dir not created: %v", err)
	}
}

// TestNew_NoDir verifies the stdout-only path used by the CLIs.
func TestNew_NoDir(t *testing.T) {
	t.Parallel()

	log := New(Options{})
	if log == nil {
		t.Fatal("expected logger")
	}
	if !log.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be enabled by default")
	}
	if log.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be disabled by default")
	}
}
