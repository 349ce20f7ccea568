package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestNewWritesWithoutColorToBuffer(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("visible", "session_id", "123")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug should be filtered: %q", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "session_id=123") {
		t.Fatalf("unexpected output %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("buffer output must not be colored: %q", out)
	}
}

func TestInitWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	logger, file, err := Init(dir, slog.LevelInfo)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	logger.Info("hello file")
	_ = file.Close()

	data, err := os.ReadFile(filepath.Join(dir, "log.txt"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Fatalf("expected log line, got %q", string(data))
	}
}

func TestNewFileWritesOnlyToLogFile(t *testing.T) {
	dir := t.TempDir()
	logger, file, err := NewFile(dir, slog.LevelInfo)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	logger.Debug("too quiet")
	logger.Error("Failed to sync messages", "session_id", "123")
	_ = file.Close()

	data, err := os.ReadFile(filepath.Join(dir, "log.txt"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "Failed to sync messages") || !strings.Contains(out, "session_id=123") {
		t.Fatalf("expected error record, got %q", out)
	}
	if strings.Contains(out, "too quiet") || strings.Contains(out, "\x1b[") {
		t.Fatalf("file log must be filtered and uncolored, got %q", out)
	}
}

func TestDiscardDropsEverything(t *testing.T) {
	if Discard().Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("discard logger must not be enabled")
	}
}
