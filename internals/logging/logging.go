// Package logging builds the process logger: tint text output, colored only
// on a terminal, optionally teed into <data_dir>/log.txt.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	slogmulti "github.com/samber/slog-multi"
)

func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a tint logger writing to w. Color is enabled only when w is a
// terminal.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !IsTerminal(w),
	}))
}

// Init sets the default logger to stderr plus <dataDir>/log.txt. The
// returned file must be closed by the caller.
func Init(dataDir string, level slog.Level) (*slog.Logger, *os.File, error) {
	logFile, err := openLogFile(dataDir)
	if err != nil {
		return nil, nil, err
	}
	console := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !IsTerminal(os.Stderr),
	})
	logger := slog.New(slogmulti.Fanout(console, fileHandler(logFile, level)))
	slog.SetDefault(logger)
	return logger, logFile, nil
}

// NewFile returns a logger writing only to <dataDir>/log.txt, for modes
// where the terminal belongs to the UI.
func NewFile(dataDir string, level slog.Level) (*slog.Logger, *os.File, error) {
	logFile, err := openLogFile(dataDir)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(fileHandler(logFile, level)), logFile, nil
}

func openLogFile(dataDir string) (*os.File, error) {
	logPath := filepath.Join(dataDir, "log.txt")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return logFile, nil
}

func fileHandler(w io.Writer, level slog.Level) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:     level,
		NoColor:   true,
		AddSource: true,
	})
}

func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
