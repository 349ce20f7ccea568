package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/poco-ai/poco-console/internals/conf"
)

func TempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "poco.db")
}

// Config returns a config rooted in a temp dir with a short reply delay.
func Config(t *testing.T) *conf.Config {
	t.Helper()
	return &conf.Config{
		Version: "test",
		Server: conf.ServerConfig{
			DataDir:    t.TempDir(),
			ReplyDelay: "20ms",
			ReplyModel: "claude-sonnet-4.5",
		},
		Simulator: conf.SimulatorConfig{MinStep: 8, MaxStep: 20},
		Client:    conf.ClientConfig{RequestTimeout: "2s"},
		TUI:       conf.TUIConfig{PollInterval: "50ms", GlamourStyle: "notty"},
	}
}

func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Eventually polls cond until it holds or the timeout passes.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s: %s", timeout, msg)
}
