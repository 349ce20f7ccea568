package term

import (
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TERM", "")
	for _, key := range hyperlinkHints {
		t.Setenv(key, "")
	}
}

func TestSupportsHyperlinks(t *testing.T) {
	cases := []struct {
		term, program string
		want          bool
	}{
		{"", "iTerm", false},
		{"dumb", "iTerm", false},
		{"alacritty", "iTerm", false},
		{"xterm-256color", "", false},
		{"xterm-256color", "iTerm", true},
	}
	for _, tc := range cases {
		clearEnv(t)
		t.Setenv("TERM", tc.term)
		t.Setenv("TERM_PROGRAM", tc.program)
		if got := SupportsHyperlinks(); got != tc.want {
			t.Fatalf("TERM=%q TERM_PROGRAM=%q: got %v, want %v", tc.term, tc.program, got, tc.want)
		}
	}
}

func TestClickableLink(t *testing.T) {
	clearEnv(t)
	t.Setenv("TERM", "dumb")
	if got := ClickableLink("workspace.zip", "http://localhost/a.zip"); got != "workspace.zip" {
		t.Fatalf("expected plain label, got %q", got)
	}
	if got := ClickableLink("", ""); got != "" {
		t.Fatalf("expected empty label, got %q", got)
	}

	clearEnv(t)
	t.Setenv("TERM", "xterm-256color")
	t.Setenv("KITTY_WINDOW_ID", "1")
	got := ClickableLink("", "http://localhost/a.zip")
	if !strings.HasPrefix(got, "\x1b]8;;http://localhost/a.zip") || !strings.Contains(got, "http://localhost/a.zip\x1b]8;;") {
		t.Fatalf("expected osc 8 link using the url as label, got %q", got)
	}
}
