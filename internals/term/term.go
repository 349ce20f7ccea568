package term

import (
	"os"

	"github.com/mattn/go-isatty"
)

// hyperlinkHints are set by terminals known to render OSC 8 links.
var hyperlinkHints = []string{
	"WT_SESSION",
	"VTE_VERSION",
	"KONSOLE_VERSION",
	"KITTY_WINDOW_ID",
	"WEZTERM_EXECUTABLE",
	"DOMTERM",
	"TERM_PROGRAM",
}

func SupportsHyperlinks() bool {
	switch os.Getenv("TERM") {
	case "", "dumb", "alacritty":
		return false
	}
	for _, key := range hyperlinkHints {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

// ClickableLink wraps label in an OSC 8 hyperlink when the terminal can
// render one, otherwise it returns the label unchanged.
func ClickableLink(label string, url string) string {
	if url == "" {
		return label
	}
	if label == "" {
		label = url
	}
	if !SupportsHyperlinks() {
		return label
	}
	return "\x1b]8;;" + url + "\x1b\\" + label + "\x1b]8;;\x1b\\"
}

// Interactive reports whether stdin and stdout are both terminals, which the
// chat UI needs.
func Interactive() bool {
	return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
