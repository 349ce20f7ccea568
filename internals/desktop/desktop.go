package desktop

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

var ExecCommand = exec.Command
var RuntimeGOOS = runtime.GOOS

var ErrUnsupportedPlatform = errors.New("unsupported platform")

// OpenURL hands url to the platform opener without waiting for it.
func OpenURL(url string) error {
	if url == "" {
		return errors.New("url is empty")
	}

	var cmd *exec.Cmd
	switch RuntimeGOOS {
	case "darwin":
		cmd = ExecCommand("open", url)
	case "linux", "freebsd", "openbsd":
		cmd = ExecCommand("xdg-open", url)
	case "windows":
		cmd = ExecCommand("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("open %s: %w", url, ErrUnsupportedPlatform)
	}

	return cmd.Start()
}
