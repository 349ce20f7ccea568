package version

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
)

// SemVer is set at build time for releases.
//
// Example:
//
//	-ldflags "-X github.com/poco-ai/poco-console/internals/version.SemVer=1.2.3"
var SemVer = "0.0.0-dev"

// Build describes the running binary. The CLI compares the daemon's
// version string with its own to detect a stale pocod.
type Build struct {
	SemVer   string
	Revision string
	Dirty    bool
	ExeHash  string
}

var (
	buildOnce sync.Once
	build     Build
)

func Current() Build {
	buildOnce.Do(func() {
		build = Build{SemVer: strings.TrimSpace(SemVer), ExeHash: executableHash()}
		build.Revision, build.Dirty = vcsInfo(debug.ReadBuildInfo())
	})
	return build
}

// Version returns the semver plus build metadata, e.g.
// 1.2.3+a1b2c3d4e5f6.dirty.1e4b9caa2210
func Version() string {
	return Current().String()
}

func (b Build) String() string {
	v := b.SemVer
	if v == "" {
		v = "0.0.0-dev"
	}
	var meta []string
	if b.Revision != "" {
		meta = append(meta, b.Revision)
		if b.Dirty {
			meta = append(meta, "dirty")
		}
	}
	if b.ExeHash != "" {
		meta = append(meta, b.ExeHash)
	}
	if len(meta) == 0 {
		return v
	}
	sep := "+"
	if strings.Contains(v, "+") {
		sep = "."
	}
	return v + sep + strings.Join(meta, ".")
}

func vcsInfo(info *debug.BuildInfo, ok bool) (string, bool) {
	if !ok || info == nil {
		return "", false
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = strings.TrimSpace(s.Value)
		case "vcs.modified":
			v := strings.ToLower(strings.TrimSpace(s.Value))
			dirty = v == "true" || v == "1"
		}
	}
	return shorten(revision), dirty
}

func executableHash() string {
	exe, err := os.Executable()
	if err != nil || exe == "" {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	f, err := os.Open(exe)
	if err != nil {
		return ""
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return shorten(hex.EncodeToString(h.Sum(nil)))
}

func shorten(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
