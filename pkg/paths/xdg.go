// Package paths resolves where runwatch keeps logs, sockets and pid files.
//
// Resolution order:
// 1. RUNWATCH_HOME (portable root) → $RUNWATCH_HOME/{state,run}
// 2. XDG env vars → $XDG_STATE_HOME/runwatch, $XDG_RUNTIME_DIR/runwatch
// 3. Platform defaults → ~/.local/state/runwatch
package paths

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/grovetools/runwatch/util/sanitize"
)

const appName = "runwatch"

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv("RUNWATCH_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return filepath.Join(xdgStateHome, appName)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state", appName)
	}
	return ""
}

// StateDir returns the runwatch state directory.
func StateDir() string {
	return getStateHome()
}

// LogDir returns the directory for log files.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// RepoKey names a repository in per-repo paths: its base name plus a short
// hash of the full path so two clones never collide.
func RepoKey(repoRoot string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(repoRoot)))
	name := sanitize.ForFilename(filepath.Base(repoRoot))
	if name == "" {
		name = "repo"
	}
	return name + "-" + hex.EncodeToString(sum[:])[:8]
}

// RuntimeDir returns the directory for the socket and pid file of the
// instance watching repoRoot. Uses XDG_RUNTIME_DIR when available (Linux),
// falls back to the state dir (macOS).
func RuntimeDir(repoRoot string) string {
	var base string
	switch {
	case os.Getenv("RUNWATCH_HOME") != "":
		base = filepath.Join(os.Getenv("RUNWATCH_HOME"), "run")
	case os.Getenv("XDG_RUNTIME_DIR") != "":
		base = filepath.Join(os.Getenv("XDG_RUNTIME_DIR"), appName)
	default:
		base = filepath.Join(StateDir(), "run")
	}
	return filepath.Join(base, RepoKey(repoRoot))
}

// SocketPath returns the status API socket for repoRoot.
func SocketPath(repoRoot string) string {
	return filepath.Join(RuntimeDir(repoRoot), appName+".sock")
}

// PidFilePath returns the single-instance lock for repoRoot.
func PidFilePath(repoRoot string) string {
	return filepath.Join(RuntimeDir(repoRoot), appName+".pid")
}
