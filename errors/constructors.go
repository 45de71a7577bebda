package errors

import (
	"fmt"
	"strings"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *Error {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *Error {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// ManifestMissing reports that no file in a batch is named like the manifest.
func ManifestMissing(name string) *Error {
	return New(ErrCodeManifestMissing, fmt.Sprintf("no %s in batch", name)).
		WithDetail("manifest", name)
}

// ManifestInvalid reports a manifest that could not be read or parsed.
func ManifestInvalid(path, detail string, cause error) *Error {
	return Wrap(cause, ErrCodeManifestInvalid, fmt.Sprintf("manifest %s is invalid: %s", path, detail)).
		WithDetail("path", path).
		WithDetail("detail", detail)
}

// ManifestIncomplete names the first required field the manifest lacks.
func ManifestIncomplete(field string) *Error {
	return New(ErrCodeManifestIncomplete, fmt.Sprintf("manifest is missing required field %q", field)).
		WithDetail("field", field)
}

// StructureUnrecognized reports a path whose folders do not match the
// expected date or run naming. which is "date" or "run".
func StructureUnrecognized(which, sample string) *Error {
	return New(ErrCodeStructureUnrecognized, fmt.Sprintf("no %s folder in %s", which, sample)).
		WithDetail("which", which).
		WithDetail("sample", sample)
}

// NoActiveSession is returned by session operations that need one.
func NoActiveSession() *Error {
	return New(ErrCodeNoActiveSession, "no active session")
}

// SessionAlreadyActive is returned when beginning a second session.
func SessionAlreadyActive(branch string) *Error {
	return New(ErrCodeSessionAlreadyActive, fmt.Sprintf("session on %s is already active", branch)).
		WithDetail("branch", branch)
}

// CommandFailed creates a command execution failure error. stage names the
// publish step (checkout, stage, commit, push, request).
func CommandFailed(stage string, exitCode int, stderr string) *Error {
	msg := fmt.Sprintf("%s failed with exit code %d", stage, exitCode)
	if s := strings.TrimSpace(stderr); s != "" {
		msg += ": " + s
	}
	return New(ErrCodeCommandFailed, msg).
		WithDetail("stage", stage).
		WithDetail("exitCode", exitCode).
		WithDetail("stderr", strings.TrimSpace(stderr))
}

// RenderFailed wraps a template failure.
func RenderFailed(template string, cause error) *Error {
	return Wrap(cause, ErrCodeRenderFailed, fmt.Sprintf("rendering %s failed", template)).
		WithDetail("template", template)
}

// AlreadyRunning reports a live instance holding the lock.
func AlreadyRunning(pid int, pidFile string) *Error {
	return New(ErrCodeAlreadyRunning, fmt.Sprintf("runwatch is already running (pid %d)", pid)).
		WithDetail("pid", pid).
		WithDetail("pidFile", pidFile)
}
