package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// RequireGit skips the test if git is not available
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// InitGitRepo initializes a git repository on branch main with one commit.
func InitGitRepo(t *testing.T, dir string) {
	t.Helper()
	RequireGit(t)

	RunGitCommand(t, dir, "init")
	RunGitCommand(t, dir, "config", "user.name", "Test User")
	RunGitCommand(t, dir, "config", "user.email", "test@example.com")
	RunGitCommand(t, dir, "config", "commit.gpgsign", "false")

	WriteFile(t, filepath.Join(dir, "README.md"), "# Run data\n")
	RunGitCommand(t, dir, "add", ".")
	RunGitCommand(t, dir, "commit", "-m", "Initial commit")

	// Ensure we have a main branch (rename from master if needed)
	cmd := exec.Command("git", "branch", "-m", "main")
	cmd.Dir = dir
	_ = cmd.Run()
}

// InitRepoWithRemote creates a working copy with a bare "origin" remote that
// already has main pushed. It returns the working copy and the remote paths.
func InitRepoWithRemote(t *testing.T) (string, string) {
	t.Helper()

	base := t.TempDir()
	remote := filepath.Join(base, "remote.git")
	work := filepath.Join(base, "work")
	require.NoError(t, os.MkdirAll(work, 0755))

	RequireGit(t)
	RunGitCommand(t, base, "init", "--bare", remote)
	InitGitRepo(t, work)
	RunGitCommand(t, work, "remote", "add", "origin", remote)
	RunGitCommand(t, work, "push", "-u", "origin", "main")

	return work, remote
}

// RunGitCommand runs a git command in the given directory and returns its
// trimmed stdout.
func RunGitCommand(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		stderr := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		t.Fatalf("Failed to run git %v: %v\n%s", args, err, stderr)
	}
	return strings.TrimSpace(string(out))
}

// WriteFile writes content, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// Manifest returns a run_metadata.json document.
func Manifest(runType, date, setpoint string) string {
	return `{"run_info": {"run_type": "` + runType + `", "date": "` + date + `", "furnace_setpoint": ` + setpoint + `}}`
}
