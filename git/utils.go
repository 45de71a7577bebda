package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/grovetools/runwatch/command"
)

// IsGitRepo checks if the given directory is inside a git repository
func IsGitRepo(dir string) bool {
	cmd, err := command.NewSafeBuilder().Build(context.Background(), "git", "rev-parse", "--git-dir")
	if err != nil {
		return false
	}
	_, err = cmd.InDir(dir).Run()
	return err == nil
}

// GetGitRoot returns the root directory of the git repository
func GetGitRoot(dir string) (string, error) {
	cmd, err := command.NewSafeBuilder().Build(context.Background(), "git", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("failed to build command: %w", err)
	}
	res, err := cmd.InDir(dir).Run()
	if err != nil {
		return "", fmt.Errorf("get git root: %w", err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// RepoName derives a display name from the remote URL, falling back to the
// directory name.
func RepoName(dir, remote string) string {
	cmd, err := command.NewSafeBuilder().Build(context.Background(), "git", "config", "--get", "remote."+remote+".url")
	if err == nil {
		if res, err := cmd.InDir(dir).Run(); err == nil {
			if url := strings.TrimSpace(res.Stdout); url != "" {
				return extractRepoName(url)
			}
		}
	}
	return filepath.Base(dir)
}

// extractRepoName extracts repository name from git URL
func extractRepoName(url string) string {
	url = strings.TrimSuffix(url, ".git")

	// git@github.com:user/repo
	if strings.HasPrefix(url, "git@") {
		parts := strings.Split(url, ":")
		if len(parts) >= 2 {
			url = parts[1]
		}
	}

	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}
