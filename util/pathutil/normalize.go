package pathutil

import (
	"path/filepath"
)

// Canonical returns the absolute, symlink-free form of path. Paths that do
// not exist yet fall back to their absolute form.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, nil
	}
	return resolved, nil
}

// Within reports whether target is root or lies beneath it.
func Within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel == "." || filepath.IsLocal(rel)
}
