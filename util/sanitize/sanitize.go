package sanitize

import (
	"regexp"
	"strings"
)

var (
	// branchInvalidRegex matches runs of characters git refuses or that are
	// awkward in ref names
	branchInvalidRegex = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

	filenameInvalidRegex = regexp.MustCompile(`[^a-z0-9-]+`)

	multiDashRegex = regexp.MustCompile(`-+`)

	multiDotRegex = regexp.MustCompile(`\.{2,}`)
)

// maxBranchComponent keeps generated branch names readable in review tools.
const maxBranchComponent = 60

// ForBranch sanitizes a string for use as one component of a git branch name.
// Dots are kept so folder labels such as "01.15" survive unchanged.
func ForBranch(s string) string {
	if s == "" {
		return ""
	}

	s = branchInvalidRegex.ReplaceAllString(s, "-")
	s = multiDotRegex.ReplaceAllString(s, ".")
	s = multiDashRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-.")
	s = strings.TrimSuffix(s, ".lock")

	if len(s) > maxBranchComponent {
		s = strings.TrimRight(s[:maxBranchComponent], "-.")
	}
	return s
}

// ForFilename sanitizes a string for use in a filename (kebab-case).
func ForFilename(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = filenameInvalidRegex.ReplaceAllString(s, "")
	s = multiDashRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}
