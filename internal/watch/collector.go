package watch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/grovetools/runwatch/logging"
	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"
)

// Collector turns notifications into batch entries relative to the watched
// root.
type Collector struct {
	root   string
	batch  *Batch
	ignore *patternmatcher.PatternMatcher
	logger *logrus.Entry
}

// NewCollector builds a Collector. ignore holds dockerignore-style patterns
// matched against root-relative paths.
func NewCollector(root string, batch *Batch, ignore []string) (*Collector, error) {
	pm, err := patternmatcher.New(ignore)
	if err != nil {
		return nil, fmt.Errorf("invalid ignore patterns: %w", err)
	}
	return &Collector{
		root:   filepath.Clean(root),
		batch:  batch,
		ignore: pm,
		logger: logging.NewLogger("watch"),
	}, nil
}

// RecordEvent adds the event's file to the batch. Directory events and
// deletions are dropped. It reports whether the batch was touched.
func (c *Collector) RecordEvent(ev Event) bool {
	if ev.IsDir || ev.Kind == Deleted {
		return false
	}

	rel, ok := c.Relative(ev.Path)
	if !ok {
		c.logger.WithField("path", ev.Path).Debug("Ignoring event outside watched root")
		return false
	}
	if c.Ignored(rel) {
		return false
	}

	c.batch.Add(rel)
	c.logger.WithFields(logrus.Fields{"path": rel, "kind": ev.Kind.String()}).Debug("Recorded change")
	return true
}

// Relative converts an absolute path to a slash-separated path under the
// root. ok is false for the root itself and for paths outside it.
func (c *Collector) Relative(abs string) (string, bool) {
	rel, err := filepath.Rel(c.root, filepath.Clean(abs))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Ignored reports whether a root-relative path, or one of its parents,
// matches an ignore pattern.
func (c *Collector) Ignored(rel string) bool {
	matched, err := c.ignore.MatchesOrParentMatches(filepath.FromSlash(rel))
	return err == nil && matched
}
