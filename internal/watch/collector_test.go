package watch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollector(t *testing.T, ignore ...string) (*Collector, *Batch, string) {
	t.Helper()
	root := t.TempDir()
	b := NewBatch()
	c, err := NewCollector(root, b, ignore)
	require.NoError(t, err)
	return c, b, root
}

func TestRecordEvent(t *testing.T) {
	c, b, root := newTestCollector(t)
	file := filepath.Join(root, "01.15", "run_3_09h30", "data.csv")

	assert.True(t, c.RecordEvent(Event{Kind: Created, Path: file}))
	assert.True(t, c.RecordEvent(Event{Kind: Modified, Path: file}))
	assert.True(t, c.RecordEvent(Event{Kind: Moved, Path: filepath.Join(root, "01.15", "run_3_09h30", "moved.csv")}))

	assert.Equal(t, []string{"01.15/run_3_09h30/data.csv", "01.15/run_3_09h30/moved.csv"}, b.Snapshot().Paths)
}

func TestRecordEventDrops(t *testing.T) {
	c, b, root := newTestCollector(t, "**/*.tmp", ".git")

	tests := []struct {
		name string
		ev   Event
	}{
		{"directory", Event{Kind: Created, Path: filepath.Join(root, "01.15"), IsDir: true}},
		{"deletion", Event{Kind: Deleted, Path: filepath.Join(root, "a.csv")}},
		{"outside root", Event{Kind: Created, Path: filepath.Join(filepath.Dir(root), "other", "a.csv")}},
		{"root itself", Event{Kind: Modified, Path: root}},
		{"ignored pattern", Event{Kind: Created, Path: filepath.Join(root, "01.15", "x.tmp")}},
		{"ignored parent", Event{Kind: Created, Path: filepath.Join(root, ".git", "index")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, c.RecordEvent(tt.ev))
		})
	}
	assert.Equal(t, 0, b.Len())
}

func TestInvalidIgnorePattern(t *testing.T) {
	_, err := NewCollector(t.TempDir(), NewBatch(), []string{"[unclosed"})
	assert.Error(t, err)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "moved", Moved.String())
	assert.Equal(t, "unknown", EventKind(42).String())
}
