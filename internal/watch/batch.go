package watch

import (
	"sort"
	"sync"
)

// Batch is the set of paths changed since the last successful publish.
// Every insertion stamps the path with a fresh sequence number so a pass can
// clear exactly what it saw.
type Batch struct {
	mu      sync.Mutex
	entries map[string]uint64
	seq     uint64
}

// Snapshot is a point-in-time copy of a Batch.
type Snapshot struct {
	Paths []string
	seqs  map[string]uint64
}

// Len is the number of paths in the snapshot.
func (s Snapshot) Len() int { return len(s.Paths) }

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{entries: make(map[string]uint64)}
}

// Add inserts or refreshes path.
func (b *Batch) Add(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	b.entries[path] = b.seq
}

// Len returns the number of pending paths.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Snapshot copies the current contents, paths sorted.
func (b *Batch) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Snapshot{
		Paths: make([]string, 0, len(b.entries)),
		seqs:  make(map[string]uint64, len(b.entries)),
	}
	for p, seq := range b.entries {
		s.Paths = append(s.Paths, p)
		s.seqs[p] = seq
	}
	sort.Strings(s.Paths)
	return s
}

// Clear removes the snapshot's paths that have not been re-added since the
// snapshot was taken, and returns how many were removed.
func (b *Batch) Clear(s Snapshot) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for p, seq := range s.seqs {
		if cur, ok := b.entries[p]; ok && cur == seq {
			delete(b.entries, p)
			removed++
		}
	}
	return removed
}
