// Package profiling aggregates nested stage timings for a long-running
// process and writes pprof profiles on request.
package profiling

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Stopper ends a timed span.
type Stopper interface {
	Stop()
}

// node accumulates every run of one stage at one position in the tree.
type node struct {
	name     string
	total    time.Duration
	count    int
	children []*node
	byName   map[string]*node
}

func (n *node) child(name string) *node {
	if c, ok := n.byName[name]; ok {
		return c
	}
	c := &node{name: name, byName: map[string]*node{}}
	n.byName[name] = c
	n.children = append(n.children, c)
	return c
}

type span struct {
	node     *node
	start    time.Time
	profiler *Profiler
	once     sync.Once
}

func (s *span) Stop() {
	s.once.Do(func() { s.profiler.end(s, time.Since(s.start)) })
}

// Profiler holds the stage tree. Spans must nest: a span started inside
// another is stopped before it.
type Profiler struct {
	mu      sync.Mutex
	enabled bool
	started time.Time
	root    *node
	stack   []*node
}

var defaultProfiler = &Profiler{}

// Enable turns on the process-wide profiler. Later calls are no-ops.
func Enable() {
	defaultProfiler.enable()
}

// Enabled reports whether spans are recorded.
func Enabled() bool {
	defaultProfiler.mu.Lock()
	defer defaultProfiler.mu.Unlock()
	return defaultProfiler.enabled
}

// Start begins a span named name under the innermost open span.
func Start(name string) Stopper {
	return defaultProfiler.Start(name)
}

// Summarize writes the aggregated tree of the process-wide profiler.
func Summarize(w io.Writer) {
	defaultProfiler.Summarize(w)
}

func (p *Profiler) enable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled {
		return
	}
	p.enabled = true
	p.started = time.Now()
	p.root = &node{name: "root", byName: map[string]*node{}}
	p.stack = []*node{p.root}
}

// Start begins a span on p.
func (p *Profiler) Start(name string) Stopper {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return noopStopper{}
	}
	n := p.stack[len(p.stack)-1].child(name)
	p.stack = append(p.stack, n)
	return &span{node: n, start: time.Now(), profiler: p}
}

func (p *Profiler) end(s *span, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s.node.total += d
	s.node.count++
	if len(p.stack) > 1 && p.stack[len(p.stack)-1] == s.node {
		p.stack = p.stack[:len(p.stack)-1]
	}
}

// Summarize writes one line per stage: total time, runs, mean and share of
// the process lifetime.
func (p *Profiler) Summarize(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	elapsed := time.Since(p.started)
	fmt.Fprintf(w, "\n--- Timing (%v) ---\n", elapsed.Round(time.Millisecond))
	for _, c := range p.root.children {
		printNode(w, c, 0, elapsed)
	}
}

func printNode(w io.Writer, n *node, depth int, elapsed time.Duration) {
	share := 0.0
	if elapsed > 0 {
		share = float64(n.total) / float64(elapsed) * 100
	}
	mean := time.Duration(0)
	if n.count > 0 {
		mean = n.total / time.Duration(n.count)
	}
	fmt.Fprintf(w, "%s- %s: %v over %d run(s), mean %v (%.1f%%)\n",
		strings.Repeat("  ", depth), n.name,
		n.total.Round(100*time.Microsecond), n.count, mean.Round(100*time.Microsecond), share)
	for _, c := range n.children {
		printNode(w, c, depth+1, elapsed)
	}
}

type noopStopper struct{}

func (noopStopper) Stop() {}
