package debounce

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	calls   atomic.Int32
	running atomic.Int32
	maxPar  atomic.Int32
	hold    time.Duration
}

func (c *counter) process(ctx context.Context) {
	n := c.running.Add(1)
	for {
		m := c.maxPar.Load()
		if n <= m || c.maxPar.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(c.hold)
	c.calls.Add(1)
	c.running.Add(-1)
}

func run(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
}

func TestBurstCoalescesIntoOnePass(t *testing.T) {
	c := &counter{}
	s := New(80*time.Millisecond, c.process)
	run(t, s)

	for i := 0; i < 5; i++ {
		s.OnActivity()
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return c.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), c.calls.Load())
	assert.False(t, s.Armed())
}

func TestGapProducesSeparatePasses(t *testing.T) {
	c := &counter{}
	s := New(40*time.Millisecond, c.process)
	run(t, s)

	s.OnActivity()
	require.Eventually(t, func() bool { return c.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	s.OnActivity()
	require.Eventually(t, func() bool { return c.calls.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestPassesNeverOverlap(t *testing.T) {
	c := &counter{hold: 150 * time.Millisecond}
	s := New(10*time.Millisecond, c.process)
	run(t, s)

	s.OnActivity()
	require.Eventually(t, func() bool { return c.running.Load() == 1 }, 2*time.Second, 2*time.Millisecond)

	// Two more quiet periods elapse while the first pass runs.
	s.OnActivity()
	time.Sleep(40 * time.Millisecond)
	s.OnActivity()

	require.Eventually(t, func() bool { return c.calls.Load() == 2 }, 3*time.Second, 5*time.Millisecond)
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int32(2), c.calls.Load(), "queued firings collapse into one pass")
	assert.Equal(t, int32(1), c.maxPar.Load())
}

func TestStaleTimerDoesNotFire(t *testing.T) {
	c := &counter{}
	s := New(time.Hour, c.process)
	run(t, s)

	s.OnActivity()
	// Simulate a callback from a superseded timer.
	s.fire(0)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), c.calls.Load())
	assert.True(t, s.Armed())
}

func TestFlush(t *testing.T) {
	c := &counter{}
	s := New(time.Hour, c.process)
	run(t, s)

	s.OnActivity()
	s.Flush()
	require.Eventually(t, func() bool { return c.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.False(t, s.Armed())
}
