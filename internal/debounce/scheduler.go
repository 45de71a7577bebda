// Package debounce coalesces bursts of activity into single processing
// passes that run one at a time.
package debounce

import (
	"context"
	"sync"
	"time"

	"github.com/grovetools/runwatch/logging"
	"github.com/sirupsen/logrus"
)

// Scheduler fires process once activity has been quiet for delay.
//
// Timers never call process directly. A firing posts into a one-slot queue
// drained by Run, so passes never overlap and firings that land during a
// pass collapse into one follow-up pass.
type Scheduler struct {
	delay   time.Duration
	process func(ctx context.Context)
	logger  *logrus.Entry

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer

	trigger chan struct{}
}

// New returns a Scheduler. Run must be called for passes to execute.
func New(delay time.Duration, process func(ctx context.Context)) *Scheduler {
	return &Scheduler{
		delay:   delay,
		process: process,
		logger:  logging.NewLogger("debounce"),
		trigger: make(chan struct{}, 1),
	}
}

// Delay is the quiet period.
func (s *Scheduler) Delay() time.Duration { return s.delay }

// OnActivity cancels any armed timer and arms a new one.
func (s *Scheduler) OnActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if s.timer != nil {
		s.timer.Stop()
	}
	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen) })
}

// fire is a timer callback. A timer that was superseded after it started
// running sees a newer generation and does nothing.
func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.logger.WithField("delay", s.delay).Debug("Quiet period elapsed")
	s.post()
}

// Flush disarms the timer and queues a pass immediately.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.post()
}

// Armed reports whether a timer is waiting to fire.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Scheduler) post() {
	select {
	case s.trigger <- struct{}{}:
	default:
		// A pass is already queued and will see the whole batch.
	}
}

// Run executes queued passes until ctx is cancelled. Any armed timer is
// stopped on return.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.trigger:
			if ctx.Err() != nil {
				return nil
			}
			s.process(ctx)
		}
	}
}

func (s *Scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
