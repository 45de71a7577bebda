package store

import (
	"sync"
	"time"

	"github.com/grovetools/runwatch/errors"
	"github.com/grovetools/runwatch/internal/publish"
	"github.com/grovetools/runwatch/internal/session"
)

// Store is thread-safe and fans every change out to subscribers.
type Store struct {
	mu          sync.RWMutex
	state       State
	subscribers map[chan Update]struct{}
	now         func() time.Time
}

// New creates a Store describing the watcher of watchRoot inside repoRoot.
func New(repoRoot, watchRoot, baseBranch string) *Store {
	return &Store{
		state: State{
			StartedAt:  time.Now(),
			RepoRoot:   repoRoot,
			WatchRoot:  watchRoot,
			BaseBranch: baseBranch,
			Counts:     make(map[string]int),
		},
		subscribers: make(map[chan Update]struct{}),
		now:         time.Now,
	}
}

// Get returns a copy of the current state.
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Pending = append([]string(nil), s.state.Pending...)
	st.Counts = make(map[string]int, len(s.state.Counts))
	for k, v := range s.state.Counts {
		st.Counts[k] = v
	}
	if s.state.Session != nil {
		sess := *s.state.Session
		sess.CumulativeFiles = append([]string(nil), s.state.Session.CumulativeFiles...)
		st.Session = &sess
	}
	if s.state.LastResult != nil {
		o := *s.state.LastResult
		st.LastResult = &o
	}
	if s.state.LastError != nil {
		p := *s.state.LastError
		st.LastError = &p
	}
	return st
}

// SetPending records the paths waiting for the next batch.
func (s *Store) SetPending(paths []string, armed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Pending = append([]string(nil), paths...)
	s.state.Armed = armed
	s.broadcastLocked(UpdatePending, map[string]interface{}{"count": len(paths), "armed": armed})
}

// SetSession records the latest session snapshot.
func (s *Store) SetSession(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Session = sess
	s.broadcastLocked(UpdateSession, sess)
}

// RecordOutcome stores a publish result and bumps its counter.
func (s *Store) RecordOutcome(o publish.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastResult = &o
	s.state.Counts[o.Kind.String()]++
	if o.Kind == publish.Failed {
		s.state.LastError = &Problem{Code: string(errors.GetCode(o.Err)), Message: o.Error, At: o.At}
	}
	s.broadcastLocked(UpdateOutcome, o)
}

// RecordProblem stores an error that kept a batch pending.
func (s *Store) RecordProblem(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &Problem{Code: string(errors.GetCode(err)), Message: err.Error(), At: s.now()}
	s.state.LastError = p
	s.state.Counts["unresolved"]++
	s.broadcastLocked(UpdateProblem, p)
}

func (s *Store) broadcastLocked(t UpdateType, payload interface{}) {
	u := Update{Type: t, At: s.now(), Payload: payload}
	for ch := range s.subscribers {
		select {
		case ch <- u:
		default:
			// Non-blocking send to prevent slow clients from stalling the engine
		}
	}
}

// Subscribe creates a new subscription channel for state updates.
func (s *Store) Subscribe() chan Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, 100)
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; !ok {
		return
	}
	delete(s.subscribers, ch)
	close(ch)
}
