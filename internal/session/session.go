package session

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grovetools/runwatch/errors"
	"github.com/grovetools/runwatch/logging"
	"github.com/grovetools/runwatch/util/sanitize"
	"github.com/sirupsen/logrus"
)

// Session is one publish session: a branch and every file that has been part
// of it.
type Session struct {
	BranchID        string    `json:"branch_id"`
	CumulativeFiles []string  `json:"cumulative_files"`
	Active          bool      `json:"active"`
	BranchCreated   bool      `json:"branch_created"`
	Pushed          bool      `json:"pushed"`
	Published       bool      `json:"published"`
	RequestURL      string    `json:"request_url,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	Batches         int       `json:"batches"`
}

// IDFunc returns the unique suffix of a branch name.
type IDFunc func() string

// DefaultID is 12 hex characters of a random UUID.
func DefaultID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Manager owns the process's single session. There is no transition back
// to idle once a session begins.
type Manager struct {
	mu     sync.Mutex
	prefix string
	newID  IDFunc
	now    func() time.Time
	cur    *Session
	files  map[string]struct{}
	logger *logrus.Entry
}

// NewManager returns an idle Manager naming branches "<prefix>/<label>-<id>".
func NewManager(prefix string, newID IDFunc) *Manager {
	if newID == nil {
		newID = DefaultID
	}
	return &Manager{
		prefix: prefix,
		newID:  newID,
		now:    time.Now,
		files:  make(map[string]struct{}),
		logger: logging.NewLogger("session"),
	}
}

// Begin starts the session from the first resolved batch.
func (m *Manager) Begin(paths []string, label string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur != nil {
		return "", errors.SessionAlreadyActive(m.cur.BranchID)
	}

	branch := m.branchName(label)
	m.cur = &Session{
		BranchID:  branch,
		Active:    true,
		StartedAt: m.now(),
	}
	m.addLocked(paths)

	m.logger.WithFields(logrus.Fields{"branch": branch, "files": len(paths)}).Info("Session started")
	return branch, nil
}

// Extend folds another batch into the active session.
func (m *Manager) Extend(paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cur == nil {
		return errors.NoActiveSession()
	}
	m.addLocked(paths)
	m.logger.WithFields(logrus.Fields{"branch": m.cur.BranchID, "total": len(m.files)}).Debug("Session extended")
	return nil
}

func (m *Manager) addLocked(paths []string) {
	for _, p := range paths {
		m.files[p] = struct{}{}
	}
	m.cur.CumulativeFiles = m.cur.CumulativeFiles[:0]
	for p := range m.files {
		m.cur.CumulativeFiles = append(m.cur.CumulativeFiles, p)
	}
	sort.Strings(m.cur.CumulativeFiles)
	m.cur.Batches++
}

func (m *Manager) branchName(label string) string {
	name := sanitize.ForBranch(label)
	if name == "" {
		name = "run"
	}
	return m.prefix + "/" + name + "-" + m.newID()
}

// Active reports whether a session exists.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur != nil
}

// CurrentBranchID returns the session's branch.
func (m *Manager) CurrentBranchID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return "", errors.NoActiveSession()
	}
	return m.cur.BranchID, nil
}

// IsNewSession is true while no review request is known for the session,
// including when there is no session at all.
func (m *Manager) IsNewSession() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur == nil || !m.cur.Published
}

// Snapshot returns a copy of the session, or nil when idle.
func (m *Manager) Snapshot() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return nil
	}
	s := *m.cur
	s.CumulativeFiles = append([]string(nil), m.cur.CumulativeFiles...)
	return &s
}

// MarkBranchCreated records that the local branch exists.
func (m *Manager) MarkBranchCreated() error {
	return m.update(func(s *Session) { s.BranchCreated = true })
}

// MarkPushed records a successful push.
func (m *Manager) MarkPushed() error {
	return m.update(func(s *Session) { s.Pushed = true })
}

// MarkPublished records the review request.
func (m *Manager) MarkPublished(url string) error {
	return m.update(func(s *Session) {
		s.Published = true
		s.RequestURL = url
	})
}

func (m *Manager) update(fn func(*Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return errors.NoActiveSession()
	}
	fn(m.cur)
	return nil
}
