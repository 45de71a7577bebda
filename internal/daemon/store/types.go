// Package store holds the in-memory status of a running watcher.
package store

import (
	"time"

	"github.com/grovetools/runwatch/internal/publish"
	"github.com/grovetools/runwatch/internal/session"
)

// State is everything the status API reports.
type State struct {
	StartedAt  time.Time        `json:"started_at"`
	RepoRoot   string           `json:"repo_root"`
	WatchRoot  string           `json:"watch_root"`
	BaseBranch string           `json:"base_branch"`
	Pending    []string         `json:"pending"`
	Armed      bool             `json:"armed"`
	Session    *session.Session `json:"session,omitempty"`
	LastResult *publish.Outcome `json:"last_result,omitempty"`
	LastError  *Problem         `json:"last_error,omitempty"`
	Counts     map[string]int   `json:"counts"`
}

// Problem is a batch that could not be resolved or published.
type Problem struct {
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// UpdateType defines what kind of data changed.
type UpdateType string

const (
	UpdatePending UpdateType = "pending"
	UpdateSession UpdateType = "session"
	UpdateOutcome UpdateType = "outcome"
	UpdateProblem UpdateType = "problem"
)

// Update represents a change to the state.
type Update struct {
	Type    UpdateType  `json:"type"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload,omitempty"`
}
