// Package daemon talks to a running runwatch over its status socket.
package daemon

import (
	"context"
	"encoding/json"
	"time"

	"github.com/grovetools/runwatch/internal/daemon/store"
)

// Client is the status API as seen by the CLI.
type Client interface {
	// Status returns the watcher's current state.
	Status(ctx context.Context) (*store.State, error)

	// Flush asks the watcher to process its pending batch now.
	Flush(ctx context.Context) (bool, error)

	// StreamState subscribes to updates. The channel closes when ctx is
	// cancelled or the watcher goes away.
	StreamState(ctx context.Context) (<-chan StateUpdate, error)

	// IsRunning returns true if the watcher is available and responding.
	IsRunning() bool

	Close() error
}

// StateUpdate is one SSE message. Payload is decoded by the caller according
// to Type: "status" carries a store.State, "outcome" a publish outcome.
type StateUpdate struct {
	Type    string          `json:"type"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
