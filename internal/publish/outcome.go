package publish

import (
	"fmt"
	"time"
)

// Kind classifies the result of one publish attempt.
type Kind int

const (
	Created Kind = iota
	Updated
	NoOpNoChanges
	Failed
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case NoOpNoChanges:
		return "no-op"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText lets outcomes appear by name in status JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the names produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	for _, c := range []Kind{Created, Updated, NoOpNoChanges, Failed} {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown outcome kind %q", text)
}

// Outcome is what one call to Publish did.
type Outcome struct {
	Kind       Kind      `json:"kind"`
	Stage      string    `json:"stage,omitempty"`
	Err        error     `json:"-"`
	Error      string    `json:"error,omitempty"`
	Branch     string    `json:"branch,omitempty"`
	RequestURL string    `json:"request_url,omitempty"`
	Commit     string    `json:"commit,omitempty"`
	At         time.Time `json:"at"`
}

// Cleared reports whether the batch that produced the outcome may be
// dropped. Only failures keep it for the next attempt.
func (o Outcome) Cleared() bool {
	return o.Kind != Failed
}
