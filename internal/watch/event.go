package watch

// EventKind classifies a notification.
type EventKind int

const (
	Created EventKind = iota
	Modified
	Deleted
	Moved
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Moved:
		return "moved"
	default:
		return "unknown"
	}
}

// Event is one file-system notification. Path is absolute; for Moved it is
// the destination.
type Event struct {
	Kind  EventKind
	Path  string
	IsDir bool
}
