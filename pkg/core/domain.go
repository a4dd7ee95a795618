package core

import "fmt"

// EventType represents the type of change observed in the backing store.
type EventType string

const (
	EventPut    EventType = "PUT"
	EventDelete EventType = "DELETE"
)

// KeyEvent is a raw change reported by a watchable bucket.
type KeyEvent struct {
	Type EventType
	Key  string
}

// Event is a change to a stored note.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}
