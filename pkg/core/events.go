package core

import "fmt"

// EventType represents the type of change in a store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a committed change in a store. Events are emitted only
// after the adapter confirmed persistence, never for rolled-back mutations.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// String implements lifecycle.Event so store events can feed a lifecycle
// source directly.
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}
