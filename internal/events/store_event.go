package events

import (
	"time"

	"github.com/google/uuid"
)

// Event names emitted to the frontend.
const (
	PreferencesChanged = "events:preferences:changed"
	APIKeysChanged     = "events:apikeys:changed"
	SearchChanged      = "events:search:changed"
	ThemeApplied       = "events:theme:applied"
)

// StoreEvent wraps a store snapshot sent to the frontend after a committed change.
type StoreEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

func NewStoreEvent(name string, payload any) StoreEvent {
	return StoreEvent{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}
