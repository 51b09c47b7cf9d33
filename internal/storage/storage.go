package storage

import "time"

// Event is one dialogue turn as the turn log sees it.
// Events are appended in chronological order.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Channel   string    `json:"channel"`
	Intent    string    `json:"intent"`
	Outcome   string    `json:"outcome"`
	Speech    string    `json:"speech_text,omitempty"`
}

// Recorder abstracts persistence of turn events.
// LoadTurns returns events in chronological order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendTurn(event Event) error
	LoadTurns() ([]Event, error)
}
