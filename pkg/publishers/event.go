package publishers

import "time"

// Event represents a sink message published downstream.
type Event struct {
	Source     string    `json:"source"`
	Env        string    `json:"env"`
	Message    string    `json:"message"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewEvent constructs an Event for the given message.
func NewEvent(source, env, message string) Event {
	return Event{
		Source:     source,
		Env:        env,
		Message:    message,
		RecordedAt: time.Now().UTC(),
	}
}
