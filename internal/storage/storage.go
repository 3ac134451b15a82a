package storage

import "time"

const (
	OpSend       = "send"
	OpEdit       = "edit"
	OpRegenerate = "regenerate"
)

// Event is one journaled chat turn: the user text that was submitted and
// what came back, or the error that prevented a reply.
type Event struct {
	Timestamp         time.Time `json:"timestamp"`
	SessionID         string    `json:"session_id"`
	Op                string    `json:"op"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response,omitempty"`
	Model             string    `json:"model,omitempty"`
	TotalTokens       int       `json:"total_tokens,omitempty"`
	Error             string    `json:"error,omitempty"`
}

func (e Event) Failed() bool { return e.Error != "" }

// Journal abstracts persistence of interaction events.
// Load returns events in append order.
// Implementations must be safe for concurrent use.
type Journal interface {
	Append(event Event) error
	Load() ([]Event, error)
}
