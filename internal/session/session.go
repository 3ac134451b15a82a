package session

import (
	"context"
	"errors"
	"time"

	"voice-studio/internal/llm"
)

const DefaultTitle = "New Chat"

var (
	ErrNotFound   = errors.New("session not found")
	ErrEmptyTitle = errors.New("session title is empty")
)

// Session is one conversation thread. Messages are never edited in place;
// every change replaces the whole slice.
type Session struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Messages     []llm.Message `json:"messages"`
	LastModified time.Time     `json:"lastModified"`
}

func (s Session) clone() Session {
	out := s
	out.Messages = append([]llm.Message(nil), s.Messages...)
	return out
}

// State is everything a Repository persists: the sessions in collection
// order and the current-session pointer.
type State struct {
	Sessions  []Session
	CurrentID string
}

// Repository abstracts durable storage of the session collection.
// Save must replace the stored state atomically.
type Repository interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}
