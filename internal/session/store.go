package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"voice-studio/internal/llm"
)

// Store owns the session collection and the current-session pointer.
// Every mutation is written through to the repository before it returns,
// so a reload never sees state older than the last completed call.
type Store struct {
	mu       sync.RWMutex
	repo     Repository
	sessions []Session
	current  string
	draft    string

	now   func() time.Time
	newID func() string
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Open loads the persisted state. A nil repo keeps everything in memory.
func Open(ctx context.Context, repo Repository, opts ...Option) (*Store, error) {
	s := &Store{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	if repo == nil {
		return s, nil
	}
	st, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	s.sessions = st.Sessions
	if s.indexOf(st.CurrentID) >= 0 {
		s.current = st.CurrentID
	}
	return s, nil
}

// Create inserts an empty session at the front of the collection, makes it
// current and clears the draft buffer.
func (s *Store) Create(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.createLocked()
	return id, s.persistLocked(ctx)
}

func (s *Store) createLocked() string {
	id := s.newID()
	for id == "" || s.indexOf(id) >= 0 {
		id = s.newID()
	}
	sess := Session{ID: id, Title: DefaultTitle, LastModified: s.now()}
	s.sessions = append([]Session{sess}, s.sessions...)
	s.current = id
	s.draft = ""
	return id
}

// List returns copies of all sessions, most recently modified first.
func (s *Store) List() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastModified.After(out[j].LastModified)
	})
	return out
}

func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.sessions[i].clone(), nil
}

// CurrentID returns the pointer as stored, which may be empty.
func (s *Store) CurrentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Current returns the current session. With no pointer set it adopts the
// first session in the collection, or creates one when the collection is
// empty.
func (s *Store) Current(ctx context.Context) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(s.current); i >= 0 {
		return s.sessions[i].clone(), nil
	}
	if len(s.sessions) > 0 {
		s.current = s.sessions[0].ID
	} else {
		s.createLocked()
	}
	if err := s.persistLocked(ctx); err != nil {
		return Session{}, err
	}
	return s.sessions[s.indexOf(s.current)].clone(), nil
}

func (s *Store) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.current = id
	return s.persistLocked(ctx)
}

// SetMessages replaces the message list of id and bumps LastModified.
func (s *Store) SetMessages(ctx context.Context, id string, msgs []llm.Message) error {
	return s.Update(ctx, id, func([]llm.Message) ([]llm.Message, error) { return msgs, nil })
}

// Update derives the next message list from the freshest stored one. An
// error from fn aborts without mutating anything.
func (s *Store) Update(ctx context.Context, id string, fn func(cur []llm.Message) ([]llm.Message, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next, err := fn(append([]llm.Message(nil), s.sessions[i].Messages...))
	if err != nil {
		return err
	}
	s.sessions[i].Messages = append([]llm.Message(nil), next...)
	s.sessions[i].LastModified = s.now()
	return s.persistLocked(ctx)
}

func (s *Store) Rename(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.sessions[i].Title = title
	return s.persistLocked(ctx)
}

// Delete removes id. When it was current the first remaining session takes
// over, or the pointer is cleared and the next Current call creates one.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.sessions = append(s.sessions[:i:i], s.sessions[i+1:]...)
	if s.current == id {
		s.current = ""
		if len(s.sessions) > 0 {
			s.current = s.sessions[0].ID
		}
	}
	return s.persistLocked(ctx)
}

// Draft is the pending input buffer. It is not persisted.
func (s *Store) Draft() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

func (s *Store) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	st := State{Sessions: make([]Session, 0, len(s.sessions)), CurrentID: s.current}
	for _, sess := range s.sessions {
		st.Sessions = append(st.Sessions, sess.clone())
	}
	if err := s.repo.Save(ctx, st); err != nil {
		return fmt.Errorf("persist sessions: %w", err)
	}
	return nil
}
