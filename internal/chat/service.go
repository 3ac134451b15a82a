package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"voice-studio/internal/llm"
	"voice-studio/internal/session"
	"voice-studio/internal/storage"
)

// FallbackReply replaces an empty completion.
const FallbackReply = "No response from model."

var (
	ErrEmptyInput          = errors.New("message is empty")
	ErrIndexOutOfRange     = errors.New("message index out of range")
	ErrNothingToRegenerate = errors.New("nothing to regenerate")
)

type Options struct {
	Model        string
	Temperature  float32
	SystemPrompt string
	Window       int
	TitleTimeout time.Duration
}

// Result is the outcome of a completed send, edit or regenerate.
type Result struct {
	SessionID string
	Messages  []llm.Message
	Reply     llm.Message
	Response  llm.Response
}

// Service runs send/edit/regenerate against the session store. Operations
// on the same session are serialized; the completion call runs while the
// session lock is held, so a later operation waits and then works from
// the list the earlier one left behind.
type Service struct {
	store   *session.Store
	client  llm.Client
	journal storage.Journal

	optsMu sync.RWMutex
	opts   Options

	locks  sessionLocks
	busyMu sync.Mutex
	busy   map[string]int
	titles sync.WaitGroup
}

// New wires a Service. journal may be nil.
func New(store *session.Store, client llm.Client, journal storage.Journal, opts Options) *Service {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.TitleTimeout <= 0 {
		opts.TitleTimeout = 30 * time.Second
	}
	return &Service{
		store:   store,
		client:  client,
		journal: journal,
		opts:    opts,
		busy:    make(map[string]int),
	}
}

func (s *Service) Options() Options {
	s.optsMu.RLock()
	defer s.optsMu.RUnlock()
	return s.opts
}

func (s *Service) SetSystemPrompt(prompt string) {
	s.optsMu.Lock()
	defer s.optsMu.Unlock()
	s.opts.SystemPrompt = prompt
}

func (s *Service) SetModel(model string) {
	s.optsMu.Lock()
	defer s.optsMu.Unlock()
	s.opts.Model = model
}

// Busy reports whether a completion is in flight for sessionID.
func (s *Service) Busy(sessionID string) bool {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()
	return s.busy[sessionID] > 0
}

// Wait blocks until background title requests have finished.
func (s *Service) Wait() {
	s.titles.Wait()
}

// Send appends text as a user message to sessionID (the current session
// when empty, created if none exists) and asks for a reply. The user
// message stays in the session even when the completion fails.
func (s *Service) Send(ctx context.Context, sessionID, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyInput
	}
	id, err := s.resolve(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return Result{}, err
	}
	defer release()

	var (
		base  []llm.Message
		first bool
	)
	err = s.store.Update(ctx, id, func(cur []llm.Message) ([]llm.Message, error) {
		first = len(cur) == 0
		base = append(cur, llm.Message{Role: llm.RoleUser, Content: text})
		return base, nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("append user message: %w", err)
	}
	s.store.SetDraft("")

	if first {
		s.titles.Add(1)
		go s.generateTitle(ctx, id, text)
	}
	return s.complete(ctx, id, storage.OpSend, text, base)
}

// Edit drops the message at index and everything after it, appends text
// as a new user message and asks for a reply. The dropped tail is gone
// once the truncated list is persisted.
func (s *Service) Edit(ctx context.Context, sessionID string, index int, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyInput
	}
	id, err := s.resolve(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return Result{}, err
	}
	defer release()

	var base []llm.Message
	err = s.store.Update(ctx, id, func(cur []llm.Message) ([]llm.Message, error) {
		if index < 0 || index >= len(cur) {
			return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(cur))
		}
		base = append(cur[:index:index], llm.Message{Role: llm.RoleUser, Content: text})
		return base, nil
	})
	if err != nil {
		return Result{}, err
	}
	return s.complete(ctx, id, storage.OpEdit, text, base)
}

// Regenerate replaces the trailing assistant reply with a fresh one. It
// does nothing unless the session ends in a user message followed by an
// assistant message.
func (s *Service) Regenerate(ctx context.Context, sessionID string) (Result, error) {
	id, err := s.resolve(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return Result{}, err
	}
	defer release()

	var base []llm.Message
	err = s.store.Update(ctx, id, func(cur []llm.Message) ([]llm.Message, error) {
		n := len(cur)
		if n == 0 || cur[n-1].Role != llm.RoleAssistant {
			return nil, ErrNothingToRegenerate
		}
		kept := cur[:n-1]
		if len(kept) == 0 || kept[len(kept)-1].Role != llm.RoleUser {
			return nil, ErrNothingToRegenerate
		}
		base = kept
		return base, nil
	})
	if err != nil {
		return Result{}, err
	}
	return s.complete(ctx, id, storage.OpRegenerate, base[len(base)-1].Content, base)
}

func (s *Service) resolve(ctx context.Context, sessionID string) (string, error) {
	if sessionID != "" {
		if _, err := s.store.Get(sessionID); err != nil {
			return "", err
		}
		return sessionID, nil
	}
	cur, err := s.store.Current(ctx)
	if err != nil {
		return "", err
	}
	return cur.ID, nil
}

// complete builds the request window from base, calls the model and
// appends the reply. On failure the session keeps base as is.
func (s *Service) complete(ctx context.Context, id, op, userText string, base []llm.Message) (Result, error) {
	s.setBusy(id, 1)
	defer s.setBusy(id, -1)

	opts := s.Options()
	window := BuildContextWindow(base, opts.SystemPrompt, opts.Window)
	resp, err := s.client.Generate(ctx, window, llm.Params{Model: opts.Model, Temperature: opts.Temperature})
	if err != nil {
		log.Error("chat completion failed", "session", id, "op", op, "err", err)
		s.record(storage.Event{SessionID: id, Op: op, UserMessage: userText, Model: opts.Model, Error: err.Error()})
		return Result{SessionID: id, Messages: base}, fmt.Errorf("complete chat: %w", err)
	}

	reply := replyMessage(resp)
	var next []llm.Message
	err = s.store.Update(ctx, id, func(cur []llm.Message) ([]llm.Message, error) {
		next = append(cur, reply)
		return next, nil
	})
	if err != nil {
		return Result{SessionID: id, Messages: base, Response: resp}, fmt.Errorf("append reply: %w", err)
	}

	log.Debug("chat completion",
		"session", id, "op", op, "model", resp.Model,
		"prompt_tokens", resp.PromptTokens, "completion_tokens", resp.CompletionTokens)
	s.record(storage.Event{
		SessionID:         id,
		Op:                op,
		UserMessage:       userText,
		AssistantResponse: reply.Content,
		Model:             resp.Model,
		TotalTokens:       resp.TotalTokens,
	})
	return Result{SessionID: id, Messages: next, Reply: reply, Response: resp}, nil
}

func replyMessage(resp llm.Response) llm.Message {
	msg := llm.Message{Role: resp.Role, Content: resp.Content}
	if msg.Role == "" {
		msg.Role = llm.RoleAssistant
	}
	if strings.TrimSpace(msg.Content) == "" {
		msg.Content = FallbackReply
	}
	return msg
}

func (s *Service) record(ev storage.Event) {
	if s.journal == nil {
		return
	}
	ev.Timestamp = time.Now().UTC()
	if err := s.journal.Append(ev); err != nil {
		log.Warn("journal append failed", "err", err)
	}
}

func (s *Service) setBusy(id string, delta int) {
	s.busyMu.Lock()
	defer s.busyMu.Unlock()
	s.busy[id] += delta
	if s.busy[id] <= 0 {
		delete(s.busy, id)
	}
}
