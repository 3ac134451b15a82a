package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// fileDoc mirrors the flat two-key layout: the session array plus the
// current-session pointer.
type fileDoc struct {
	Sessions         []Session `json:"chat_sessions"`
	CurrentSessionID string    `json:"current_session_id,omitempty"`
}

// FileRepository keeps the whole collection in one JSON document.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	// Touch file if not exists
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("touch file: %w", err)
	}
	_ = f.Close()
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) Load(_ context.Context) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.Open(r.path)
	if err != nil {
		return State{}, fmt.Errorf("open: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	var doc fileDoc
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		if err == io.EOF {
			return State{}, nil
		}
		return State{}, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return State{Sessions: doc.Sessions, CurrentID: doc.CurrentSessionID}, nil
}

// Save writes to a sibling temp file and renames it over the document so
// readers never observe a half-written collection.
func (r *FileRepository) Save(_ context.Context, state State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	doc := fileDoc{Sessions: state.Sessions, CurrentSessionID: state.CurrentID}
	if doc.Sessions == nil {
		doc.Sessions = []Session{}
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}
