package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileJournal appends events as JSON lines.
type FileJournal struct {
	path string
	mu   sync.Mutex
}

func NewFileJournal(path string) (*FileJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure journal dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to init journal file: %w", err)
	}
	_ = f.Close()
	return &FileJournal{path: path}, nil
}

func (j *FileJournal) Append(event Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open append: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	if err := json.NewEncoder(f).Encode(event); err != nil {
		return fmt.Errorf("encode append: %w", err)
	}
	return nil
}

func (j *FileJournal) Load() ([]Event, error) {
	return j.scan(func(Event) bool { return true })
}

// LoadRange returns events with from <= Timestamp < to.
func (j *FileJournal) LoadRange(from, to time.Time) ([]Event, error) {
	return j.scan(func(ev Event) bool {
		return !ev.Timestamp.Before(from) && ev.Timestamp.Before(to)
	})
}

// LoadSession returns the events journaled for one session.
func (j *FileJournal) LoadSession(sessionID string) ([]Event, error) {
	return j.scan(func(ev Event) bool { return ev.SessionID == sessionID })
}

func (j *FileJournal) scan(keep func(Event) bool) ([]Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	f, err := os.Open(j.path)
	if err != nil {
		return nil, fmt.Errorf("open read: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	var events []Event
	for s.Scan() {
		line := s.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			// torn trailing line after a crash
			continue
		}
		if keep(ev) {
			events = append(events, ev)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return events, nil
}
