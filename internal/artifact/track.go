package artifact

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"voice-studio/internal/kv"
)

const tracksCollection = "tracks"

// Track is a generated speech clip. Payload is the durable audio; URL is a
// handle over it that is valid only in this process.
type Track struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Voice     string    `json:"voice"`
	Payload   []byte    `json:"-"`
	URL       string    `json:"-"`
	CreatedAt time.Time `json:"timestamp"`
}

// TrackStore keeps tracks in the "tracks" collection. Every handle it hands
// out is remembered per track so Delete can revoke them.
type TrackStore struct {
	col *kv.Collection
	reg *Registry

	mu     sync.Mutex
	issued map[string][]string
}

func NewTrackStore(db *kv.DB, reg *Registry) *TrackStore {
	if reg == nil {
		reg = NewRegistry()
	}
	return &TrackStore{
		col:    db.Collection(tracksCollection),
		reg:    reg,
		issued: make(map[string][]string),
	}
}

func (s *TrackStore) Registry() *Registry { return s.reg }

// Put upserts t. A track without Payload but with a handle URL is resolved
// to the raw bytes first; the URL itself is never stored. Missing ID and
// CreatedAt are filled in. The returned track carries a handle that Delete
// will revoke.
func (s *TrackStore) Put(ctx context.Context, t Track) (Track, error) {
	if t.Payload == nil && t.URL != "" {
		p, err := s.reg.Resolve(t.URL)
		if err != nil {
			return Track{}, fmt.Errorf("resolve %s: %w", t.URL, err)
		}
		t.Payload = p
	}
	if len(t.Payload) == 0 {
		return Track{}, errors.New("track has no audio payload")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.CreatedAt = t.CreatedAt.UTC()

	doc, err := sonic.Marshal(t)
	if err != nil {
		return Track{}, fmt.Errorf("encode track: %w", err)
	}
	if err := s.col.Put(ctx, kv.Record{Key: t.ID, Value: doc, Payload: t.Payload, CreatedAt: t.CreatedAt}); err != nil {
		return Track{}, err
	}
	if t.URL == "" {
		t.URL = s.issue(t.ID, t.Payload)
	} else {
		s.remember(t.ID, t.URL)
	}
	return t, nil
}

// GetAll returns every track newest first, each with a fresh handle.
func (s *TrackStore) GetAll(ctx context.Context) ([]Track, error) {
	recs, err := s.col.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Track, 0, len(recs))
	for _, rec := range recs {
		var t Track
		if err := sonic.Unmarshal(rec.Value, &t); err != nil {
			return nil, fmt.Errorf("decode track %s: %w", rec.Key, err)
		}
		t.ID = rec.Key
		t.Payload = rec.Payload
		t.URL = s.issue(t.ID, rec.Payload)
		out = append(out, t)
	}
	return out, nil
}

// Get returns one track with a fresh handle.
func (s *TrackStore) Get(ctx context.Context, id string) (Track, error) {
	rec, err := s.col.Get(ctx, id)
	if err != nil {
		return Track{}, err
	}
	var t Track
	if err := sonic.Unmarshal(rec.Value, &t); err != nil {
		return Track{}, fmt.Errorf("decode track %s: %w", id, err)
	}
	t.ID = rec.Key
	t.Payload = rec.Payload
	t.URL = s.issue(t.ID, rec.Payload)
	return t, nil
}

// Delete removes the track and revokes every handle issued for it.
func (s *TrackStore) Delete(ctx context.Context, id string) error {
	if err := s.col.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	urls := s.issued[id]
	delete(s.issued, id)
	s.mu.Unlock()
	for _, u := range urls {
		s.reg.Revoke(u)
	}
	return nil
}

// Release revokes a single handle, typically once a listing is discarded.
func (s *TrackStore) Release(t Track) {
	if t.URL == "" {
		return
	}
	s.reg.Revoke(t.URL)
	s.mu.Lock()
	defer s.mu.Unlock()
	urls := s.issued[t.ID]
	for i, u := range urls {
		if u == t.URL {
			urls = append(urls[:i], urls[i+1:]...)
			break
		}
	}
	if len(urls) == 0 {
		delete(s.issued, t.ID)
	} else {
		s.issued[t.ID] = urls
	}
}

func (s *TrackStore) issue(id string, payload []byte) string {
	url := s.reg.Create(payload)
	s.remember(id, url)
	return url
}

func (s *TrackStore) remember(id, url string) {
	s.mu.Lock()
	s.issued[id] = append(s.issued[id], url)
	s.mu.Unlock()
}
