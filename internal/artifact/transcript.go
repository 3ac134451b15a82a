package artifact

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"voice-studio/internal/kv"
)

const transcriptsCollection = "transcriptions"

// Segment is a timed slice of a transcript, offsets in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type Transcript struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Segments  []Segment `json:"segments,omitempty"`
	FileName  string    `json:"fileName"`
	Model     string    `json:"model"`
	Duration  *float64  `json:"duration,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}

// TranscriptStore keeps transcripts in the "transcriptions" collection.
type TranscriptStore struct {
	col *kv.Collection
}

func NewTranscriptStore(db *kv.DB) *TranscriptStore {
	return &TranscriptStore{col: db.Collection(transcriptsCollection)}
}

func (s *TranscriptStore) Put(ctx context.Context, t Transcript) (Transcript, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.CreatedAt = t.CreatedAt.UTC()

	doc, err := sonic.Marshal(t)
	if err != nil {
		return Transcript{}, fmt.Errorf("encode transcript: %w", err)
	}
	if err := s.col.Put(ctx, kv.Record{Key: t.ID, Value: doc, CreatedAt: t.CreatedAt}); err != nil {
		return Transcript{}, err
	}
	return t, nil
}

// GetAll returns every transcript newest first.
func (s *TranscriptStore) GetAll(ctx context.Context) ([]Transcript, error) {
	recs, err := s.col.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Transcript, 0, len(recs))
	for _, rec := range recs {
		t, err := decodeTranscript(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *TranscriptStore) Get(ctx context.Context, id string) (Transcript, error) {
	rec, err := s.col.Get(ctx, id)
	if err != nil {
		return Transcript{}, err
	}
	return decodeTranscript(rec)
}

func (s *TranscriptStore) Delete(ctx context.Context, id string) error {
	return s.col.Delete(ctx, id)
}

func decodeTranscript(rec kv.Record) (Transcript, error) {
	var t Transcript
	if err := sonic.Unmarshal(rec.Value, &t); err != nil {
		return Transcript{}, fmt.Errorf("decode transcript %s: %w", rec.Key, err)
	}
	t.ID = rec.Key
	return t, nil
}
