package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"voice-studio/internal/kv"
)

const (
	sessionsCollection = "sessions"
	keySessions        = "chat_sessions"
	keyCurrent         = "current_session_id"
)

// KVRepository stores the collection in the shared SQLite substrate as two
// records written in one transaction.
type KVRepository struct {
	col *kv.Collection
}

func NewKVRepository(db *kv.DB) *KVRepository {
	return &KVRepository{col: db.Collection(sessionsCollection)}
}

func (r *KVRepository) Load(ctx context.Context) (State, error) {
	var st State
	rec, err := r.col.Get(ctx, keySessions)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return State{}, nil
	case err != nil:
		return State{}, err
	}
	if err := sonic.Unmarshal(rec.Value, &st.Sessions); err != nil {
		return State{}, fmt.Errorf("decode sessions: %w", err)
	}

	ptr, err := r.col.Get(ctx, keyCurrent)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return State{}, err
	default:
		st.CurrentID = string(ptr.Value)
	}
	return st, nil
}

func (r *KVRepository) Save(ctx context.Context, state State) error {
	sessions := state.Sessions
	if sessions == nil {
		sessions = []Session{}
	}
	data, err := sonic.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	now := time.Now()
	return r.col.PutMany(ctx, []kv.Record{
		{Key: keySessions, Value: data, CreatedAt: now},
		{Key: keyCurrent, Value: []byte(state.CurrentID), CreatedAt: now},
	})
}
