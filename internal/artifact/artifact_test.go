package artifact

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"voice-studio/internal/kv"
)

func openDB(t *testing.T) *kv.DB {
	t.Helper()
	db, err := kv.Open(filepath.Join(t.TempDir(), "studio.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRegistry_Lifecycle(t *testing.T) {
	reg := NewRegistry()
	url := reg.Create([]byte("abc"))
	if !IsHandle(url) {
		t.Fatalf("unexpected handle %q", url)
	}
	other := reg.Create([]byte("abc"))
	if other == url {
		t.Fatalf("handles must be unique per create")
	}

	r, err := reg.Open(url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, _ := io.ReadAll(r)
	if string(got) != "abc" {
		t.Fatalf("unexpected payload %q", got)
	}

	reg.Revoke(url)
	if _, err := reg.Resolve(url); !errors.Is(err, ErrHandleRevoked) {
		t.Fatalf("want ErrHandleRevoked, got %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("want 1 live handle, got %d", reg.Len())
	}
}

func TestTrackStore_RoundTripThroughHandle(t *testing.T) {
	ctx := context.Background()
	store := NewTrackStore(openDB(t), nil)

	payload := []byte{0x49, 0x44, 0x33, 0x00, 0xff, 0x10}
	at := time.Date(2024, 3, 1, 12, 30, 0, 123456789, time.UTC)
	in := Track{ID: "t1", Text: "hello world", Voice: "Celeste-PlayAI", Payload: payload, CreatedAt: at}
	if _, err := store.Put(ctx, in); err != nil {
		t.Fatalf("put: %v", err)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("want 1 track, got %d", len(all))
	}
	got := all[0]
	if got.ID != in.ID || got.Text != in.Text || got.Voice != in.Voice || !got.CreatedAt.Equal(at) {
		t.Fatalf("fields changed: %+v", got)
	}
	r, err := store.Registry().Open(got.URL)
	if err != nil {
		t.Fatalf("open handle: %v", err)
	}
	data, _ := io.ReadAll(r)
	if !bytes.Equal(data, payload) {
		t.Fatalf("payload mismatch: %x vs %x", data, payload)
	}

	again, _ := store.GetAll(ctx)
	if again[0].URL == got.URL {
		t.Fatalf("handle reused across reads")
	}
}

func TestTrackStore_PutResolvesHandle(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	store := NewTrackStore(openDB(t), reg)

	url := reg.Create([]byte("mp3 bytes"))
	saved, err := store.Put(ctx, Track{Text: "x", Voice: "Atlas-PlayAI", URL: url})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if saved.ID == "" || saved.CreatedAt.IsZero() {
		t.Fatalf("id or timestamp not assigned: %+v", saved)
	}
	reg.Revoke(url)

	got, err := store.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Payload) != "mp3 bytes" || got.URL == url {
		t.Fatalf("payload not resolved or handle persisted: %+v", got)
	}

	if _, err := store.Put(ctx, Track{Text: "x", URL: url}); !errors.Is(err, ErrHandleRevoked) {
		t.Fatalf("want ErrHandleRevoked for dead handle, got %v", err)
	}
	if _, err := store.Put(ctx, Track{Text: "x"}); err == nil {
		t.Fatalf("expected error for track without payload")
	}
}

func TestTrackStore_NewestFirstAndDeleteRevokes(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	store := NewTrackStore(openDB(t), reg)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		id     string
		offset time.Duration
	}{{"old", 0}, {"new", 2 * time.Hour}, {"mid", time.Hour}} {
		if _, err := store.Put(ctx, Track{ID: tc.id, Payload: []byte(tc.id), CreatedAt: base.Add(tc.offset)}); err != nil {
			t.Fatalf("put %s: %v", tc.id, err)
		}
	}
	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if all[0].ID != "new" || all[1].ID != "mid" || all[2].ID != "old" {
		t.Fatalf("unexpected order: %s %s %s", all[0].ID, all[1].ID, all[2].ID)
	}

	if err := store.Delete(ctx, "mid"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := reg.Resolve(all[1].URL); !errors.Is(err, ErrHandleRevoked) {
		t.Fatalf("handle survived delete")
	}
	if _, err := store.Get(ctx, "mid"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("want kv.ErrNotFound, got %v", err)
	}

	store.Release(all[0])
	if _, err := reg.Resolve(all[0].URL); !errors.Is(err, ErrHandleRevoked) {
		t.Fatalf("release did not revoke")
	}
	if _, err := reg.Resolve(all[2].URL); err != nil {
		t.Fatalf("unrelated handle revoked: %v", err)
	}
}

func TestTranscriptStore(t *testing.T) {
	ctx := context.Background()
	store := NewTranscriptStore(openDB(t))
	dur := 12.5
	first, err := store.Put(ctx, Transcript{
		Text:      "hello there",
		Segments:  []Segment{{Start: 0, End: 1.2, Text: "hello"}, {Start: 1.2, End: 2, Text: "there"}},
		FileName:  "memo.m4a",
		Model:     "whisper-large-v3",
		Duration:  &dur,
		CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	second, err := store.Put(ctx, Transcript{Text: "later", FileName: "b.wav", CreatedAt: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 2 || all[0].ID != second.ID || all[1].ID != first.ID {
		t.Fatalf("unexpected order: %+v", all)
	}
	got := all[1]
	if len(got.Segments) != 2 || got.Segments[1].Text != "there" || got.Duration == nil || *got.Duration != 12.5 {
		t.Fatalf("fields lost: %+v", got)
	}
	if all[0].Duration != nil || all[0].Segments != nil {
		t.Fatalf("optional fields should stay empty: %+v", all[0])
	}

	if err := store.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, first.ID); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("want kv.ErrNotFound, got %v", err)
	}
}
