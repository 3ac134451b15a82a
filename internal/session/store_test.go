package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"voice-studio/internal/kv"
	"voice-studio/internal/llm"
)

type memRepo struct {
	state State
	saves int
	err   error
}

func (m *memRepo) Load(context.Context) (State, error) { return m.state, nil }
func (m *memRepo) Save(_ context.Context, st State) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.state = st
	return nil
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}
}

func tickClock() func() time.Time {
	t := time.Unix(1000, 0)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func openMem(t *testing.T, repo *memRepo) *Store {
	t.Helper()
	s, err := Open(context.Background(), repo, WithIDGenerator(seqIDs()), WithClock(tickClock()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func TestCreate_InsertsAtFrontAndBecomesCurrent(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	s := openMem(t, repo)
	s.SetDraft("half typed")

	a, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	if s.CurrentID() != b {
		t.Fatalf("want current %s, got %s", b, s.CurrentID())
	}
	if s.Draft() != "" {
		t.Fatalf("draft not cleared")
	}
	if len(repo.state.Sessions) != 2 || repo.state.Sessions[0].ID != b || repo.state.Sessions[1].ID != a {
		t.Fatalf("unexpected persisted order: %+v", repo.state.Sessions)
	}
	if repo.state.CurrentID != b {
		t.Fatalf("pointer not persisted")
	}
	got, _ := s.Get(a)
	if got.Title != DefaultTitle || len(got.Messages) != 0 {
		t.Fatalf("unexpected new session: %+v", got)
	}
}

func TestList_MostRecentlyModifiedFirst(t *testing.T) {
	ctx := context.Background()
	s := openMem(t, &memRepo{})
	a, _ := s.Create(ctx)
	b, _ := s.Create(ctx)
	if err := s.SetMessages(ctx, a, []llm.Message{{Role: llm.RoleUser, Content: "hi"}}); err != nil {
		t.Fatalf("set messages: %v", err)
	}
	list := s.List()
	if len(list) != 2 || list[0].ID != a || list[1].ID != b {
		t.Fatalf("unexpected order: %+v", list)
	}

	// copies must not alias internal state
	list[0].Messages[0].Content = "mutated"
	got, _ := s.Get(a)
	if got.Messages[0].Content != "hi" {
		t.Fatalf("internal state mutated via returned slice")
	}
}

func TestDelete_CurrentFallsBackThenEmpties(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	s := openMem(t, repo)
	a, _ := s.Create(ctx)
	b, _ := s.Create(ctx)

	if err := s.Delete(ctx, b); err != nil {
		t.Fatalf("delete b: %v", err)
	}
	if len(s.List()) != 1 || s.CurrentID() != a {
		t.Fatalf("want single session %s current, got %s", a, s.CurrentID())
	}

	if err := s.Delete(ctx, a); err != nil {
		t.Fatalf("delete a: %v", err)
	}
	if len(s.List()) != 0 || s.CurrentID() != "" {
		t.Fatalf("store not empty after deleting last session")
	}
	if repo.state.CurrentID != "" || len(repo.state.Sessions) != 0 {
		t.Fatalf("empty state not persisted: %+v", repo.state)
	}

	cur, err := s.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cur.ID == a || cur.ID == b || cur.ID == "" {
		t.Fatalf("fresh session reused an id: %s", cur.ID)
	}
	if len(cur.Messages) != 0 || repo.state.CurrentID != cur.ID {
		t.Fatalf("fresh session not empty or not persisted: %+v", cur)
	}
}

func TestDelete_NonCurrentKeepsPointer(t *testing.T) {
	ctx := context.Background()
	s := openMem(t, &memRepo{})
	a, _ := s.Create(ctx)
	b, _ := s.Create(ctx)
	if err := s.Delete(ctx, a); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.CurrentID() != b {
		t.Fatalf("pointer moved: %s", s.CurrentID())
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCurrent_AdoptsFirstWhenPointerMissing(t *testing.T) {
	repo := &memRepo{state: State{Sessions: []Session{{ID: "x"}, {ID: "y"}}, CurrentID: "gone"}}
	s := openMem(t, repo)
	if s.CurrentID() != "" {
		t.Fatalf("dangling pointer kept: %s", s.CurrentID())
	}
	cur, err := s.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cur.ID != "x" || repo.state.CurrentID != "x" {
		t.Fatalf("want x adopted, got %s", cur.ID)
	}
}

func TestUpdate_ErrorLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	s := openMem(t, repo)
	id, _ := s.Create(ctx)
	before := repo.saves

	boom := errors.New("boom")
	err := s.Update(ctx, id, func(cur []llm.Message) ([]llm.Message, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if repo.saves != before {
		t.Fatalf("aborted update persisted")
	}
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	s := openMem(t, &memRepo{})
	id, _ := s.Create(ctx)
	before, _ := s.Get(id)

	if err := s.Rename(ctx, id, "   "); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("want ErrEmptyTitle, got %v", err)
	}
	if err := s.Rename(ctx, id, " Trip plans "); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, _ := s.Get(id)
	if got.Title != "Trip plans" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if !got.LastModified.Equal(before.LastModified) {
		t.Fatalf("rename bumped lastModified")
	}
	if err := s.Rename(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestPersistFailurePropagates(t *testing.T) {
	repo := &memRepo{err: errors.New("quota exceeded")}
	s := openMem(t, repo)
	if _, err := s.Create(context.Background()); err == nil {
		t.Fatalf("expected persistence error")
	}
}

func TestFileRepository_ReloadSeesLastMutation(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.json")
	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	s, err := Open(ctx, repo)
	if err != nil {
		t.Fatalf("open empty: %v", err)
	}
	id, _ := s.Create(ctx)
	msgs := []llm.Message{{Role: llm.RoleUser, Content: "a"}, {Role: llm.RoleAssistant, Content: "b"}}
	if err := s.SetMessages(ctx, id, msgs); err != nil {
		t.Fatalf("set messages: %v", err)
	}
	if err := s.Rename(ctx, id, "Letters"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	reloaded, err := Open(ctx, repo)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.CurrentID() != id {
		t.Fatalf("pointer lost: %q", reloaded.CurrentID())
	}
	got, err := reloaded.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Letters" || len(got.Messages) != 2 || got.Messages[1].Content != "b" {
		t.Fatalf("unexpected reloaded session: %+v", got)
	}
}

func TestKVRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := kv.Open(filepath.Join(t.TempDir(), "studio.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	repo := NewKVRepository(db)

	st, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(st.Sessions) != 0 || st.CurrentID != "" {
		t.Fatalf("unexpected empty state: %+v", st)
	}

	s, err := Open(ctx, repo)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	a, _ := s.Create(ctx)
	b, _ := s.Create(ctx)
	if err := s.Select(ctx, a); err != nil {
		t.Fatalf("select: %v", err)
	}

	st, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.CurrentID != a || len(st.Sessions) != 2 || st.Sessions[0].ID != b {
		t.Fatalf("unexpected state: %+v", st)
	}
}
