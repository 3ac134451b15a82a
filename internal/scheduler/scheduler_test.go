package scheduler

import (
	"context"
	"errors"
	"testing"
)

func TestStart_RegistersJobs(t *testing.T) {
	s := New()
	defer s.Stop()

	if err := s.Start(); err != nil {
		t.Fatalf("start without jobs: %v", err)
	}
	if s.IsRunning() {
		t.Fatalf("idle scheduler reports running")
	}

	s.Add(Job{Name: "checkpoint", Spec: "@hourly", Run: func(context.Context) error { return nil }})
	s.Add(Job{Name: "report", Spec: DailyReportSpec, Run: func(context.Context) error { return nil }})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !s.IsRunning() || len(s.cron.Entries()) != 2 {
		t.Fatalf("want 2 entries, got %d", len(s.cron.Entries()))
	}
}

func TestStart_RejectsBadSpec(t *testing.T) {
	s := New()
	defer s.Stop()
	s.Add(Job{Name: "broken", Spec: "every so often", Run: func(context.Context) error { return nil }})
	if err := s.Start(); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
}

func TestRunNow(t *testing.T) {
	s := New()
	defer s.Stop()

	calls := 0
	boom := errors.New("boom")
	s.Add(Job{Name: "count", Spec: "@daily", Run: func(ctx context.Context) error {
		if ctx == nil {
			t.Fatalf("nil context")
		}
		calls++
		return nil
	}})
	s.Add(Job{Name: "fail", Spec: "@daily", Run: func(context.Context) error { return boom }})

	if err := s.RunNow("count"); err != nil || calls != 1 {
		t.Fatalf("run count: err=%v calls=%d", err, calls)
	}
	if err := s.RunNow("fail"); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if err := s.RunNow("missing"); err == nil {
		t.Fatalf("expected unknown job error")
	}
}
