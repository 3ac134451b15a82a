package chat

import (
	"fmt"
	"testing"

	"voice-studio/internal/llm"
)

func makeHistory(n int) []llm.Message {
	out := make([]llm.Message, 0, n)
	for i := 0; i < n; i++ {
		role := llm.RoleUser
		if i%2 == 1 {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: fmt.Sprintf("m%d", i)})
	}
	return out
}

func TestBuildContextWindow_BoundsAndOrder(t *testing.T) {
	for _, n := range []int{1, 5, 9, 10, 11, 25} {
		for _, sys := range []string{"", "be brief"} {
			hist := makeHistory(n)
			got := BuildContextWindow(hist, sys, DefaultWindow)

			body := got
			if sys != "" {
				if got[0].Role != llm.RoleSystem || got[0].Content != sys {
					t.Fatalf("n=%d: system message not first: %+v", n, got[0])
				}
				body = got[1:]
			}
			want := n
			if want > DefaultWindow {
				want = DefaultWindow
			}
			if len(body) != want {
				t.Fatalf("n=%d sys=%q: want %d session messages, got %d", n, sys, want, len(body))
			}
			offset := n - want
			for i, m := range body {
				if m != hist[offset+i] {
					t.Fatalf("n=%d: position %d = %+v, want %+v", n, i, m, hist[offset+i])
				}
				if m.Role == llm.RoleSystem {
					t.Fatalf("extra system message in body")
				}
			}
		}
	}
}

func TestBuildContextWindow_EmptyHistory(t *testing.T) {
	got := BuildContextWindow(nil, "sys", DefaultWindow)
	if len(got) != 1 || got[0].Role != llm.RoleSystem {
		t.Fatalf("want system-only request, got %+v", got)
	}
	if got := BuildContextWindow(nil, "", DefaultWindow); len(got) != 0 {
		t.Fatalf("want empty request, got %+v", got)
	}
	if got := BuildContextWindow(nil, "   ", DefaultWindow); len(got) != 0 {
		t.Fatalf("blank system prompt should be ignored, got %+v", got)
	}
}

func TestBuildContextWindow_DoesNotAliasHistory(t *testing.T) {
	hist := makeHistory(3)
	got := BuildContextWindow(hist, "", DefaultWindow)
	got[0].Content = "changed"
	if hist[0].Content != "m0" {
		t.Fatalf("window aliases session history")
	}
}
