package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model       string    `json:"model"`
			Messages    []Message `json:"messages"`
			Temperature float32   `json:"temperature"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if r.Header.Get("X-Title") != "studio" {
			t.Errorf("missing X-Title header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","model":"` + req.Model + `",
			"choices":[{"index":0,"message":{"role":"assistant","content":"echo ` + req.Messages[len(req.Messages)-1].Content + `"}}],
			"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`))
	})
	mux.HandleFunc("/audio/speech", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-fake-mp3"))
	})
	mux.HandleFunc("/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"task":"transcribe","language":"english","duration":2.5,"text":"hello world",
			"segments":[{"id":0,"start":0,"end":1.2,"text":"hello"},{"id":1,"start":1.2,"end":2.5,"text":" world"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClient_Generate(t *testing.T) {
	srv := newTestServer(t)
	c := NewOpenAI("key", srv.URL, "default-model", "", "studio")

	resp, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Params{Temperature: 0.7})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Content != "echo hi" || resp.Role != RoleAssistant {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Model != "default-model" || resp.TotalTokens != 5 {
		t.Fatalf("unexpected meta: %+v", resp)
	}

	resp, err = c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "x"}}, Params{Model: "other"})
	if err != nil {
		t.Fatalf("generate override: %v", err)
	}
	if resp.Model != "other" {
		t.Fatalf("model override ignored: %s", resp.Model)
	}
}

func TestOpenAIClient_SpeakAndTranscribe(t *testing.T) {
	srv := newTestServer(t)
	c := NewOpenAI("key", srv.URL, "", "", "studio")

	audio, err := c.Speak(context.Background(), SpeechRequest{Model: "playai-tts", Input: "hi", Voice: "Angelo-PlayAI"})
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if string(audio) != "ID3-fake-mp3" {
		t.Fatalf("unexpected audio: %q", audio)
	}

	tr, err := c.Transcribe(context.Background(), TranscriptionRequest{
		Model:    "whisper-large-v3",
		FileName: "clip.webm",
		Audio:    strings.NewReader("raw"),
		Language: "en",
	})
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if tr.Text != "hello world" || tr.Duration != 2.5 || len(tr.Segments) != 2 {
		t.Fatalf("unexpected transcription: %+v", tr)
	}
	if tr.Segments[1].Start != 1.2 || tr.Segments[1].Text != " world" {
		t.Fatalf("unexpected segment: %+v", tr.Segments[1])
	}
}
