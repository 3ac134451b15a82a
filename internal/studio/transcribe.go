package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"voice-studio/internal/artifact"
	"voice-studio/internal/llm"
)

const DefaultLanguage = "en"

var ErrNoAudio = errors.New("no audio provided")

type Transcription struct {
	transcriber llm.Transcriber
	store       *artifact.TranscriptStore
	model       string
	language    string
}

func NewTranscription(t llm.Transcriber, store *artifact.TranscriptStore, model, language string) *Transcription {
	if language == "" {
		language = DefaultLanguage
	}
	return &Transcription{transcriber: t, store: store, model: model, language: language}
}

// Transcribe converts the recording read from audio and stores the
// transcript with its segments.
func (t *Transcription) Transcribe(ctx context.Context, fileName string, audio io.Reader) (artifact.Transcript, error) {
	res, err := t.run(ctx, fileName, audio)
	if err != nil {
		return artifact.Transcript{}, err
	}

	rec := artifact.Transcript{
		Text:     strings.TrimSpace(res.Text),
		FileName: filepath.Base(fileName),
		Model:    t.model,
	}
	for _, seg := range res.Segments {
		rec.Segments = append(rec.Segments, artifact.Segment{Start: seg.Start, End: seg.End, Text: strings.TrimSpace(seg.Text)})
	}
	if res.Duration > 0 {
		d := res.Duration
		rec.Duration = &d
	}

	saved, err := t.store.Put(ctx, rec)
	if err != nil {
		return artifact.Transcript{}, fmt.Errorf("save transcript: %w", err)
	}
	log.Info("transcription stored", "transcript", saved.ID, "file", saved.FileName, "segments", len(saved.Segments))
	return saved, nil
}

// Dictate transcribes a short voice note and returns only its text. Nothing
// is stored; the text is meant to feed the chat input.
func (t *Transcription) Dictate(ctx context.Context, fileName string, audio io.Reader) (string, error) {
	res, err := t.run(ctx, fileName, audio)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Text), nil
}

func (t *Transcription) run(ctx context.Context, fileName string, audio io.Reader) (llm.Transcription, error) {
	if audio == nil {
		return llm.Transcription{}, ErrNoAudio
	}
	if fileName == "" {
		fileName = "recording.webm"
	}
	res, err := t.transcriber.Transcribe(ctx, llm.TranscriptionRequest{
		Model:    t.model,
		FileName: fileName,
		Audio:    audio,
		Language: t.language,
	})
	if err != nil {
		log.Error("transcription failed", "file", fileName, "err", err)
		return llm.Transcription{}, err
	}
	return res, nil
}
