package llm

import (
	"context"
	"io"
)

// SpeechRequest asks a text-to-speech model for an mp3 rendition of Input.
type SpeechRequest struct {
	Model string
	Input string
	Voice string
}

type Speaker interface {
	Speak(ctx context.Context, req SpeechRequest) ([]byte, error)
}

type TranscriptionRequest struct {
	Model       string
	FileName    string
	Audio       io.Reader
	Language    string
	Temperature float32
}

type Segment struct {
	Start float64
	End   float64
	Text  string
}

type Transcription struct {
	Text     string
	Language string
	Duration float64
	Segments []Segment
}

type Transcriber interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (Transcription, error)
}
