// Package studio runs the audio generations: text to speech and speech to
// text. Each successful generation is persisted as an artifact record.
package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"voice-studio/internal/artifact"
	"voice-studio/internal/llm"
)

const (
	MaxChars     = 1000
	DefaultVoice = "Angelo-PlayAI"
)

var (
	ErrEmptyText    = errors.New("text is empty")
	ErrTextTooLong  = fmt.Errorf("text exceeds %d characters", MaxChars)
	ErrUnknownVoice = errors.New("unknown voice")
)

// Voices lists the PlayAI voices accepted by the speech model.
var Voices = []string{
	"Angelo-PlayAI", "Aaliyah-PlayAI", "Adelaide-PlayAI", "Arista-PlayAI",
	"Atlas-PlayAI", "Basil-PlayAI", "Briggs-PlayAI", "Calum-PlayAI",
	"Celeste-PlayAI", "Cheyenne-PlayAI", "Chip-PlayAI", "Cillian-PlayAI",
	"Deedee-PlayAI", "Eleanor-PlayAI", "Fritz-PlayAI", "Gail-PlayAI",
	"Indigo-PlayAI", "Jennifer-PlayAI", "Judy-PlayAI", "Mamaw-PlayAI",
	"Mason-PlayAI", "Mikail-PlayAI", "Mitch-PlayAI", "Nia-PlayAI",
	"Quinn-PlayAI", "Ruby-PlayAI", "Thunder-PlayAI",
}

func IsVoice(v string) bool {
	for _, known := range Voices {
		if v == known {
			return true
		}
	}
	return false
}

type Speech struct {
	speaker llm.Speaker
	tracks  *artifact.TrackStore
	model   string
	voice   string
}

// NewSpeech wires speech generation. An empty voice falls back to
// DefaultVoice.
func NewSpeech(speaker llm.Speaker, tracks *artifact.TrackStore, model, voice string) *Speech {
	if voice == "" {
		voice = DefaultVoice
	}
	return &Speech{speaker: speaker, tracks: tracks, model: model, voice: voice}
}

// Generate renders text with voice (the configured default when empty) and
// stores the result. The returned track carries a live handle.
func (s *Speech) Generate(ctx context.Context, text, voice string) (artifact.Track, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return artifact.Track{}, ErrEmptyText
	case utf8.RuneCountInString(text) > MaxChars:
		return artifact.Track{}, ErrTextTooLong
	}
	if voice == "" {
		voice = s.voice
	}
	if !IsVoice(voice) {
		return artifact.Track{}, fmt.Errorf("%w: %s", ErrUnknownVoice, voice)
	}

	audio, err := s.speaker.Speak(ctx, llm.SpeechRequest{Model: s.model, Input: text, Voice: voice})
	if err != nil {
		log.Error("speech generation failed", "voice", voice, "err", err)
		return artifact.Track{}, err
	}

	track, err := s.tracks.Put(ctx, artifact.Track{Text: text, Voice: voice, Payload: audio})
	if err != nil {
		return artifact.Track{}, fmt.Errorf("save track: %w", err)
	}
	log.Info("speech generated", "track", track.ID, "voice", voice, "bytes", len(audio))
	return track, nil
}
