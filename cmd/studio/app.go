package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"voice-studio/internal/artifact"
	"voice-studio/internal/chat"
	"voice-studio/internal/config"
	"voice-studio/internal/kv"
	"voice-studio/internal/llm"
	"voice-studio/internal/session"
	"voice-studio/internal/storage"
	"voice-studio/internal/studio"
)

// app holds every wired component for one CLI invocation.
type app struct {
	cfg *config.Config

	db          *kv.DB
	store       *session.Store
	journal     *storage.FileJournal
	chat        *chat.Service
	tracks      *artifact.TrackStore
	transcripts *artifact.TranscriptStore
	speech      *studio.Speech
	transcriber *studio.Transcription
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := kv.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: db}

	var repo session.Repository
	switch cfg.SessionBackend {
	case config.BackendSQLite:
		repo = session.NewKVRepository(db)
	default:
		fr, err := session.NewFileRepository(cfg.SessionsFilePath)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to init sessions repo: %w", err)
		}
		repo = fr
	}
	a.store, err = session.Open(ctx, repo)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	if cfg.JournalFilePath != "" {
		j, err := storage.NewFileJournal(cfg.JournalFilePath)
		if err != nil {
			log.Warn("failed to init journal", "path", cfg.JournalFilePath, "err", err)
		} else {
			a.journal = j
		}
	}

	factory := llm.NewFactory(cfg)
	client, err := factory.CreateClient(string(cfg.LLMProvider), cfg.ChatModel)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	audio := factory.CreateOpenAI(cfg.ChatModel)

	var journal storage.Journal
	if a.journal != nil {
		journal = a.journal
	}
	a.chat = chat.New(a.store, client, journal, chat.Options{
		Model:        cfg.ChatModel,
		Temperature:  cfg.Temperature,
		SystemPrompt: systemPrompt(cfg),
		Window:       cfg.ContextWindow,
	})

	a.tracks = artifact.NewTrackStore(db, artifact.NewRegistry())
	a.transcripts = artifact.NewTranscriptStore(db)
	a.speech = studio.NewSpeech(audio, a.tracks, cfg.TTSModel, cfg.TTSVoice)
	a.transcriber = studio.NewTranscription(audio, a.transcripts, cfg.TranscribeModel, cfg.TranscribeLanguage)
	return a, nil
}

// close waits for background title requests and releases the database.
func (a *app) close() {
	if a.chat != nil {
		a.chat.Wait()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Warn("failed to close database", "err", err)
		}
	}
}

func systemPrompt(cfg *config.Config) string {
	if cfg.SystemPrompt != "" {
		return cfg.SystemPrompt
	}
	if cfg.SystemPromptPath == "" {
		return ""
	}
	data, err := os.ReadFile(cfg.SystemPromptPath)
	if err != nil {
		log.Warn("system prompt file not found or unreadable", "path", cfg.SystemPromptPath, "err", err)
		return ""
	}
	return strings.TrimSpace(string(data))
}
