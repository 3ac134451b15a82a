package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type SessionBackend string

const (
	BackendFile   SessionBackend = "file"
	BackendSQLite SessionBackend = "sqlite"
)

type Config struct {
	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Models
	ChatModel          string  `env:"CHAT_MODEL" envDefault:"moonshotai/kimi-k2-instruct-0905"`
	TranscribeModel    string  `env:"TRANSCRIBE_MODEL" envDefault:"whisper-large-v3"`
	TTSModel           string  `env:"TTS_MODEL" envDefault:"playai-tts"`
	TTSVoice           string  `env:"TTS_VOICE" envDefault:"Angelo-PlayAI"`
	TranscribeLanguage string  `env:"TRANSCRIBE_LANGUAGE" envDefault:"en"`
	Temperature        float32 `env:"TEMPERATURE" envDefault:"0.7"`
	ContextWindow      int     `env:"CONTEXT_WINDOW" envDefault:"10"`

	// Prompts
	SystemPrompt     string `env:"SYSTEM_PROMPT"`
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH"`

	// Storage
	DataDir          string         `env:"DATA_DIR" envDefault:"data"`
	DBPath           string         `env:"DB_PATH" envDefault:"data/studio.db"`
	SessionBackend   SessionBackend `env:"SESSION_BACKEND" envDefault:"file"`
	SessionsFilePath string         `env:"SESSIONS_FILE_PATH" envDefault:"data/sessions.json"`
	JournalFilePath  string         `env:"JOURNAL_FILE_PATH" envDefault:"data/journal.jsonl"`

	// Operations
	LogLevel            string `env:"LOG_LEVEL" envDefault:"info"`
	MaintenanceSchedule string `env:"MAINTENANCE_SCHEDULE" envDefault:"@hourly"`
}

func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.ContextWindow <= 0 {
		return nil, fmt.Errorf("CONTEXT_WINDOW must be positive, got %d", cfg.ContextWindow)
	}
	switch cfg.SessionBackend {
	case BackendFile, BackendSQLite:
	default:
		return nil, fmt.Errorf("unknown session backend: %s", cfg.SessionBackend)
	}
	return cfg, nil
}
