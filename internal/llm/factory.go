package llm

import (
	"fmt"
	"sort"
	"strings"

	"voice-studio/internal/config"
)

const (
	ProviderOpenAI = "openai"
	ProviderYandex = "yandex"
)

type Mode string

const (
	ModeChat       Mode = "chat"
	ModeTranscribe Mode = "transcribe"
	ModeTTS        Mode = "tts"
)

// Models maps model id to display name.
var Models = map[string]string{
	"qwen/qwen3-32b":                                "Qwen 3 32B",
	"groq/compound":                                 "Groq Compound",
	"groq/compound-mini":                            "Groq Compound Mini",
	"Llama-3.1-8b-instant":                          "Llama 3.1 8B Instant",
	"Llama-3.3-70b-versatile":                       "Llama 3.3 70B Versatile",
	"meta-llama/llama-4-maverick-17b-128e-instruct": "Llama 4 Maverick 17B",
	"meta-llama/llama-4-scout-17b-16e-instruct":     "Llama 4 Scout 17B",
	"meta-llama/llama-guard-4-12b":                  "Llama Guard 4 12B",
	"moonshotai/kimi-k2-instruct-0905":              "Kimi K2 Instruct",
	"openai/gpt-oss-120b":                           "GPT OSS 120B",
	"openai/gpt-oss-20b":                            "GPT OSS 20B",
	"openai/gpt-oss-safeguard-20b":                  "GPT OSS Safeguard 20B",
	"whisper-large-v3":                              "Whisper Large V3",
	"whisper-large-v3-turbo":                        "Whisper Large V3 Turbo",
	"playai-tts":                                    "PlayAI TTS",
	"playai-tts-arabic":                             "PlayAI TTS Arabic",
}

var defaultModels = map[Mode]string{
	ModeChat:       "moonshotai/kimi-k2-instruct-0905",
	ModeTranscribe: "whisper-large-v3",
	ModeTTS:        "playai-tts",
}

// ModeOf classifies a model id by the kind of generation it serves.
func ModeOf(model string) Mode {
	switch {
	case strings.Contains(model, "whisper"):
		return ModeTranscribe
	case strings.Contains(model, "playai"):
		return ModeTTS
	default:
		return ModeChat
	}
}

func IsModelAllowed(mode Mode, model string) bool {
	_, ok := Models[model]
	return ok && ModeOf(model) == mode
}

// ModelsFor returns the sorted ids usable in mode.
func ModelsFor(mode Mode) []string {
	out := make([]string, 0, len(Models))
	for id := range Models {
		if ModeOf(id) == mode {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// SwitchMode keeps current when it already belongs to mode, otherwise it
// returns the mode's default model.
func SwitchMode(mode Mode, current string) string {
	if ModeOf(current) == mode {
		return current
	}
	return defaultModels[mode]
}

// Factory creates LLM clients with consistent logic
type Factory struct {
	OpenaiAPIKey       string
	OpenaiBaseURL      string
	OpenRouterReferrer string
	OpenRouterTitle    string
	YandexOAuthToken   string
	YandexFolderID     string
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		OpenaiAPIKey:       cfg.OpenAIAPIKey,
		OpenaiBaseURL:      cfg.OpenAIBaseURL,
		OpenRouterReferrer: cfg.OpenRouterReferrer,
		OpenRouterTitle:    cfg.OpenRouterTitle,
		YandexOAuthToken:   cfg.YandexOAuthToken,
		YandexFolderID:     cfg.YandexFolderID,
	}
}

func (f *Factory) CreateClient(provider, model string) (Client, error) {
	switch strings.ToLower(provider) {
	case ProviderOpenAI:
		return f.CreateOpenAI(model), nil
	case ProviderYandex:
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}

// CreateOpenAI returns the OpenAI-compatible client, which also implements
// Speaker and Transcriber regardless of the chat provider in use.
func (f *Factory) CreateOpenAI(model string) *OpenAIClient {
	return NewOpenAI(f.OpenaiAPIKey, f.OpenaiBaseURL, model, f.OpenRouterReferrer, f.OpenRouterTitle)
}
