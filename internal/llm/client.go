package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Params carries per-request model selection and sampling. Zero values
// fall back to the client's defaults.
type Params struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

type Response struct {
	Role             string
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client interface {
	Generate(ctx context.Context, messages []Message, params Params) (Response, error)
}
