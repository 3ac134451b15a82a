package llm

import (
	"context"
	"fmt"

	"github.com/Morwran/yagpt"
)

// YandexClient adapts YandexGPT to Client. It has no speech or
// transcription support; Params.Model is ignored.
type YandexClient struct {
	ya       yagpt.YaGPTFace
	iamToken string
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	// Create IAM token from OAuth token
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	resp, err := iam.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create iam token: %w", err)
	}

	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	return &YandexClient{
		ya:       ya,
		iamToken: resp.IamToken,
	}, nil
}

func (c *YandexClient) Generate(ctx context.Context, messages []Message, _ Params) (Response, error) {
	ms := make([]yagpt.Message, 0, len(messages))
	for _, m := range messages {
		// yagpt types its roles; map through the untyped constants
		switch m.Role {
		case RoleSystem:
			ms = append(ms, yagpt.Message{Role: RoleSystem, Content: m.Content})
		case RoleAssistant:
			ms = append(ms, yagpt.Message{Role: RoleAssistant, Content: m.Content})
		default:
			ms = append(ms, yagpt.Message{Role: RoleUser, Content: m.Content})
		}
	}

	resp, err := c.ya.CompletionWithCtx(ctx, c.iamToken, ms)
	if err != nil {
		return Response{}, fmt.Errorf("yagpt completion failed: %w", err)
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, fmt.Errorf("yagpt returned empty response")
	}
	out := Response{
		Role:    RoleAssistant,
		Content: resp.Alternatives[0].Message.Content,
		Model:   yagpt.YaModelLite,
	}
	out.PromptTokens = int(resp.Usage.InputTextTokens)
	out.CompletionTokens = int(resp.Usage.CompletionTokens)
	out.TotalTokens = int(resp.Usage.TotalTokens)
	return out, nil
}
