package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to any OpenAI-compatible endpoint (Groq by default).
// It serves chat completion, speech and transcription.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

type headerTransport struct {
	rt      http.RoundTripper
	headers http.Header
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone request to avoid mutating the original
	cl := req.Clone(req.Context())
	for k, vs := range t.headers {
		for _, v := range vs {
			cl.Header.Add(k, v)
		}
	}
	return t.rt.RoundTrip(cl)
}

func NewOpenAI(apiKey, baseURL, model, referrer, title string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	// Inject optional headers (useful for OpenRouter)
	if referrer != "" || title != "" {
		h := http.Header{}
		if referrer != "" {
			h.Set("HTTP-Referer", referrer)
		}
		if title != "" {
			h.Set("X-Title", title)
		}
		base := http.DefaultTransport
		config.HTTPClient = &http.Client{Transport: headerTransport{rt: base, headers: h}}
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, messages []Message, params Params) (Response, error) {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	model := c.model
	if params.Model != "" {
		model = params.Model
	}
	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    oaMsgs,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create chat completion: %w", err)
	}

	out := Response{
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	// An empty choice list is not an error; callers substitute a placeholder.
	if len(resp.Choices) > 0 {
		out.Role = resp.Choices[0].Message.Role
		out.Content = resp.Choices[0].Message.Content
	}
	return out, nil
}

func (c *OpenAIClient) Speak(ctx context.Context, req SpeechRequest) ([]byte, error) {
	raw, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(req.Model),
		Input:          req.Input,
		Voice:          openai.SpeechVoice(req.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create speech: %w", err)
	}
	defer raw.Close()

	data, err := io.ReadAll(raw)
	if err != nil {
		return nil, fmt.Errorf("read speech body: %w", err)
	}
	return data, nil
}

func (c *OpenAIClient) Transcribe(ctx context.Context, req TranscriptionRequest) (Transcription, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:       req.Model,
		FilePath:    req.FileName,
		Reader:      req.Audio,
		Language:    req.Language,
		Temperature: req.Temperature,
		Format:      openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return Transcription{}, fmt.Errorf("failed to create transcription: %w", err)
	}

	out := Transcription{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}
	for _, s := range resp.Segments {
		out.Segments = append(out.Segments, Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	return out, nil
}
