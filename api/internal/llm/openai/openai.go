package openai

import (
	"context"
	"fmt"
	"math"

	goopenai "github.com/sashabaranov/go-openai"

	"exam-bot/api/internal/llm"
)

// Engine talks to OpenAI or any OpenAI-compatible chat completion API.
type Engine struct {
	APIKey string
	Model  string
	client *goopenai.Client
}

func New(key, model, baseURL string) *Engine {
	cfg := goopenai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Engine{
		APIKey: key,
		Model:  model,
		client: goopenai.NewClientWithConfig(cfg),
	}
}

func (e *Engine) Name() string { return "openai" }

func (e *Engine) Complete(ctx context.Context, in llm.Request) (llm.Response, error) {
	if e.APIKey == "" {
		return llm.Response{}, fmt.Errorf("openai: %w", llm.ErrNoCredentials)
	}
	req := buildRequest(e.Model, in)
	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return llm.Response{}, fmt.Errorf("openai: %w", err)
	}
	var out llm.Response
	for _, c := range resp.Choices {
		out.Alternatives = append(out.Alternatives, llm.Alternative{
			Text:   c.Message.Content,
			Status: string(c.FinishReason),
		})
	}
	return out, nil
}

func buildRequest(defaultModel string, in llm.Request) goopenai.ChatCompletionRequest {
	model := defaultModel
	if in.Model != "" {
		model = in.Model
	}
	req := goopenai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   in.MaxTokens,
		Temperature: float32(in.Temperature),
	}
	// в клиенте temperature с omitempty: ноль ушёл бы как "по умолчанию"
	if in.Temperature == 0 {
		req.Temperature = math.SmallestNonzeroFloat32
	}
	if in.JSON {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	for _, m := range in.Messages {
		req.Messages = append(req.Messages, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Text})
	}
	return req
}
