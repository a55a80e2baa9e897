package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"exam-bot/api/internal/llm"
)

// Engine generates completions with Gemini.
type Engine struct {
	APIKey string
	Model  string

	mu     sync.Mutex
	client *genai.Client
}

func New(key, model string) *Engine {
	return &Engine{APIKey: key, Model: model}
}

func (e *Engine) Name() string { return "gemini" }

func (e *Engine) getClient(ctx context.Context) (*genai.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		return e.client, nil
	}
	c, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return nil, err
	}
	e.client = c
	return c, nil
}

// Close releases the underlying client, if one was created.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}

func (e *Engine) Complete(ctx context.Context, in llm.Request) (llm.Response, error) {
	if e.APIKey == "" {
		return llm.Response{}, fmt.Errorf("gemini: %w", llm.ErrNoCredentials)
	}
	client, err := e.getClient(ctx)
	if err != nil {
		return llm.Response{}, fmt.Errorf("gemini client: %w", err)
	}

	name := e.Model
	if in.Model != "" {
		name = in.Model
	}
	model := client.GenerativeModel(name)
	system, history, last := splitTurns(in.Messages)
	configure(model, in, system)
	if last == nil {
		return llm.Response{}, fmt.Errorf("gemini: request has no user turn")
	}

	cs := model.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return llm.Response{}, fmt.Errorf("gemini: %w", err)
	}
	return toResponse(resp), nil
}

func configure(model *genai.GenerativeModel, in llm.Request, system string) {
	model.SetTemperature(float32(in.Temperature))
	if in.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(in.MaxTokens))
	}
	if in.JSON {
		model.ResponseMIMEType = "application/json"
	}
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
}

// splitTurns folds system messages into one instruction and returns the
// conversation history plus the final turn to send.
func splitTurns(msgs []llm.Message) (string, []*genai.Content, *genai.Content) {
	var (
		system []string
		turns  []*genai.Content
	)
	for _, m := range msgs {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Text)
		case llm.RoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Text)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Text)}})
		}
	}
	if len(turns) == 0 {
		return strings.Join(system, "\n\n"), nil, nil
	}
	return strings.Join(system, "\n\n"), turns[:len(turns)-1], turns[len(turns)-1]
}

func toResponse(resp *genai.GenerateContentResponse) llm.Response {
	var out llm.Response
	if resp == nil {
		return out
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		out.Alternatives = append(out.Alternatives, llm.Alternative{Text: b.String(), Status: c.FinishReason.String()})
	}
	return out
}
