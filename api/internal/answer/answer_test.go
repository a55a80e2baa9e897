package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"exam-bot/api/internal/llm"
	"exam-bot/api/internal/prompts"
)

type fakeLLM struct {
	resp  llm.Response
	err   error
	calls []llm.Request
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.calls = append(f.calls, req)
	return f.resp, f.err
}

type staticTemplates prompts.Templates

func (s staticTemplates) Templates(context.Context) prompts.Templates { return prompts.Templates(s) }

func TestGenerateAnswer_SubstitutesQuestion(t *testing.T) {
	f := &fakeLLM{resp: llm.Response{Alternatives: []llm.Alternative{{Text: "Процесс — это..."}, {Text: "ignored"}}}}
	a := New(f, staticTemplates{GenerationPrompt: "Answer: {{QUESTION}}"}, zap.NewNop())

	got, err := a.GenerateAnswer(context.Background(), "What is a process?")
	require.NoError(t, err)
	assert.Equal(t, "Процесс — это...", got)

	require.Len(t, f.calls, 1)
	req := f.calls[0]
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Text: "Answer: What is a process?"}, req.Messages[1])
	assert.Equal(t, 0.3, req.Temperature)
	assert.Equal(t, 800, req.MaxTokens)
	assert.False(t, req.JSON)
}

func TestGenerateAnswer_TemplateWithoutPlaceholder(t *testing.T) {
	f := &fakeLLM{resp: llm.Response{Alternatives: []llm.Alternative{{Text: "ok"}}}}
	a := New(f, staticTemplates{GenerationPrompt: "Расскажи про ОС."}, nil)

	_, err := a.GenerateAnswer(context.Background(), "What is a process?")
	require.NoError(t, err)
	assert.Equal(t, "Расскажи про ОС.", f.calls[0].Messages[1].Text)
}

func TestGenerateAnswer_Errors(t *testing.T) {
	cases := map[string]*fakeLLM{
		"call failed":     {err: errors.New("yandexgpt 500")},
		"no alternatives": {resp: llm.Response{}},
		"empty text":      {resp: llm.Response{Alternatives: []llm.Alternative{{Text: "  "}}}},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			a := New(f, staticTemplates{GenerationPrompt: "{{QUESTION}}"}, nil)
			got, err := a.GenerateAnswer(context.Background(), "q")
			assert.Empty(t, got)
			var ge *GenerationError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, "fake", ge.Provider)
			assert.Len(t, f.calls, 1)
		})
	}

	a := New(&fakeLLM{}, staticTemplates{}, nil)
	_, err := a.GenerateAnswer(context.Background(), "q")
	require.ErrorIs(t, err, llm.ErrNoAlternatives)
}
