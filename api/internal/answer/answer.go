package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"exam-bot/api/internal/llm"
	"exam-bot/api/internal/prompts"
)

const (
	temperature = 0.3
	maxTokens   = 800
)

const systemPrompt = "Ты эксперт по операционным системам. Отвечай на русском языке кратко и по существу " +
	"на экзаменационные вопросы. Форматируй ответ четко и структурированно: определение, ключевые идеи, пример."

// GenerationError reports that no answer could be produced.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generate: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

var errEmptyAnswer = errors.New("first alternative is empty")

// TemplateSource supplies the current prompt templates.
type TemplateSource interface {
	Templates(ctx context.Context) prompts.Templates
}

type Answerer struct {
	llm       llm.Completer
	templates TemplateSource
	log       *zap.Logger
}

func New(c llm.Completer, t TemplateSource, log *zap.Logger) *Answerer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Answerer{llm: c, templates: t, log: log}
}

// GenerateAnswer makes exactly one completion call and returns the text of
// the first alternative.
func (a *Answerer) GenerateAnswer(ctx context.Context, question string) (string, error) {
	tmpl := a.templates.Templates(ctx)
	resp, err := a.llm.Complete(ctx, llm.Request{
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Text: systemPrompt},
			{Role: llm.RoleUser, Text: prompts.Substitute(tmpl.GenerationPrompt, question)},
		},
	})
	if err != nil {
		return "", a.fail(err)
	}
	alt, err := resp.First()
	if err != nil {
		return "", a.fail(err)
	}
	if strings.TrimSpace(alt.Text) == "" {
		return "", a.fail(errEmptyAnswer)
	}
	a.log.Debug("answer generated", zap.Int("chars", len(alt.Text)), zap.String("status", alt.Status))
	return alt.Text, nil
}

func (a *Answerer) fail(err error) error {
	return &GenerationError{Provider: a.llm.Name(), Err: err}
}
