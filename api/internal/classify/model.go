package classify

import (
	"context"
	"fmt"

	"exam-bot/api/internal/llm"
	"exam-bot/api/internal/prompts"
	"exam-bot/api/internal/util"
)

// TemplateSource supplies the current prompt templates.
type TemplateSource interface {
	Templates(ctx context.Context) prompts.Templates
}

// Model asks a language model for a JSON verdict.
type Model struct {
	llm       llm.Completer
	templates TemplateSource
}

func NewModel(c llm.Completer, t TemplateSource) *Model {
	return &Model{llm: c, templates: t}
}

func (m *Model) Source() Source { return SourceModel }

type verdict struct {
	IsQuestion  bool   `json:"is_question"`
	Explanation string `json:"explanation"`
}

func (m *Model) Classify(ctx context.Context, text string) (Result, error) {
	tmpl := m.templates.Templates(ctx)
	resp, err := m.llm.Complete(ctx, llm.Request{
		Temperature: 0,
		MaxTokens:   200,
		JSON:        true,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Text: tmpl.ClassificationPrompt},
			{Role: llm.RoleUser, Text: text},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("%s classify: %w", m.llm.Name(), err)
	}
	alt, err := resp.First()
	if err != nil {
		return Result{}, fmt.Errorf("%s classify: %w", m.llm.Name(), err)
	}

	// нет is_question: значит false
	var v verdict
	if err := util.DecodeLooseJSON(alt.Text, &v); err != nil {
		return Result{}, fmt.Errorf("%s classify: bad verdict %q: %w", m.llm.Name(), util.Truncate([]byte(alt.Text), 200), err)
	}
	return Result{IsQuestion: v.IsQuestion, Rationale: v.Explanation}, nil
}
