package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exam-bot/api/internal/llm"
)

func TestSplitTurns(t *testing.T) {
	system, history, last := splitTurns([]llm.Message{
		{Role: llm.RoleSystem, Text: "persona"},
		{Role: llm.RoleUser, Text: "q1"},
		{Role: llm.RoleAssistant, Text: "a1"},
		{Role: llm.RoleUser, Text: "q2"},
	})
	assert.Equal(t, "persona", system)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	require.NotNil(t, last)
	assert.Equal(t, []genai.Part{genai.Text("q2")}, last.Parts)
}

func TestSplitTurns_OnlySystem(t *testing.T) {
	_, history, last := splitTurns([]llm.Message{{Role: llm.RoleSystem, Text: "x"}})
	assert.Nil(t, history)
	assert.Nil(t, last)
}

func TestToResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []genai.Part{genai.Text("Поток "), genai.Text("— единица планирования.")}}},
		nil,
	}}
	out := toResponse(resp)
	require.Len(t, out.Alternatives, 1)
	assert.Equal(t, "Поток — единица планирования.", out.Alternatives[0].Text)

	assert.Empty(t, toResponse(nil).Alternatives)
}

func TestConfigure(t *testing.T) {
	m := &genai.GenerativeModel{}
	configure(m, llm.Request{Temperature: 0.3, MaxTokens: 800, JSON: true}, "persona")
	require.NotNil(t, m.Temperature)
	assert.InDelta(t, 0.3, *m.Temperature, 1e-6)
	require.NotNil(t, m.MaxOutputTokens)
	assert.EqualValues(t, 800, *m.MaxOutputTokens)
	assert.Equal(t, "application/json", m.ResponseMIMEType)
	require.NotNil(t, m.SystemInstruction)
}

func TestComplete_NoKey(t *testing.T) {
	_, err := New("", "gemini-2.5-flash").Complete(context.Background(), llm.Request{})
	require.ErrorIs(t, err, llm.ErrNoCredentials)
}
