package yandexgpt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exam-bot/api/internal/llm"
)

func TestComplete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Api-Key secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"result":{"alternatives":[{"message":{"role":"assistant","text":"Процесс — это программа в исполнении."},"status":"ALTERNATIVE_STATUS_FINAL"}],"modelVersion":"23.10.2024"}}`))
	}))
	defer srv.Close()

	e := New("secret", "gpt://b1g/yandexgpt-lite").WithEndpoint(srv.URL)
	resp, err := e.Complete(context.Background(), llm.Request{
		Temperature: 0.3,
		MaxTokens:   800,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Text: "sys"},
			{Role: llm.RoleUser, Text: "Что такое процесс?"},
		},
	})
	require.NoError(t, err)
	alt, err := resp.First()
	require.NoError(t, err)
	assert.Equal(t, "Процесс — это программа в исполнении.", alt.Text)

	assert.Equal(t, "gpt://b1g/yandexgpt-lite", got["modelUri"])
	opts := got["completionOptions"].(map[string]any)
	assert.Equal(t, false, opts["stream"])
	assert.Equal(t, 0.3, opts["temperature"])
	assert.Equal(t, float64(800), opts["maxTokens"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, map[string]any{"role": "user", "text": "Что такое процесс?"}, msgs[1])
	assert.NotContains(t, got, "jsonObject")
}

func TestComplete_NoAlternatives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"alternatives":[]}}`))
	}))
	defer srv.Close()

	resp, err := New("k", "gpt://m").WithEndpoint(srv.URL).Complete(context.Background(), llm.Request{JSON: true})
	require.NoError(t, err)
	_, err = resp.First()
	require.ErrorIs(t, err, llm.ErrNoAlternatives)
}

func TestComplete_Errors(t *testing.T) {
	_, err := New("", "gpt://m").Complete(context.Background(), llm.Request{})
	require.ErrorIs(t, err, llm.ErrNoCredentials)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()
	_, err = New("k", "gpt://m").WithEndpoint(srv.URL).Complete(context.Background(), llm.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
