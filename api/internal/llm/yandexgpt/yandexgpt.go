package yandexgpt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"exam-bot/api/internal/llm"
	"exam-bot/api/internal/util"
)

const completionEndpoint = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"

// Engine calls the YandexGPT foundation models completion API.
type Engine struct {
	APIKey   string
	ModelURI string
	endpoint string
	httpc    *http.Client
}

func New(apiKey, modelURI string) *Engine {
	return &Engine{
		APIKey:   apiKey,
		ModelURI: modelURI,
		endpoint: completionEndpoint,
		httpc:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithEndpoint points the engine at another completion URL.
func (e *Engine) WithEndpoint(url string) *Engine {
	e.endpoint = url
	return e
}

func (e *Engine) Name() string { return "yandexgpt" }

type completionOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
}

type message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type request struct {
	ModelURI          string            `json:"modelUri"`
	CompletionOptions completionOptions `json:"completionOptions"`
	Messages          []message         `json:"messages"`
	JSONObject        bool              `json:"jsonObject,omitempty"`
}

type response struct {
	Result struct {
		Alternatives []struct {
			Message message `json:"message"`
			Status  string  `json:"status"`
		} `json:"alternatives"`
		ModelVersion string `json:"modelVersion"`
	} `json:"result"`
}

func (e *Engine) Complete(ctx context.Context, in llm.Request) (llm.Response, error) {
	if e.APIKey == "" {
		return llm.Response{}, fmt.Errorf("yandexgpt: %w", llm.ErrNoCredentials)
	}
	model := e.ModelURI
	if in.Model != "" {
		model = in.Model
	}
	if model == "" {
		return llm.Response{}, fmt.Errorf("yandexgpt: model uri is empty")
	}

	body := request{
		ModelURI: model,
		CompletionOptions: completionOptions{
			Stream:      false,
			Temperature: in.Temperature,
			MaxTokens:   in.MaxTokens,
		},
		JSONObject: in.JSON,
	}
	for _, m := range in.Messages {
		body.Messages = append(body.Messages, message{Role: m.Role, Text: m.Text})
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return llm.Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Api-Key "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return llm.Response{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return llm.Response{}, fmt.Errorf("yandexgpt %d: %s", resp.StatusCode, util.Truncate(x, 500))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return llm.Response{}, fmt.Errorf("yandexgpt decode: %w", err)
	}
	var res llm.Response
	for _, a := range out.Result.Alternatives {
		res.Alternatives = append(res.Alternatives, llm.Alternative{Text: a.Message.Text, Status: a.Status})
	}
	return res, nil
}
