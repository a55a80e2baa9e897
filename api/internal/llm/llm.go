// Package llm describes a provider-neutral completion call. Both the
// question classifier and the answerer speak to a model through Completer.
package llm

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNoAlternatives is returned when a provider answers without any
// candidate completion.
var ErrNoAlternatives = errors.New("no alternatives in response")

// ErrNoCredentials is returned by a provider whose API key is not set.
var ErrNoCredentials = errors.New("model credentials are not configured")

type Message struct {
	Role string
	Text string
}

type Request struct {
	// Model overrides the provider default when set.
	Model       string
	Temperature float64
	MaxTokens   int
	// JSON asks the provider for a JSON object when it supports that.
	JSON     bool
	Messages []Message
}

type Alternative struct {
	Text   string
	Status string
}

type Response struct {
	Alternatives []Alternative
}

// First returns the first alternative or ErrNoAlternatives.
func (r Response) First() (Alternative, error) {
	if len(r.Alternatives) == 0 {
		return Alternative{}, ErrNoAlternatives
	}
	return r.Alternatives[0], nil
}

type Completer interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
}
