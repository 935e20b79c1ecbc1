package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrMissingAPIKey    = errors.New("missing AI provider API key")
	ErrNoModelAvailable = errors.New("no configured model is available")
	ErrEmptyResponse    = errors.New("provider returned an empty completion")
	ErrUnknownProvider  = errors.New("unknown AI provider")
)

type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderError records an upstream failure with whatever status and message
// the provider returned. StatusCode is 0 for transport errors.
type ProviderError struct {
	Provider   string
	Model      string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (model %s, status %d): %s", e.Provider, e.Model, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s API error (model %s): %s", e.Provider, e.Model, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

type ParseError struct {
	Provider string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s response: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
