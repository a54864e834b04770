// Package ai defines the boundary between the screener and a generative model.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the provider answered without any text.
var ErrEmptyResponse = errors.New("model returned empty response")

// Generator sends a prompt to a model and returns its text answer.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// TransportError is a failed model call: network, provider status, quota or
// an empty answer. It is always worth retrying.
type TransportError struct {
	Provider string
	Model    string
	// Code is the provider status code when known.
	Code int
	Err  error
}

func (e *TransportError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Model, e.Code, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Model, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
