// Package llm provides the outbound text-generation capability: a common
// Generator interface with a Groq-compatible HTTP backend and an Anthropic
// backend.
package llm

import (
	"context"
	"fmt"
)

// Options tune a single generation call. Zero values select the backend's
// defaults.
type Options struct {
	// Model overrides the client's configured model.
	Model string

	// MaxTokens caps the response length. Default 1024.
	MaxTokens int

	// Temperature sets sampling temperature. Nil selects the backend
	// default of 0.8; an explicit zero is honored.
	Temperature *float64

	// Stop lists stop sequences.
	Stop []string
}

// Generator produces text from a prompt. Implementations carry their own
// request timeout.
type Generator interface {
	GenerateText(ctx context.Context, prompt string, opts Options) (string, error)

	// Model returns the backend's default model name.
	Model() string
}

// GenerationError reports a failed outbound generation call: a network
// error, a non-success status, or a response body with no recognizable
// textual payload.
type GenerationError struct {
	// Status is the upstream HTTP status, 0 for network failures.
	Status  int
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("generation failed: upstream status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("generation failed: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
