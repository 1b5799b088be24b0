package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient implements Generator over the Anthropic Messages API.
// Selected with LLM_BACKEND=anthropic.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClient creates an Anthropic-backed generator.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Model returns the configured default model.
func (c *AnthropicClient) Model() string {
	return c.model
}

// GenerateText sends prompt as a single user message and concatenates the
// text blocks of the response.
func (c *AnthropicClient) GenerateText(ctx context.Context, prompt string, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}
	temperature := 0.8
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if len(opts.Stop) > 0 {
		params.StopSequences = opts.Stop
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", &GenerationError{Message: "anthropic api error: " + err.Error(), Err: err}
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", &GenerationError{Message: "no textual payload in response"}
	}
	return strings.TrimSpace(text), nil
}
