package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scribeworks/scribe/logger"
)

// GroqClient calls a Groq-compatible chat-completions API over HTTP.
type GroqClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// GroqConfig configures the client.
type GroqConfig struct {
	APIKey  string
	BaseURL string // e.g. "https://api.groq.com/openai/v1"
	Model   string

	// Timeout bounds each request. Default 30s.
	Timeout time.Duration
}

// NewGroqClient creates a client for a Groq-compatible endpoint.
func NewGroqClient(cfg GroqConfig) *GroqClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &GroqClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Model returns the configured default model.
func (c *GroqClient) Model() string {
	return c.model
}

// chatRequest is the chat-completions request payload.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateText sends prompt to the chat-completions endpoint and returns
// the assistant text. Failures come back as *GenerationError carrying the
// upstream status and message.
func (c *GroqClient) GenerateText(ctx context.Context, prompt string, opts Options) (string, error) {
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

	payload, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a helpful AI assistant."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stop:        opts.Stop,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &GenerationError{Message: "request error: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GenerationError{Status: resp.StatusCode, Message: "read response: " + err.Error(), Err: err}
	}

	if resp.StatusCode >= 400 {
		logger.Errorf("[GROQ] API error %d: %s", resp.StatusCode, truncate(string(body), 200))
		return "", &GenerationError{Status: resp.StatusCode, Message: string(body)}
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return "", &GenerationError{Status: resp.StatusCode, Message: "unparseable response body", Err: err}
	}

	text, ok := extractText(data)
	if !ok {
		return "", &GenerationError{Status: resp.StatusCode, Message: "no textual payload in response"}
	}
	return strings.TrimSpace(text), nil
}

// extractText tries a small ordered list of extraction strategies until one
// yields a non-empty string. This is a compatibility shim for heterogeneous
// upstream response formats, not a general parser.
func extractText(data map[string]any) (string, bool) {
	strategies := []func(map[string]any) (string, bool){
		fromChoiceMessage,   // choices[0].message.content
		fromChoiceField,     // choices[0].text or choices[0].output
		fromOutputList,      // output: [...]
		fromField("text"),   // text
		fromField("generated_text"),
	}
	for _, extract := range strategies {
		if text, ok := extract(data); ok && text != "" {
			return text, true
		}
	}
	return "", false
}

func firstChoice(data map[string]any) (map[string]any, bool) {
	choices, ok := data["choices"].([]any)
	if !ok || len(choices) == 0 {
		return nil, false
	}
	choice, ok := choices[0].(map[string]any)
	return choice, ok
}

func fromChoiceMessage(data map[string]any) (string, bool) {
	choice, ok := firstChoice(data)
	if !ok {
		return "", false
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return "", false
	}
	content, ok := message["content"].(string)
	return content, ok
}

func fromChoiceField(data map[string]any) (string, bool) {
	choice, ok := firstChoice(data)
	if !ok {
		return "", false
	}
	if text, ok := choice["text"].(string); ok {
		return text, true
	}
	text, ok := choice["output"].(string)
	return text, ok
}

func fromOutputList(data map[string]any) (string, bool) {
	out, ok := data["output"].([]any)
	if !ok {
		return "", false
	}
	parts := make([]string, 0, len(out))
	for _, v := range out {
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, " "), true
}

func fromField(field string) func(map[string]any) (string, bool) {
	return func(data map[string]any) (string, bool) {
		text, ok := data[field].(string)
		return text, ok
	}
}

// truncate shortens text for logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
