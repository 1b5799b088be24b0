// Package config collects the environment-sourced application settings.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Backends for the generation capability.
const (
	BackendGroq      = "groq"
	BackendAnthropic = "anthropic"
)

// Config is the application configuration. Values come from the
// environment (a .env file is loaded by the entrypoint before Load runs).
type Config struct {
	// Generation backend: "groq" (default) or "anthropic".
	LLMBackend string

	GroqAPIKey  string
	GroqBaseURL string
	GroqModel   string

	AnthropicAPIKey string
	AnthropicModel  string

	// PersistDir is the vector store's on-disk location.
	PersistDir string

	AppHost string
	AppPort int

	LogLevel string
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		LLMBackend:      getEnvWithDefault("LLM_BACKEND", BackendGroq),
		GroqAPIKey:      os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:     getEnvWithDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:       getEnvWithDefault("GROQ_MODEL", "llama-3.3-70b-versatile"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  getEnvWithDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		PersistDir:      getEnvWithDefault("CHROMA_PERSIST_DIR", "./chroma_db"),
		AppHost:         getEnvWithDefault("APP_HOST", "0.0.0.0"),
		LogLevel:        getEnvWithDefault("LOG_LEVEL", "info"),
	}

	port := getEnvWithDefault("APP_PORT", "8000")
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT %q: %w", port, err)
	}
	cfg.AppPort = p

	switch cfg.LLMBackend {
	case BackendGroq:
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is required with LLM_BACKEND=groq")
		}
	case BackendAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required with LLM_BACKEND=anthropic")
		}
	default:
		return nil, fmt.Errorf("unknown LLM_BACKEND %q", cfg.LLMBackend)
	}

	return cfg, nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.AppHost, c.AppPort)
}

func getEnvWithDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
