package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a new LLM provider based on configuration.
// An empty provider name means LLM features are disabled; the returned
// Provider is nil and callers must degrade gracefully.
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		// Ollama speaks the OpenAI chat API on /v1.
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434/v1"
		}
		if config.APIKey == "" {
			config.APIKey = "ollama"
		}
		return NewOpenAIProvider(config)

	case "":
		// No provider configured - LLM disabled
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}
