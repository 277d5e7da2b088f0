package llm

import (
	"context"

	"github.com/civicpulse/civicpulse/internal/model"
)

// Provider defines the interface for LLM providers.
//
// Providers are treated as untrusted oracles: nothing they return is
// surfaced to a caller before passing the grounding check in the
// response pipeline.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a system instruction and user content and returns
	// the model's free-text completion
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest contains the input for a completion call.
type CompletionRequest struct {
	// System is the system-instruction string
	System string

	// Prompt is the user-content string
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature controls sampling; zero uses the conservative default
	Temperature float32
}

// CompletionResponse contains the model's output.
type CompletionResponse struct {
	// Text is the raw completion text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration.
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible endpoints
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout bounds each completion call
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// ConfigFromModel converts model.LLMConfig to llm.Config.
func ConfigFromModel(mc model.LLMConfig) Config {
	timeout := int(mc.Timeout.Seconds())
	return Config{
		Provider:  mc.Provider,
		Model:     mc.Model,
		APIKey:    mc.APIKey,
		BaseURL:   mc.BaseURL,
		Timeout:   timeout,
		MaxTokens: mc.MaxTokens,
	}
}
