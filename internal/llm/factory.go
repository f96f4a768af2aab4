package llm

import (
	"fmt"
	"strings"
)

// NewClient creates a new LLM client based on configuration. An empty
// provider means the LLM path is disabled and returns a nil client.
func NewClient(config Config) (Client, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIClient(config)

	case "anthropic", "claude":
		return NewAnthropicClient(config)

	case "ollama":
		return NewOllamaClient(config)

	case "":
		// No provider configured - LLM paths fall back to heuristics
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}
