package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/reedko/truthtrollers-engine/internal/model"
)

// Client is the single text-in/JSON-out capability the engine depends on.
// Adapters own prompt formatting and response parsing; unparseable model
// output yields an empty JSON object rather than an error, so schema
// validation stays with the caller.
type Client interface {
	// Name returns the provider name
	Name() string

	// GenerateJSON sends a system/user prompt pair and returns the first
	// JSON value found in the completion.
	GenerateJSON(ctx context.Context, req Request) (json.RawMessage, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request contains the input for a JSON generation call.
type Request struct {
	// System sets the assistant role and output discipline.
	System string

	// User is the task prompt.
	User string

	// SchemaHint describes the expected JSON shape; appended to the
	// prompt for providers without native JSON modes.
	SchemaHint string

	// Temperature controls sampling; mapping runs want it low.
	Temperature float32

	// Model overrides the configured default (provider-specific).
	Model string

	// MaxTokens limits the response length.
	MaxTokens int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 2000,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:   mc.Provider,
		Model:      mc.Model,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		MaxTokens:  mc.MaxTokens,
		HTTPProxy:  mc.HTTPProxy,
		HTTPSProxy: mc.HTTPSProxy,
		NoProxy:    mc.NoProxy,
	}
}

// ExtractJSON pulls the first JSON object or array out of completion
// text, tolerating markdown fences and surrounding prose. Returns "{}"
// when nothing parseable is found.
func ExtractJSON(text string) json.RawMessage {
	text = strings.TrimSpace(text)

	// Strip markdown code fences if present
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	if raw := firstJSONValue(text); raw != nil {
		return raw
	}

	return json.RawMessage("{}")
}

// firstJSONValue scans for the first balanced {...} or [...] that
// decodes cleanly.
func firstJSONValue(text string) json.RawMessage {
	start := -1
	for i, r := range text {
		if r == '{' || r == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	open := text[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if json.Valid([]byte(candidate)) {
					return json.RawMessage(candidate)
				}
				return nil
			}
		}
	}

	return nil
}
