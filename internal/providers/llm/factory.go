package llm

import (
	"context"
	"os"
	"strings"
	"time"
)

// New returns a Client for the configured provider. Supported providers:
// openai, anthropic, gemini, mock. An empty provider autodetects by API key
// presence; if nothing is configured the MockClient is returned so the
// engine degrades instead of crashing.
//
// Keys: OPENAI_API_KEY (optional OPENAI_API_BASE), ANTHROPIC_API_KEY,
// GOOGLE_API_KEY.
func New(provider, model string, timeout time.Duration) Client {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai":
		if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
			return &OpenAIClient{APIKey: key, Model: modelOr(model, "gpt-4o-mini"), Timeout: timeout}
		}
	case "anthropic":
		if key := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); key != "" {
			return &AnthropicClient{APIKey: key, Model: modelOr(model, "claude-3-5-sonnet-latest"), Timeout: timeout}
		}
	case "gemini":
		if key := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")); key != "" {
			if c, err := NewGeminiClient(context.Background(), key, model, timeout); err == nil {
				return c
			}
		}
	case "mock":
		return &MockClient{}
	}

	// Autodetect by key presence when the provider is unset or its key is missing.
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		return &OpenAIClient{APIKey: key, Model: modelOr(model, "gpt-4o-mini"), Timeout: timeout}
	}
	if key := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); key != "" {
		return &AnthropicClient{APIKey: key, Model: modelOr(model, "claude-3-5-sonnet-latest"), Timeout: timeout}
	}
	if key := strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")); key != "" {
		if c, err := NewGeminiClient(context.Background(), key, model, timeout); err == nil {
			return c
		}
	}
	return &MockClient{}
}

func modelOr(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
