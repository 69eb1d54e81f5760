package notes

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Supported providers. Both speak the OpenAI chat completion protocol.
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
)

const (
	// DeepSeekBaseURL is the OpenAI-compatible DeepSeek endpoint.
	DeepSeekBaseURL = "https://api.deepseek.com/v1"

	DefaultDeepSeekModel = "deepseek-chat"
)

// ParseProvider normalizes a provider name. Empty means ProviderOpenAI.
func ParseProvider(s string) (string, error) {
	switch p := strings.ToLower(strings.TrimSpace(s)); p {
	case "", ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderDeepSeek:
		return ProviderDeepSeek, nil
	default:
		return "", fmt.Errorf("%w %q (supported: %s, %s)", ErrUnsupportedProvider, s, ProviderOpenAI, ProviderDeepSeek)
	}
}

// DefaultModelFor returns the chat model used when none is configured.
func DefaultModelFor(provider string) string {
	if provider == ProviderDeepSeek {
		return DefaultDeepSeekModel
	}
	return DefaultModel
}

// NewClient returns a chat client for provider.
func NewClient(provider, apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if provider == ProviderDeepSeek {
		cfg.BaseURL = DeepSeekBaseURL
	}
	return openai.NewClientWithConfig(cfg)
}
