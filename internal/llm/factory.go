package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/actcheck/internal/model"
)

// NewProvider creates a provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai", "":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the application config to llm.Config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.LLM.Timeout,
		MaxTokens:  cfg.LLM.MaxTokens,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	}
}

// APIKeyEnv returns the environment variable holding the key for a provider
func APIKeyEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "anthropic", "claude":
		return "ANTHROPIC_API_KEY"
	case "ollama":
		return ""
	default:
		return "OPENAI_API_KEY"
	}
}
