package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Provider defines the interface for completion endpoints
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a single user-role prompt and returns the text completion
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is one prompt for the model.
// There is no system message, no tool calling and no streaming.
type CompletionRequest struct {
	// Prompt is sent as the only user message
	Prompt string

	// Model overrides the configured model (provider-specific)
	Model string

	// MaxTokens limits the response length (0 = provider default)
	MaxTokens int
}

// CompletionResponse contains the model output
type CompletionResponse struct {
	// Text is the raw completion, untrimmed
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption (0 when served from cache)
	TokensUsed int

	// Cached is true when the response came from the completion cache
	Cached bool
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout bounds every single completion call
	Timeout time.Duration

	// MaxTokens for response generation (0 = provider default)
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider: "openai",
		Model:    openai.GPT4oMini,
		Timeout:  2 * time.Minute,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}

// APIError is a non-2xx answer from a provider endpoint
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsTransient reports whether a failed completion is worth retrying:
// rate limits, server errors, timeouts and network failures.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.StatusCode)
	}

	var oaiErr *openai.APIError
	if errors.As(err, &oaiErr) {
		return transientStatus(oaiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 0 || transientStatus(reqErr.HTTPStatusCode)
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
