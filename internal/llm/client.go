package llm

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ppiankov/actcheck/internal/cache"
	"github.com/ppiankov/actcheck/internal/util"
)

// retrySleepFunc waits between retries (injectable for tests)
var retrySleepFunc = util.SleepContext

// Waiter paces outgoing calls per key. *worker.Limiter satisfies it.
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// ClientOptions configures the behaviour wrapped around a Provider
type ClientOptions struct {
	// Model is the configured model, used for cache keys when a request leaves it empty
	Model string

	// Cache stores successful completions; nil disables caching
	Cache    cache.Cache
	CacheTTL time.Duration

	// Limiter paces calls to the provider; nil disables pacing
	Limiter Waiter

	// MaxRetries is the number of extra attempts for transient failures
	MaxRetries int
}

// Client decorates a Provider with caching, pacing and retries.
// It implements Provider itself so components do not care which they get.
type Client struct {
	provider Provider
	opts     ClientOptions
}

// NewClient wraps a provider
func NewClient(provider Provider, opts ClientOptions) *Client {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Client{provider: provider, opts: opts}
}

// Name returns the wrapped provider name
func (c *Client) Name() string {
	return c.provider.Name()
}

// IsAvailable delegates to the wrapped provider
func (c *Client) IsAvailable(ctx context.Context) bool {
	return c.provider.IsAvailable(ctx)
}

// Complete serves from cache when possible, otherwise calls the provider,
// retrying transient failures with exponential backoff.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	key := c.cacheKey(req)
	if key != "" {
		if data, found := c.opts.Cache.Get(key); found {
			return &CompletionResponse{
				Text:   string(data),
				Model:  c.model(req),
				Cached: true,
			}, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			if err := retrySleepFunc(ctx, backoff); err != nil {
				return nil, err
			}
		}

		if c.opts.Limiter != nil {
			if err := c.opts.Limiter.Wait(ctx, c.provider.Name()); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		resp, err := c.provider.Complete(ctx, req)
		if err == nil {
			if key != "" {
				_ = c.opts.Cache.Set(key, []byte(resp.Text), c.opts.CacheTTL)
			}
			return resp, nil
		}

		lastErr = err
		if !IsTransient(err) || ctx.Err() != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", c.opts.MaxRetries+1, lastErr)
}

func (c *Client) model(req CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return c.opts.Model
}

func (c *Client) cacheKey(req CompletionRequest) string {
	if c.opts.Cache == nil {
		return ""
	}
	return cache.CacheKey(c.provider.Name(), c.model(req), strconv.Itoa(req.MaxTokens), req.Prompt)
}
