// Package llm wraps the completion providers behind one narrow interface.
package llm

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/arpan/report-agent/backend/internal/config"
)

const (
	// MaxTokenCeiling is the hard upper bound on any completion request.
	// Requests configured above it are rejected before dispatch.
	MaxTokenCeiling = 8001

	// MaxAttempts bounds provider retries before the caller's fallback applies.
	MaxAttempts = 3
)

// ErrExhausted is returned once every attempt against the provider has failed.
var ErrExhausted = errors.New("llm: all completion attempts failed")

// Message is a single chat message.
type Message struct {
	Role    string // "system" or "user"
	Content string
}

// Request describes one completion call.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
	Stream      bool
}

// Provider issues a single completion. When the request streams, each chunk is
// handed to onChunk before the full text is returned.
type Provider interface {
	Complete(ctx context.Context, req Request, onChunk func(string)) (string, error)
}

// Client validates requests and retries the configured provider a bounded
// number of times. It is the only way pipeline code talks to a model.
type Client struct {
	provider Provider
	log      *zap.Logger
}

func NewClient(provider Provider, log *zap.Logger) *Client {
	return &Client{provider: provider, log: log}
}

// NewProvider builds the provider selected by configuration. Unknown values
// are a configuration error, not a fallback.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.LLMProvider {
	case "openai":
		return NewOpenAIProvider(cfg.OpenAIAPIKey), nil
	case "google":
		return NewGoogleProvider(context.Background(), cfg.GoogleAPIKey)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.LLMProvider)
	}
}

// Complete runs one completion with bounded retries. A nil onChunk disables
// streaming regardless of req.Stream.
func (c *Client) Complete(ctx context.Context, req Request, onChunk func(string)) (string, error) {
	if req.Model == "" {
		return "", errors.New("llm: model cannot be empty")
	}
	if req.MaxTokens > MaxTokenCeiling {
		return "", fmt.Errorf("llm: max tokens cannot exceed %d, got %d", MaxTokenCeiling, req.MaxTokens)
	}
	if onChunk == nil {
		req.Stream = false
	}

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		text, err := c.provider.Complete(ctx, req, onChunk)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.log.Warn("completion attempt failed",
			zap.String("model", req.Model),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("%w: %v", ErrExhausted, lastErr)
}
