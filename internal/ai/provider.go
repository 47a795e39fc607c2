package ai

import (
	"context"
	"errors"
)

// Message is one turn handed to a provider.
type Message struct {
	Role    string
	Content string
}

// Options is the per-call configuration bag every flow accepts. All
// fields are optional; zero values mean "use the provider's defaults".
type Options struct {
	// APIKey overrides the credential the provider was configured with.
	APIKey string
	// Temperature overrides the default sampling temperature.
	Temperature *float64
	// SafetyThreshold is honored by providers that support content
	// safety levels; others ignore it.
	SafetyThreshold string
}

// Provider is an opaque remote text-generation capability: send messages,
// get text or an error. One call per invocation, no retry, no backoff.
type Provider interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
}

var (
	// ErrNotConfigured is returned when no provider was configured at
	// startup and a flow is invoked anyway.
	ErrNotConfigured = errors.New("ai: no provider configured")
	// ErrEmptyOutput is returned when the model yields no parseable
	// structured output.
	ErrEmptyOutput = errors.New("ai: empty structured output")
)

// Client is the process-wide generation capability. It is constructed
// exactly once at startup from configuration presence and injected into
// every flow; flows never read ambient global state.
type Client struct {
	provider Provider
}

// NewClient wraps a configured provider.
func NewClient(p Provider) *Client {
	return &Client{provider: p}
}

// Unconfigured returns the "not configured" sentinel client.
func Unconfigured() *Client {
	return &Client{}
}

// IsAvailable reports whether a provider was configured at startup.
func (c *Client) IsAvailable() bool {
	return c != nil && c.provider != nil
}

// Chat forwards to the configured provider, failing fast when none is.
func (c *Client) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	if !c.IsAvailable() {
		return "", ErrNotConfigured
	}
	return c.provider.Chat(ctx, messages, opts)
}
