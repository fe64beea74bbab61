package providers

import (
	"context"
	"time"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a normalized internal request to a provider.
type ChatRequest struct {
	Model       string // provider-specific model name
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// ChatResponse is a normalized provider response.
type ChatResponse struct {
	Model           string
	Content         string
	FinishReason    string
	ProviderLatency time.Duration
	InputTokens     int
	OutputTokens    int
}

// Provider is implemented by each concrete provider client.
type Provider interface {
	// ID returns the provider segment this client was built for
	ID() string

	// Name returns the display name of this provider
	Name() string

	// Type returns the provider kind (core, internal, aggregator, custom)
	Type() string

	// Chat sends a chat completion request to the provider
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// ValidateCredentials checks if the provider credentials are valid
	ValidateCredentials(ctx context.Context) error

	// Close performs cleanup when the provider is no longer needed
	Close() error
}

// ProviderConfig holds configuration for creating a provider instance
type ProviderConfig struct {
	ID      string
	Name    string
	Kind    Kind
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Factory creates provider clients.
type Factory interface {
	// CreateProvider builds a client for a core provider or the aggregator.
	// apiKey may be the internal sentinel.
	CreateProvider(providerID, apiKey string) (Provider, error)

	// CreateCustomProvider builds a client for a user-defined endpoint.
	CreateCustomProvider(id, name, endpoint, apiKey string) (Provider, error)

	// SupportedTypes returns the provider ids CreateProvider accepts
	SupportedTypes() []string
}
