// Package chat relays a chat completion to the first working adapter of a
// logical model.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chat_backend/internal/config"
	"chat_backend/internal/logging"
	"chat_backend/internal/models"
	"chat_backend/internal/providers"
	"chat_backend/internal/registry"
)

var (
	// ErrUnknownModel is returned for a model id the user's registry lacks
	ErrUnknownModel = errors.New("unknown model")

	// ErrNoAdapter is returned when a model has no usable adapter
	ErrNoAdapter = errors.New("no available adapter for model")

	// ErrAllAdaptersFailed is returned when every adapter errored
	ErrAllAdaptersFailed = errors.New("all adapters failed")

	// ErrInvalidRequest is returned for a request without model or messages
	ErrInvalidRequest = errors.New("invalid chat request")
)

var logger = logging.NewLogger("chat")

// RegistrySource resolves a user's registry.
type RegistrySource interface {
	Registry(ctx context.Context, userID string) (registry.Registry, models.UserSettings, error)
}

// Request is a chat completion for a logical model id.
type Request struct {
	Model       string              `json:"model"`
	Messages    []providers.Message `json:"messages"`
	MaxTokens   int                 `json:"maxTokens,omitempty"`
	Temperature float32             `json:"temperature,omitempty"`
}

// Response is the completion together with the adapter that produced it.
type Response struct {
	Model        string `json:"model"`
	Adapter      string `json:"adapter"`
	Content      string `json:"content"`
	FinishReason string `json:"finishReason,omitempty"`
	InputTokens  int    `json:"inputTokens"`
	OutputTokens int    `json:"outputTokens"`
	LatencyMs    int64  `json:"latencyMs"`
}

// Relay sends chat requests through the provider factory.
type Relay struct {
	registries RegistrySource
	factory    providers.Factory
}

func NewRelay(registries RegistrySource, factory providers.Factory) *Relay {
	return &Relay{registries: registries, factory: factory}
}

// Chat tries the model's available adapters in preference order and
// returns the first successful completion.
func (r *Relay) Chat(ctx context.Context, userID string, req Request) (*Response, error) {
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("%w: model is required", ErrInvalidRequest)
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("%w: messages are required", ErrInvalidRequest)
	}

	reg, _, err := r.registries.Registry(ctx, userID)
	if err != nil {
		return nil, err
	}

	model, ok := reg.Models[req.Model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, req.Model)
	}
	if !model.Available() {
		return nil, fmt.Errorf("%w: %s", ErrNoAdapter, req.Model)
	}

	var lastErr error
	for _, raw := range model.AvailableAdapters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := r.try(ctx, reg, raw, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		logger.Warn("adapter failed, trying next", "user_id", userID, "model", req.Model, "adapter", raw, "error", err)
	}

	return nil, fmt.Errorf("%w for %s: %v", ErrAllAdaptersFailed, req.Model, lastErr)
}

func (r *Relay) try(ctx context.Context, reg registry.Registry, raw string, req Request) (*Response, error) {
	adapter, err := providers.ParseAdapter(raw)
	if err != nil {
		return nil, err
	}

	client, err := r.clientFor(reg, adapter.Provider)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	start := time.Now()
	out, err := client.Chat(ctx, providers.ChatRequest{
		Model:       adapter.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}

	return &Response{
		Model:        req.Model,
		Adapter:      raw,
		Content:      out.Content,
		FinishReason: out.FinishReason,
		InputTokens:  out.InputTokens,
		OutputTokens: out.OutputTokens,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

// clientFor builds the client for one provider segment. Internal adapters
// use the operator key; everything else uses the user's credential.
func (r *Relay) clientFor(reg registry.Registry, ref providers.ProviderRef) (providers.Provider, error) {
	if ref.Kind == providers.KindInternal {
		return r.factory.CreateProvider(ref.String(), config.InternalKeySentinel)
	}

	cred, ok := reg.Providers[ref.ID]
	if !ok {
		return nil, &providers.ConfigurationError{ProviderID: ref.ID, Reason: "no credential"}
	}
	if ref.Kind == providers.KindCustom {
		return r.factory.CreateCustomProvider(ref.ID, cred.Name, cred.Endpoint, cred.APIKey)
	}
	return r.factory.CreateProvider(ref.ID, cred.APIKey)
}
