package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to any OpenAI-compatible endpoint through go-openai.
type OpenAIProvider struct {
	id      string
	name    string
	kind    Kind
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *openai.Client
}

func newOpenAIProvider(cfg ProviderConfig, httpClient *http.Client) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}

	return &OpenAIProvider{
		id:      cfg.ID,
		name:    cfg.Name,
		kind:    cfg.Kind,
		baseURL: clientConfig.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		client:  openai.NewClientWithConfig(clientConfig),
	}
}

// ID returns the provider segment
func (p *OpenAIProvider) ID() string {
	return p.id
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Type returns the provider kind
func (p *OpenAIProvider) Type() string {
	return p.kind.String()
}

// BaseURL returns the endpoint requests are sent to.
func (p *OpenAIProvider) BaseURL() string {
	return p.baseURL
}

// HasKey reports whether the client carries a non-empty API key.
func (p *OpenAIProvider) HasKey() bool {
	return p.apiKey != ""
}

// Chat sends a chat completion request
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.apiKey == "" {
		return nil, &ConfigurationError{ProviderID: p.id, Reason: "no api key configured"}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature != 0 {
		chatReq.Temperature = req.Temperature
	}

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}

	out := &ChatResponse{
		Model:           resp.Model,
		ProviderLatency: time.Since(start),
		InputTokens:     resp.Usage.PromptTokens,
		OutputTokens:    resp.Usage.CompletionTokens,
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		out.FinishReason = string(resp.Choices[0].FinishReason)
	}
	return out, nil
}

// ValidateCredentials lists models to check the key
func (p *OpenAIProvider) ValidateCredentials(ctx context.Context) error {
	if p.apiKey == "" {
		return &ConfigurationError{ProviderID: p.id, Reason: "no api key configured"}
	}

	if _, err := p.client.ListModels(ctx); err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return fmt.Errorf("invalid API key")
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// Close is a no-op; the shared transport is owned by the factory
func (p *OpenAIProvider) Close() error {
	return nil
}
