package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat_backend/internal/catalog"
	"chat_backend/internal/config"
	"chat_backend/internal/models"
	"chat_backend/internal/providers"
	"chat_backend/internal/registry"
)

type staticRegistry struct {
	reg registry.Registry
	err error
}

func (s staticRegistry) Registry(ctx context.Context, userID string) (registry.Registry, models.UserSettings, error) {
	return s.reg, models.DefaultSettings(userID), s.err
}

type fakeProvider struct {
	id    string
	model string
	err   error
}

func (p *fakeProvider) ID() string   { return p.id }
func (p *fakeProvider) Name() string { return p.id }
func (p *fakeProvider) Type() string { return "fake" }
func (p *fakeProvider) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	p.model = req.Model
	if p.err != nil {
		return nil, p.err
	}
	return &providers.ChatResponse{Model: req.Model, Content: "hi from " + p.id, InputTokens: 3, OutputTokens: 2}, nil
}
func (p *fakeProvider) ValidateCredentials(ctx context.Context) error { return nil }
func (p *fakeProvider) Close() error                                  { return nil }

type call struct {
	providerID, apiKey, endpoint string
}

type fakeFactory struct {
	failing map[string]error
	calls   []call
}

func (f *fakeFactory) CreateProvider(providerID, apiKey string) (providers.Provider, error) {
	f.calls = append(f.calls, call{providerID: providerID, apiKey: apiKey})
	return &fakeProvider{id: providerID, err: f.failing[providerID]}, nil
}

func (f *fakeFactory) CreateCustomProvider(id, name, endpoint, apiKey string) (providers.Provider, error) {
	f.calls = append(f.calls, call{providerID: id, apiKey: apiKey, endpoint: endpoint})
	return &fakeProvider{id: id, err: f.failing[id]}, nil
}

func (f *fakeFactory) SupportedTypes() []string { return nil }

func testRegistry() registry.Registry {
	return registry.Registry{
		Providers: map[string]registry.ResolvedCredential{
			"openai":     {ProviderID: "openai", Kind: providers.KindCore, APIKey: "sk-user"},
			"openrouter": {ProviderID: "openrouter", Kind: providers.KindAggregator, APIKey: "or-user"},
			"local":      {ProviderID: "local", Kind: providers.KindCustom, APIKey: "k", Name: "Ollama", Endpoint: "http://localhost:11434/v1"},
		},
		Models: map[string]registry.EffectiveModel{
			"gpt-4o": {
				ModelDescriptor:   catalog.ModelDescriptor{ID: "gpt-4o"},
				AvailableAdapters: []string{"openai:gpt-4o", "openrouter:openai/gpt-4o"},
			},
			"gpt-4o-mini": {
				ModelDescriptor:   catalog.ModelDescriptor{ID: "gpt-4o-mini"},
				AvailableAdapters: []string{"i3-openai:gpt-4o-mini"},
			},
			"llama": {
				ModelDescriptor:   catalog.ModelDescriptor{ID: "llama"},
				AvailableAdapters: []string{"local:llama3:8b"},
				Custom:            true,
			},
			"claude": {ModelDescriptor: catalog.ModelDescriptor{ID: "claude"}},
		},
	}
}

var hello = []providers.Message{{Role: "user", Content: "hello"}}

func TestRelay_UsesPreferredAdapter(t *testing.T) {
	factory := &fakeFactory{}
	relay := NewRelay(staticRegistry{reg: testRegistry()}, factory)

	resp, err := relay.Chat(context.Background(), "alice", Request{Model: "gpt-4o", Messages: hello})
	require.NoError(t, err)

	assert.Equal(t, "openai:gpt-4o", resp.Adapter)
	assert.Equal(t, "hi from openai", resp.Content)
	assert.Equal(t, []call{{providerID: "openai", apiKey: "sk-user"}}, factory.calls)
}

func TestRelay_FallsBackToNextAdapter(t *testing.T) {
	factory := &fakeFactory{failing: map[string]error{"openai": errors.New("503")}}
	relay := NewRelay(staticRegistry{reg: testRegistry()}, factory)

	resp, err := relay.Chat(context.Background(), "alice", Request{Model: "gpt-4o", Messages: hello})
	require.NoError(t, err)

	assert.Equal(t, "openrouter:openai/gpt-4o", resp.Adapter)
	assert.Equal(t, []call{
		{providerID: "openai", apiKey: "sk-user"},
		{providerID: "openrouter", apiKey: "or-user"},
	}, factory.calls)
}

func TestRelay_AllAdaptersFail(t *testing.T) {
	factory := &fakeFactory{failing: map[string]error{
		"openai":     errors.New("503"),
		"openrouter": errors.New("429"),
	}}
	relay := NewRelay(staticRegistry{reg: testRegistry()}, factory)

	_, err := relay.Chat(context.Background(), "alice", Request{Model: "gpt-4o", Messages: hello})
	assert.ErrorIs(t, err, ErrAllAdaptersFailed)
}

func TestRelay_InternalAdapterUsesSentinel(t *testing.T) {
	factory := &fakeFactory{}
	relay := NewRelay(staticRegistry{reg: testRegistry()}, factory)

	_, err := relay.Chat(context.Background(), "alice", Request{Model: "gpt-4o-mini", Messages: hello})
	require.NoError(t, err)
	assert.Equal(t, []call{{providerID: "i3-openai", apiKey: config.InternalKeySentinel}}, factory.calls)
}

func TestRelay_CustomAdapterKeepsColonsInModel(t *testing.T) {
	factory := &fakeFactory{}
	relay := NewRelay(staticRegistry{reg: testRegistry()}, factory)

	resp, err := relay.Chat(context.Background(), "alice", Request{Model: "llama", Messages: hello})
	require.NoError(t, err)
	assert.Equal(t, "local:llama3:8b", resp.Adapter)
	assert.Equal(t, []call{{providerID: "local", apiKey: "k", endpoint: "http://localhost:11434/v1"}}, factory.calls)
}

func TestRelay_Errors(t *testing.T) {
	relay := NewRelay(staticRegistry{reg: testRegistry()}, &fakeFactory{})
	ctx := context.Background()

	_, err := relay.Chat(ctx, "alice", Request{Model: "claude", Messages: hello})
	assert.ErrorIs(t, err, ErrNoAdapter)

	_, err = relay.Chat(ctx, "alice", Request{Model: "nope", Messages: hello})
	assert.ErrorIs(t, err, ErrUnknownModel)

	_, err = relay.Chat(ctx, "alice", Request{Model: "gpt-4o"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = relay.Chat(ctx, "alice", Request{Messages: hello})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	boom := errors.New("store down")
	_, err = NewRelay(staticRegistry{err: boom}, &fakeFactory{}).Chat(ctx, "alice", Request{Model: "gpt-4o", Messages: hello})
	assert.ErrorIs(t, err, boom)
}

func TestRelay_ThroughClientFactory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "llama3:8b",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "hello back"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 4, "completion_tokens": 2, "total_tokens": 6}
		}`))
	}))
	defer server.Close()

	reg := testRegistry()
	local := reg.Providers["local"]
	local.Endpoint = server.URL
	reg.Providers["local"] = local

	relay := NewRelay(staticRegistry{reg: reg}, providers.NewFactory(nil, 5*time.Second))

	resp, err := relay.Chat(context.Background(), "alice", Request{Model: "llama", Messages: hello})
	require.NoError(t, err)
	assert.Equal(t, "hello back", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 4, resp.InputTokens)
	assert.Equal(t, 2, resp.OutputTokens)
}
