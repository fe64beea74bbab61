package providers

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"chat_backend/internal/config"
)

const defaultRequestTimeout = 60 * time.Second

// KeySource supplies operator keys for the internal sentinel.
type KeySource interface {
	InternalKey(providerID string) string
}

// ClientFactory builds go-openai backed clients for every provider.
type ClientFactory struct {
	keys    KeySource
	timeout time.Duration
	client  *http.Client
}

// NewFactory creates a factory reading internal keys from keys.
// A nil KeySource means no internal keys are configured.
func NewFactory(keys KeySource, timeout time.Duration) *ClientFactory {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &ClientFactory{
		keys:    keys,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// CreateProvider builds a client for providerID. providerID is a core id,
// an internal-prefixed core id or the aggregator. The internal sentinel
// reads the operator key; an unset operator key still constructs a client
// and fails on first use.
func (f *ClientFactory) CreateProvider(providerID, apiKey string) (Provider, error) {
	ref, err := ParseProviderRef(providerID)
	if err != nil || ref.Kind == KindCustom {
		return nil, &UnknownProviderError{ProviderID: providerID}
	}

	internal := apiKey == config.InternalKeySentinel || ref.Kind == KindInternal
	if internal {
		if ref.Kind == KindCore {
			ref.Kind = KindInternal
		}
		apiKey = ""
		if f.keys != nil {
			apiKey = f.keys.InternalKey(ref.ID)
		}
	} else if strings.TrimSpace(apiKey) == "" {
		return nil, &ConfigurationError{ProviderID: providerID, Reason: "api key is required"}
	}

	return newOpenAIProvider(ProviderConfig{
		ID:      ref.String(),
		Name:    DisplayName(ref.ID),
		Kind:    ref.Kind,
		BaseURL: baseURLs[ref.ID],
		APIKey:  apiKey,
		Timeout: f.timeout,
	}, f.client), nil
}

// CreateCustomProvider builds a client for a user-defined OpenAI-compatible
// endpoint. Custom providers never use the internal sentinel.
func (f *ClientFactory) CreateCustomProvider(id, name, endpoint, apiKey string) (Provider, error) {
	if strings.TrimSpace(apiKey) == "" || apiKey == config.InternalKeySentinel {
		return nil, &ConfigurationError{ProviderID: id, Reason: "api key is required"}
	}
	if err := ValidateEndpoint(endpoint); err != nil {
		return nil, &ConfigurationError{ProviderID: id, Reason: err.Error()}
	}
	if name == "" {
		name = id
	}

	return newOpenAIProvider(ProviderConfig{
		ID:      id,
		Name:    name,
		Kind:    KindCustom,
		BaseURL: strings.TrimRight(endpoint, "/"),
		APIKey:  apiKey,
		Timeout: f.timeout,
	}, f.client), nil
}

// SupportedTypes returns the core ids and the aggregator, sorted.
func (f *ClientFactory) SupportedTypes() []string {
	ids := make([]string, 0, len(baseURLs))
	for id := range baseURLs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ValidateEndpoint checks that endpoint is an absolute http(s) URL.
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint must be an absolute http(s) URL")
	}
	return nil
}
