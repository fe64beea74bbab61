package providers

import (
	"fmt"
	"sort"
	"strings"
)

// Kind classifies the provider segment of an adapter.
type Kind int

const (
	// KindCore is a first-party provider the user can bring a key for.
	KindCore Kind = iota
	// KindInternal is a core provider billed to the operator's key.
	KindInternal
	// KindAggregator routes to many upstream vendors with one key.
	KindAggregator
	// KindCustom is a user-defined OpenAI-compatible endpoint.
	KindCustom
)

// InternalPrefix marks a provider segment as operator-funded.
const InternalPrefix = "i3-"

// AggregatorID is the routing aggregator.
const AggregatorID = "openrouter"

// Core provider ids.
const (
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Google    = "google"
	Groq      = "groq"
	XAI       = "xai"
)

// baseURLs holds the OpenAI-compatible endpoint of every known provider.
var baseURLs = map[string]string{
	OpenAI:       "https://api.openai.com/v1",
	Anthropic:    "https://api.anthropic.com/v1",
	Google:       "https://generativelanguage.googleapis.com/v1beta/openai",
	Groq:         "https://api.groq.com/openai/v1",
	XAI:          "https://api.x.ai/v1",
	AggregatorID: "https://openrouter.ai/api/v1",
}

var displayNames = map[string]string{
	OpenAI:       "OpenAI",
	Anthropic:    "Anthropic",
	Google:       "Google",
	Groq:         "Groq",
	XAI:          "xAI",
	AggregatorID: "OpenRouter",
}

func (k Kind) String() string {
	switch k {
	case KindCore:
		return "core"
	case KindInternal:
		return "internal"
	case KindAggregator:
		return "aggregator"
	case KindCustom:
		return "custom"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsCore reports whether id is one of the core provider ids.
func IsCore(id string) bool {
	_, ok := baseURLs[id]
	return ok && id != AggregatorID
}

// CoreIDs returns the core provider ids in sorted order.
func CoreIDs() []string {
	ids := make([]string, 0, len(baseURLs)-1)
	for id := range baseURLs {
		if id != AggregatorID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// DisplayName returns a human readable name for a known provider id.
func DisplayName(id string) string {
	if name, ok := displayNames[id]; ok {
		return name
	}
	return id
}

// ProviderRef is the parsed provider segment of an adapter.
// ID is the core id for KindInternal, without the prefix.
type ProviderRef struct {
	Kind Kind
	ID   string
}

// ParseProviderRef classifies a provider segment. Segments that are not
// core, internal or aggregator ids are treated as custom provider ids.
func ParseProviderRef(segment string) (ProviderRef, error) {
	segment = strings.TrimSpace(segment)
	switch {
	case segment == "":
		return ProviderRef{}, fmt.Errorf("empty provider id")
	case segment == AggregatorID:
		return ProviderRef{Kind: KindAggregator, ID: segment}, nil
	case IsCore(segment):
		return ProviderRef{Kind: KindCore, ID: segment}, nil
	case strings.HasPrefix(segment, InternalPrefix):
		core := strings.TrimPrefix(segment, InternalPrefix)
		if !IsCore(core) {
			return ProviderRef{}, fmt.Errorf("internal provider %q does not name a core provider", segment)
		}
		return ProviderRef{Kind: KindInternal, ID: core}, nil
	default:
		return ProviderRef{Kind: KindCustom, ID: segment}, nil
	}
}

// String formats the ref back into its provider segment.
func (r ProviderRef) String() string {
	if r.Kind == KindInternal {
		return InternalPrefix + r.ID
	}
	return r.ID
}

// Adapter is one concrete way to invoke a logical model.
type Adapter struct {
	Provider ProviderRef
	Model    string
}

// ParseAdapter parses "provider:model". The split is on the first colon so
// model ids may contain colons themselves.
func ParseAdapter(s string) (Adapter, error) {
	provider, model, ok := strings.Cut(s, ":")
	if !ok {
		return Adapter{}, fmt.Errorf("adapter %q: missing ':' separator", s)
	}
	if strings.TrimSpace(model) == "" {
		return Adapter{}, fmt.Errorf("adapter %q: empty model id", s)
	}
	ref, err := ParseProviderRef(provider)
	if err != nil {
		return Adapter{}, fmt.Errorf("adapter %q: %w", s, err)
	}
	return Adapter{Provider: ref, Model: model}, nil
}

// NewAdapter builds an adapter for a provider segment and model id.
func NewAdapter(providerID, modelID string) (Adapter, error) {
	return ParseAdapter(providerID + ":" + modelID)
}

func (a Adapter) String() string {
	return a.Provider.String() + ":" + a.Model
}
