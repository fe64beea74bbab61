package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"chat_backend/internal/catalog"
)

// MaxCustomThemes caps the number of theme URLs a user can keep.
const MaxCustomThemes = 5

// Defaults used when a user has no stored settings yet.
const (
	DefaultSearchProvider       = Firecrawl
	DefaultTitleGenerationModel = "gemini-2.5-flash"
)

// GeneralProviderID names an integration that is not a model provider.
type GeneralProviderID string

const (
	Supermemory GeneralProviderID = "supermemory"
	Firecrawl   GeneralProviderID = "firecrawl"
	Tavily      GeneralProviderID = "tavily"
	Brave       GeneralProviderID = "brave"
	Serper      GeneralProviderID = "serper"
)

// GeneralProviderIDs lists every integration in display order.
var GeneralProviderIDs = []GeneralProviderID{Supermemory, Firecrawl, Tavily, Brave, Serper}

// IsGeneralProvider reports whether id is a known integration.
func IsGeneralProvider(id GeneralProviderID) bool {
	for _, known := range GeneralProviderIDs {
		if id == known {
			return true
		}
	}
	return false
}

// IsSearchProvider reports whether id can serve web search.
func IsSearchProvider(id GeneralProviderID) bool {
	switch id {
	case Firecrawl, Tavily, Brave, Serper:
		return true
	}
	return false
}

// ProviderCredential is a user's key for a model provider. A disabled
// credential counts as absent even when a key is stored.
type ProviderCredential struct {
	Enabled      bool   `json:"enabled"`
	EncryptedKey string `json:"encryptedKey,omitempty"`
}

// Usable reports whether the credential is enabled and carries a key.
func (c ProviderCredential) Usable() bool {
	return c.Enabled && c.EncryptedKey != ""
}

// CustomProviderCredential is a user-defined OpenAI-compatible endpoint.
type CustomProviderCredential struct {
	ProviderCredential
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

// CustomModel is a user-declared model on one of their providers.
type CustomModel struct {
	ModelID       string            `json:"modelId"`
	ProviderID    string            `json:"providerId"`
	Name          string            `json:"name,omitempty"`
	ContextLength int               `json:"contextLength,omitempty"`
	MaxTokens     int               `json:"maxTokens,omitempty"`
	Abilities     []catalog.Ability `json:"abilities,omitempty"`
	Enabled       bool              `json:"enabled"`
}

// Adapter returns the single adapter string this model resolves to.
func (m CustomModel) Adapter() string {
	return m.ProviderID + ":" + m.ModelID
}

// GeneralProviderConfig holds a search or memory integration.
// Country, SearchLang and Safesearch apply to brave; Language and Country
// apply to serper.
type GeneralProviderConfig struct {
	Enabled      bool   `json:"enabled"`
	EncryptedKey string `json:"encryptedKey,omitempty"`
	Country      string `json:"country,omitempty"`
	SearchLang   string `json:"searchLang,omitempty"`
	Safesearch   string `json:"safesearch,omitempty"`
	Language     string `json:"language,omitempty"`
}

// MCPServer is a Model Context Protocol server the user connected.
type MCPServer struct {
	Name    string            `json:"name"`
	URL     string            `json:"url"`
	Type    string            `json:"type"`
	Enabled bool              `json:"enabled"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Customization is free-text personalization fed into prompts.
type Customization struct {
	Name              string `json:"name,omitempty"`
	AIPersonality     string `json:"aiPersonality,omitempty"`
	AdditionalContext string `json:"additionalContext,omitempty"`
}

// UserSettings is the per-user settings document.
type UserSettings struct {
	UserID                        string                                      `json:"userId"`
	SearchProvider                GeneralProviderID                           `json:"searchProvider,omitempty"`
	SearchIncludeSourcesByDefault bool                                        `json:"searchIncludeSourcesByDefault"`
	TitleGenerationModel          string                                      `json:"titleGenerationModel,omitempty"`
	CoreAIProviders               map[string]ProviderCredential               `json:"coreAIProviders"`
	CustomAIProviders             map[string]CustomProviderCredential         `json:"customAIProviders"`
	CustomModels                  map[string]CustomModel                      `json:"customModels"`
	GeneralProviders              map[GeneralProviderID]GeneralProviderConfig `json:"generalProviders"`
	MCPServers                    []MCPServer                                 `json:"mcpServers"`
	CustomThemes                  []string                                    `json:"customThemes"`
	Customization                 Customization                               `json:"customization"`
	OnboardingCompleted           bool                                        `json:"onboardingCompleted"`
}

// DefaultSettings returns the document a user sees before their first write.
func DefaultSettings(userID string) UserSettings {
	s := UserSettings{
		UserID:               userID,
		SearchProvider:       DefaultSearchProvider,
		TitleGenerationModel: DefaultTitleGenerationModel,
	}
	s.Normalize()
	return s
}

// Normalize replaces nil collections with empty ones.
func (s *UserSettings) Normalize() {
	if s.CoreAIProviders == nil {
		s.CoreAIProviders = map[string]ProviderCredential{}
	}
	if s.CustomAIProviders == nil {
		s.CustomAIProviders = map[string]CustomProviderCredential{}
	}
	if s.CustomModels == nil {
		s.CustomModels = map[string]CustomModel{}
	}
	if s.GeneralProviders == nil {
		s.GeneralProviders = map[GeneralProviderID]GeneralProviderConfig{}
	}
	if s.MCPServers == nil {
		s.MCPServers = []MCPServer{}
	}
	if s.CustomThemes == nil {
		s.CustomThemes = []string{}
	}
}

// Clone returns a deep copy.
func (s UserSettings) Clone() UserSettings {
	out := s

	out.CoreAIProviders = make(map[string]ProviderCredential, len(s.CoreAIProviders))
	for k, v := range s.CoreAIProviders {
		out.CoreAIProviders[k] = v
	}
	out.CustomAIProviders = make(map[string]CustomProviderCredential, len(s.CustomAIProviders))
	for k, v := range s.CustomAIProviders {
		out.CustomAIProviders[k] = v
	}
	out.CustomModels = make(map[string]CustomModel, len(s.CustomModels))
	for k, v := range s.CustomModels {
		v.Abilities = append([]catalog.Ability(nil), v.Abilities...)
		out.CustomModels[k] = v
	}
	out.GeneralProviders = make(map[GeneralProviderID]GeneralProviderConfig, len(s.GeneralProviders))
	for k, v := range s.GeneralProviders {
		out.GeneralProviders[k] = v
	}
	out.MCPServers = make([]MCPServer, len(s.MCPServers))
	for i, srv := range s.MCPServers {
		if srv.Headers != nil {
			headers := make(map[string]string, len(srv.Headers))
			for k, v := range srv.Headers {
				headers[k] = v
			}
			srv.Headers = headers
		}
		out.MCPServers[i] = srv
	}
	out.CustomThemes = append([]string{}, s.CustomThemes...)
	return out
}

// SortedCustomModelKeys returns the custom model keys in sorted order.
func (s UserSettings) SortedCustomModelKeys() []string {
	keys := make([]string, 0, len(s.CustomModels))
	for k := range s.CustomModels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasModelProvider reports whether id names a core or custom provider entry.
func (s UserSettings) HasModelProvider(id string) bool {
	if _, ok := s.CoreAIProviders[id]; ok {
		return true
	}
	_, ok := s.CustomAIProviders[id]
	return ok
}

// Value stores the document as JSON text so it fits both jsonb and TEXT
// columns.
func (s UserSettings) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *UserSettings) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		return fmt.Errorf("UserSettings: document is null")
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("UserSettings: expected []byte or string, got %T", value)
	}

	var out UserSettings
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("UserSettings: %w", err)
	}
	out.Normalize()
	*s = out
	return nil
}

// SettingsRecord is the persisted envelope around a settings document.
// Timestamps are unix milliseconds.
type SettingsRecord struct {
	ID        uuid.UUID    `db:"id"`
	UserID    string       `db:"user_id"`
	Version   int64        `db:"version"`
	Document  UserSettings `db:"document"`
	CreatedAt int64        `db:"created_at"`
	UpdatedAt int64        `db:"updated_at"`
}
