package settings

import "chat_backend/internal/models"

// ProviderUpdate changes one core or aggregator credential. A nil NewKey
// keeps the stored key; an empty NewKey clears it.
type ProviderUpdate struct {
	Enabled *bool   `json:"enabled,omitempty"`
	NewKey  *string `json:"newKey,omitempty"`
}

// CustomProviderUpdate changes one user-defined provider.
type CustomProviderUpdate struct {
	Enabled  *bool   `json:"enabled,omitempty"`
	Name     *string `json:"name,omitempty"`
	Endpoint *string `json:"endpoint,omitempty"`
	NewKey   *string `json:"newKey,omitempty"`
}

// GeneralProviderUpdate changes one search or memory integration.
// Country applies to brave and serper, SearchLang and Safesearch to brave,
// Language to serper.
type GeneralProviderUpdate struct {
	Enabled    *bool   `json:"enabled,omitempty"`
	NewKey     *string `json:"newKey,omitempty"`
	Country    *string `json:"country,omitempty"`
	SearchLang *string `json:"searchLang,omitempty"`
	Safesearch *string `json:"safesearch,omitempty"`
	Language   *string `json:"language,omitempty"`
}

// FullUpdateRequest replaces the user's settings. Core and custom provider
// maps are replaced wholesale; general providers are merged per entry.
// Onboarding state is left alone.
type FullUpdateRequest struct {
	SearchProvider                models.GeneralProviderID                           `json:"searchProvider"`
	SearchIncludeSourcesByDefault bool                                               `json:"searchIncludeSourcesByDefault"`
	TitleGenerationModel          string                                             `json:"titleGenerationModel"`
	CoreAIProviders               map[string]ProviderUpdate                          `json:"coreAIProviders"`
	CustomAIProviders             map[string]CustomProviderUpdate                    `json:"customAIProviders"`
	CustomModels                  map[string]models.CustomModel                      `json:"customModels"`
	GeneralProviders              map[models.GeneralProviderID]GeneralProviderUpdate `json:"generalProviders"`
	MCPServers                    []models.MCPServer                                 `json:"mcpServers"`
	CustomThemes                  []string                                           `json:"customThemes"`
	Customization                 models.Customization                               `json:"customization"`
}

// PartialUpdateRequest applies only the fields present. Map entries are
// upserted per key and a JSON null value deletes the key.
type PartialUpdateRequest struct {
	SearchProvider                *models.GeneralProviderID                           `json:"searchProvider,omitempty"`
	SearchIncludeSourcesByDefault *bool                                               `json:"searchIncludeSourcesByDefault,omitempty"`
	TitleGenerationModel          *string                                             `json:"titleGenerationModel,omitempty"`
	CoreProviderUpdates           map[string]*ProviderUpdate                          `json:"coreProviderUpdates,omitempty"`
	CustomProviderUpdates         map[string]*CustomProviderUpdate                    `json:"customProviderUpdates,omitempty"`
	GeneralProviderUpdates        map[models.GeneralProviderID]*GeneralProviderUpdate `json:"generalProviderUpdates,omitempty"`
	CustomModelUpdates            map[string]*models.CustomModel                      `json:"customModelUpdates,omitempty"`
	MCPServers                    *[]models.MCPServer                                 `json:"mcpServers,omitempty"`
	CustomThemes                  *[]string                                           `json:"customThemes,omitempty"`
	Customization                 *models.Customization                               `json:"customization,omitempty"`
}

// OnboardingStatus tells the client whether to show onboarding.
type OnboardingStatus struct {
	ShouldShowOnboarding bool `json:"shouldShowOnboarding"`
}
