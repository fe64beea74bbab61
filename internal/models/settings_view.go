package models

// CredentialView is a provider credential without key material.
type CredentialView struct {
	Enabled  bool   `json:"enabled"`
	HasKey   bool   `json:"hasKey"`
	Name     string `json:"name,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

// GeneralProviderView is a general integration without key material.
type GeneralProviderView struct {
	Enabled    bool   `json:"enabled"`
	HasKey     bool   `json:"hasKey"`
	Country    string `json:"country,omitempty"`
	SearchLang string `json:"searchLang,omitempty"`
	Safesearch string `json:"safesearch,omitempty"`
	Language   string `json:"language,omitempty"`
}

// SettingsView is what clients see of a UserSettings document.
type SettingsView struct {
	UserID                        string                                    `json:"userId"`
	SearchProvider                GeneralProviderID                         `json:"searchProvider,omitempty"`
	SearchIncludeSourcesByDefault bool                                      `json:"searchIncludeSourcesByDefault"`
	TitleGenerationModel          string                                    `json:"titleGenerationModel,omitempty"`
	CoreAIProviders               map[string]CredentialView                 `json:"coreAIProviders"`
	CustomAIProviders             map[string]CredentialView                 `json:"customAIProviders"`
	CustomModels                  map[string]CustomModel                    `json:"customModels"`
	GeneralProviders              map[GeneralProviderID]GeneralProviderView `json:"generalProviders"`
	MCPServers                    []MCPServer                               `json:"mcpServers"`
	CustomThemes                  []string                                  `json:"customThemes"`
	Customization                 Customization                             `json:"customization"`
	OnboardingCompleted           bool                                      `json:"onboardingCompleted"`
}

// View strips ciphertext from the document.
func (s UserSettings) View() SettingsView {
	c := s.Clone()
	v := SettingsView{
		UserID:                        c.UserID,
		SearchProvider:                c.SearchProvider,
		SearchIncludeSourcesByDefault: c.SearchIncludeSourcesByDefault,
		TitleGenerationModel:          c.TitleGenerationModel,
		CoreAIProviders:               make(map[string]CredentialView, len(c.CoreAIProviders)),
		CustomAIProviders:             make(map[string]CredentialView, len(c.CustomAIProviders)),
		CustomModels:                  c.CustomModels,
		GeneralProviders:              make(map[GeneralProviderID]GeneralProviderView, len(c.GeneralProviders)),
		MCPServers:                    c.MCPServers,
		CustomThemes:                  c.CustomThemes,
		Customization:                 c.Customization,
		OnboardingCompleted:           c.OnboardingCompleted,
	}
	for id, cred := range c.CoreAIProviders {
		v.CoreAIProviders[id] = CredentialView{Enabled: cred.Enabled, HasKey: cred.EncryptedKey != ""}
	}
	for id, cred := range c.CustomAIProviders {
		v.CustomAIProviders[id] = CredentialView{
			Enabled:  cred.Enabled,
			HasKey:   cred.EncryptedKey != "",
			Name:     cred.Name,
			Endpoint: cred.Endpoint,
		}
	}
	for id, gp := range c.GeneralProviders {
		v.GeneralProviders[id] = GeneralProviderView{
			Enabled:    gp.Enabled,
			HasKey:     gp.EncryptedKey != "",
			Country:    gp.Country,
			SearchLang: gp.SearchLang,
			Safesearch: gp.Safesearch,
			Language:   gp.Language,
		}
	}
	return v
}
