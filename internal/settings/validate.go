package settings

import (
	"fmt"
	"strings"

	"chat_backend/internal/catalog"
	"chat_backend/internal/models"
	"chat_backend/internal/providers"
)

// validateSettings checks a document before it is written.
func validateSettings(s models.UserSettings) error {
	if !models.IsSearchProvider(s.SearchProvider) {
		return validationErrorf("search provider %q is not a search integration", s.SearchProvider)
	}

	for id := range s.CoreAIProviders {
		if !providers.IsCore(id) && id != providers.AggregatorID {
			return validationErrorf("unknown core provider %q", id)
		}
	}

	for id, cred := range s.CustomAIProviders {
		if err := validateCustomProviderID(id); err != nil {
			return err
		}
		if err := providers.ValidateEndpoint(cred.Endpoint); err != nil {
			return validationErrorf("custom provider %q: %v", id, err)
		}
	}

	for key, m := range s.CustomModels {
		if strings.TrimSpace(key) == "" {
			return validationErrorf("custom model key is empty")
		}
		if m.ProviderID == "" || !s.HasModelProvider(m.ProviderID) {
			return validationErrorf("custom model %q references unknown provider %q", key, m.ProviderID)
		}
		if strings.Contains(m.ProviderID, ":") {
			return validationErrorf("custom model %q has an invalid provider id", key)
		}
		for _, a := range m.Abilities {
			if !catalog.ValidAbility(a) {
				return validationErrorf("custom model %q has unknown ability %q", key, a)
			}
		}
		if m.ContextLength < 0 || m.MaxTokens < 0 {
			return validationErrorf("custom model %q has a negative limit", key)
		}
	}

	for id := range s.GeneralProviders {
		if !models.IsGeneralProvider(id) {
			return validationErrorf("unknown general provider %q", id)
		}
	}

	for i, srv := range s.MCPServers {
		if strings.TrimSpace(srv.Name) == "" {
			return validationErrorf("mcp server %d has no name", i)
		}
		if err := providers.ValidateEndpoint(srv.URL); err != nil {
			return validationErrorf("mcp server %q: %v", srv.Name, err)
		}
	}

	return validateThemes(s.CustomThemes)
}

func validateThemes(themes []string) error {
	if len(themes) > models.MaxCustomThemes {
		return fmt.Errorf("%w: at most %d custom themes", ErrLimitExceeded, models.MaxCustomThemes)
	}
	for _, t := range themes {
		if err := validateThemeURL(t); err != nil {
			return err
		}
	}
	return nil
}

func validateThemeURL(url string) error {
	if err := providers.ValidateEndpoint(url); err != nil {
		return validationErrorf("theme %q: %v", url, err)
	}
	return nil
}

// validateCustomProviderID rejects ids that would parse as a built-in
// provider segment.
func validateCustomProviderID(id string) error {
	if strings.TrimSpace(id) == "" || strings.Contains(id, ":") {
		return validationErrorf("invalid custom provider id %q", id)
	}
	ref, err := providers.ParseProviderRef(id)
	if err != nil || ref.Kind != providers.KindCustom || strings.HasPrefix(id, providers.InternalPrefix) {
		return validationErrorf("custom provider id %q is reserved", id)
	}
	return nil
}
