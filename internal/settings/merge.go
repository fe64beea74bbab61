package settings

import (
	"fmt"
	"strings"

	"chat_backend/internal/keys"
	"chat_backend/internal/models"
	"chat_backend/internal/utils"
)

// Each stored field is decided by one of the functions below: a value in
// the update overrides, an absent value preserves what was stored.

// mergeSecret returns the ciphertext to store. A nil newKey carries prev
// forward unchanged, a blank newKey clears it, anything else is encrypted.
func mergeSecret(prev string, newKey *string, enc keys.Manager) (string, error) {
	if newKey == nil {
		return prev, nil
	}
	plaintext := strings.TrimSpace(*newKey)
	if plaintext == "" {
		return "", nil
	}
	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt key: %w", err)
	}
	return ciphertext, nil
}

// mergeCredential applies upd on top of prev. prev is the zero value for
// a provider the user had not configured.
func mergeCredential(prev models.ProviderCredential, upd ProviderUpdate, enc keys.Manager) (models.ProviderCredential, error) {
	key, err := mergeSecret(prev.EncryptedKey, upd.NewKey, enc)
	if err != nil {
		return models.ProviderCredential{}, err
	}
	return models.ProviderCredential{
		Enabled:      utils.Deref(upd.Enabled, prev.Enabled),
		EncryptedKey: key,
	}, nil
}

func mergeCustomProvider(id string, prev models.CustomProviderCredential, upd CustomProviderUpdate, enc keys.Manager) (models.CustomProviderCredential, error) {
	cred, err := mergeCredential(prev.ProviderCredential, ProviderUpdate{Enabled: upd.Enabled, NewKey: upd.NewKey}, enc)
	if err != nil {
		return models.CustomProviderCredential{}, err
	}
	out := models.CustomProviderCredential{
		ProviderCredential: cred,
		Name:               strings.TrimSpace(utils.Deref(upd.Name, prev.Name)),
		Endpoint:           strings.TrimSpace(utils.Deref(upd.Endpoint, prev.Endpoint)),
	}
	if out.Name == "" {
		out.Name = id
	}
	return out, nil
}

// mergeGeneralProvider rejects fields that do not apply to id.
func mergeGeneralProvider(id models.GeneralProviderID, prev models.GeneralProviderConfig, upd GeneralProviderUpdate, enc keys.Manager) (models.GeneralProviderConfig, error) {
	if upd.Country != nil && id != models.Brave && id != models.Serper {
		return models.GeneralProviderConfig{}, validationErrorf("country does not apply to %s", id)
	}
	if (upd.SearchLang != nil || upd.Safesearch != nil) && id != models.Brave {
		return models.GeneralProviderConfig{}, validationErrorf("searchLang and safesearch apply only to brave")
	}
	if upd.Language != nil && id != models.Serper {
		return models.GeneralProviderConfig{}, validationErrorf("language applies only to serper")
	}

	key, err := mergeSecret(prev.EncryptedKey, upd.NewKey, enc)
	if err != nil {
		return models.GeneralProviderConfig{}, err
	}
	return models.GeneralProviderConfig{
		Enabled:      utils.Deref(upd.Enabled, prev.Enabled),
		EncryptedKey: key,
		Country:      utils.Deref(upd.Country, prev.Country),
		SearchLang:   utils.Deref(upd.SearchLang, prev.SearchLang),
		Safesearch:   utils.Deref(upd.Safesearch, prev.Safesearch),
		Language:     utils.Deref(upd.Language, prev.Language),
	}, nil
}

// normalizeCustomModel fills the model id from the map key when omitted.
func normalizeCustomModel(key string, m models.CustomModel) models.CustomModel {
	m.ModelID = strings.TrimSpace(m.ModelID)
	if m.ModelID == "" {
		m.ModelID = key
	}
	m.ProviderID = strings.TrimSpace(m.ProviderID)
	return m
}

// normalizeThemes trims and removes duplicates, keeping first occurrences.
func normalizeThemes(themes []string) []string {
	out := make([]string, 0, len(themes))
	seen := make(map[string]bool, len(themes))
	for _, t := range themes {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
