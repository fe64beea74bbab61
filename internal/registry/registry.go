// Package registry intersects the model catalog with a user's settings to
// find which adapters that user can actually call.
package registry

import (
	"sort"

	"chat_backend/internal/catalog"
	"chat_backend/internal/logging"
	"chat_backend/internal/models"
	"chat_backend/internal/providers"
)

var logger = logging.NewLogger("registry")

// ResolvedCredential is a decrypted, usable provider credential.
type ResolvedCredential struct {
	ProviderID string         `json:"providerId"`
	Kind       providers.Kind `json:"kind"`
	APIKey     string         `json:"-"`
	Name       string         `json:"name,omitempty"`
	Endpoint   string         `json:"endpoint,omitempty"`
}

// EffectiveModel is a model together with the adapters a user can use.
type EffectiveModel struct {
	catalog.ModelDescriptor
	AvailableAdapters []string `json:"availableAdapters"`
	Custom            bool     `json:"custom,omitempty"`
}

// Available reports whether at least one adapter is usable.
func (m EffectiveModel) Available() bool {
	return len(m.AvailableAdapters) > 0
}

// Preferred returns the first available adapter.
func (m EffectiveModel) Preferred() (string, bool) {
	if len(m.AvailableAdapters) == 0 {
		return "", false
	}
	return m.AvailableAdapters[0], true
}

// Registry is the per-user view of providers and models.
type Registry struct {
	Providers map[string]ResolvedCredential `json:"providers"`
	Models    map[string]EffectiveModel     `json:"models"`
	// Order lists model ids: catalog order first, then custom-only models
	// in key order.
	Order []string `json:"order"`
}

// Decrypter is the part of key management the resolver needs.
type Decrypter interface {
	Decrypt(ciphertext string) (string, error)
}

// Resolve builds the registry for one settings snapshot. It never fails:
// missing, disabled or undecryptable credentials only reduce availability.
// The result depends only on its inputs.
func Resolve(cat *catalog.Catalog, settings models.UserSettings, dec Decrypter) Registry {
	reg := Registry{
		Providers: resolveProviders(settings, dec),
		Models:    make(map[string]EffectiveModel),
	}

	for _, m := range cat.ListModels() {
		reg.Models[m.ID] = EffectiveModel{
			ModelDescriptor:   m,
			AvailableAdapters: availableAdapters(m.Adapters, reg.Providers),
		}
		reg.Order = append(reg.Order, m.ID)
	}

	for _, key := range settings.SortedCustomModelKeys() {
		cm := settings.CustomModels[key]
		if !cm.Enabled {
			continue
		}
		if _, exists := reg.Models[key]; !exists {
			reg.Order = append(reg.Order, key)
		}
		reg.Models[key] = customModel(key, cm, reg.Providers)
	}

	return reg
}

func resolveProviders(settings models.UserSettings, dec Decrypter) map[string]ResolvedCredential {
	out := make(map[string]ResolvedCredential)

	for _, id := range sortedKeys(settings.CoreAIProviders) {
		cred := settings.CoreAIProviders[id]
		key, ok := decryptCredential(settings.UserID, id, cred, dec)
		if !ok {
			continue
		}
		kind := providers.KindCore
		if id == providers.AggregatorID {
			kind = providers.KindAggregator
		}
		out[id] = ResolvedCredential{
			ProviderID: id,
			Kind:       kind,
			APIKey:     key,
			Name:       providers.DisplayName(id),
		}
	}

	for _, id := range sortedKeys(settings.CustomAIProviders) {
		cred := settings.CustomAIProviders[id]
		key, ok := decryptCredential(settings.UserID, id, cred.ProviderCredential, dec)
		if !ok {
			continue
		}
		out[id] = ResolvedCredential{
			ProviderID: id,
			Kind:       providers.KindCustom,
			APIKey:     key,
			Name:       cred.Name,
			Endpoint:   cred.Endpoint,
		}
	}

	return out
}

func decryptCredential(userID, providerID string, cred models.ProviderCredential, dec Decrypter) (string, bool) {
	if !cred.Enabled {
		return "", false
	}
	if cred.EncryptedKey == "" {
		logger.Warn("enabled provider has no key", "user_id", userID, "provider", providerID)
		return "", false
	}
	if dec == nil {
		return "", false
	}

	key, err := dec.Decrypt(cred.EncryptedKey)
	if err != nil {
		logger.Warn("failed to decrypt provider key", "user_id", userID, "provider", providerID, "error", err)
		return "", false
	}
	if key == "" {
		return "", false
	}
	return key, true
}

// availableAdapters keeps catalog order. Internal adapters are always
// available; the rest need a resolved credential for their provider.
func availableAdapters(adapters []string, creds map[string]ResolvedCredential) []string {
	out := make([]string, 0, len(adapters))
	for _, raw := range adapters {
		a, err := providers.ParseAdapter(raw)
		if err != nil {
			continue
		}
		if a.Provider.Kind == providers.KindInternal {
			out = append(out, raw)
			continue
		}
		if _, ok := creds[a.Provider.ID]; ok {
			out = append(out, raw)
		}
	}
	return out
}

func customModel(key string, cm models.CustomModel, creds map[string]ResolvedCredential) EffectiveModel {
	name := cm.Name
	if name == "" {
		name = cm.ModelID
	}

	adapter := cm.Adapter()
	return EffectiveModel{
		ModelDescriptor: catalog.ModelDescriptor{
			ID:            key,
			Name:          name,
			Adapters:      []string{adapter},
			Abilities:     append([]catalog.Ability(nil), cm.Abilities...),
			Mode:          catalog.ModeText,
			ContextLength: cm.ContextLength,
			MaxTokens:     cm.MaxTokens,
		},
		AvailableAdapters: availableAdapters([]string{adapter}, creds),
		Custom:            true,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
