package registry

import (
	"sort"

	"chat_backend/internal/providers"
)

// ProviderGroup is one section of the model picker.
type ProviderGroup struct {
	ProviderID string   `json:"providerId"`
	Name       string   `json:"name"`
	Models     []string `json:"models"`
}

// GroupByProvider groups available models by the provider of each usable
// adapter. Internal adapters are listed under their core provider. Groups
// are sorted by provider id and models keep registry order.
func GroupByProvider(reg Registry) []ProviderGroup {
	groups := make(map[string]*ProviderGroup)

	for _, id := range reg.Order {
		m, ok := reg.Models[id]
		if !ok {
			continue
		}
		seen := make(map[string]bool)
		for _, raw := range m.AvailableAdapters {
			a, err := providers.ParseAdapter(raw)
			if err != nil {
				continue
			}
			pid := a.Provider.ID
			if seen[pid] {
				continue
			}
			seen[pid] = true

			g, ok := groups[pid]
			if !ok {
				g = &ProviderGroup{ProviderID: pid, Name: groupName(reg, a.Provider)}
				groups[pid] = g
			}
			g.Models = append(g.Models, id)
		}
	}

	out := make([]ProviderGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProviderID < out[j].ProviderID })
	return out
}

func groupName(reg Registry, ref providers.ProviderRef) string {
	if ref.Kind == providers.KindCustom {
		if cred, ok := reg.Providers[ref.ID]; ok && cred.Name != "" {
			return cred.Name
		}
	}
	return providers.DisplayName(ref.ID)
}
