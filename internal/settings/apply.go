package settings

import (
	"sort"
	"strings"

	"chat_backend/internal/models"
)

// applyFull rewrites doc from a full update request.
func (s *Service) applyFull(doc *models.UserSettings, req FullUpdateRequest) error {
	doc.SearchProvider = req.SearchProvider
	if doc.SearchProvider == "" {
		doc.SearchProvider = models.DefaultSearchProvider
	}
	doc.SearchIncludeSourcesByDefault = req.SearchIncludeSourcesByDefault
	doc.TitleGenerationModel = strings.TrimSpace(req.TitleGenerationModel)
	if doc.TitleGenerationModel == "" {
		doc.TitleGenerationModel = models.DefaultTitleGenerationModel
	}

	core := make(map[string]models.ProviderCredential, len(req.CoreAIProviders))
	for _, id := range sortedKeys(req.CoreAIProviders) {
		cred, err := mergeCredential(doc.CoreAIProviders[id], req.CoreAIProviders[id], s.keys)
		if err != nil {
			return err
		}
		core[id] = cred
	}
	doc.CoreAIProviders = core

	custom := make(map[string]models.CustomProviderCredential, len(req.CustomAIProviders))
	for _, id := range sortedKeys(req.CustomAIProviders) {
		if err := validateCustomProviderID(id); err != nil {
			return err
		}
		cred, err := mergeCustomProvider(id, doc.CustomAIProviders[id], req.CustomAIProviders[id], s.keys)
		if err != nil {
			return err
		}
		custom[id] = cred
	}
	doc.CustomAIProviders = custom

	customModels := make(map[string]models.CustomModel, len(req.CustomModels))
	for key, m := range req.CustomModels {
		customModels[key] = normalizeCustomModel(key, m)
	}
	doc.CustomModels = customModels

	for _, id := range sortedGeneralKeys(req.GeneralProviders) {
		if !models.IsGeneralProvider(id) {
			return validationErrorf("unknown general provider %q", id)
		}
		gp, err := mergeGeneralProvider(id, doc.GeneralProviders[id], req.GeneralProviders[id], s.keys)
		if err != nil {
			return err
		}
		doc.GeneralProviders[id] = gp
	}

	doc.MCPServers = append([]models.MCPServer{}, req.MCPServers...)
	doc.CustomThemes = normalizeThemes(req.CustomThemes)
	doc.Customization = req.Customization
	return nil
}

// applyPartial applies the fields present in req to doc.
func (s *Service) applyPartial(doc *models.UserSettings, req PartialUpdateRequest) error {
	if req.SearchProvider != nil {
		doc.SearchProvider = *req.SearchProvider
	}
	if req.SearchIncludeSourcesByDefault != nil {
		doc.SearchIncludeSourcesByDefault = *req.SearchIncludeSourcesByDefault
	}
	if req.TitleGenerationModel != nil {
		doc.TitleGenerationModel = strings.TrimSpace(*req.TitleGenerationModel)
	}

	var removedProviders []string
	for _, id := range sortedKeys(req.CoreProviderUpdates) {
		upd := req.CoreProviderUpdates[id]
		if upd == nil {
			if _, ok := doc.CoreAIProviders[id]; ok {
				delete(doc.CoreAIProviders, id)
				removedProviders = append(removedProviders, id)
			}
			continue
		}
		cred, err := mergeCredential(doc.CoreAIProviders[id], *upd, s.keys)
		if err != nil {
			return err
		}
		doc.CoreAIProviders[id] = cred
	}

	for _, id := range sortedKeys(req.CustomProviderUpdates) {
		upd := req.CustomProviderUpdates[id]
		if upd == nil {
			if _, ok := doc.CustomAIProviders[id]; ok {
				delete(doc.CustomAIProviders, id)
				removedProviders = append(removedProviders, id)
			}
			continue
		}
		if err := validateCustomProviderID(id); err != nil {
			return err
		}
		cred, err := mergeCustomProvider(id, doc.CustomAIProviders[id], *upd, s.keys)
		if err != nil {
			return err
		}
		doc.CustomAIProviders[id] = cred
	}

	for _, id := range sortedGeneralKeys(req.GeneralProviderUpdates) {
		upd := req.GeneralProviderUpdates[id]
		if upd == nil {
			delete(doc.GeneralProviders, id)
			continue
		}
		if !models.IsGeneralProvider(id) {
			return validationErrorf("unknown general provider %q", id)
		}
		gp, err := mergeGeneralProvider(id, doc.GeneralProviders[id], *upd, s.keys)
		if err != nil {
			return err
		}
		doc.GeneralProviders[id] = gp
	}

	for _, key := range sortedKeys(req.CustomModelUpdates) {
		m := req.CustomModelUpdates[key]
		if m == nil {
			delete(doc.CustomModels, key)
			continue
		}
		doc.CustomModels[key] = normalizeCustomModel(key, *m)
	}

	// Custom models are deleted together with their provider.
	for _, id := range removedProviders {
		if doc.HasModelProvider(id) {
			continue
		}
		for key, m := range doc.CustomModels {
			if m.ProviderID == id {
				delete(doc.CustomModels, key)
			}
		}
	}

	if req.MCPServers != nil {
		doc.MCPServers = append([]models.MCPServer{}, (*req.MCPServers)...)
	}
	if req.CustomThemes != nil {
		doc.CustomThemes = normalizeThemes(*req.CustomThemes)
	}
	if req.Customization != nil {
		doc.Customization = *req.Customization
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedGeneralKeys[V any](m map[models.GeneralProviderID]V) []models.GeneralProviderID {
	out := make([]models.GeneralProviderID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
