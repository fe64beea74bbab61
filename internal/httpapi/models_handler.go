package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"chat_backend/internal/catalog"
	"chat_backend/internal/chat"
	"chat_backend/internal/models"
	"chat_backend/internal/registry"
	"chat_backend/internal/utils"
)

type modelsResponse struct {
	Models []catalog.ModelDescriptor `json:"models"`
}

type availableModelsResponse struct {
	Groups []registry.ProviderGroup  `json:"groups"`
	Models []registry.EffectiveModel `json:"models"`
}

type registryResponse struct {
	registry.Registry
	Settings models.SettingsView `json:"settings"`
}

func (d *Dependencies) handleListModels(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, modelsResponse{Models: d.Catalog.ListModels()})
}

// handleAvailableModels serves the model picker for the caller.
func (d *Dependencies) handleAvailableModels(w http.ResponseWriter, r *http.Request) {
	reg, _, err := d.Settings.Registry(r.Context(), identity(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := availableModelsResponse{
		Groups: registry.GroupByProvider(reg),
		Models: make([]registry.EffectiveModel, 0, len(reg.Order)),
	}
	for _, id := range reg.Order {
		resp.Models = append(resp.Models, reg.Models[id])
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// handleGetRegistry serves the resolved registry to trusted services.
// API keys are never serialized.
func (d *Dependencies) handleGetRegistry(w http.ResponseWriter, r *http.Request) {
	reg, doc, err := d.Settings.Registry(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, registryResponse{Registry: reg, Settings: doc.View()})
}

func (d *Dependencies) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := d.Chat.Chat(r.Context(), identity(r).UserID, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
