package httpapi

import (
	"net/http"

	"chat_backend/internal/auth"
	"chat_backend/internal/middleware"
	"chat_backend/internal/settings"
	"chat_backend/internal/utils"
)

type themeRequest struct {
	URL string `json:"url"`
}

// identity returns the caller; RequireIdentity guarantees it is present.
func identity(r *http.Request) auth.Identity {
	id, _ := middleware.GetIdentity(r.Context())
	return id
}

func (d *Dependencies) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	doc, err := d.Settings.Get(r.Context(), identity(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, doc.View())
}

func (d *Dependencies) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settings.FullUpdateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	caller := identity(r)
	if err := d.Settings.UpdateFull(r.Context(), caller, caller.UserID, req); err != nil {
		respondError(w, r, err)
		return
	}
	utils.RespondNoContent(w)
}

func (d *Dependencies) handleUpdateSettingsPartial(w http.ResponseWriter, r *http.Request) {
	var req settings.PartialUpdateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	caller := identity(r)
	if err := d.Settings.UpdatePartial(r.Context(), caller, caller.UserID, req); err != nil {
		respondError(w, r, err)
		return
	}
	utils.RespondNoContent(w)
}

func (d *Dependencies) handleAddTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := d.Settings.AddTheme(r.Context(), identity(r), req.URL); err != nil {
		respondError(w, r, err)
		return
	}
	utils.RespondNoContent(w)
}

func (d *Dependencies) handleRemoveTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := d.Settings.RemoveTheme(r.Context(), identity(r), req.URL); err != nil {
		respondError(w, r, err)
		return
	}
	utils.RespondNoContent(w)
}

func (d *Dependencies) handleOnboardingStatus(w http.ResponseWriter, r *http.Request) {
	status, err := d.Settings.OnboardingStatus(r.Context(), identity(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, status)
}

func (d *Dependencies) handleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := d.Settings.CompleteOnboarding(r.Context(), identity(r)); err != nil {
		respondError(w, r, err)
		return
	}
	utils.RespondNoContent(w)
}
