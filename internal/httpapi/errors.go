package httpapi

import (
	"errors"
	"net/http"

	"chat_backend/internal/chat"
	"chat_backend/internal/settings"
	"chat_backend/internal/storage"
	"chat_backend/internal/utils"
)

// respondError maps service errors onto HTTP status codes. Unknown errors
// are logged and answered with a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, settings.ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, settings.ErrUnauthorized):
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, settings.ErrValidation),
		errors.Is(err, settings.ErrLimitExceeded),
		errors.Is(err, chat.ErrInvalidRequest),
		errors.Is(err, chat.ErrUnknownModel),
		errors.Is(err, chat.ErrNoAdapter):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrVersionConflict), errors.Is(err, storage.ErrSettingsExists):
		utils.RespondWithError(w, http.StatusConflict, "Settings were modified concurrently, retry the request")
	case errors.Is(err, chat.ErrAllAdaptersFailed):
		logger.Warn("chat relay failed", "path", r.URL.Path, "error", err)
		utils.RespondWithError(w, http.StatusBadGateway, "All providers failed for this model")
	default:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
