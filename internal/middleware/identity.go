package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"chat_backend/internal/auth"
	"chat_backend/internal/logging"
	"chat_backend/internal/utils"
)

// ContextKey defines the type for context keys to avoid conflicts
type ContextKey string

const (
	// IdentityKey is the context key for the authenticated caller
	IdentityKey ContextKey = "identity"
)

var logger = logging.NewLogger("middleware")

// bearerToken extracts the token from Authorization, falling back to X-API-Key.
func bearerToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.Header.Get("X-API-Key")
	}
	return strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
}

// RequireIdentity verifies the bearer token and embeds the caller's identity
// into the request context. Anonymous requests are rejected with 401.
func RequireIdentity(provider auth.IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := provider.Identify(r.Context(), bearerToken(r))
			if err != nil {
				if errors.Is(err, auth.ErrMissingToken) {
					utils.RespondWithError(w, http.StatusUnauthorized, "Missing authentication token")
					return
				}
				logger.Debug("token rejected", "path", r.URL.Path, "error", err)
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetIdentity retrieves the caller identity from the request context
func GetIdentity(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(auth.Identity)
	return identity, ok
}

// RequireInternalToken guards service-to-service routes with a shared token.
// An empty configured token disables the routes entirely.
func RequireInternalToken(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				utils.RespondWithError(w, http.StatusNotFound, "Not found")
				return
			}

			token := bearerToken(r)
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid service token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
