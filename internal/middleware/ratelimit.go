package middleware

import (
	"net/http"
	"strconv"

	"chat_backend/internal/ratelimit"
	"chat_backend/internal/utils"
)

// RateLimit enforces limit requests per window for each authenticated user,
// bucketed by scope. Must run after RequireIdentity. Limiter failures let
// the request through.
func RateLimit(limiter ratelimit.Limiter, scope string, limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := GetIdentity(r.Context())
			if !ok {
				utils.RespondWithError(w, http.StatusUnauthorized, "Missing authentication token")
				return
			}

			allowed, remaining, resetAt, err := limiter.AllowWithDetails(r.Context(), scope+":"+identity.UserID, limit)
			if err != nil {
				logger.Warn("rate limiter unavailable", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if remaining >= 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
			}

			if !allowed {
				utils.RespondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
