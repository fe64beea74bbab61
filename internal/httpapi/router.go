package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"chat_backend/internal/auth"
	"chat_backend/internal/catalog"
	"chat_backend/internal/chat"
	"chat_backend/internal/config"
	"chat_backend/internal/logging"
	"chat_backend/internal/middleware"
	"chat_backend/internal/ratelimit"
	"chat_backend/internal/settings"
	"chat_backend/internal/utils"
)

var logger = logging.NewLogger("httpapi")

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Dependencies aggregates all services the HTTP layer needs.
type Dependencies struct {
	Settings      *settings.Service
	Catalog       *catalog.Catalog
	Chat          *chat.Relay
	Identity      auth.IdentityProvider
	RateLimit     ratelimit.Limiter
	Limits        config.RateLimitConfig
	InternalToken string
	CORSOrigins   []string
	HealthChecks  map[string]HealthCheck
}

// NewRouter builds the HTTP handler with all routes registered.
func NewRouter(deps *Dependencies) http.Handler {
	if deps.RateLimit == nil {
		deps.RateLimit = ratelimit.NewNoopLimiter()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	r.Get("/health", deps.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", deps.handleListModels)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity(deps.Identity))

			mutations := middleware.RateLimit(deps.RateLimit, "mutations", deps.Limits.MutationsPerMinute)

			r.Get("/settings", deps.handleGetSettings)
			r.With(mutations).Put("/settings", deps.handleUpdateSettings)
			r.With(mutations).Patch("/settings", deps.handleUpdateSettingsPartial)
			r.With(mutations).Post("/settings/themes", deps.handleAddTheme)
			r.With(mutations).Delete("/settings/themes", deps.handleRemoveTheme)

			r.Get("/onboarding", deps.handleOnboardingStatus)
			r.Post("/onboarding/complete", deps.handleCompleteOnboarding)

			r.Get("/models/available", deps.handleAvailableModels)

			r.With(middleware.RateLimit(deps.RateLimit, "chat", deps.Limits.ChatPerMinute)).
				Post("/chat", deps.handleChat)
		})
	})

	r.Route("/internal", func(r chi.Router) {
		r.Use(middleware.RequireInternalToken(deps.InternalToken))
		r.Get("/registry/{userID}", deps.handleGetRegistry)
	})

	return r
}

// requestLogger logs one line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

func (d *Dependencies) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range d.HealthChecks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		utils.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"failed": failed,
		})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
