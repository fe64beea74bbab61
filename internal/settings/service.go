// Package settings implements reads and writes of per-user settings.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"chat_backend/internal/audit"
	"chat_backend/internal/auth"
	"chat_backend/internal/catalog"
	"chat_backend/internal/keys"
	"chat_backend/internal/logging"
	"chat_backend/internal/models"
	"chat_backend/internal/registry"
	"chat_backend/internal/storage"
)

// DefaultMaxRetries is how many times a write is retried after losing a
// version race.
const DefaultMaxRetries = 3

// Audit operation names.
const (
	OpUpdateFull         = "update_full"
	OpUpdatePartial      = "update_partial"
	OpAddTheme           = "add_theme"
	OpRemoveTheme        = "remove_theme"
	OpCompleteOnboarding = "complete_onboarding"
)

var logger = logging.NewLogger("settings")

// Service reads and mutates user settings.
type Service struct {
	store      storage.SettingsStore
	keys       keys.Manager
	catalog    *catalog.Catalog
	audit      audit.Sink
	maxRetries int
	now        func() time.Time
}

// NewService wires the settings service. A nil sink disables auditing.
func NewService(store storage.SettingsStore, keyManager keys.Manager, cat *catalog.Catalog, sink audit.Sink) *Service {
	if sink == nil {
		sink = audit.NewNoopSink()
	}
	return &Service{
		store:      store,
		keys:       keyManager,
		catalog:    cat,
		audit:      sink,
		maxRetries: DefaultMaxRetries,
		now:        time.Now,
	}
}

// authorize checks that identity may act on userID.
func authorize(identity auth.Identity, userID string) error {
	if identity.UserID == "" {
		return ErrUnauthorized
	}
	if identity.UserID != userID {
		return ErrForbidden
	}
	return nil
}

// load returns the stored record, or nil and a default document when the
// user has never written settings.
func (s *Service) load(ctx context.Context, userID string) (*models.SettingsRecord, models.UserSettings, error) {
	rec, err := s.store.FindByUserID(ctx, userID)
	if errors.Is(err, storage.ErrSettingsNotFound) {
		return nil, models.DefaultSettings(userID), nil
	}
	if err != nil {
		return nil, models.UserSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	doc := rec.Document.Clone()
	doc.UserID = userID
	return rec, doc, nil
}

// Get returns the caller's settings. Users without stored settings get the
// defaults, which are not persisted.
func (s *Service) Get(ctx context.Context, identity auth.Identity) (models.UserSettings, error) {
	if err := authorize(identity, identity.UserID); err != nil {
		return models.UserSettings{}, err
	}
	_, doc, err := s.load(ctx, identity.UserID)
	return doc, err
}

// Registry resolves userID's providers and models. It is meant for trusted
// server-side callers and performs no identity check.
func (s *Service) Registry(ctx context.Context, userID string) (registry.Registry, models.UserSettings, error) {
	if userID == "" {
		return registry.Registry{}, models.UserSettings{}, validationErrorf("user id is required")
	}
	_, doc, err := s.load(ctx, userID)
	if err != nil {
		return registry.Registry{}, models.UserSettings{}, err
	}
	return registry.Resolve(s.catalog, doc, s.keys), doc, nil
}

// UpdateFull replaces userID's settings from req.
func (s *Service) UpdateFull(ctx context.Context, identity auth.Identity, userID string, req FullUpdateRequest) error {
	if err := authorize(identity, userID); err != nil {
		return err
	}
	_, err := s.mutate(ctx, userID, OpUpdateFull, func(doc *models.UserSettings) error {
		return s.applyFull(doc, req)
	})
	return err
}

// UpdatePartial applies the fields present in req to userID's settings.
func (s *Service) UpdatePartial(ctx context.Context, identity auth.Identity, userID string, req PartialUpdateRequest) error {
	if err := authorize(identity, userID); err != nil {
		return err
	}
	_, err := s.mutate(ctx, userID, OpUpdatePartial, func(doc *models.UserSettings) error {
		return s.applyPartial(doc, req)
	})
	return err
}

// AddTheme appends url to the caller's themes. A duplicate or a full list
// leaves the themes unchanged without error.
func (s *Service) AddTheme(ctx context.Context, identity auth.Identity, url string) error {
	if err := authorize(identity, identity.UserID); err != nil {
		return err
	}
	themes := normalizeThemes([]string{url})
	if len(themes) == 0 {
		return validationErrorf("theme url is required")
	}
	if err := validateThemeURL(themes[0]); err != nil {
		return err
	}

	_, err := s.mutate(ctx, identity.UserID, OpAddTheme, func(doc *models.UserSettings) error {
		if len(doc.CustomThemes) >= models.MaxCustomThemes {
			return nil
		}
		for _, t := range doc.CustomThemes {
			if t == themes[0] {
				return nil
			}
		}
		doc.CustomThemes = append(doc.CustomThemes, themes[0])
		return nil
	})
	return err
}

// RemoveTheme drops url from the caller's themes if present.
func (s *Service) RemoveTheme(ctx context.Context, identity auth.Identity, url string) error {
	if err := authorize(identity, identity.UserID); err != nil {
		return err
	}
	_, err := s.mutate(ctx, identity.UserID, OpRemoveTheme, func(doc *models.UserSettings) error {
		kept := doc.CustomThemes[:0]
		for _, t := range doc.CustomThemes {
			if t != url {
				kept = append(kept, t)
			}
		}
		doc.CustomThemes = kept
		return nil
	})
	return err
}

// OnboardingStatus reports whether the caller still has to see onboarding.
func (s *Service) OnboardingStatus(ctx context.Context, identity auth.Identity) (OnboardingStatus, error) {
	doc, err := s.Get(ctx, identity)
	if err != nil {
		return OnboardingStatus{}, err
	}
	return OnboardingStatus{ShouldShowOnboarding: !doc.OnboardingCompleted}, nil
}

// CompleteOnboarding marks onboarding done for the caller.
func (s *Service) CompleteOnboarding(ctx context.Context, identity auth.Identity) error {
	if err := authorize(identity, identity.UserID); err != nil {
		return err
	}
	_, err := s.mutate(ctx, identity.UserID, OpCompleteOnboarding, func(doc *models.UserSettings) error {
		doc.OnboardingCompleted = true
		return nil
	})
	return err
}

// mutate runs a read-modify-write of userID's document. apply edits a copy
// of the current document; when nothing changed no write happens. Losing a
// version race re-runs the whole cycle up to maxRetries times.
func (s *Service) mutate(ctx context.Context, userID, op string, apply func(doc *models.UserSettings) error) (*models.SettingsRecord, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, current, err := s.load(ctx, userID)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		if err := apply(&next); err != nil {
			return nil, err
		}
		next.UserID = userID
		next.Normalize()

		fields, err := changedFields(current, next)
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			return rec, nil
		}
		if err := validateSettings(next); err != nil {
			return nil, err
		}

		var saved *models.SettingsRecord
		if rec == nil {
			saved, err = s.store.Insert(ctx, next)
		} else {
			saved, err = s.store.Patch(ctx, rec.ID, rec.Version, next)
		}
		if errors.Is(err, storage.ErrVersionConflict) || errors.Is(err, storage.ErrSettingsExists) {
			lastErr = err
			logger.Debug("settings write lost a race, retrying", "user_id", userID, "operation", op, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save settings: %w", err)
		}

		if !s.audit.Enqueue(audit.Record{
			Timestamp: s.now().UTC(),
			UserID:    userID,
			Operation: op,
			Fields:    fields,
			Version:   saved.Version,
		}) {
			logger.Warn("audit record dropped", "user_id", userID, "operation", op)
		}
		logger.Info("settings updated", "user_id", userID, "operation", op, "version", saved.Version)
		return saved, nil
	}

	logger.Warn("settings write gave up", "user_id", userID, "operation", op, "error", lastErr)
	return nil, fmt.Errorf("settings update failed after %d attempts: %w", s.maxRetries+1, lastErr)
}

// changedFields lists the top-level JSON fields that differ between a and b.
func changedFields(a, b models.UserSettings) ([]string, error) {
	before, err := topLevelFields(a)
	if err != nil {
		return nil, err
	}
	after, err := topLevelFields(b)
	if err != nil {
		return nil, err
	}

	var fields []string
	for name, value := range after {
		if string(before[name]) != string(value) {
			fields = append(fields, name)
		}
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields, nil
}

func topLevelFields(s models.UserSettings) (map[string]json.RawMessage, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return out, nil
}
