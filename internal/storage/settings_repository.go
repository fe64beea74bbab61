package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chat_backend/internal/models"
)

// SettingsStore persists one settings document per user.
type SettingsStore interface {
	// FindByUserID returns ErrSettingsNotFound when the user has no document
	FindByUserID(ctx context.Context, userID string) (*models.SettingsRecord, error)

	// Insert stores the first document for a user at version 1.
	// Returns ErrSettingsExists if one is already stored.
	Insert(ctx context.Context, doc models.UserSettings) (*models.SettingsRecord, error)

	// Patch replaces the document if its version still equals expectedVersion.
	// Returns ErrVersionConflict otherwise.
	Patch(ctx context.Context, id uuid.UUID, expectedVersion int64, doc models.UserSettings) (*models.SettingsRecord, error)
}

// SettingsRepository handles settings database operations
type SettingsRepository struct {
	db  *DB
	now func() time.Time
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db, now: time.Now}
}

const selectSettings = `
	SELECT id, user_id, version, document, created_at, updated_at
	FROM user_settings
`

// FindByUserID retrieves the settings document of a user
func (r *SettingsRepository) FindByUserID(ctx context.Context, userID string) (*models.SettingsRecord, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var record models.SettingsRecord
	query := r.db.conn.Rebind(selectSettings + ` WHERE user_id = ?`)

	err := r.db.conn.GetContext(ctx, &record, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &record, nil
}

func (r *SettingsRepository) findByID(ctx context.Context, id uuid.UUID) (*models.SettingsRecord, error) {
	var record models.SettingsRecord
	query := r.db.conn.Rebind(selectSettings + ` WHERE id = ?`)

	err := r.db.conn.GetContext(ctx, &record, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &record, nil
}

// Insert creates the settings document of a user
func (r *SettingsRepository) Insert(ctx context.Context, doc models.UserSettings) (*models.SettingsRecord, error) {
	if doc.UserID == "" {
		return nil, fmt.Errorf("failed to insert settings: user id is required")
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	now := r.now().UnixMilli()
	record := models.SettingsRecord{
		ID:        uuid.New(),
		UserID:    doc.UserID,
		Version:   1,
		Document:  doc,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := r.db.conn.Rebind(`
		INSERT INTO user_settings (id, user_id, version, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`)

	result, err := r.db.conn.ExecContext(ctx, query,
		record.ID, record.UserID, record.Version, record.Document, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert settings: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to insert settings: %w", err)
	}
	if rows == 0 {
		return nil, ErrSettingsExists
	}

	record.Document = doc.Clone()
	return &record, nil
}

// Patch conditionally replaces a settings document and bumps its version
func (r *SettingsRepository) Patch(ctx context.Context, id uuid.UUID, expectedVersion int64, doc models.UserSettings) (*models.SettingsRecord, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	query := r.db.conn.Rebind(`
		UPDATE user_settings
		SET document = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`)

	result, err := r.db.conn.ExecContext(ctx, query, doc, r.now().UnixMilli(), id, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to patch settings: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to patch settings: %w", err)
	}
	if rows == 0 {
		if _, err := r.findByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrVersionConflict
	}

	return r.findByID(ctx, id)
}
