package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"chat_backend/internal/models"
)

// MemoryStore is a process-local SettingsStore for development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]models.SettingsRecord // keyed by user id
	now     func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]models.SettingsRecord),
		now:     time.Now,
	}
}

func copyRecord(r models.SettingsRecord) *models.SettingsRecord {
	r.Document = r.Document.Clone()
	return &r
}

func (m *MemoryStore) FindByUserID(ctx context.Context, userID string) (*models.SettingsRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[userID]
	if !ok {
		return nil, ErrSettingsNotFound
	}
	return copyRecord(record), nil
}

func (m *MemoryStore) Insert(ctx context.Context, doc models.UserSettings) (*models.SettingsRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[doc.UserID]; exists {
		return nil, ErrSettingsExists
	}

	now := m.now().UnixMilli()
	record := models.SettingsRecord{
		ID:        uuid.New(),
		UserID:    doc.UserID,
		Version:   1,
		Document:  doc.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.records[doc.UserID] = record
	return copyRecord(record), nil
}

func (m *MemoryStore) Patch(ctx context.Context, id uuid.UUID, expectedVersion int64, doc models.UserSettings) (*models.SettingsRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for userID, record := range m.records {
		if record.ID != id {
			continue
		}
		if record.Version != expectedVersion {
			return nil, ErrVersionConflict
		}
		record.Document = doc.Clone()
		record.Version++
		record.UpdatedAt = m.now().UnixMilli()
		m.records[userID] = record
		return copyRecord(record), nil
	}
	return nil, ErrSettingsNotFound
}
