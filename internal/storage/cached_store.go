package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"chat_backend/internal/models"
)

// CachedSettingsStore is a read-through LRU cache in front of a SettingsStore.
// Writes through this store refresh the cached entry.
type CachedSettingsStore struct {
	next  SettingsStore
	cache *LRUCache[models.SettingsRecord]
}

// NewCachedSettingsStore wraps next with a cache of the given size and TTL
func NewCachedSettingsStore(next SettingsStore, size int, ttl time.Duration) *CachedSettingsStore {
	return &CachedSettingsStore{
		next:  next,
		cache: NewLRUCache[models.SettingsRecord](size, ttl),
	}
}

func (c *CachedSettingsStore) FindByUserID(ctx context.Context, userID string) (*models.SettingsRecord, error) {
	if record, ok := c.cache.Get(userID); ok {
		return copyRecord(record), nil
	}

	record, err := c.next.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(userID, *copyRecord(*record))
	return record, nil
}

func (c *CachedSettingsStore) Insert(ctx context.Context, doc models.UserSettings) (*models.SettingsRecord, error) {
	record, err := c.next.Insert(ctx, doc)
	if err != nil {
		c.cache.Delete(doc.UserID)
		return nil, err
	}
	c.cache.Set(record.UserID, *copyRecord(*record))
	return record, nil
}

func (c *CachedSettingsStore) Patch(ctx context.Context, id uuid.UUID, expectedVersion int64, doc models.UserSettings) (*models.SettingsRecord, error) {
	record, err := c.next.Patch(ctx, id, expectedVersion, doc)
	if err != nil {
		// A conflict means the cached copy is stale.
		c.cache.Delete(doc.UserID)
		return nil, err
	}
	c.cache.Set(record.UserID, *copyRecord(*record))
	return record, nil
}

// CleanupExpired drops expired cache entries
func (c *CachedSettingsStore) CleanupExpired() int {
	return c.cache.CleanupExpired()
}

// Stats returns cache statistics
func (c *CachedSettingsStore) Stats() CacheStats {
	return c.cache.GetStats()
}
