package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Window is the sliding window every limit is expressed against.
const Window = time.Minute

// Limiter is used to enforce per-user rate limits.
type Limiter interface {
	// AllowWithDetails reports whether a request for key fits in limit and
	// returns the remaining budget and when the oldest request leaves the
	// window. A limit <= 0 means unlimited (remaining -1, zero reset time).
	AllowWithDetails(ctx context.Context, key string, limit int) (bool, int, time.Time, error)
}

// NoopLimiter allows all requests. Used when no Redis is configured.
type NoopLimiter struct{}

func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

func (l *NoopLimiter) Allow(ctx context.Context, key string) bool {
	return true
}

func (l *NoopLimiter) AllowWithDetails(ctx context.Context, key string, limit int) (bool, int, time.Time, error) {
	return true, -1, time.Time{}, nil
}

// RateLimiter implements distributed rate limiting using Redis sorted sets
type RateLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

func redisKey(key string) string {
	return fmt.Sprintf("ratelimit:%s", key)
}

// Allow checks if a request should be allowed for the given key
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int) (bool, error) {
	allowed, _, _, err := rl.AllowWithDetails(ctx, key, limit)
	return allowed, err
}

// AllowWithDetails uses a sliding window over a sorted set scored by
// request time. Rejected requests are not recorded.
func (rl *RateLimiter) AllowWithDetails(ctx context.Context, key string, limit int) (bool, int, time.Time, error) {
	if limit <= 0 {
		return true, -1, time.Time{}, nil
	}

	rkey := redisKey(key)
	now := rl.now()
	windowStart := now.Add(-Window)

	pipe := rl.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, rkey, "0", fmt.Sprintf("%d", windowStart.UnixMilli()))
	countCmd := pipe.ZCard(ctx, rkey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := int(countCmd.Val())
	if count >= limit {
		resetAt, err := rl.resetAt(ctx, rkey, now)
		if err != nil {
			return false, 0, time.Time{}, err
		}
		return false, 0, resetAt, nil
	}

	pipe = rl.client.Pipeline()
	pipe.ZAdd(ctx, rkey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, rkey, 2*Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limit record failed: %w", err)
	}

	resetAt, err := rl.resetAt(ctx, rkey, now)
	if err != nil {
		return false, 0, time.Time{}, err
	}
	return true, limit - count - 1, resetAt, nil
}

// resetAt is when the oldest request in the window expires.
func (rl *RateLimiter) resetAt(ctx context.Context, rkey string, now time.Time) (time.Time, error) {
	oldest, err := rl.client.ZRangeWithScores(ctx, rkey, 0, 0).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read window: %w", err)
	}
	if len(oldest) == 0 {
		return now.Add(Window), nil
	}
	return time.UnixMilli(int64(oldest[0].Score)).Add(Window), nil
}

// GetCurrentUsage returns the current request count in the window
func (rl *RateLimiter) GetCurrentUsage(ctx context.Context, key string) (int64, error) {
	rkey := redisKey(key)
	windowStart := rl.now().Add(-Window)

	if err := rl.client.ZRemRangeByScore(ctx, rkey, "0", fmt.Sprintf("%d", windowStart.UnixMilli())).Err(); err != nil {
		return 0, fmt.Errorf("failed to clean old entries: %w", err)
	}

	count, err := rl.client.ZCard(ctx, rkey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get current usage: %w", err)
	}

	return count, nil
}

// Reset resets the rate limit for a key
func (rl *RateLimiter) Reset(ctx context.Context, key string) error {
	return rl.client.Del(ctx, redisKey(key)).Err()
}
