package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const conflictMapKeyPrefix = "conflict_map:"

// ConflictMapCache stores computed daily conflict flags in Redis with a
// short TTL. Cache failures are logged and treated as misses; the
// conflict map is always recomputable from the database.
type ConflictMapCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewConflictMapCache builds the cache on an existing Redis connection.
func NewConflictMapCache(r *Redis, ttl time.Duration, logger *zap.Logger) *ConflictMapCache {
	if r == nil || r.Client == nil {
		return nil
	}
	return &ConflictMapCache{client: r.Client, ttl: ttl, logger: logger}
}

// GetDailyFlags fetches the cached conflict map for the given day key.
// The second return is false on a miss or any cache failure.
func (c *ConflictMapCache) GetDailyFlags(ctx context.Context, dateKey string) (map[string]bool, bool) {
	raw, err := c.client.Get(ctx, conflictMapKeyPrefix+dateKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("conflict map cache read failed", zap.String("date", dateKey), zap.Error(err))
		}
		return nil, false
	}

	var flags map[string]bool
	if err := json.Unmarshal(raw, &flags); err != nil {
		c.logger.Warn("conflict map cache entry corrupt", zap.String("date", dateKey), zap.Error(err))
		return nil, false
	}
	return flags, true
}

// SetDailyFlags stores the conflict map for the given day key.
func (c *ConflictMapCache) SetDailyFlags(ctx context.Context, dateKey string, flags map[string]bool) {
	raw, err := json.Marshal(flags)
	if err != nil {
		c.logger.Warn("conflict map cache encode failed", zap.String("date", dateKey), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, conflictMapKeyPrefix+dateKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("conflict map cache write failed", zap.String("date", dateKey), zap.Error(err))
	}
}

// Invalidate drops cached conflict maps for the given day keys.
func (c *ConflictMapCache) Invalidate(ctx context.Context, dateKeys ...string) {
	if len(dateKeys) == 0 {
		return
	}
	keys := make([]string, 0, len(dateKeys))
	for _, dateKey := range dateKeys {
		keys = append(keys, conflictMapKeyPrefix+dateKey)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("conflict map cache invalidation failed", zap.Strings("dates", dateKeys), zap.Error(err))
	}
}
