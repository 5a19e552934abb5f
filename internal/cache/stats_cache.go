package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const statsKey = "bookings:stats:by_status"

// StatsCache is a read-through projection of the booking counts grouped
// by status. Postgres stays the source of truth; every lifecycle
// transition invalidates this key.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStatsCache creates a StatsCache with the given entry TTL.
func NewStatsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *StatsCache {
	return &StatsCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached counts, or ok=false on miss or error. Cache
// errors are logged and treated as misses.
func (c *StatsCache) Get(ctx context.Context) (map[string]int64, bool) {
	raw, err := c.client.Get(ctx, statsKey).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("stats cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var counts map[string]int64
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		c.logger.Warn("stats cache entry corrupt, ignoring", zap.Error(err))
		return nil, false
	}
	return counts, true
}

// Set stores the counts for the configured TTL. Failures are logged,
// never surfaced: the cache is best-effort.
func (c *StatsCache) Set(ctx context.Context, counts map[string]int64) {
	raw, err := json.Marshal(counts)
	if err != nil {
		c.logger.Warn("stats cache marshal failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, statsKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("stats cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached counts after a lifecycle transition.
func (c *StatsCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, statsKey).Err(); err != nil {
		c.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}
