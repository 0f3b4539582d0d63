package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultStatsTTL = 5 * time.Minute

// StatsCache is a Redis cache-aside layer for derived channel statistics.
// When Redis is not configured every operation is a no-op, so callers never
// branch on cache availability.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration, logger *log.Logger) *StatsCache {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	if client == nil {
		if logger != nil {
			logger.Printf("stats cache disabled: no redis client")
		}
		return &StatsCache{ttl: ttl}
	}
	return &StatsCache{rdb: client, ttl: ttl}
}

func (c *StatsCache) GetChannelStats(ctx context.Context, channelID string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, channelStatsKey(channelID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

func (c *StatsCache) SetChannelStats(ctx context.Context, channelID string, value any) error {
	if c.rdb == nil {
		return nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, channelStatsKey(channelID), encoded, c.ttl).Err()
}

func channelStatsKey(channelID string) string {
	return fmt.Sprintf("stats:channel:%s", channelID)
}
