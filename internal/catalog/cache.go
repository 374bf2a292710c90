package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/field-service/pkg/logger"
)

// DefaultCacheTTL bounds how stale a cached product may be
const DefaultCacheTTL = 5 * time.Minute

// CachedCatalog is a read-through Redis cache in front of another Catalog
type CachedCatalog struct {
	next  Catalog
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedCatalog wraps next. A nil client disables caching.
func NewCachedCatalog(next Catalog, redisClient *redis.Client, ttl time.Duration) *CachedCatalog {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedCatalog{next: next, redis: redisClient, ttl: ttl}
}

func cacheKey(id uint) string {
	return fmt.Sprintf("catalog:product:%d", id)
}

// GetProduct serves from Redis when possible and fills the cache on a miss
func (c *CachedCatalog) GetProduct(ctx context.Context, id uint) (*Product, error) {
	if c.redis == nil {
		return c.next.GetProduct(ctx, id)
	}

	key := cacheKey(id)
	cached, err := c.redis.Get(ctx, key).Bytes()
	if err == nil && len(cached) > 0 {
		var p Product
		if jsonErr := json.Unmarshal(cached, &p); jsonErr == nil {
			logger.Debug(ctx).Str("cache_key", key).Msg("Cache hit")
			return &p, nil
		}
	}

	logger.Debug(ctx).Str("cache_key", key).Msg("Cache miss")
	p, err := c.next.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(p)
	if err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			logger.Warn(ctx).Err(err).Str("cache_key", key).Msg("Failed to cache product")
		}
	}
	return p, nil
}

// Invalidate drops a cached product
func (c *CachedCatalog) Invalidate(ctx context.Context, id uint) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Del(ctx, cacheKey(id)).Err()
}
