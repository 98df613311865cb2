package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/angelmondragon/platefinderz-backend/pkg/logger"
	"github.com/angelmondragon/platefinderz-backend/pkg/metrics"
)

// Store is the subset of the redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) (int, error)
}

// Cache is a read-through cache over Redis. Reads fail open: any transport
// error is reported as a miss so callers fall back to the primary store.
type Cache struct {
	store   Store
	log     *logger.Logger
	metrics *metrics.CacheMetrics
}

func New(store Store, log *logger.Logger, m *metrics.CacheMetrics) *Cache {
	return &Cache{store: store, log: log, metrics: m}
}

// Get returns the cached payload and whether it was a hit. Missing keys and
// transport errors both read as misses; transport errors additionally bump
// the degraded counter so outages stay visible.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil || c.store == nil {
		return "", false
	}
	payload, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			c.metrics.IncMiss(key)
			return "", false
		}
		c.metrics.IncDegraded(key)
		c.warn(ctx, "cache read degraded to primary store", key, err)
		return "", false
	}
	c.metrics.IncHit(key)
	return payload, true
}

// Set stores a payload best-effort. Failures are logged and counted, never
// returned; a stale or absent cache entry is corrected on the next read.
func (c *Cache) Set(ctx context.Context, key, payload string, ttl time.Duration) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Set(ctx, key, payload, ttl); err != nil {
		c.metrics.IncDegraded(key)
		c.warn(ctx, "cache write failed", key, err)
	}
}

// GetJSON reads a cached payload into dest. A payload that no longer
// unmarshals reads as a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	payload, hit := c.Get(ctx, key)
	if !hit {
		return false
	}
	if err := json.Unmarshal([]byte(payload), dest); err != nil {
		c.metrics.IncDegraded(key)
		c.warn(ctx, "cache payload corrupt, treating as miss", key, err)
		return false
	}
	return true
}

// SetJSON marshals value and stores it best-effort.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.metrics.IncDegraded(key)
		c.warn(ctx, "cache payload not serializable", key, err)
		return
	}
	c.Set(ctx, key, string(payload), ttl)
}

// Invalidate deletes the given keys. Every failed key is counted and the
// combined error returned so callers can log it; callers never fail their
// write path on it.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.store == nil {
		return nil
	}
	var combined error
	for _, key := range keys {
		if err := c.store.Del(ctx, key); err != nil {
			c.metrics.IncInvalidationFailure(key)
			combined = multierr.Append(combined, fmt.Errorf("invalidate %s: %w", key, err))
		}
	}
	return combined
}

// InvalidatePattern deletes every key matching the glob pattern.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) error {
	if c == nil || c.store == nil {
		return nil
	}
	if _, err := c.store.DeletePattern(ctx, pattern); err != nil {
		c.metrics.IncInvalidationFailure(pattern)
		return fmt.Errorf("invalidate pattern %s: %w", pattern, err)
	}
	return nil
}

func (c *Cache) warn(ctx context.Context, msg, key string, err error) {
	if c.log == nil {
		return
	}
	c.log.Warn(c.log.WithFields(ctx, map[string]any{
		"cache_key": key,
		"error":     err.Error(),
	}), msg)
}
