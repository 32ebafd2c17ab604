package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// MetricsCache stores computed dashboard payloads in Redis as opaque JSON.
// All methods are nil-safe and treat a missing key as a cache miss, not an
// error, so an unreachable Redis only costs a recomputation.
type MetricsCache struct {
	redis *Redis
}

// NewMetricsCache wraps the shared Redis connection.
func NewMetricsCache(r *Redis) *MetricsCache {
	return &MetricsCache{redis: r}
}

// Get returns the cached payload for key, or nil on a miss.
func (c *MetricsCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.redis == nil || c.redis.client == nil {
		return nil, nil
	}
	payload, err := c.redis.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return payload, nil
}

// Set stores payload under key with the given TTL.
func (c *MetricsCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if c == nil || c.redis == nil || c.redis.client == nil {
		return nil
	}
	return c.redis.client.Set(ctx, key, payload, ttl).Err()
}
