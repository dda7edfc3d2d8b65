// Package cache is a read-through Redis cache for dashboard query results.
// The cache is an accelerator, not a dependency: every failure is logged and
// the caller falls through to the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/channelboard/youtube-channel-dashboard-go/internal/metrics"
	"github.com/channelboard/youtube-channel-dashboard-go/pkg/logger"
)

// DefaultTTL is used when the configured TTL is zero.
const DefaultTTL = 24 * time.Hour

// Cache wraps a Redis client with JSON serialization and a fixed TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Get unmarshals the cached value for key into dest. Returns false on a miss
// or on any Redis or decode failure; failures are logged, never propagated.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		metrics.CacheMisses.Inc()
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Log.Warn("cache entry corrupt, dropping",
			zap.String("key", key),
			zap.Error(err),
		)
		c.client.Del(ctx, key)
		metrics.CacheMisses.Inc()
		return false
	}

	metrics.CacheHits.Inc()
	return true
}

// Set stores value under key with the configured TTL. Failures are logged
// and swallowed.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Log.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.Log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateChannel deletes every cached entry for the channel. Used after a
// successful refresh so the next dashboard read sees fresh data.
func (c *Cache) InvalidateChannel(ctx context.Context, channelID string) error {
	pattern := ChannelPattern(channelID)

	var deleted int64
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return fmt.Errorf("failed to delete cache key %s: %w", iter.Val(), err)
		}
		deleted += n
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	logger.Log.Info("cache invalidated",
		zap.String("channel_id", channelID),
		zap.Int64("keys_deleted", deleted),
	)
	return nil
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
