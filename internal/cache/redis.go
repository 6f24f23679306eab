package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Provider ids learned at runtime rarely change, but players do move and
// providers do renumber, so the mapping eventually expires.
const playerIDTTL = 7 * 24 * time.Hour

// RedisCache stores provider-assigned player ids learned from search
// endpoints, so a player's second question skips the remote id lookup the
// first one paid for.
type RedisCache struct {
	client *redis.Client
	log    *logrus.Logger
}

// NewRedisCache connects and verifies the connection before returning.
func NewRedisCache(redisURL string, log *logrus.Logger) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if log == nil {
		log = logrus.New()
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisCache{client: client, log: log}, nil
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// GetPlayerID returns a previously learned provider id for the player.
func (rc *RedisCache) GetPlayerID(ctx context.Context, source, canonicalName string) (string, bool) {
	id, err := rc.client.Get(ctx, playerIDKey(source, canonicalName)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		rc.log.WithFields(logrus.Fields{
			"component": "cache",
			"player":    canonicalName,
			"error":     err.Error(),
		}).Warn("⚠️  player id cache read failed")
		return "", false
	}
	return id, true
}

// SetPlayerID records a provider id discovered through a search endpoint.
// Write failures are logged and swallowed; the cache is an optimization, not
// a dependency.
func (rc *RedisCache) SetPlayerID(ctx context.Context, source, canonicalName, id string) {
	if err := rc.client.Set(ctx, playerIDKey(source, canonicalName), id, playerIDTTL).Err(); err != nil {
		rc.log.WithFields(logrus.Fields{
			"component": "cache",
			"player":    canonicalName,
			"error":     err.Error(),
		}).Warn("⚠️  player id cache write failed")
	}
}

func playerIDKey(source, canonicalName string) string {
	return fmt.Sprintf("playerid:%s:%s", source, canonicalName)
}
