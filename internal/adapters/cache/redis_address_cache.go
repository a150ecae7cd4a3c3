package cache

import (
	"context"
	"errors"
	"fmt"
	"route-planner-service/internal/platform/obs"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultAddressTTL = 30 * 24 * time.Hour

// RedisAddressCache keeps reverse-geocoded names in Redis so that several
// server instances share them. Entries expire after ttl.
type RedisAddressCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisAddressCache parses a redis:// URL. A zero ttl uses 30 days.
func NewRedisAddressCache(redisURL string, ttl time.Duration) (*RedisAddressCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis address cache: parse url: %w", err)
	}
	return NewRedisAddressCacheFromClient(redis.NewClient(opt), ttl), nil
}

func NewRedisAddressCacheFromClient(client *redis.Client, ttl time.Duration) *RedisAddressCache {
	if ttl <= 0 {
		ttl = defaultAddressTTL
	}
	return &RedisAddressCache{client: client, ttl: ttl, prefix: "address:"}
}

func (c *RedisAddressCache) Get(ctx context.Context, key string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "address.cache.redis.Get")(&err)

	name, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis address cache get key=%q: %w", key, err)
	}

	return name, true, nil
}

func (c *RedisAddressCache) Put(ctx context.Context, key string, name string) error {
	if err := c.client.Set(ctx, c.prefix+key, name, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis address cache set key=%q: %w", key, err)
	}
	return nil
}

// Ping verifies the connection at startup.
func (c *RedisAddressCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis address cache: ping: %w", err)
	}
	return nil
}

func (c *RedisAddressCache) Close() error {
	return c.client.Close()
}
