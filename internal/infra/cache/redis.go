package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"feedback-hub/internal/infra/metrics"
)

// NewClient connects to Redis and checks the connection.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	start := time.Now()
	err := client.Ping(ctx).Err()
	metrics.ObserveNetworkRequest("redis", "ping", addr, start, err)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RedisCache implements domain.Cache on Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedis creates the cache.
func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Once runs fn if key is not set yet.
func (c *RedisCache) Once(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	start := time.Now()
	ok, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	metrics.ObserveNetworkRequest("redis", "setnx", "cache", start, err)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := fn(); err != nil {
		_ = c.client.Del(ctx, key).Err()
		return err
	}
	return nil
}
