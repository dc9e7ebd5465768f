package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"feedback-hub/internal/infra/metrics"
)

const admissionPrefix = "ratelimit:"

// RedisAdmission is a fixed-window request counter shared by all API instances.
type RedisAdmission struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisAdmission allows limit requests per key within window.
func NewRedisAdmission(client *redis.Client, limit int, window time.Duration) *RedisAdmission {
	return &RedisAdmission{client: client, limit: limit, window: window}
}

// Allow counts the request and reports whether it fits in the current window.
func (a *RedisAdmission) Allow(ctx context.Context, key string) (bool, error) {
	if a.limit <= 0 {
		return true, nil
	}
	redisKey := admissionPrefix + key
	var incr *redis.IntCmd
	start := time.Now()
	_, err := a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, a.window)
		return nil
	})
	metrics.ObserveNetworkRequest("redis", "incr", "ratelimit", start, err)
	if err != nil {
		return false, err
	}
	return incr.Val() <= int64(a.limit), nil
}
