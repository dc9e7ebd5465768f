package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/metrics"
)

// RedisEventQueue implements domain.EventQueue on a Redis list.
type RedisEventQueue struct {
	client *redis.Client
	key    string
}

// NewRedisEventQueue creates a queue stored under key.
func NewRedisEventQueue(client *redis.Client, key string) *RedisEventQueue {
	return &RedisEventQueue{client: client, key: key}
}

// Publish pushes the event to the head of the list.
func (q *RedisEventQueue) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	start := time.Now()
	err = q.client.LPush(ctx, q.key, payload).Err()
	metrics.ObserveNetworkRequest("redis", "lpush", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push event: %w", err)
	}
	return nil
}

// Receive blocks until an event is available. A negative ack pushes the
// event back with its attempt counter increased.
func (q *RedisEventQueue) Receive(ctx context.Context) (domain.Event, domain.AckFunc, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.Event{}, nil, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.Event{}, nil, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.Event{}, nil, err
		}
		if len(res) != 2 {
			return domain.Event{}, nil, errors.New("redis queue: unexpected response")
		}
		var event domain.Event
		if err := json.Unmarshal([]byte(res[1]), &event); err != nil {
			return domain.Event{}, nil, fmt.Errorf("decode event: %w", err)
		}
		requeueCtx := context.WithoutCancel(ctx)
		ack := func(success bool) error {
			if success {
				return nil
			}
			retry := event
			retry.Attempt++
			return q.Publish(requeueCtx, retry)
		}
		return event, ack, nil
	}
}
