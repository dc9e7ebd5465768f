package queue

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"feedback-hub/internal/domain"
)

const (
	BackendRedis    = "redis"
	BackendRabbitMQ = "rabbitmq"
)

// Options selects and configures an event queue backend.
type Options struct {
	Backend   string
	Key       string
	Redis     *redis.Client
	RabbitURL string
}

// Open returns the configured queue and a function releasing its resources.
// An empty backend yields nil queue and no error: events are disabled.
func Open(opts Options) (domain.EventQueue, func() error, error) {
	noop := func() error { return nil }
	switch opts.Backend {
	case "":
		return nil, noop, nil
	case BackendRedis:
		if opts.Redis == nil {
			return nil, noop, fmt.Errorf("queue: redis backend requires REDIS_ADDR")
		}
		return NewRedisEventQueue(opts.Redis, opts.Key), noop, nil
	case BackendRabbitMQ:
		q, err := NewRabbitEventQueue(opts.RabbitURL, opts.Key)
		if err != nil {
			return nil, noop, err
		}
		return q, q.Close, nil
	}
	return nil, noop, fmt.Errorf("queue: unknown backend %q", opts.Backend)
}
