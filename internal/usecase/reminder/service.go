package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/metrics"
)

// PendingCounter reports the size of the moderation queue.
type PendingCounter interface {
	CountPending(ctx context.Context) (int, error)
}

// Service reminds moderators when the moderation queue grows too long.
type Service struct {
	counter   PendingCounter
	publisher domain.EventPublisher
	cache     domain.Cache
	threshold int
	interval  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates the reminder. cache may be nil, then every check above
// the threshold publishes.
func NewService(counter PendingCounter, publisher domain.EventPublisher, cache domain.Cache, threshold int, interval time.Duration, logger zerolog.Logger) *Service {
	if threshold < 1 {
		threshold = 1
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{
		counter:   counter,
		publisher: publisher,
		cache:     cache,
		threshold: threshold,
		interval:  interval,
		log:       logger,
		now:       time.Now,
	}
}

// Check publishes at most one reminder per interval while the pending count
// is at or above the threshold. It reports whether a reminder was published.
func (s *Service) Check(ctx context.Context) (bool, error) {
	pending, err := s.counter.CountPending(ctx)
	if err != nil {
		return false, err
	}
	if pending < s.threshold {
		return false, nil
	}

	now := s.now().UTC()
	published := false
	publish := func() error {
		err := s.publisher.Publish(ctx, domain.Event{
			ID:           uuid.NewString(),
			Kind:         domain.EventPendingReminder,
			PendingCount: pending,
			OccurredAt:   now,
		})
		metrics.IncEventPublished(string(domain.EventPendingReminder), err)
		if err == nil {
			published = true
		}
		return err
	}

	if s.cache == nil {
		return published, publish()
	}
	key := fmt.Sprintf("reminder:%d", now.Truncate(s.interval).Unix())
	err = s.cache.Once(ctx, key, s.interval, publish)
	return published, err
}

// Run calls Check on every tick until ctx is done.
func (s *Service) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			published, err := s.Check(ctx)
			if err != nil {
				s.log.Error().Err(err).Msg("scheduler: pending reminder failed")
				continue
			}
			if published {
				s.log.Info().Msg("scheduler: pending reminder published")
			}
		}
	}
}
