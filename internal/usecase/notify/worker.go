package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/metrics"
)

const (
	// MaxDeliveryAttempts bounds how often a failing event is re-queued.
	MaxDeliveryAttempts = 5

	dedupeTTL = 24 * time.Hour
)

// Worker consumes moderation events and notifies moderators.
type Worker struct {
	queue    domain.EventQueue
	notifier domain.Notifier
	cache    domain.Cache
	log      zerolog.Logger
	backoff  time.Duration
}

// NewWorker creates a worker. cache may be nil, then events are not deduplicated.
func NewWorker(queue domain.EventQueue, notifier domain.Notifier, cache domain.Cache, logger zerolog.Logger) *Worker {
	return &Worker{queue: queue, notifier: notifier, cache: cache, log: logger, backoff: time.Second}
}

// Run processes events until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		ev, ack, err := w.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("notifier: queue receive failed")
			w.sleep(ctx)
			continue
		}

		evLog := w.log.With().
			Str("event_id", ev.ID).
			Str("kind", string(ev.Kind)).
			Str("feedback_id", ev.FeedbackID).
			Int("attempt", ev.Attempt).
			Logger()

		if ev.ID == "" {
			evLog.Error().Msg("notifier: event without id, acknowledging and skipping")
			if err := ack(true); err != nil {
				evLog.Error().Err(err).Msg("notifier: ack failed")
			}
			continue
		}

		err = w.Handle(ctx, ev)
		if err != nil && ev.Attempt+1 < MaxDeliveryAttempts {
			evLog.Warn().Err(err).Msg("notifier: delivery failed, will retry")
			if ackErr := ack(false); ackErr != nil {
				evLog.Error().Err(ackErr).Msg("notifier: requeue failed")
			}
			continue
		}
		if err != nil {
			evLog.Error().Err(err).Msg("notifier: attempts exhausted, dropping event")
		}
		if err := ack(true); err != nil {
			evLog.Error().Err(err).Msg("notifier: ack failed")
		}
	}
}

// Handle delivers a single event at most once per event id.
func (w *Worker) Handle(ctx context.Context, ev domain.Event) error {
	note, ok := Format(ev)
	if !ok {
		w.log.Debug().Str("kind", string(ev.Kind)).Msg("notifier: unknown event kind skipped")
		return nil
	}
	send := func() error {
		err := w.notifier.Notify(ctx, note)
		metrics.IncNotification(string(ev.Kind), err)
		return err
	}
	if w.cache == nil {
		return send()
	}
	return w.cache.Once(ctx, "notify:"+ev.ID, dedupeTTL, send)
}

func (w *Worker) sleep(ctx context.Context) {
	t := time.NewTimer(w.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
