package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"feedback-hub/internal/adapters/repo"
	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/cache"
	"feedback-hub/internal/infra/config"
	"feedback-hub/internal/infra/db"
	applog "feedback-hub/internal/infra/log"
	"feedback-hub/internal/infra/metrics"
	"feedback-hub/internal/infra/queue"
	"feedback-hub/internal/usecase/feedback"
	"feedback-hub/internal/usecase/reminder"
)

const tick = time.Minute

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.Metrics.Addr)

	if cfg.Queues.Backend == "" {
		logger.Fatal().Msg("scheduler: QUEUE_BACKEND is not set")
	}

	pool, err := db.Connect(ctx, cfg.PGDSN, cfg.DB.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: no database connection")
	}
	defer pool.Close()

	var (
		redisClient *redis.Client
		once        domain.Cache
	)
	if cfg.RedisAddr != "" {
		redisClient, err = cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatal().Err(err).Msg("scheduler: redis unavailable")
		}
		defer redisClient.Close()
		once = cache.NewRedis(redisClient)
	} else {
		logger.Warn().Msg("scheduler: REDIS_ADDR is empty, reminders repeat on every tick")
	}

	events, closeEvents, err := queue.Open(queue.Options{
		Backend:   cfg.Queues.Backend,
		Key:       cfg.Queues.Events,
		Redis:     redisClient,
		RabbitURL: cfg.RabbitURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: event queue unavailable")
	}
	defer func() { _ = closeEvents() }()

	feedbackService := feedback.NewService(repo.NewPostgres(pool))
	svc := reminder.NewService(
		feedbackService,
		events,
		once,
		cfg.Reminder.Threshold,
		cfg.Reminder.Interval,
		logger.With().Str("component", "scheduler").Logger(),
	)

	logger.Info().
		Int("threshold", cfg.Reminder.Threshold).
		Dur("interval", cfg.Reminder.Interval).
		Msg("scheduler: started")
	svc.Run(ctx, tick)
	logger.Info().Msg("scheduler: stopped")
}
