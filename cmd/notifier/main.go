package main

import (
	"context"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"feedback-hub/internal/adapters/telegram"
	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/cache"
	"feedback-hub/internal/infra/config"
	applog "feedback-hub/internal/infra/log"
	"feedback-hub/internal/infra/metrics"
	"feedback-hub/internal/infra/queue"
	"feedback-hub/internal/usecase/notify"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.Metrics.Addr)

	if cfg.Queues.Backend == "" {
		logger.Fatal().Msg("notifier: QUEUE_BACKEND is not set")
	}
	if cfg.Telegram.Token == "" {
		logger.Fatal().Msg("notifier: TG_BOT_TOKEN is not set")
	}
	if len(cfg.Telegram.ModeratorChatIDs) == 0 {
		logger.Fatal().Msg("notifier: TG_MODERATOR_CHAT_IDS is not set")
	}

	var (
		redisClient *redis.Client
		dedupe      domain.Cache
		err         error
	)
	if cfg.RedisAddr != "" {
		redisClient, err = cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatal().Err(err).Msg("notifier: redis unavailable")
		}
		defer redisClient.Close()
		dedupe = cache.NewRedis(redisClient)
	} else {
		logger.Warn().Msg("notifier: REDIS_ADDR is empty, redelivered events may be sent twice")
	}

	events, closeEvents, err := queue.Open(queue.Options{
		Backend:   cfg.Queues.Backend,
		Key:       cfg.Queues.Events,
		Redis:     redisClient,
		RabbitURL: cfg.RabbitURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("notifier: event queue unavailable")
	}
	defer func() { _ = closeEvents() }()

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("notifier: could not create bot")
	}
	notifier := telegram.NewNotifier(botAPI, cfg.Telegram.ModeratorChatIDs, logger.With().Str("component", "telegram").Logger())

	worker := notify.NewWorker(events, notifier, dedupe, logger.With().Str("component", "notifier").Logger())

	logger.Info().Str("backend", cfg.Queues.Backend).Msg("notifier: consuming events")
	worker.Run(ctx)
	logger.Info().Msg("notifier: stopped")
}
