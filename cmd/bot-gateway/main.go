package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"feedback-hub/internal/adapters/bot"
	"feedback-hub/internal/adapters/repo"
	"feedback-hub/internal/infra/cache"
	"feedback-hub/internal/infra/config"
	"feedback-hub/internal/infra/db"
	httpinfra "feedback-hub/internal/infra/http"
	applog "feedback-hub/internal/infra/log"
	"feedback-hub/internal/infra/metrics"
	"feedback-hub/internal/infra/queue"
	"feedback-hub/internal/usecase/feedback"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.Metrics.Addr)

	if cfg.Telegram.Token == "" {
		logger.Fatal().Msg("bot-gateway: TG_BOT_TOKEN is not set")
	}
	if len(cfg.Telegram.ModeratorChatIDs) == 0 {
		logger.Fatal().Msg("bot-gateway: TG_MODERATOR_CHAT_IDS is not set")
	}
	if cfg.Telegram.WebhookSecret == "" {
		logger.Warn().Msg("bot-gateway: TG_WEBHOOK_SECRET is empty, webhook requests are not authenticated")
	}

	pool, err := db.Connect(ctx, cfg.PGDSN, cfg.DB.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("bot-gateway: no database connection")
	}
	defer pool.Close()
	repoAdapter := repo.NewPostgres(pool)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatal().Err(err).Msg("bot-gateway: redis unavailable")
		}
		defer redisClient.Close()
	}
	events, closeEvents, err := queue.Open(queue.Options{
		Backend:   cfg.Queues.Backend,
		Key:       cfg.Queues.Events,
		Redis:     redisClient,
		RabbitURL: cfg.RabbitURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("bot-gateway: event queue unavailable")
	}
	defer func() { _ = closeEvents() }()

	feedbackOpts := []feedback.Option{
		feedback.WithLogger(logger.With().Str("component", "feedback").Logger()),
	}
	if events != nil {
		feedbackOpts = append(feedbackOpts, feedback.WithEvents(events))
	}
	feedbackService := feedback.NewService(repoAdapter, feedbackOpts...)

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("bot-gateway: could not create bot")
	}

	h := bot.NewHandler(
		botAPI,
		logger.With().Str("component", "bot").Logger(),
		feedbackService,
		cfg.Telegram.ModeratorChatIDs,
		cfg.Telegram.WebhookSecret,
	)

	server := httpinfra.NewServer(logger, httpinfra.Options{
		Component:      "bot-gateway",
		RequestTimeout: cfg.Server.RequestTimeout,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
	})
	server.Router.Method(http.MethodPost, "/bot/webhook", h)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("bot-gateway: graceful shutdown failed")
		}
	}()

	if err := server.Start(fmt.Sprintf(":%d", cfg.Telegram.GatewayPort)); err != nil {
		logger.Fatal().Err(err).Msg("bot-gateway: server stopped")
	}
	logger.Info().Msg("bot-gateway: stopped")
}
