package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"feedback-hub/internal/adapters/httpapi"
	"feedback-hub/internal/adapters/repo"
	"feedback-hub/internal/domain"
	"feedback-hub/internal/infra/cache"
	"feedback-hub/internal/infra/config"
	"feedback-hub/internal/infra/db"
	httpinfra "feedback-hub/internal/infra/http"
	applog "feedback-hub/internal/infra/log"
	"feedback-hub/internal/infra/metrics"
	"feedback-hub/internal/infra/queue"
	"feedback-hub/internal/usecase/comments"
	"feedback-hub/internal/usecase/feedback"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.Metrics.Addr)

	pool, err := db.Connect(ctx, cfg.PGDSN, cfg.DB.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: no database connection")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("api: schema migration failed")
		}
		logger.Info().Msg("api: schema is up to date")
	}

	repoAdapter := repo.NewPostgres(pool)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: redis unavailable")
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
		logger.Fatal().Err(err).Msg("api: event queue unavailable")
	}
	defer func() { _ = closeEvents() }()
	if events == nil {
		logger.Warn().Msg("api: QUEUE_BACKEND is empty, moderation events are disabled")
	}

	feedbackOpts := []feedback.Option{
		feedback.WithLogger(logger.With().Str("component", "feedback").Logger()),
		feedback.WithMaxPageSize(cfg.Limits.MaxPageSize),
	}
	if events != nil {
		feedbackOpts = append(feedbackOpts, feedback.WithEvents(events))
	}
	feedbackService := feedback.NewService(repoAdapter, feedbackOpts...)
	commentService := comments.NewService(
		repoAdapter,
		domain.ParseOrphanPolicy(cfg.Thread.OrphanPolicy),
		logger.With().Str("component", "comments").Logger(),
	)

	apiOpts := []httpapi.Option{
		httpapi.WithLogger(logger.With().Str("component", "api").Logger()),
		httpapi.WithAdminKey(cfg.Admin.APIKey),
		httpapi.WithMaxPageSize(cfg.Limits.MaxPageSize),
	}
	if redisClient != nil {
		apiOpts = append(apiOpts, httpapi.WithAdmission(
			cache.NewRedisAdmission(redisClient, cfg.Limits.RateLimitRequests, cfg.Limits.RateLimitWindow),
		))
	} else {
		logger.Warn().Msg("api: REDIS_ADDR is empty, rate limiting is disabled")
	}
	if cfg.Admin.APIKey == "" {
		logger.Warn().Msg("api: ADMIN_API_KEY is empty, admin routes are disabled")
	}

	server := httpinfra.NewServer(logger, httpinfra.Options{
		Component:      "api",
		CORSOrigins:    cfg.CORS.Origins,
		RequestTimeout: cfg.Server.RequestTimeout,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
	})
	httpapi.New(feedbackService, commentService, apiOpts...).Mount(server.Router)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("api: graceful shutdown failed")
		}
	}()

	if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logger.Fatal().Err(err).Msg("api: server stopped")
	}
	logger.Info().Msg("api: stopped")
}
