package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vidscribe/backend/config"
	"github.com/vidscribe/backend/internal/llm"
	"github.com/vidscribe/backend/internal/mailer"
	"github.com/vidscribe/backend/internal/pipeline"
	"github.com/vidscribe/backend/internal/realtime"
	"github.com/vidscribe/backend/internal/store"
	"github.com/vidscribe/backend/internal/transcripts"
	"github.com/vidscribe/backend/pkg/database"
	"github.com/vidscribe/backend/pkg/queue"
	redisclient "github.com/vidscribe/backend/pkg/redis"
)

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	rdb, err := redisclient.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	stageQueue := queue.NewQueue(rdb.Client, logger).
		WithRetryPolicy(cfg.Pipeline.MaxAttempts, cfg.Pipeline.RetryDelay)

	tasks := pipeline.NewTasks(pipeline.Tasks{
		Videos:      store.NewVideoStore(pool),
		Transcripts: store.NewTranscriptStore(pool),
		Summaries:   store.NewSummaryStore(pool),
		Posts:       store.NewPostStore(pool),
		Queue:       stageQueue,
		Source:      transcripts.NewClient(cfg.Transcript.BaseURL, cfg.Transcript.Language, logger),
		Generator:   llm.NewClient(cfg.AI.Endpoint, cfg.AI.APIKey, cfg.AI.Model, logger),
		Notifier:    mailer.New(cfg.Email, cfg.Server.BaseURL, logger),
		Events:      realtime.NewPublisher(rdb.Client, logger),
		BaseURL:     cfg.Server.BaseURL,
		Logger:      logger,
	})

	worker := pipeline.NewWorker(stageQueue, tasks, logger)
	worker.Start(ctx)

	<-ctx.Done()
	logger.Info("shutting down, draining stage consumers")
	worker.Wait()
	logger.Info("worker stopped")
}
