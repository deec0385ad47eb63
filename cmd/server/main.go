package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vidscribe/backend/config"
	"github.com/vidscribe/backend/internal/auth"
	"github.com/vidscribe/backend/internal/middleware"
	"github.com/vidscribe/backend/internal/posts"
	"github.com/vidscribe/backend/internal/publish"
	"github.com/vidscribe/backend/internal/realtime"
	"github.com/vidscribe/backend/internal/store"
	"github.com/vidscribe/backend/internal/videos"
	"github.com/vidscribe/backend/internal/youtube"
	"github.com/vidscribe/backend/pkg/database"
	"github.com/vidscribe/backend/pkg/queue"
	redisclient "github.com/vidscribe/backend/pkg/redis"
	"github.com/vidscribe/backend/pkg/response"
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
	logger.Info("database migrations applied")

	rdb, err := redisclient.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	stageQueue := queue.NewQueue(rdb.Client, logger).
		WithRetryPolicy(cfg.Pipeline.MaxAttempts, cfg.Pipeline.RetryDelay)

	videoStore := store.NewVideoStore(pool)
	postStore := store.NewPostStore(pool)

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authHandler := auth.NewHandler(auth.NewRepository(pool), jwtService, logger)
	postsHandler := posts.NewHandler(postStore, publish.NewLinkedInPublisher(logger), logger)
	videosHandler := videos.NewHandler(videoStore, stageQueue, logger)

	hub := realtime.NewHub(logger)
	go realtime.Bridge(ctx, rdb.Client, hub, logger)
	wsHandler := realtime.NewHandler(hub, jwtService, logger)

	if cfg.YouTube.APIKey != "" && cfg.YouTube.ChannelID != "" {
		monitor := youtube.NewMonitor(cfg.YouTube.APIKey, cfg.YouTube.ChannelID,
			cfg.YouTube.APIBaseURL, cfg.YouTube.PollInterval, videoStore, stageQueue, logger)
		go monitor.Run(ctx)
	} else {
		logger.Warn("youtube credentials not set, channel monitor disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok"})
	})
	router.GET("/ws/events", wsHandler.Serve)

	api := router.Group("/api/v1")
	authHandler.RegisterRoutes(api.Group("/auth"))
	videosHandler.RegisterWebhooks(api)

	protected := api.Group("")
	protected.Use(middleware.JWTAuth(jwtService))
	postsHandler.RegisterRoutes(protected)
	videosHandler.RegisterRoutes(protected)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
