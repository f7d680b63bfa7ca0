// Package main runs the chat HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/huddle-app/backend/config"
	"github.com/huddle-app/backend/internal/auth"
	"github.com/huddle-app/backend/internal/communities"
	"github.com/huddle-app/backend/internal/contacts"
	"github.com/huddle-app/backend/internal/events"
	"github.com/huddle-app/backend/internal/middleware"
	"github.com/huddle-app/backend/internal/realtime"
	"github.com/huddle-app/backend/internal/state"
	"github.com/huddle-app/backend/internal/threads"
	"github.com/huddle-app/backend/internal/users"
	"github.com/huddle-app/backend/internal/worker"
	"github.com/huddle-app/backend/pkg/kv"
	"github.com/huddle-app/backend/pkg/queue"
	"github.com/huddle-app/backend/pkg/redis"
	"github.com/huddle-app/backend/pkg/response"
	"github.com/huddle-app/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	deps := kv.Deps{Logger: logger}
	if rdb != nil {
		deps.Redis = rdb.Client
	}
	backend, err := kv.Open(ctx, kv.Config{
		Driver:      cfg.Store.Driver,
		SQLitePath:  cfg.Store.SQLitePath,
		PostgresDSN: cfg.Database.DSN(),
		PostgresMax: cfg.Database.MaxConns,
		RedisPrefix: cfg.Redis.Prefix,
	}, deps)
	if err != nil {
		logger.Fatal("kv store", zap.Error(err))
	}
	defer backend.Close()

	store := state.New(backend, state.Options{
		Logger:       logger,
		DocumentKey:  cfg.Store.DocumentKey,
		PasswordCost: cfg.Store.PasswordCost,
	})
	if err := store.Bootstrap(ctx); err != nil {
		logger.Fatal("bootstrap state", zap.Error(err))
	}

	var s3Client *storage.S3
	if cfg.AWS.AvatarsBucket != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			AvatarsBucket:        cfg.AWS.AvatarsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			s3Client = nil
		}
	}
	var avatars users.AvatarStorage
	if s3Client != nil {
		avatars = s3Client
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	var hub *realtime.Hub
	if rdb != nil {
		pubsub := realtime.NewRedisPubSub(rdb.Client, cfg.Redis.Prefix, logger)
		hub = realtime.NewHub(logger, pubsub, pubsub)
	} else {
		hub = realtime.NewHub(logger, nil, nil)
	}

	authHandler := auth.NewHandler(store, jwtService, logger)
	userHandler := users.NewHandler(store, avatars, cfg.Phone.DefaultRegion, logger)

	// Replaced avatars are removed by a background worker when Redis is available
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if rdb != nil && s3Client != nil {
		jobQueue := queue.NewQueue(rdb.Client, cfg.Redis.Prefix, logger)
		userHandler.SetAvatarCleaner(jobQueue)
		go worker.NewAvatarCleaner(s3Client, jobQueue, logger).Run(workerCtx)
		logger.Info("avatar worker started")
	}

	contactHandler := contacts.NewHandler(store)
	communityHandler := communities.NewHandler(store, logger)
	threadHandler := threads.NewHandler(store, hub)
	eventHandler := events.NewHandler(store)

	jwtValidate := func(token string) (string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", err
		}
		return claims.UserID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users
		api.GET("/users", userHandler.List)
		api.GET("/users/me", userHandler.Me)
		api.GET("/users/search", userHandler.Search)
		api.PATCH("/users/me/profile", userHandler.UpdateProfile)
		api.PUT("/users/me/phone", userHandler.SetPhone)
		api.PUT("/users/me/avatar", userHandler.SetAvatar)
		api.POST("/users/me/avatar/upload-url", userHandler.AvatarUploadURL)
		api.POST("/users/match-contacts", userHandler.MatchContacts)

		// Contact requests
		api.GET("/contact-requests", contactHandler.List)
		api.POST("/contact-requests", contactHandler.Create)
		api.POST("/contact-requests/:id/respond", contactHandler.Respond)

		// Communities and membership
		api.GET("/communities", communityHandler.List)
		api.GET("/communities/joined", communityHandler.ListJoined)
		api.POST("/communities", communityHandler.Create)
		api.PATCH("/communities/:id", communityHandler.Update)
		api.GET("/communities/:id/members", communityHandler.Members)
		api.POST("/communities/:id/join", communityHandler.Join)
		api.POST("/communities/:id/leave", communityHandler.Leave)
		api.GET("/communities/:id/join-requests", communityHandler.JoinRequests)
		api.GET("/community-requests", communityHandler.MyRequests)
		api.POST("/community-join-requests/:id/respond", communityHandler.RespondJoinRequest)

		// Threads
		api.GET("/communities/:id/threads", threadHandler.ListByCommunity)
		api.POST("/communities/:id/threads", threadHandler.Create)
		api.GET("/threads/:id", threadHandler.Get)
		api.GET("/threads/:id/messages", threadHandler.Messages)
		api.POST("/threads/:id/messages", threadHandler.Post)

		// Events
		api.GET("/communities/:id/events", eventHandler.ListByCommunity)
		api.POST("/communities/:id/events", eventHandler.Create)
		api.POST("/events/:id/respond", eventHandler.Respond)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, store, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
