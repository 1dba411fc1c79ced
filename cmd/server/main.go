// Package main runs the community platform HTTP server: tagging, pending
// requests, events, auth and the notification WebSocket stream.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cypherhub/backend/config"
	"github.com/cypherhub/backend/internal/approvals"
	"github.com/cypherhub/backend/internal/auth"
	"github.com/cypherhub/backend/internal/autofill"
	"github.com/cypherhub/backend/internal/cities"
	"github.com/cypherhub/backend/internal/events"
	"github.com/cypherhub/backend/internal/graph"
	"github.com/cypherhub/backend/internal/middleware"
	"github.com/cypherhub/backend/internal/models"
	"github.com/cypherhub/backend/internal/notifications"
	"github.com/cypherhub/backend/internal/realtime"
	"github.com/cypherhub/backend/internal/styles"
	"github.com/cypherhub/backend/internal/tagging"
	"github.com/cypherhub/backend/pkg/database"
	"github.com/cypherhub/backend/pkg/graphdb"
	"github.com/cypherhub/backend/pkg/queue"
	"github.com/cypherhub/backend/pkg/redis"
	"github.com/cypherhub/backend/pkg/response"
	"github.com/cypherhub/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	graphClient, err := graphdb.NewClient(ctx, cfg.Graph.URI, cfg.Graph.User, cfg.Graph.Password, cfg.Graph.Database, logger)
	if err != nil {
		logger.Fatal("graph database", zap.Error(err))
	}
	defer graphClient.Close(ctx)

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			PicturesBucket:       cfg.AWS.PicturesBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	graphStore := graph.NewStore(graphClient)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Realtime notification stream
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, graphStore, jwtService, jobQueue, cfg.MagicLink.BaseURL, cfg.MagicLink.TTLMinutes, logger)

	// Notifications
	notificationRepo := notifications.NewRepository(pool)
	notifier := notifications.NewWriter(notificationRepo, hub, logger)
	notificationHandler := notifications.NewHandler(notificationRepo)

	// Pending requests
	resolver := approvals.NewResolver(graphStore, authRepo)
	requestRepo := approvals.NewRepository(pool)
	requestService := approvals.NewService(requestRepo, resolver, graphStore, authRepo, notifier, logger)
	requestHandler := approvals.NewHandler(requestService)

	// Tagging
	orchestrator := tagging.NewOrchestrator(graphStore, notifier, requestService, resolver, logger)
	taggingHandler := tagging.NewHandler(orchestrator)

	// Events, catalogs, pictures
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, graphStore, requestService, notifier, s3Client, logger)
	cityHandler := cities.NewHandler(graphStore, logger)
	styleHandler := styles.NewHandler(graphStore, logger)

	// Event autofill
	autofillStore := autofill.NewStore(rdb.Client)
	autofillHandler := autofill.NewHandler(autofillStore, jobQueue, logger)

	// User administration
	adminHandler := auth.NewAdminHandler(authRepo, requestService, notifier, logger)

	jwtValidate := func(token string) (uuid.UUID, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, err
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
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/magic-link", authHandler.RequestMagicLink)
		authGroup.GET("/magic-link/:token", authHandler.ConsumeMagicLink)
	}

	// Public browsing
	router.GET("/cities", cityHandler.List)
	router.GET("/styles", styleHandler.List)
	router.GET("/events", eventHandler.List)
	router.GET("/events/:id", eventHandler.GetByID)
	router.GET("/events/:id/pictures", eventHandler.ListPictures)
	router.GET("/tags", taggingHandler.ListTags)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users
		api.GET("/users", middleware.RequireLevel(models.LevelAdmin), authHandler.List)
		api.POST("/users/invite", middleware.RequireLevel(models.LevelCreator), authHandler.Invite)
		api.PATCH("/users/:id/auth-level", middleware.RequireLevel(models.LevelAdmin), adminHandler.UpdateAuthLevel)

		// Tagging
		api.POST("/tag-users", taggingHandler.TagUsers)
		api.DELETE("/videos/:id/winner-tag", taggingHandler.RemoveWinnerTag)

		// Pending requests
		api.GET("/requests/pending", requestHandler.ListPending)
		api.POST("/requests/:id/approve", requestHandler.Approve)
		api.POST("/requests/:id/reject", requestHandler.Reject)

		// Events
		api.POST("/events", middleware.RequireLevel(models.LevelCreator), eventHandler.Create)
		api.PATCH("/events/:id", eventHandler.Update)
		api.DELETE("/events/:id", eventHandler.Delete)
		api.POST("/events/:id/sections", eventHandler.CreateSection)
		api.POST("/events/:id/sections/:sectionId/videos", eventHandler.CreateVideo)
		api.GET("/events/:id/team", eventHandler.ListTeam)
		api.POST("/events/:id/team", eventHandler.AddTeamMember)
		api.DELETE("/events/:id/team/:userId", eventHandler.RemoveTeamMember)
		api.POST("/events/:id/pictures", eventHandler.UploadPicture)
		api.DELETE("/events/:id/pictures/:pictureId", eventHandler.DeletePicture)

		// Event autofill
		api.POST("/autofill", middleware.RequireLevel(models.LevelCreator), autofillHandler.Submit)
		api.GET("/autofill/:id/status", autofillHandler.GetStatus)

		// Catalog administration
		api.POST("/cities", middleware.RequireLevel(models.LevelSuperAdmin), cityHandler.Create)
		api.POST("/cities/:id/admins", middleware.RequireLevel(models.LevelSuperAdmin), cityHandler.GrantAdmin)
		api.POST("/styles", middleware.RequireLevel(models.LevelSuperAdmin), styleHandler.Create)

		// Notifications
		api.GET("/notifications", notificationHandler.List)
		api.PATCH("/notifications/:id/old", notificationHandler.MarkOld)
		api.POST("/notifications/mark-all-old", notificationHandler.MarkAllOld)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

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
