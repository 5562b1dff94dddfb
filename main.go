package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"pairchat-service/internal/auth"
	"pairchat-service/internal/config"
	"pairchat-service/internal/db"
	"pairchat-service/internal/grpcserver"
	"pairchat-service/internal/handlers"
	"pairchat-service/internal/imagestore"
	"pairchat-service/internal/logger"
	"pairchat-service/internal/middleware"
	"pairchat-service/internal/observability"
	"pairchat-service/internal/rabbitmq"
	"pairchat-service/internal/repositories"
	"pairchat-service/internal/service"
	"pairchat-service/internal/telemetry"
	"pairchat-service/internal/ws"
)

const auditRoutingKey = "audit.pairchat"

func main() {
	cfg := config.MustLoad()

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing.Endpoint, cfg.Service)
	if err != nil {
		log.Fatal("failed to init tracing", zap.Error(err))
	}

	database, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		log.Fatal("failed to connect to db", zap.Error(err))
	}
	defer database.Close()

	minioClient, err := imagestore.NewClient(ctx, cfg.Images)
	if err != nil {
		log.Fatal("failed to connect to image storage", zap.Error(err))
	}
	images := imagestore.New(minioClient, cfg.Images.Bucket, cfg.Images.PublicURL, cfg.Images.MaxUploadBytes)

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
	defer func() { _ = publisher.Close() }()
	log.Info("event publisher ready",
		zap.String("mode", rabbitmq.PublisherMode(publisher)),
		zap.String("noop_reason", rabbitmq.PublisherNoopReason(publisher)),
	)
	audit := telemetry.NewAuditEmitter(publisher, auditRoutingKey, cfg.Service, cfg.Env)

	userRepo := repositories.NewUserRepo(database)
	inviteRepo := repositories.NewInviteRepo(database)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	hub := ws.NewHub(nil, log)
	var notifier service.Notifier = hub
	if cfg.Redis.Addr != "" {
		rdb, err := ws.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()

		bridge := ws.NewRedisBridge(rdb, cfg.Redis.Channel, hub, log)
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("redis bridge stopped", zap.Error(err))
			}
		}()
		notifier = bridge
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Service)

	authSvc := service.NewAuthService(userRepo, jwtManager, cfg.Auth.SessionTTL, cfg.Auth.RememberTTL)
	userSvc := service.NewUserService(userRepo, chatRepo, notifier)
	inviteSvc := service.NewInviteService(inviteRepo, userRepo, chatRepo, notifier, publisher)
	chatSvc := service.NewChatService(chatRepo, messageRepo, userRepo, images, notifier, audit)
	messageSvc := service.NewMessageService(chatRepo, messageRepo, images, notifier, publisher, audit)
	hub.SetSource(service.NewSnapshots(chatSvc, messageSvc, inviteSvc))

	var google handlers.OAuthProvider
	if cfg.Auth.GoogleEnabled() {
		google = auth.NewGoogleProvider(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret, cfg.Auth.GoogleRedirectURL)
	}

	authHandler := handlers.NewAuthHandler(authSvc)
	oauthHandler := handlers.NewOAuthHandler(authSvc, google, cfg.Env == "prod")
	userHandler := handlers.NewUserHandler(userSvc)
	inviteHandler := handlers.NewInviteHandler(inviteSvc)
	chatHandler := handlers.NewChatHandler(chatSvc)
	messageHandler := handlers.NewMessageHandler(messageSvc, 2*cfg.Images.MaxUploadBytes)
	imageHandler := handlers.NewImageHandler(images, chatRepo, 2*cfg.Images.MaxUploadBytes)
	wsHandler := ws.NewHandler(hub, jwtManager, log)

	loginLimiter := middleware.NewLimiterStore(cfg.Auth.LoginPerMinute, cfg.Auth.LoginBurst, time.Minute)
	defer loginLimiter.Stop()

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.Service),
		logger.Middleware(log),
		observability.HTTPMetricsMiddleware(),
	)

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", wsHandler.Handle)

	authMiddleware := middleware.AuthMiddleware(jwtManager)
	rateLimit := middleware.RateLimit(loginLimiter)

	router.POST("/auth/signup", rateLimit, authHandler.SignUp)
	router.POST("/auth/login", rateLimit, authHandler.Login)
	router.GET("/auth/oauth/google", rateLimit, oauthHandler.Start)
	router.GET("/auth/oauth/google/callback", rateLimit, oauthHandler.Callback)

	api := router.Group("/", authMiddleware)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.Me)

	api.GET("/users/search", userHandler.Search)
	api.GET("/users/:user_id", userHandler.Get)
	api.PATCH("/users/me", userHandler.UpdateMe)

	api.POST("/invites", inviteHandler.Send)
	api.GET("/invites", inviteHandler.ListPending)
	api.POST("/invites/:invite_id/accept", inviteHandler.Accept)
	api.POST("/invites/:invite_id/decline", inviteHandler.Decline)

	api.GET("/chats", chatHandler.ListChats)
	api.POST("/chats/start", chatHandler.StartChat)
	api.GET("/chats/unread", chatHandler.UnreadCounts)
	api.GET("/chats/:chat_id", chatHandler.GetChat)
	api.PATCH("/chats/:chat_id/participants/me", chatHandler.UpdateMyInfo)
	api.DELETE("/chats/:chat_id", chatHandler.DeleteChat)
	api.POST("/chats/:chat_id/clear", chatHandler.ClearChat)

	api.GET("/chats/:chat_id/messages", messageHandler.ListMessages)
	api.POST("/chats/:chat_id/messages", messageHandler.SendText)
	api.POST("/chats/:chat_id/messages/image", messageHandler.SendImage)
	api.DELETE("/chats/:chat_id/messages/:message_id", messageHandler.DeleteMessage)
	api.POST("/chats/:chat_id/read", messageHandler.MarkRead)
	api.GET("/chats/:chat_id/read-status", messageHandler.ReadStatus)

	api.POST("/images", imageHandler.Upload)
	api.DELETE("/images", imageHandler.Delete)

	handlers.RegisterDebugRoutes(api, audit, cfg.Debug)

	grpcServer := grpcserver.New(cfg.GRPC.Port, cfg.Service, log)
	go func() {
		if err := grpcServer.Run(); err != nil {
			log.Error("grpc server stopped", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown failed", zap.Error(err))
	}
}
