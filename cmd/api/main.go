package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gigmarket/internal/config"
	"gigmarket/internal/database"
	"gigmarket/internal/handler"
	"gigmarket/internal/middleware"
	"gigmarket/internal/monitor"
	"gigmarket/internal/presence"
	"gigmarket/internal/realtime"
	"gigmarket/internal/redis"
	"gigmarket/internal/repository"
	"gigmarket/internal/service/auth"
	"gigmarket/internal/service/chat"
	"gigmarket/internal/service/notification"
	"gigmarket/internal/service/notify"
	"gigmarket/internal/service/order"
	"gigmarket/internal/service/user"
	iutils "gigmarket/internal/utils"
	"gigmarket/pkg/files"
	"gigmarket/pkg/log"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Fatal("Failed to load config")
	}

	logConfig := log.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxAge:     cfg.Log.MaxAge,
		MaxBackups: cfg.Log.MaxBackups,
		Compress:   cfg.Log.Compress,
	}
	if err := log.Init(logConfig); err != nil {
		log.WithError(err).Fatal("Failed to initialize logger")
	}

	if err := database.Init(cfg); err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close()

	db := database.GetDB()
	if err := database.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}
	if err := database.CreateIndexes(db); err != nil {
		log.WithError(err).Warn("Failed to create indexes")
	}

	if err := redis.Init(cfg); err != nil {
		log.WithError(err).Fatal("Failed to initialize redis")
	}
	defer redis.Close()
	redisClient := redis.GetClient()

	tracer, err := monitor.NewTracer(&monitor.TracerConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		JaegerEndpoint: cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize tracer")
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// live delivery pipeline
	queue := realtime.NewMemoryQueue(nil)
	publisher := realtime.NewPublisher(queue)
	worker := realtime.NewWorker(queue, redisClient)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if err := worker.Start(workerCtx); err != nil {
		log.WithError(err).Fatal("Failed to start delivery worker")
	}

	tracker := presence.NewTracker(redisClient)
	dispatcher := notify.NewDispatcher(tracker)
	cleaner := files.NewDiskCleaner(cfg.Market.UploadRoot)

	// repositories
	userRepo := repository.NewUserRepository(db)
	sellerRepo := repository.NewSellerRepository(db)
	postRepo := repository.NewPostRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	jwtManager := iutils.NewJWTManager(
		cfg.Security.JWT.Secret,
		cfg.Security.JWT.Issuer,
		cfg.Security.JWT.Expire,
		cfg.Security.JWT.RefreshTTL,
	)

	// services
	authService := auth.NewAuthService(userRepo, jwtManager, redisClient, cfg.Security.JWT.Expire)
	userService := user.NewUserService(db, userRepo, sellerRepo, tracker)
	groupService := chat.NewGroupService(db, groupRepo, postRepo, userRepo, tracker, cleaner)
	messageService := chat.NewMessageService(db, groupRepo, messageRepo, dispatcher, tracker, &cfg.Market)
	requestService := order.NewRequestService(db, userRepo, postRepo, groupRepo, orderRepo, dispatcher, tracker, &cfg.Market)
	completeService := order.NewCompleteService(db, userRepo, groupRepo, orderRepo, dispatcher, tracker, &cfg.Market)
	notificationService := notification.NewNotificationService(notificationRepo)

	// handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	chatHandler := handler.NewChatHandler(groupService, messageService, publisher)
	orderHandler := handler.NewOrderHandler(requestService, completeService, publisher)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	router := setupRouter(cfg, authService,
		authHandler, userHandler, chatHandler, orderHandler, notificationHandler)

	server := &http.Server{
		Addr:           cfg.Server.GetAddr(),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.WithFields(map[string]interface{}{
			"addr": server.Addr,
			"mode": cfg.Server.Mode,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	stopWorker()
	queue.Close()
	if err := tracer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("Failed to shut down tracer")
	}

	log.Info("Server exited")
}

func setupRouter(
	cfg *config.Config,
	authService auth.AuthService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	chatHandler *handler.ChatHandler,
	orderHandler *handler.OrderHandler,
	notificationHandler *handler.NotificationHandler,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	if cfg.Security.CORS.Enabled {
		router.Use(middleware.CORS(cfg.Security.CORS.AllowOrigins))
	}

	router.GET("/health", healthCheck)
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.RefreshToken)
	}

	protected := v1.Group("")
	protected.Use(middleware.Auth(authService))
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.PerUser.RPS, cfg.RateLimit.PerUser.Burst)
		protected.Use(limiter.Handler())
	}
	{
		protected.POST("/auth/logout", authHandler.Logout)

		// account
		protected.GET("/me", userHandler.Me)
		protected.POST("/me/top-up", userHandler.TopUp)
		protected.PUT("/me/settings", userHandler.UpdateSettings)
		protected.POST("/me/connect", userHandler.Connect)
		protected.POST("/me/disconnect", userHandler.Disconnect)

		// saved sellers
		protected.GET("/saved-sellers", userHandler.ListSavedSellers)
		protected.POST("/sellers/:id/save", userHandler.SaveSeller)
		protected.DELETE("/sellers/:id/save", userHandler.UnsaveSeller)

		// conversations
		protected.POST("/groups", chatHandler.CreateGroup)
		protected.GET("/groups", chatHandler.ListGroups)
		protected.PATCH("/groups/:id", chatHandler.UpdateGroup)
		protected.DELETE("/groups/:id", chatHandler.DeleteGroup)
		protected.POST("/groups/:id/read", chatHandler.ReadGroup)
		protected.POST("/groups/:id/members", chatHandler.AddMembers)
		protected.DELETE("/groups/:id/members/:userID", chatHandler.RemoveMember)
		protected.POST("/groups/:id/messages", chatHandler.SendMessage)
		protected.GET("/groups/:id/messages", chatHandler.ListMessages)

		// order negotiation
		protected.POST("/order-requests", orderHandler.CreateRequest)
		protected.POST("/order-requests/:id/resolve", orderHandler.ResolveRequest)
		protected.POST("/orders/:id/complete-requests", orderHandler.CreateCompleteRequest)
		protected.POST("/complete-requests/:id/resolve", orderHandler.ResolveCompleteRequest)

		// notifications
		protected.GET("/notifications", notificationHandler.List)
		protected.POST("/notifications/:id/read", notificationHandler.MarkRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	}

	return router
}

func healthCheck(c *gin.Context) {
	health := gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"services": gin.H{
			"database": serviceHealth(database.Health()),
			"redis":    serviceHealth(redis.Health()),
		},
	}

	if database.Health() != nil || redis.Health() != nil {
		health["status"] = "error"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	c.JSON(http.StatusOK, health)
}

func serviceHealth(err error) gin.H {
	if err != nil {
		return gin.H{"healthy": false, "error": err.Error()}
	}
	return gin.H{"healthy": true}
}
