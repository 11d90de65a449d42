// @title Study Mitra API
// @version 1.0
// @description AI tutor chat and AI-generated multiple-choice quizzes.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"study-mitra/internal/adapter"
	"study-mitra/internal/adapter/broker"
	"study-mitra/internal/adapter/llm"
	"study-mitra/internal/adapter/quizgen"
	"study-mitra/internal/adapter/storage"
	"study-mitra/internal/adapter/tutor"
	"study-mitra/internal/cache"
	"study-mitra/internal/config"
	"study-mitra/internal/database"
	"study-mitra/internal/handler"
	"study-mitra/internal/logger"
	"study-mitra/internal/middleware"
	"study-mitra/internal/repository"
	"study-mitra/internal/service"
	"study-mitra/internal/validation"

	_ "study-mitra/cmd/api/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Database
	db, err := database.NewSQLXPostgresDB(cfg)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepository := repository.NewSQLXUserRepository(db)
	quizRepository := repository.NewSQLXQuizRepository(db)
	chatRepository := repository.NewSQLXChatRepository(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	// Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Successfully connected to Redis")
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)
	chatFeed := broker.NewRedisChatFeed(redisClient, chatRepository)
	revoker := broker.NewCacheSessionRevoker(cacheAdapter)

	// LLM
	model, err := llm.NewModel(cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	generator, err := quizgen.NewGenerator(model, cfg.LLM.Temperature, cfg.LLM.Timeout)
	if err != nil {
		appLogger.Fatal("Failed to create quiz generator", zap.Error(err))
	}
	gateway, err := tutor.NewGateway(model, cfg.LLM.Temperature, cfg.LLM.Timeout)
	if err != nil {
		appLogger.Fatal("Failed to create tutor gateway", zap.Error(err))
	}
	appLogger.Info("LLM initialized", zap.String("provider", cfg.LLM.Provider), zap.String("model", cfg.LLM.Model))

	// Object storage
	gcsClient, err := storage.NewGCSClient(context.Background(), cfg.Storage)
	if err != nil {
		appLogger.Fatal("Failed to create storage client", zap.Error(err))
	}
	defer gcsClient.Close()
	photoStorage, err := storage.NewGCSPhotoStorage(gcsClient, cfg.Storage)
	if err != nil {
		appLogger.Fatal("Failed to create photo storage", zap.Error(err))
	}
	normalizer := storage.NewSquareJPEGNormalizer(cfg.Storage.PhotoSize)

	// Services
	authService, err := service.NewAuthService(userRepository, revoker, cfg.Auth)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}
	quizService := service.NewQuizService(quizRepository, userRepository, generator, cacheAdapter, txManager, cfg.Cache.SessionTTL)
	chatService := service.NewChatService(chatRepository, gateway, chatFeed)
	profileService := service.NewProfileService(userRepository, photoStorage, normalizer, cacheAdapter)
	dashboardService := service.NewDashboardService(userRepository, quizRepository, cacheAdapter, cfg.Cache.DashboardTTL)

	// Handlers
	validator := validation.NewValidator()
	handlers := handler.Handlers{
		Auth:   handler.NewAuthHandler(authService, validator),
		User:   handler.NewUserHandler(profileService, dashboardService, validator, cfg.Storage.MaxUploadBytes),
		Quiz:   handler.NewQuizHandler(quizService, validator),
		Chat:   handler.NewChatHandler(chatService, validator, cfg.Server.StreamHeartbeat),
		Health: handler.NewHealthHandler(db, cacheAdapter),
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
		MaxAge:       300,
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)
	handler.RegisterRoutes(app, handlers, authService)

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
