package main

import (
	"os"
	"time"

	_ "procurement/api/swagger" // swagger docs
	"procurement/internal/cache"
	"procurement/internal/database"
	"procurement/internal/handler"
	"procurement/internal/middleware"
	"procurement/internal/repository"
	"procurement/internal/service"
	"procurement/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           Procurement Workflow API
// @version         1.0
// @description     Purchase request lifecycle: drafting, line approval, workflow transitions.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if os.Getenv("GIN_MODE") != "release" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if err := godotenv.Load("configs/.env"); err != nil {
		logger.Info().Msg("no configs/.env file found")
	}

	dsn := "postgres://" + envOr("DB_USER", "postgres") +
		":" + envOr("DB_PASSWORD", "postgres") +
		"@" + envOr("DB_HOST", "localhost") +
		":" + envOr("DB_PORT", "5432") +
		"/" + envOr("DB_NAME", "procurement") +
		"?sslmode=" + envOr("DB_SSLMODE", "disable")

	db, err := database.NewConnection(dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	logger.Info().Msg("connected to PostgreSQL")

	// Redis document cache is optional; without REDIS_ADDR every read goes
	// straight to the database.
	var docCache *cache.DocumentCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		docCache = cache.NewDocumentCache(rdb, 5*time.Minute)
		logger.Info().Str("addr", addr).Msg("document cache enabled")
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	prRepo := repository.NewPurchaseRequestRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	productRepo := repository.NewProductRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	taxRepo := repository.NewTaxProfileRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, wsHub, logger)
	prService := service.NewPurchaseRequestService(
		prRepo, productRepo, locationRepo, vendorRepo, taxRepo, auditRepo, txManager, docCache, logger)
	actionService := service.NewWorkflowActionService(
		prRepo, workflowRepo, auditRepo, txManager, docCache, notificationService, logger)
	lookupService := service.NewLookupService(productRepo, locationRepo, vendorRepo, taxRepo, workflowRepo)
	authService := service.NewAuthService(userRepo, middleware.GetJWTSecret())
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	prHandler := handler.NewPurchaseRequestHandler(prService, actionService, authService)
	lookupHandler := handler.NewLookupHandler(lookupService)
	authHandler := handler.NewAuthHandler(authService)
	auditHandler := handler.NewAuditHandler(auditService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	prHandler.RegisterRoutes(router.Group(""))
	lookupHandler.RegisterRoutes(router.Group(""))
	authHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	notificationHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")
	logger.Info().Str("port", port).Msg("server listening")
	if err := router.Run(":" + port); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
