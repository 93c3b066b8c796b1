package router

import (
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/bozormarket/backend/internal/chat"
	"github.com/bozormarket/backend/internal/handlers"
	"github.com/bozormarket/backend/internal/middleware"
	"github.com/bozormarket/backend/internal/models"
	"github.com/bozormarket/backend/internal/presence"
	"github.com/bozormarket/backend/internal/queue"
	"github.com/bozormarket/backend/internal/repositories"
	"github.com/bozormarket/backend/pkg/config"
	"github.com/bozormarket/backend/pkg/firebase"
	"github.com/bozormarket/backend/pkg/logger"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, db *config.DB, firebaseApp *firebase.App, cfg *config.Config, appLogger *logger.Logger) {
	// AutoMigrate PostgreSQL models
	err := db.Postgres.AutoMigrate(
		&models.User{},
		&models.ShopProfile{},
		&models.ShopSubscription{},
		&models.Listing{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	listingRepo := repositories.NewPostgresListingRepository(db.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)
	messageRepo := repositories.NewMongoMessageRepository(db.Mongo.Database("bozormarket"))
	cacheRepo := repositories.NewRedisCacheRepository(db.Redis)

	// --- Job queue (enqueue side; the worker binary consumes) ---
	jobQueue := queue.New(db.Redis, appLogger)

	// --- Chat infrastructure ---
	hub := chat.NewHub()
	tracker := presence.NewTracker()
	uploads := chat.NewPendingUploads(chat.DefaultUploadTTL)
	deliveryRouter := chat.NewDeliveryRouter(hub, tracker, userRepo, messageRepo, jobQueue, cfg.PublicAPIBase, appLogger)
	gateway := chat.NewGateway(hub, tracker, deliveryRouter, appLogger)

	// --- Protected routes (require Firebase authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.FirebaseAuthMiddleware(firebaseApp.AuthClient, userRepo))

	// Listing routes
	listingHandler := handlers.NewListingHandler(listingRepo, userRepo, cacheRepo, jobQueue, appLogger)
	listingHandler.RegisterListingRoutes(api)

	// Chat routes
	messageHandler := handlers.NewMessageHandler(messageRepo, deliveryRouter, uploads, cfg.ChatUploadDir, appLogger)
	messageHandler.RegisterMessageRoutes(api)

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, cacheRepo, appLogger)
	notificationHandler.RegisterNotificationRoutes(api)

	// Websocket chat gateway
	api.GET("/ws/chat", func(c echo.Context) error {
		userID := c.Get("userID").(uint)
		return gateway.Serve(c.Response(), c.Request(), userID)
	})

	appLogger.Infow("routes configured")
}
