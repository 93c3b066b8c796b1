package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"

	"github.com/bozormarket/backend/internal/router"
	"github.com/bozormarket/backend/pkg/config"
	"github.com/bozormarket/backend/pkg/firebase"
	"github.com/bozormarket/backend/pkg/logger"
	"github.com/bozormarket/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	appLogger := logger.New(cfg.Env)
	defer appLogger.Close()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase
	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db, firebaseApp, cfg, appLogger)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
