package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/bozormarket/backend/internal/jobs"
	"github.com/bozormarket/backend/internal/models"
	"github.com/bozormarket/backend/internal/push"
	"github.com/bozormarket/backend/internal/queue"
	"github.com/bozormarket/backend/internal/repositories"
	"github.com/bozormarket/backend/internal/social"
	"github.com/bozormarket/backend/pkg/config"
	"github.com/bozormarket/backend/pkg/firebase"
	"github.com/bozormarket/backend/pkg/logger"
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
	defer db.CloseDB()

	// Initialize Firebase (FCM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Repositories
	listingRepo := repositories.NewPostgresListingRepository(db.Postgres)
	userRepo := repositories.NewPostgresUserRepository(db.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(db.Postgres)
	cacheRepo := repositories.NewRedisCacheRepository(db.Redis)

	// Platform adapters
	adapters := []social.Adapter{
		social.NewTelegramAdapter(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.PlatformTimeout, appLogger),
		social.NewFacebookAdapter(cfg.FacebookPageID, cfg.FacebookPageAccessToken, cfg.PlatformTimeout, appLogger),
		social.NewInstagramAdapter(cfg.InstagramAccountID, cfg.InstagramAccessToken, cfg.PlatformTimeout, cfg.InstagramPollDelay, cfg.InstagramPollMax, appLogger),
	}

	// Job queue and handlers
	jobQueue := queue.New(db.Redis, appLogger)

	orchestrator := jobs.NewOrchestrator(adapters, listingRepo, userRepo, cacheRepo, jobQueue, jobs.Config{
		SiteBaseURL: cfg.SiteBaseURL,
	}, appLogger)

	dispatcher := push.NewDispatcher(firebaseApp.Messaging, notificationRepo, cacheRepo, appLogger)
	pushHandler := jobs.NewPushHandler(dispatcher)

	worker := queue.NewWorker(jobQueue, queue.WorkerConfig{
		MaxRetries:   cfg.QueueMaxRetries,
		RetryBackoff: cfg.QueueRetryBackoff,
		Concurrency:  cfg.WorkerConcurrency,
	}, appLogger)

	worker.Register(models.LaneSocialPostCreate, orchestrator.HandleCreatePost)
	worker.Register(models.LaneSocialPostUpdate, orchestrator.HandleUpdatePost)
	worker.Register(models.LaneSocialPostDelete, orchestrator.HandleDeletePost)
	worker.Register(models.LanePushNotification, pushHandler.Handle)

	// Blocks until the process receives SIGINT or SIGTERM
	worker.Run(ctx)
	appLogger.Infow("worker stopped")
}
