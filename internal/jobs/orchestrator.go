package jobs

import (
	"context"

	"github.com/bozormarket/backend/internal/queue"
	"github.com/bozormarket/backend/internal/repositories"
	"github.com/bozormarket/backend/internal/social"
	"github.com/bozormarket/backend/pkg/logger"
)

// Enqueuer is the slice of the job queue the orchestrator needs
type Enqueuer interface {
	Enqueue(ctx context.Context, lane string, payload interface{}, opts ...queue.Option) (string, error)
}

// Config tunes the orchestrator
type Config struct {
	SiteBaseURL string
	// Instagram publishes are retried inside the job because container
	// processing is flaky on the platform side.
	InstagramAttempts   int
	InstagramRetryDelay int // seconds
}

// Orchestrator runs the social-post job handlers. Each handler is
// registered on its own queue lane; per-platform failures inside a
// handler are contained so one broken platform cannot block the others.
type Orchestrator struct {
	adapters map[social.Platform]social.Adapter
	listings repositories.ListingRepository
	users    repositories.UserRepository
	cache    repositories.CacheRepository
	jobs     Enqueuer
	cfg      Config
	logger   *logger.Logger
}

func NewOrchestrator(
	adapters []social.Adapter,
	listings repositories.ListingRepository,
	users repositories.UserRepository,
	cache repositories.CacheRepository,
	jobs Enqueuer,
	cfg Config,
	log *logger.Logger,
) *Orchestrator {
	byPlatform := make(map[social.Platform]social.Adapter, len(adapters))
	for _, adapter := range adapters {
		byPlatform[adapter.Platform()] = adapter
	}
	if cfg.InstagramAttempts <= 0 {
		cfg.InstagramAttempts = 3
	}
	if cfg.InstagramRetryDelay <= 0 {
		cfg.InstagramRetryDelay = 2
	}
	return &Orchestrator{
		adapters: byPlatform,
		listings: listings,
		users:    users,
		cache:    cache,
		jobs:     jobs,
		cfg:      cfg,
		logger:   log,
	}
}
