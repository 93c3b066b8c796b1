package jobs

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/bozormarket/backend/internal/models"
	"github.com/bozormarket/backend/internal/queue"
	"github.com/bozormarket/backend/internal/social"
)

// stubAdapter records calls and returns scripted results
type stubAdapter struct {
	mu       sync.Mutex
	platform social.Platform

	publishID    string
	publishErr   error
	publishCalls int

	updateErr   error
	updateCalls []string

	deleteErr   error
	deleteCalls []string
}

func (s *stubAdapter) Platform() social.Platform { return s.platform }

func (s *stubAdapter) Publish(ctx context.Context, content social.PostContent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishCalls++
	if s.publishErr != nil {
		return "", s.publishErr
	}
	return s.publishID, nil
}

func (s *stubAdapter) Update(ctx context.Context, externalID string, content social.PostContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls = append(s.updateCalls, externalID)
	return s.updateErr
}

func (s *stubAdapter) Delete(ctx context.Context, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls = append(s.deleteCalls, externalID)
	return s.deleteErr
}

type storedIDs struct {
	telegram, facebook, instagram *string
}

// stubListingRepo serves one listing and records the id write
type stubListingRepo struct {
	listing   *models.Listing
	getErr    error
	updateErr error
	idWrites  []storedIDs
}

func (s *stubListingRepo) CreateListing(listing *models.Listing) error { return nil }

func (s *stubListingRepo) GetListingByID(id uint) (*models.Listing, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.listing, nil
}

func (s *stubListingRepo) GetListingBySlug(slug string) (*models.Listing, error) {
	return s.listing, nil
}

func (s *stubListingRepo) GetListingsByUserID(userID uint, page, limit int) ([]models.Listing, int64, error) {
	return nil, 0, nil
}

func (s *stubListingRepo) UpdateListing(listing *models.Listing) error { return nil }

func (s *stubListingRepo) UpdateSocialPostIDs(listingID uint, telegramID, facebookID, instagramID *string) error {
	s.idWrites = append(s.idWrites, storedIDs{telegramID, facebookID, instagramID})
	return s.updateErr
}

func (s *stubListingRepo) DeleteListing(id uint) error { return nil }

// stubUserRepo serves one user and one optional shop
type stubUserRepo struct {
	user *models.User
	shop *models.ShopProfile
}

func (s *stubUserRepo) GetUserByID(id uint) (*models.User, error)             { return s.user, nil }
func (s *stubUserRepo) GetUserByFirebaseUID(uid string) (*models.User, error) { return s.user, nil }
func (s *stubUserRepo) GetShopWithSubscribers(userID uint) (*models.ShopProfile, error) {
	return s.shop, nil
}

// stubCache records invalidated patterns
type stubCache struct {
	deletedPatterns []string
	deletedKeys     []string
}

func (s *stubCache) Get(ctx context.Context, key string) ([]byte, error) { return nil, nil }
func (s *stubCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
func (s *stubCache) Delete(ctx context.Context, keys ...string) error {
	s.deletedKeys = append(s.deletedKeys, keys...)
	return nil
}
func (s *stubCache) DeleteByPattern(ctx context.Context, pattern string) error {
	s.deletedPatterns = append(s.deletedPatterns, pattern)
	return nil
}

type enqueuedJob struct {
	lane    string
	payload interface{}
	delay   time.Duration
}

// stubEnqueuer records enqueued jobs with their delivery delays
type stubEnqueuer struct {
	mu   sync.Mutex
	jobs []enqueuedJob
}

func (s *stubEnqueuer) Enqueue(ctx context.Context, lane string, payload interface{}, opts ...queue.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, enqueuedJob{lane: lane, payload: payload, delay: queue.DelayOf(opts...)})
	return "job-id", nil
}

func mustJob(lane string, payload interface{}) *queue.Job {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return &queue.Job{ID: "test-job", Lane: lane, Payload: data}
}
