package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bozormarket/backend/internal/models"
	"github.com/bozormarket/backend/internal/queue"
	"github.com/bozormarket/backend/internal/social"
)

// fanOutStagger spaces out subscriber push jobs so a popular shop does
// not burst the push lane.
const fanOutStagger = 200 * time.Millisecond

// HandleCreatePost publishes a new listing to every configured platform.
// The three publishes run concurrently and fail independently; whatever
// succeeded is written back to the listing row in a single update. The
// job itself always completes: retrying it would double-post on the
// platforms that already succeeded.
func (o *Orchestrator) HandleCreatePost(ctx context.Context, job *queue.Job) error {
	var payload models.CreateSocialPostJob
	if err := job.Unmarshal(&payload); err != nil {
		return fmt.Errorf("unmarshal create-post payload: %w", err)
	}

	results := o.publishAll(ctx, payload)

	var telegramID, facebookID, instagramID *string
	for _, result := range results {
		if result.Err != nil {
			o.logger.Errorw("platform publish failed",
				"platform", result.Platform, "listing_id", payload.Listing.ID, "error", result.Err)
			continue
		}
		o.logger.Infow("platform publish succeeded",
			"platform", result.Platform, "listing_id", payload.Listing.ID, "external_id", *result.ExternalID)

		switch result.Platform {
		case social.PlatformTelegram:
			telegramID = result.ExternalID
		case social.PlatformFacebook:
			facebookID = result.ExternalID
		case social.PlatformInstagram:
			instagramID = result.ExternalID
		}
	}

	// One write for all three references. A failure here is logged and
	// swallowed: the posts exist either way, and retrying the job would
	// publish them again.
	if err := o.listings.UpdateSocialPostIDs(payload.Listing.ID, telegramID, facebookID, instagramID); err != nil {
		o.logger.Errorw("storing social post ids failed", "listing_id", payload.Listing.ID, "error", err)
	}

	if err := o.cache.DeleteByPattern(ctx, "products:*"); err != nil {
		o.logger.Warnw("invalidating products cache failed", "error", err)
	}

	if payload.IsShop {
		o.fanOutToSubscribers(ctx, payload)
	}
	return nil
}

// publishAll runs the per-platform publishes concurrently and collects
// one result per configured adapter.
func (o *Orchestrator) publishAll(ctx context.Context, payload models.CreateSocialPostJob) []social.PostResult {
	contents := map[social.Platform]social.PostContent{
		social.PlatformTelegram: {
			Text:       renderTelegramHTML(payload, o.cfg.SiteBaseURL),
			ImageURLs:  payload.ImageURLs,
			ButtonText: postButtonText,
			LinkURL:    listingURL(o.cfg.SiteBaseURL, payload.Listing.Slug),
		},
		social.PlatformFacebook: {
			Text:      renderPlain(payload, o.cfg.SiteBaseURL),
			ImageURLs: payload.ImageURLs,
		},
		social.PlatformInstagram: {
			Text:      renderInstagramCaption(payload, o.cfg.SiteBaseURL),
			ImageURLs: payload.ImageURLs,
		},
	}

	var (
		mu      sync.Mutex
		results []social.PostResult
		wg      sync.WaitGroup
	)
	for platform, adapter := range o.adapters {
		content, ok := contents[platform]
		if !ok {
			continue
		}

		wg.Add(1)
		go func(platform social.Platform, adapter social.Adapter, content social.PostContent) {
			defer wg.Done()

			externalID, err := o.publishOne(ctx, platform, adapter, content)
			result := social.PostResult{Platform: platform, Err: err}
			if err == nil {
				result.ExternalID = &externalID
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(platform, adapter, content)
	}
	wg.Wait()
	return results
}

// publishOne calls the adapter, wrapping Instagram in a short in-job
// retry. Instagram containers intermittently fail to process; the other
// platforms fail deterministically and retrying them inline only adds
// latency.
func (o *Orchestrator) publishOne(ctx context.Context, platform social.Platform, adapter social.Adapter, content social.PostContent) (string, error) {
	if platform != social.PlatformInstagram {
		return adapter.Publish(ctx, content)
	}

	var externalID string
	operation := func() error {
		id, err := adapter.Publish(ctx, content)
		if err != nil {
			return err
		}
		externalID = id
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(time.Duration(o.cfg.InstagramRetryDelay)*time.Second),
			uint64(o.cfg.InstagramAttempts-1),
		),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return externalID, nil
}

// fanOutToSubscribers enqueues one push job per shop subscriber, each
// delayed a bit more than the last.
func (o *Orchestrator) fanOutToSubscribers(ctx context.Context, payload models.CreateSocialPostJob) {
	shop, err := o.users.GetShopWithSubscribers(payload.OwnerID)
	if err != nil {
		o.logger.Errorw("loading shop subscribers failed", "owner_id", payload.OwnerID, "error", err)
		return
	}
	if shop == nil || len(shop.Subscriptions) == 0 {
		return
	}

	enqueued := 0
	for _, subscription := range shop.Subscriptions {
		subscriber := subscription.Subscriber
		if subscriber.FCMToken == "" {
			continue
		}

		pushJob := models.PushNotificationJob{
			ReceiverID:  subscriber.ID,
			SenderID:    payload.OwnerID,
			FCMToken:    subscriber.FCMToken,
			Type:        models.NotificationTypeProductAd,
			Title:       fmt.Sprintf("Новое объявление от %s", shop.ShopName),
			Body:        payload.Listing.Name,
			Priority:    models.PriorityLow,
			ReferenceID: fmt.Sprintf("%d", payload.Listing.ID),
			Data: map[string]string{
				"type":         "product-ad",
				"listing_id":   fmt.Sprintf("%d", payload.Listing.ID),
				"listing_slug": payload.Listing.Slug,
				"shop_name":    shop.ShopName,
			},
		}

		enqueued++
		delay := time.Duration(enqueued) * fanOutStagger
		if _, err := o.jobs.Enqueue(ctx, models.LanePushNotification, pushJob, queue.WithDelay(delay)); err != nil {
			o.logger.Errorw("enqueueing subscriber push failed",
				"subscriber_id", subscriber.ID, "listing_id", payload.Listing.ID, "error", err)
		}
	}

	o.logger.Infow("shop subscribers notified",
		"shop_name", shop.ShopName, "listing_id", payload.Listing.ID, "pushes", enqueued)
}
