package social

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bozormarket/backend/pkg/logger"
)

const instagramGraphBase = "https://graph.facebook.com/v17.0"

// InstagramAdapter posts listings to an Instagram business account via
// the Graph API. Instagram media goes through containers: a container
// is created, polled until the platform reports it FINISHED, and only
// then published.
type InstagramAdapter struct {
	client      *http.Client
	baseURL     string
	accountID   string
	accessToken string
	pollDelay   time.Duration
	pollMax     int
	logger      *logger.Logger
}

func NewInstagramAdapter(accountID, accessToken string, timeout, pollDelay time.Duration, pollMax int, log *logger.Logger) *InstagramAdapter {
	if pollMax <= 0 {
		pollMax = 10
	}
	if pollDelay <= 0 {
		pollDelay = 3 * time.Second
	}
	return &InstagramAdapter{
		client:      newHTTPClient(timeout),
		baseURL:     instagramGraphBase,
		accountID:   accountID,
		accessToken: accessToken,
		pollDelay:   pollDelay,
		pollMax:     pollMax,
		logger:      log,
	}
}

func (a *InstagramAdapter) Platform() Platform { return PlatformInstagram }

type igResponse struct {
	ID         string   `json:"id"`
	StatusCode string   `json:"status_code"`
	Error      *fbError `json:"error"`
}

// Publish creates a single-image post or a carousel depending on image
// count. A carousel child that fails to upload is logged and skipped;
// the carousel publishes as long as at least one child survived.
func (a *InstagramAdapter) Publish(ctx context.Context, content PostContent) (string, error) {
	images := content.ImageURLs
	if len(images) == 0 {
		images = []string{FallbackImageURL}
	}

	if len(images) == 1 {
		return a.publishSingleImage(ctx, images[0], content.Text)
	}
	return a.publishCarousel(ctx, images, content.Text)
}

func (a *InstagramAdapter) publishSingleImage(ctx context.Context, imageURL, caption string) (string, error) {
	creationID, err := a.createContainer(ctx, map[string]interface{}{
		"image_url":    imageURL,
		"caption":      caption,
		"access_token": a.accessToken,
	})
	if err != nil {
		return "", fmt.Errorf("instagram container: %w", err)
	}

	if err := a.waitUntilReady(ctx, creationID); err != nil {
		return "", err
	}
	return a.publishMedia(ctx, creationID)
}

func (a *InstagramAdapter) publishCarousel(ctx context.Context, images []string, caption string) (string, error) {
	childIDs := make([]string, 0, len(images))
	for _, imageURL := range images {
		childID, err := a.createContainer(ctx, map[string]interface{}{
			"image_url":        imageURL,
			"is_carousel_item": true,
			"access_token":     a.accessToken,
		})
		if err != nil {
			a.logger.Errorw("instagram carousel image upload failed, skipping", "image", imageURL, "error", err)
			continue
		}
		childIDs = append(childIDs, childID)
	}

	if len(childIDs) == 0 {
		return "", fmt.Errorf("instagram carousel: no image could be uploaded")
	}

	carouselID, err := a.createContainer(ctx, map[string]interface{}{
		"media_type":   "CAROUSEL",
		"caption":      caption,
		"children":     childIDs,
		"access_token": a.accessToken,
	})
	if err != nil {
		return "", fmt.Errorf("instagram carousel container: %w", err)
	}

	if err := a.waitUntilReady(ctx, carouselID); err != nil {
		return "", err
	}
	return a.publishMedia(ctx, carouselID)
}

func (a *InstagramAdapter) createContainer(ctx context.Context, payload map[string]interface{}) (string, error) {
	var resp igResponse
	if _, err := doJSON(ctx, a.client, http.MethodPost, fmt.Sprintf("%s/%s/media", a.baseURL, a.accountID), payload, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("%s (code %d)", resp.Error.Message, resp.Error.Code)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("empty container id in response")
	}
	return resp.ID, nil
}

// waitUntilReady polls the container status until FINISHED. The loop is
// bounded by pollMax attempts with a fixed delay; exhausting it fails
// the publish rather than risking a publish of an unprocessed container.
func (a *InstagramAdapter) waitUntilReady(ctx context.Context, creationID string) error {
	statusURL := fmt.Sprintf("%s/%s?%s", a.baseURL, creationID, url.Values{
		"fields":       {"status_code"},
		"access_token": {a.accessToken},
	}.Encode())

	for i := 0; i < a.pollMax; i++ {
		var resp igResponse
		if _, err := doJSON(ctx, a.client, http.MethodGet, statusURL, nil, &resp); err != nil {
			return err
		}
		if resp.Error != nil {
			return fmt.Errorf("instagram status check: %s (code %d)", resp.Error.Message, resp.Error.Code)
		}
		if resp.StatusCode == "FINISHED" {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.pollDelay):
		}
	}
	return fmt.Errorf("instagram container %s not ready after %d checks", creationID, a.pollMax)
}

func (a *InstagramAdapter) publishMedia(ctx context.Context, creationID string) (string, error) {
	payload := map[string]interface{}{
		"creation_id":  creationID,
		"access_token": a.accessToken,
	}

	var resp igResponse
	if _, err := doJSON(ctx, a.client, http.MethodPost, fmt.Sprintf("%s/%s/media_publish", a.baseURL, a.accountID), payload, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("instagram publish: %s (code %d)", resp.Error.Message, resp.Error.Code)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("instagram publish: empty media id in response")
	}
	return resp.ID, nil
}

// Update is not supported: the Graph API does not allow editing the
// caption of a published media post through this flow, so update jobs
// never target Instagram.
func (a *InstagramAdapter) Update(ctx context.Context, externalID string, content PostContent) error {
	return fmt.Errorf("instagram: editing published posts is not supported")
}

// Delete overwrites the caption with a removal notice and disables
// comments. Page access tokens cannot hard-delete Instagram media, so
// defacing the post is the closest achievable removal.
func (a *InstagramAdapter) Delete(ctx context.Context, externalID string) error {
	payload := map[string]interface{}{
		"caption":         "Это объявление было удалено и больше неактивно",
		"comment_enabled": false,
		"access_token":    a.accessToken,
	}

	var resp igResponse
	if _, err := doJSON(ctx, a.client, http.MethodPost, fmt.Sprintf("%s/%s", a.baseURL, externalID), payload, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("instagram delete: %s (code %d)", resp.Error.Message, resp.Error.Code)
	}
	return nil
}
