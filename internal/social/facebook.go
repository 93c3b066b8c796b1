package social

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bozormarket/backend/pkg/logger"
)

const facebookGraphBase = "https://graph.facebook.com"

// FacebookAdapter posts listings to a Facebook page via the Graph API
type FacebookAdapter struct {
	client      *http.Client
	baseURL     string
	pageID      string
	accessToken string
	logger      *logger.Logger
}

func NewFacebookAdapter(pageID, accessToken string, timeout time.Duration, log *logger.Logger) *FacebookAdapter {
	return &FacebookAdapter{
		client:      newHTTPClient(timeout),
		baseURL:     facebookGraphBase,
		pageID:      pageID,
		accessToken: accessToken,
		logger:      log,
	}
}

func (a *FacebookAdapter) Platform() Platform { return PlatformFacebook }

type fbError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

type fbResponse struct {
	ID      string   `json:"id"`
	PostID  string   `json:"post_id"`
	Success bool     `json:"success"`
	Error   *fbError `json:"error"`
}

// Publish uploads every image as an unpublished photo object and then
// creates a feed post attaching them. Facebook page posts are never
// published imageless here: with no supplied images the fixed fallback
// is uploaded instead. A failed upload aborts the whole post so a
// multi-image post is never published with photos missing.
func (a *FacebookAdapter) Publish(ctx context.Context, content PostContent) (string, error) {
	images := content.ImageURLs
	if len(images) == 0 {
		images = []string{FallbackImageURL}
	}

	photoIDs := make([]string, 0, len(images))
	for _, imageURL := range images {
		photoID, err := a.uploadPhoto(ctx, imageURL)
		if err != nil {
			return "", fmt.Errorf("facebook image upload failed for %s: %w", imageURL, err)
		}
		photoIDs = append(photoIDs, photoID)
	}

	attached := make([]map[string]string, 0, len(photoIDs))
	for _, id := range photoIDs {
		attached = append(attached, map[string]string{"media_fbid": id})
	}

	payload := map[string]interface{}{
		"message":        content.Text,
		"access_token":   a.accessToken,
		"attached_media": attached,
	}

	var resp fbResponse
	if _, err := doJSON(ctx, a.client, http.MethodPost, fmt.Sprintf("%s/%s/feed", a.baseURL, a.pageID), payload, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("facebook feed post: %s (code %d)", resp.Error.Message, resp.Error.Code)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("facebook feed post: empty id in response")
	}

	// The feed endpoint answers "{pageId}_{postId}"; only the post part
	// is stored, Update/Delete re-assemble the full form.
	if idx := strings.Index(resp.ID, "_"); idx >= 0 {
		return resp.ID[idx+1:], nil
	}
	return resp.ID, nil
}

// uploadPhoto creates an unpublished photo object from an image URL
func (a *FacebookAdapter) uploadPhoto(ctx context.Context, imageURL string) (string, error) {
	payload := map[string]interface{}{
		"url":          imageURL,
		"access_token": a.accessToken,
		"published":    false,
	}

	var resp fbResponse
	if _, err := doJSON(ctx, a.client, http.MethodPost, fmt.Sprintf("%s/%s/photos", a.baseURL, a.pageID), payload, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("%s (code %d)", resp.Error.Message, resp.Error.Code)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("empty photo id in response")
	}
	return resp.ID, nil
}

// Update edits the post message; the Graph API addresses page posts as
// {pageId}_{postId}.
func (a *FacebookAdapter) Update(ctx context.Context, externalID string, content PostContent) error {
	payload := map[string]interface{}{
		"message":      content.Text,
		"access_token": a.accessToken,
	}

	var resp fbResponse
	if _, err := doJSON(ctx, a.client, http.MethodPost, fmt.Sprintf("%s/%s_%s", a.baseURL, a.pageID, externalID), payload, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("facebook update: %s (code %d)", resp.Error.Message, resp.Error.Code)
	}
	return nil
}

// Delete removes the post. A post that no longer exists counts as
// success so queue redelivery stays harmless.
func (a *FacebookAdapter) Delete(ctx context.Context, externalID string) error {
	deleteURL := fmt.Sprintf("%s/%s_%s?%s", a.baseURL, a.pageID, externalID,
		url.Values{"access_token": {a.accessToken}}.Encode())

	var resp fbResponse
	if _, err := doJSON(ctx, a.client, http.MethodDelete, deleteURL, nil, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		if strings.Contains(strings.ToLower(resp.Error.Message), "does not exist") {
			return nil
		}
		return fmt.Errorf("facebook delete: %s (code %d)", resp.Error.Message, resp.Error.Code)
	}
	return nil
}
