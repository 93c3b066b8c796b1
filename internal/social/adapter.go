package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Platform identifies one external social network
type Platform string

const (
	PlatformTelegram  Platform = "telegram"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
)

// FallbackImageURL is posted when a listing has no images, so platforms
// that require media (Facebook, Instagram) are never given an imageless post.
const FallbackImageURL = "https://bozormarket.uz/public/static/default-listing.png"

// PostContent is the rendered, platform-specific input to an adapter.
// Text is already formatted for the target platform (HTML for Telegram,
// plain text elsewhere). Images are absolute URLs; adapters reference
// them by URL and never receive raw bytes. The button fields are only
// honored by Telegram.
type PostContent struct {
	Text       string
	ImageURLs  []string
	ButtonText string
	LinkURL    string
}

// PostResult is the per-platform outcome of one orchestrated call.
// Exactly one of ExternalID and Err is meaningful.
type PostResult struct {
	Platform   Platform
	ExternalID *string
	Err        error
}

// Adapter is the uniform publish/update/delete capability each platform
// implements. Adapters fail fast and return an error; they never retry
// internally and never panic into the caller.
type Adapter interface {
	Platform() Platform
	Publish(ctx context.Context, content PostContent) (string, error)
	Update(ctx context.Context, externalID string, content PostContent) error
	Delete(ctx context.Context, externalID string) error
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// doJSON sends a JSON request and decodes the JSON response body into
// out, even for non-2xx statuses (the platform APIs return structured
// errors in the body). It returns the HTTP status code; a non-nil error
// means transport or decode failure, not an API-level error.
func doJSON(ctx context.Context, client *http.Client, method, url string, payload, out interface{}) (int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
		}
	}
	return resp.StatusCode, nil
}
