package models

// Job queue lane names. Each lane drains independently so a backlog in
// one (slow Instagram retries) cannot starve another (push delivery).
const (
	LaneSocialPostCreate = "social-post-create"
	LaneSocialPostUpdate = "social-post-update"
	LaneSocialPostDelete = "social-post-delete"
	LanePushNotification = "push-notification"
)

// ListingSnapshot carries the listing fields needed to render platform
// messages, captured at enqueue time so the job does not depend on
// later edits to the row.
type ListingSnapshot struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	RegionName  string  `json:"region_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// CreateSocialPostJob publishes a freshly created listing to the social platforms
type CreateSocialPostJob struct {
	OwnerID      uint            `json:"owner_id"`
	Listing      ListingSnapshot `json:"listing"`
	ContactName  string          `json:"contact_name"`
	ContactPhone string          `json:"contact_phone"`
	ImageURLs    []string        `json:"image_urls"`
	IsShop       bool            `json:"is_shop"`
	ShopName     string          `json:"shop_name,omitempty"`
}

// UpdateSocialPostJob re-publishes the posts of an edited listing.
// Only platforms with a stored external post id are targeted.
type UpdateSocialPostJob struct {
	ListingID   uint   `json:"listing_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DeleteSocialPostJob removes the posts of a deleted listing. The ids
// are snapshotted because the listing row may already be gone when the
// job runs.
type DeleteSocialPostJob struct {
	ListingID       uint    `json:"listing_id"`
	TelegramPostID  *string `json:"telegram_post_id,omitempty"`
	FacebookPostID  *string `json:"facebook_post_id,omitempty"`
	InstagramPostID *string `json:"instagram_post_id,omitempty"`
}

// PushNotificationJob delivers one push notification to one receiver
type PushNotificationJob struct {
	ReceiverID  uint              `json:"receiver_id"`
	SenderID    uint              `json:"sender_id"`
	FCMToken    string            `json:"fcm_token"`
	Type        string            `json:"type"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Priority    string            `json:"priority"`
	ReferenceID string            `json:"reference_id,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}
