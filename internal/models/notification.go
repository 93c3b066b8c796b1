package models

import "time"

// Notification priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Notification types
const (
	NotificationTypeMessage   = "message"
	NotificationTypeProductAd = "product-ad"
)

// Notification represents a durable in-app notification (PostgreSQL).
// A row is written whenever a push is attempted, regardless of whether
// the push itself was delivered; it is the inbox source of truth.
type Notification struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	ReceiverID  uint       `json:"receiver_id" gorm:"index"`
	SenderID    uint       `json:"sender_id" gorm:"index"`
	Type        string     `json:"type" gorm:"size:30;index"` // message, product-ad
	Content     string     `json:"content"`
	HasBeenSeen bool       `json:"has_been_seen" gorm:"default:false;index"`
	IsGlobal    bool       `json:"is_global" gorm:"default:false"`
	ReferenceID string     `json:"reference_id"`              // message ID or push message ID
	Priority    string     `json:"priority" gorm:"size:10"`   // low, medium, high
	Metadata    string     `json:"metadata,omitempty" gorm:"type:jsonb"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
}
