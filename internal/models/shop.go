package models

import "time"

// ShopProfile is the optional storefront attached to a user (PostgreSQL)
type ShopProfile struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"uniqueIndex"` // One shop per user
	ShopName   string    `json:"shop_name" gorm:"size:120"`
	ProfileURL string    `json:"profile_url"` // Relative path of the shop avatar
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Subscriptions []ShopSubscription `json:"-" gorm:"foreignKey:ShopProfileID"`
}

// ShopSubscription links a subscriber to a shop; subscribers receive a
// push notification when the shop publishes a new listing
type ShopSubscription struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ShopProfileID uint      `json:"shop_profile_id" gorm:"index"`
	SubscriberID  uint      `json:"subscriber_id" gorm:"index"`
	CreatedAt     time.Time `json:"created_at"`

	Subscriber User `json:"-" gorm:"foreignKey:SubscriberID"`
}
