package models

import "time"

// Listing represents a marketplace product ad (PostgreSQL).
//
// The three *PostID columns hold the external references of the posts
// published on each social platform. They populate asynchronously after
// creation and are best-effort metadata: a nil value never blocks any
// listing operation.
type Listing struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	UserID       uint     `json:"user_id" gorm:"index"`
	Name         string   `json:"name" gorm:"size:200"`
	Slug         string   `json:"slug" gorm:"uniqueIndex"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"`
	Currency     string   `json:"currency" gorm:"size:10"` // UZS, USD
	RegionID     uint     `json:"region_id" gorm:"index"`
	RegionName   string   `json:"region_name"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	ContactName  string   `json:"contact_name"`
	ContactPhone string   `json:"contact_phone"`
	ImageURLs    []string `json:"image_urls" gorm:"serializer:json"`

	TelegramPostID  *string `json:"telegram_post_id" gorm:"column:telegram_post_id"`
	FacebookPostID  *string `json:"facebook_post_id" gorm:"column:facebook_post_id"`
	InstagramPostID *string `json:"instagram_post_id" gorm:"column:instagram_post_id"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

// CreateListingRequest defines the request body for creating a listing
type CreateListingRequest struct {
	Name         string   `json:"name" validate:"required,min=3,max=200"`
	Description  string   `json:"description" validate:"required,min=10"`
	Price        float64  `json:"price" validate:"required,min=0"`
	Currency     string   `json:"currency" validate:"required,oneof=UZS USD"`
	RegionID     uint     `json:"region_id" validate:"required"`
	RegionName   string   `json:"region_name" validate:"required"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	ContactName  string   `json:"contact_name,omitempty"`
	ContactPhone string   `json:"contact_phone,omitempty"`
	ImageURLs    []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
}

// UpdateListingRequest defines the request body for updating a listing
type UpdateListingRequest struct {
	Name        string  `json:"name,omitempty" validate:"omitempty,min=3,max=200"`
	Description string  `json:"description,omitempty" validate:"omitempty,min=10"`
	Price       float64 `json:"price,omitempty" validate:"omitempty,min=0"`
}
