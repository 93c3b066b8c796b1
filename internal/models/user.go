package models

import "time"

// User represents a marketplace account (PostgreSQL)
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	Email       string    `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Phone       string    `json:"phone"`
	FirebaseUID string    `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID
	FCMToken    string    `json:"-" gorm:"column:fcm_token"`                 // Push token; empty when the user never registered a device
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserCompact is the trimmed representation embedded in responses
type UserCompact struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// ToCompact converts a User to its compact form
func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Name: u.Name, Phone: u.Phone}
}
