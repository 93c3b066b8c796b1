package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation groups the messages between two users (MongoDB)
type Conversation struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserOneID uint               `json:"user_one_id" bson:"user_one_id"`
	UserTwoID uint               `json:"user_two_id" bson:"user_two_id"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Message is a single chat message (MongoDB)
type Message struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID `json:"conversation_id" bson:"conversation_id"`
	SenderID       uint               `json:"sender_id" bson:"sender_id"`
	ReceiverID     uint               `json:"receiver_id" bson:"receiver_id"`
	Text           string             `json:"text,omitempty" bson:"text,omitempty"`
	ImageURL       string             `json:"image_url,omitempty" bson:"image_url,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	EditedAt       *time.Time         `json:"edited_at,omitempty" bson:"edited_at,omitempty"`
	DeletedAt      *time.Time         `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// SendMessageRequest defines the request body for sending a chat message
type SendMessageRequest struct {
	ReceiverID uint   `json:"receiver_id" validate:"required"`
	Text       string `json:"text,omitempty" validate:"omitempty,max=4000"`
	ImageURL   string `json:"image_url,omitempty"`
}

// EditMessageRequest defines the request body for editing a sent message
type EditMessageRequest struct {
	MessageID string `json:"message_id" validate:"required"`
	Text      string `json:"text" validate:"required,max=4000"`
}
