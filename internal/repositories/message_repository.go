package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/bozormarket/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrMessageNotFound is returned when no message matches the lookup
var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines the interface for chat persistence
type MessageRepository interface {
	EnsureConversation(ctx context.Context, userOneID, userTwoID uint) (*models.Conversation, error)
	InsertMessage(ctx context.Context, message *models.Message) error
	GetConversationMessages(ctx context.Context, conversationID primitive.ObjectID, skip, limit int64) ([]models.Message, error)
	GetMessageByImage(ctx context.Context, imageURL string) (*models.Message, error)
	EditMessage(ctx context.Context, messageID primitive.ObjectID, senderID uint, text string) (*models.Message, error)
}

type mongoMessageRepository struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &mongoMessageRepository{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}
}

// EnsureConversation finds the conversation between the two users in
// either direction, creating it on first contact.
func (r *mongoMessageRepository) EnsureConversation(ctx context.Context, userOneID, userTwoID uint) (*models.Conversation, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"user_one_id": userOneID, "user_two_id": userTwoID},
		bson.M{"user_one_id": userTwoID, "user_two_id": userOneID},
	}}

	var conversation models.Conversation
	err := r.conversations.FindOne(ctx, filter).Decode(&conversation)
	if err == nil {
		return &conversation, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	conversation = models.Conversation{
		UserOneID: userOneID,
		UserTwoID: userTwoID,
		CreatedAt: time.Now(),
	}
	res, err := r.conversations.InsertOne(ctx, conversation)
	if err != nil {
		return nil, err
	}
	conversation.ID = res.InsertedID.(primitive.ObjectID)
	return &conversation, nil
}

func (r *mongoMessageRepository) InsertMessage(ctx context.Context, message *models.Message) error {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	res, err := r.messages.InsertOne(ctx, message)
	if err != nil {
		return err
	}
	message.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoMessageRepository) GetConversationMessages(ctx context.Context, conversationID primitive.ObjectID, skip, limit int64) ([]models.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.messages.Find(ctx, bson.M{"conversation_id": conversationID, "deleted_at": nil}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// GetMessageByImage finds the persisted message referencing an uploaded
// chat image; used to authorize image fetches after the pending-upload
// window has closed.
func (r *mongoMessageRepository) GetMessageByImage(ctx context.Context, imageURL string) (*models.Message, error) {
	var message models.Message
	err := r.messages.FindOne(ctx, bson.M{"image_url": imageURL}).Decode(&message)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &message, nil
}

func (r *mongoMessageRepository) EditMessage(ctx context.Context, messageID primitive.ObjectID, senderID uint, text string) (*models.Message, error) {
	now := time.Now()
	res := r.messages.FindOneAndUpdate(ctx,
		bson.M{"_id": messageID, "sender_id": senderID},
		bson.M{"$set": bson.M{"text": text, "edited_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var message models.Message
	if err := res.Decode(&message); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &message, nil
}
