package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/bozormarket/backend/internal/models"
	"github.com/bozormarket/backend/internal/presence"
	"github.com/bozormarket/backend/internal/queue"
	"github.com/bozormarket/backend/internal/repositories"
	"github.com/bozormarket/backend/pkg/logger"
)

// Enqueuer is the slice of the job queue the router needs
type Enqueuer interface {
	Enqueue(ctx context.Context, lane string, payload interface{}, opts ...queue.Option) (string, error)
}

// Broadcaster is the slice of the hub the router needs
type Broadcaster interface {
	BroadcastToRoom(room string, payload []byte)
}

// IncomingMessage is a chat message as received from a client
type IncomingMessage struct {
	SenderID   uint   `json:"sender_id"`
	ReceiverID uint   `json:"receiver_id"`
	Text       string `json:"text,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}

// DeliveryRouter persists chat messages and routes them: the room is
// always broadcast to, so any subscribed client sees the message
// immediately; the intended receiver is then checked against the
// presence tracker and, when absent, exactly one push-notification job
// is enqueued as the fallback. Push and presence failures never block
// delivery.
type DeliveryRouter struct {
	broadcaster   Broadcaster
	tracker       *presence.Tracker
	users         repositories.UserRepository
	messages      repositories.MessageRepository
	jobs          Enqueuer
	publicAPIBase string
	logger        *logger.Logger
}

func NewDeliveryRouter(
	broadcaster Broadcaster,
	tracker *presence.Tracker,
	users repositories.UserRepository,
	messages repositories.MessageRepository,
	jobs Enqueuer,
	publicAPIBase string,
	log *logger.Logger,
) *DeliveryRouter {
	return &DeliveryRouter{
		broadcaster:   broadcaster,
		tracker:       tracker,
		users:         users,
		messages:      messages,
		jobs:          jobs,
		publicAPIBase: publicAPIBase,
		logger:        log,
	}
}

// Deliver persists and routes one chat message
func (r *DeliveryRouter) Deliver(ctx context.Context, in IncomingMessage) (*models.Message, error) {
	if in.Text == "" && in.ImageURL == "" {
		return nil, fmt.Errorf("message or image is required")
	}

	conversation, err := r.messages.EnsureConversation(ctx, in.SenderID, in.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("ensure conversation: %w", err)
	}

	message := &models.Message{
		ConversationID: conversation.ID,
		SenderID:       in.SenderID,
		ReceiverID:     in.ReceiverID,
		Text:           in.Text,
		ImageURL:       in.ImageURL,
	}
	if err := r.messages.InsertMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	// Broadcast unconditionally; currently subscribed clients get the
	// message whether or not the receiver is among them.
	if payload, err := json.Marshal(message); err == nil {
		r.broadcaster.BroadcastToRoom(RoomName(in.SenderID, in.ReceiverID), payload)
	}

	if _, online := r.tracker.Lookup(in.ReceiverID); online {
		r.logger.Debugw("receiver online, skipping push", "receiver_id", in.ReceiverID)
		return message, nil
	}

	if err := r.enqueuePush(ctx, in, message); err != nil {
		// Push fallback is best effort; the broadcast already happened
		r.logger.Errorw("enqueueing chat push failed", "receiver_id", in.ReceiverID, "error", err)
	}
	return message, nil
}

func (r *DeliveryRouter) enqueuePush(ctx context.Context, in IncomingMessage, message *models.Message) error {
	receiver, err := r.users.GetUserByID(in.ReceiverID)
	if err != nil {
		return fmt.Errorf("load receiver: %w", err)
	}

	senderName := "Unknown User"
	if sender, err := r.users.GetUserByID(in.SenderID); err == nil && sender.Name != "" {
		senderName = sender.Name
	}
	if shop, err := r.users.GetShopWithSubscribers(in.SenderID); err == nil && shop != nil && shop.ShopName != "" {
		senderName = shop.ShopName
	}

	// Image messages get a generic preview; the image itself is never
	// put in the notification body.
	body := in.Text
	if in.ImageURL != "" {
		body = "Вам отправили фото"
	}
	if body == "" {
		body = "У вас новое сообщение"
	}

	imageURL := ""
	if in.ImageURL != "" {
		imageURL = r.publicAPIBase + in.ImageURL
	}

	job := models.PushNotificationJob{
		ReceiverID:  in.ReceiverID,
		SenderID:    in.SenderID,
		FCMToken:    receiver.FCMToken,
		Type:        models.NotificationTypeMessage,
		Title:       fmt.Sprintf("Новое сообщение от %s", senderName),
		Body:        body,
		Priority:    models.PriorityMedium,
		ReferenceID: message.ID.Hex(),
		Data: map[string]string{
			"type":        "chat",
			"sender_id":   fmt.Sprintf("%d", in.SenderID),
			"sender_name": senderName,
			"receiver_id": fmt.Sprintf("%d", in.ReceiverID),
			"message_id":  uuid.NewString(),
			"image_url":   imageURL,
		},
	}

	_, err = r.jobs.Enqueue(ctx, models.LanePushNotification, job)
	return err
}
