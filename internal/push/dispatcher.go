package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"

	"github.com/bozormarket/backend/internal/models"
	"github.com/bozormarket/backend/internal/repositories"
	"github.com/bozormarket/backend/pkg/logger"
)

// Sender sends one FCM message; satisfied by *messaging.Client
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Message is the provider-agnostic push payload
type Message struct {
	Token       string
	Title       string
	Body        string
	Data        map[string]string
	ReceiverID  uint
	SenderID    uint
	Type        string
	Priority    string
	ReferenceID string
	Metadata    map[string]any
	ExpiresAt   *time.Time
}

// Dispatcher sends push notifications and records them durably. The
// push itself is fire-and-forget: whatever the gateway answers, a
// Notification row is written so the receiver's in-app inbox stays
// complete, and the cached unseen view is invalidated.
type Dispatcher struct {
	sender        Sender
	notifications repositories.NotificationRepository
	cache         repositories.CacheRepository
	logger        *logger.Logger
}

func NewDispatcher(sender Sender, notifications repositories.NotificationRepository, cache repositories.CacheRepository, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		sender:        sender,
		notifications: notifications,
		cache:         cache,
		logger:        log,
	}
}

// Dispatch sends the push and writes the notification record. Only a
// failed record write is returned as an error; push failures are logged
// and swallowed so the caller's flow never depends on the gateway.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	if msg.Token == "" {
		d.logger.Warnw("no push token for receiver, skipping push", "receiver_id", msg.ReceiverID)
	} else {
		fcmMessage := &messaging.Message{
			Token: msg.Token,
			Notification: &messaging.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data:    msg.Data,
			Android: &messaging.AndroidConfig{Priority: "high"},
		}

		providerID, err := d.sender.Send(ctx, fcmMessage)
		if err != nil {
			d.logger.Errorw("push delivery failed", "receiver_id", msg.ReceiverID, "type", msg.Type, "error", err)
		} else {
			d.logger.Debugw("push delivered", "receiver_id", msg.ReceiverID, "provider_message_id", providerID)
		}
	}

	metadata := ""
	if len(msg.Metadata) > 0 {
		data, err := json.Marshal(msg.Metadata)
		if err != nil {
			d.logger.Warnw("dropping unmarshalable push metadata", "receiver_id", msg.ReceiverID, "error", err)
		} else {
			metadata = string(data)
		}
	}

	priority := msg.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	notification := &models.Notification{
		ReceiverID:  msg.ReceiverID,
		SenderID:    msg.SenderID,
		Type:        msg.Type,
		Content:     msg.Body,
		HasBeenSeen: false,
		ReferenceID: msg.ReferenceID,
		Priority:    priority,
		Metadata:    metadata,
		ExpiresAt:   msg.ExpiresAt,
	}
	if err := d.notifications.CreateNotification(notification); err != nil {
		return fmt.Errorf("create notification record: %w", err)
	}

	cacheKey := fmt.Sprintf("notifications:user:%d", msg.ReceiverID)
	if err := d.cache.Delete(ctx, cacheKey); err != nil {
		d.logger.Warnw("invalidating notifications cache failed", "key", cacheKey, "error", err)
	}

	return nil
}
