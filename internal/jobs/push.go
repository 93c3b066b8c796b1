package jobs

import (
	"context"
	"fmt"

	"github.com/bozormarket/backend/internal/models"
	"github.com/bozormarket/backend/internal/push"
	"github.com/bozormarket/backend/internal/queue"
)

// PushHandler drains the push-notification lane through the dispatcher
type PushHandler struct {
	dispatcher *push.Dispatcher
}

func NewPushHandler(dispatcher *push.Dispatcher) *PushHandler {
	return &PushHandler{dispatcher: dispatcher}
}

// Handle delivers one queued push notification. Only a failed
// notification record write bubbles up for a retry; the dispatcher
// swallows gateway errors itself.
func (h *PushHandler) Handle(ctx context.Context, job *queue.Job) error {
	var payload models.PushNotificationJob
	if err := job.Unmarshal(&payload); err != nil {
		return fmt.Errorf("unmarshal push payload: %w", err)
	}

	return h.dispatcher.Dispatch(ctx, push.Message{
		Token:       payload.FCMToken,
		Title:       payload.Title,
		Body:        payload.Body,
		Data:        payload.Data,
		ReceiverID:  payload.ReceiverID,
		SenderID:    payload.SenderID,
		Type:        payload.Type,
		Priority:    payload.Priority,
		ReferenceID: payload.ReferenceID,
		Metadata:    payload.Metadata,
	})
}
