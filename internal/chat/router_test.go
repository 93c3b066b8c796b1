package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bozormarket/backend/internal/models"
	"github.com/bozormarket/backend/internal/presence"
	"github.com/bozormarket/backend/internal/queue"
	"github.com/bozormarket/backend/pkg/logger"
)

type stubMessageRepo struct {
	inserted []*models.Message
}

func (s *stubMessageRepo) EnsureConversation(ctx context.Context, userOneID, userTwoID uint) (*models.Conversation, error) {
	return &models.Conversation{ID: primitive.NewObjectID(), UserOneID: userOneID, UserTwoID: userTwoID}, nil
}

func (s *stubMessageRepo) InsertMessage(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	s.inserted = append(s.inserted, message)
	return nil
}

func (s *stubMessageRepo) GetConversationMessages(ctx context.Context, conversationID primitive.ObjectID, skip, limit int64) ([]models.Message, error) {
	return nil, nil
}

func (s *stubMessageRepo) GetMessageByImage(ctx context.Context, imageURL string) (*models.Message, error) {
	return nil, nil
}

func (s *stubMessageRepo) EditMessage(ctx context.Context, messageID primitive.ObjectID, senderID uint, text string) (*models.Message, error) {
	return nil, nil
}

type stubUserRepo struct {
	users map[uint]*models.User
	shop  *models.ShopProfile
}

func (s *stubUserRepo) GetUserByID(id uint) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, assert.AnError
}

func (s *stubUserRepo) GetUserByFirebaseUID(uid string) (*models.User, error) {
	return nil, assert.AnError
}

func (s *stubUserRepo) GetShopWithSubscribers(userID uint) (*models.ShopProfile, error) {
	return s.shop, nil
}

type stubBroadcaster struct {
	rooms []string
}

func (s *stubBroadcaster) BroadcastToRoom(room string, payload []byte) {
	s.rooms = append(s.rooms, room)
}

type stubEnqueuer struct {
	mu   sync.Mutex
	jobs []models.PushNotificationJob
}

func (s *stubEnqueuer) Enqueue(ctx context.Context, lane string, payload interface{}, opts ...queue.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, payload.(models.PushNotificationJob))
	return "job-id", nil
}

func newTestRouter(tracker *presence.Tracker) (*DeliveryRouter, *stubBroadcaster, *stubEnqueuer, *stubMessageRepo) {
	broadcaster := &stubBroadcaster{}
	enqueuer := &stubEnqueuer{}
	messages := &stubMessageRepo{}
	users := &stubUserRepo{users: map[uint]*models.User{
		5:  {ID: 5, Name: "Alisher", FCMToken: "token-5"},
		11: {ID: 11, Name: "Bekzod", FCMToken: "token-11"},
	}}

	router := NewDeliveryRouter(broadcaster, tracker, users, messages, enqueuer, "https://bozormarket.uz/api", logger.NewNop())
	return router, broadcaster, enqueuer, messages
}

func TestDeliverBroadcastsAndSkipsPushWhenReceiverOnline(t *testing.T) {
	tracker := presence.NewTracker()
	tracker.Register(11, "conn-11")

	router, broadcaster, enqueuer, messages := newTestRouter(tracker)

	message, err := router.Deliver(context.Background(), IncomingMessage{
		SenderID: 5, ReceiverID: 11, Text: "Привет",
	})
	require.NoError(t, err)
	require.NotNil(t, message)

	assert.Len(t, messages.inserted, 1, "the message is always persisted")
	assert.Equal(t, []string{"5_11"}, broadcaster.rooms)
	assert.Empty(t, enqueuer.jobs, "online receivers get no push")
}

func TestDeliverEnqueuesPushWhenReceiverOffline(t *testing.T) {
	router, broadcaster, enqueuer, _ := newTestRouter(presence.NewTracker())

	_, err := router.Deliver(context.Background(), IncomingMessage{
		SenderID: 5, ReceiverID: 11, Text: "Привет",
	})
	require.NoError(t, err)

	assert.Len(t, broadcaster.rooms, 1, "the room broadcast still happens")
	require.Len(t, enqueuer.jobs, 1)

	push := enqueuer.jobs[0]
	assert.Equal(t, uint(11), push.ReceiverID)
	assert.Equal(t, "token-11", push.FCMToken)
	assert.Equal(t, models.NotificationTypeMessage, push.Type)
	assert.Contains(t, push.Title, "Alisher")
	assert.Equal(t, "Привет", push.Body)
	assert.Equal(t, "chat", push.Data["type"])
}

func TestDeliverRedactsImageMessages(t *testing.T) {
	router, _, enqueuer, _ := newTestRouter(presence.NewTracker())

	_, err := router.Deliver(context.Background(), IncomingMessage{
		SenderID: 5, ReceiverID: 11, ImageURL: "/messages/images/photo.jpg",
	})
	require.NoError(t, err)

	require.Len(t, enqueuer.jobs, 1)
	push := enqueuer.jobs[0]
	assert.Equal(t, "Вам отправили фото", push.Body, "image content never leaks into the notification")
	assert.Equal(t, "https://bozormarket.uz/api/messages/images/photo.jpg", push.Data["image_url"])
}

func TestDeliverPrefersShopNameAsSender(t *testing.T) {
	tracker := presence.NewTracker()
	router, _, enqueuer, _ := newTestRouter(tracker)
	router.users = &stubUserRepo{
		users: map[uint]*models.User{
			5:  {ID: 5, Name: "Alisher", FCMToken: "token-5"},
			11: {ID: 11, Name: "Bekzod", FCMToken: "token-11"},
		},
		shop: &models.ShopProfile{UserID: 5, ShopName: "TechShop"},
	}

	_, err := router.Deliver(context.Background(), IncomingMessage{
		SenderID: 5, ReceiverID: 11, Text: "Скидки!",
	})
	require.NoError(t, err)

	require.Len(t, enqueuer.jobs, 1)
	assert.Contains(t, enqueuer.jobs[0].Title, "TechShop")
}

func TestDeliverRejectsEmptyMessage(t *testing.T) {
	router, broadcaster, _, _ := newTestRouter(presence.NewTracker())

	_, err := router.Deliver(context.Background(), IncomingMessage{SenderID: 5, ReceiverID: 11})
	assert.Error(t, err)
	assert.Empty(t, broadcaster.rooms)
}

func TestRoomNameIsOrderIndependent(t *testing.T) {
	assert.Equal(t, RoomName(5, 11), RoomName(11, 5))
	assert.Equal(t, "5_11", RoomName(11, 5))
}

func TestPendingUploadsExpireAndConsume(t *testing.T) {
	uploads := NewPendingUploads(30 * time.Millisecond)
	defer uploads.Shutdown()

	uploads.Register("photo.jpg", 5)

	owner, ok := uploads.Owner("photo.jpg")
	require.True(t, ok)
	assert.Equal(t, uint(5), owner)

	uploads.Consume("photo.jpg")
	_, ok = uploads.Owner("photo.jpg")
	assert.False(t, ok, "consumed uploads are gone")

	uploads.Register("late.jpg", 5)
	time.Sleep(50 * time.Millisecond)
	_, ok = uploads.Owner("late.jpg")
	assert.False(t, ok, "unclaimed uploads expire after the TTL")
}
