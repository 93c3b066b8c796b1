package push

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bozormarket/backend/internal/models"
	"github.com/bozormarket/backend/pkg/logger"
)

type stubSender struct {
	sent []*messaging.Message
	err  error
}

func (s *stubSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	s.sent = append(s.sent, message)
	if s.err != nil {
		return "", s.err
	}
	return "provider-id", nil
}

type stubNotificationRepo struct {
	created []*models.Notification
	err     error
}

func (s *stubNotificationRepo) CreateNotification(n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, n)
	return nil
}

func (s *stubNotificationRepo) GetByReceiverID(receiverID uint, page, limit int) ([]models.Notification, int64, error) {
	return nil, 0, nil
}
func (s *stubNotificationRepo) GetUnseenCount(receiverID uint) (int64, error) { return 0, nil }
func (s *stubNotificationRepo) MarkAsSeen(notificationID uint) error          { return nil }
func (s *stubNotificationRepo) MarkAllAsSeen(receiverID uint) error           { return nil }

type stubCache struct {
	deletedKeys []string
}

func (s *stubCache) Get(ctx context.Context, key string) ([]byte, error) { return nil, nil }
func (s *stubCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
func (s *stubCache) Delete(ctx context.Context, keys ...string) error {
	s.deletedKeys = append(s.deletedKeys, keys...)
	return nil
}
func (s *stubCache) DeleteByPattern(ctx context.Context, pattern string) error { return nil }

func testMessage() Message {
	return Message{
		Token:      "device-token",
		Title:      "Новое сообщение от Alisher",
		Body:       "Привет",
		ReceiverID: 11,
		SenderID:   5,
		Type:       models.NotificationTypeMessage,
		Priority:   models.PriorityMedium,
	}
}

func TestDispatchSendsAndRecords(t *testing.T) {
	sender := &stubSender{}
	repo := &stubNotificationRepo{}
	cache := &stubCache{}
	d := NewDispatcher(sender, repo, cache, logger.NewNop())

	require.NoError(t, d.Dispatch(context.Background(), testMessage()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "device-token", sender.sent[0].Token)
	assert.Equal(t, "high", sender.sent[0].Android.Priority)

	require.Len(t, repo.created, 1)
	assert.Equal(t, uint(11), repo.created[0].ReceiverID)
	assert.Equal(t, "Привет", repo.created[0].Content)
	assert.False(t, repo.created[0].HasBeenSeen)

	assert.Equal(t, []string{"notifications:user:11"}, cache.deletedKeys)
}

func TestDispatchRecordsEvenWhenPushFails(t *testing.T) {
	sender := &stubSender{err: errors.New("fcm unavailable")}
	repo := &stubNotificationRepo{}
	cache := &stubCache{}
	d := NewDispatcher(sender, repo, cache, logger.NewNop())

	require.NoError(t, d.Dispatch(context.Background(), testMessage()),
		"a gateway failure never fails the dispatch")
	assert.Len(t, repo.created, 1, "the inbox record is written regardless")
	assert.NotEmpty(t, cache.deletedKeys)
}

func TestDispatchSkipsSendWithoutToken(t *testing.T) {
	sender := &stubSender{}
	repo := &stubNotificationRepo{}
	d := NewDispatcher(sender, repo, &stubCache{}, logger.NewNop())

	msg := testMessage()
	msg.Token = ""

	require.NoError(t, d.Dispatch(context.Background(), msg))
	assert.Empty(t, sender.sent)
	assert.Len(t, repo.created, 1, "tokenless receivers still get the inbox record")
}

func TestDispatchReturnsRecordWriteFailure(t *testing.T) {
	repo := &stubNotificationRepo{err: errors.New("db down")}
	d := NewDispatcher(&stubSender{}, repo, &stubCache{}, logger.NewNop())

	assert.Error(t, d.Dispatch(context.Background(), testMessage()),
		"a lost record must trigger a queue retry")
}

func TestDispatchDefaultsPriority(t *testing.T) {
	repo := &stubNotificationRepo{}
	d := NewDispatcher(&stubSender{}, repo, &stubCache{}, logger.NewNop())

	msg := testMessage()
	msg.Priority = ""

	require.NoError(t, d.Dispatch(context.Background(), msg))
	assert.Equal(t, models.PriorityMedium, repo.created[0].Priority)
}
