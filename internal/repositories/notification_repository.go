package repositories

import (
	"github.com/bozormarket/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	GetByReceiverID(receiverID uint, page, limit int) ([]models.Notification, int64, error)
	GetUnseenCount(receiverID uint) (int64, error)
	MarkAsSeen(notificationID uint) error
	MarkAllAsSeen(receiverID uint) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

func (r *postgresNotificationRepository) GetByReceiverID(receiverID uint, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	r.db.Model(&models.Notification{}).Where("receiver_id = ?", receiverID).Count(&total)

	offset := (page - 1) * limit
	err := r.db.Where("receiver_id = ?", receiverID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *postgresNotificationRepository) GetUnseenCount(receiverID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Where("receiver_id = ? AND has_been_seen = false", receiverID).Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkAsSeen(notificationID uint) error {
	return r.db.Model(&models.Notification{}).Where("id = ?", notificationID).Update("has_been_seen", true).Error
}

func (r *postgresNotificationRepository) MarkAllAsSeen(receiverID uint) error {
	return r.db.Model(&models.Notification{}).Where("receiver_id = ? AND has_been_seen = false", receiverID).Update("has_been_seen", true).Error
}
