package repositories

import (
	"errors"

	"github.com/bozormarket/backend/internal/models"
	"gorm.io/gorm"
)

// ErrUserNotFound is returned when no user matches the lookup
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the interface for user and shop lookups
type UserRepository interface {
	GetUserByID(id uint) (*models.User, error)
	GetUserByFirebaseUID(uid string) (*models.User, error)
	// GetShopWithSubscribers returns the user's shop profile with its
	// subscriptions and subscriber users preloaded, or nil when the
	// user has no shop.
	GetShopWithSubscribers(userID uint) (*models.ShopProfile, error)
}

type postgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *postgresUserRepository) GetUserByFirebaseUID(uid string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("firebase_uid = ?", uid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *postgresUserRepository) GetShopWithSubscribers(userID uint) (*models.ShopProfile, error) {
	var shop models.ShopProfile
	err := r.db.Where("user_id = ?", userID).
		Preload("Subscriptions.Subscriber").
		First(&shop).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Having no shop is not an error
		}
		return nil, err
	}
	return &shop, nil
}
