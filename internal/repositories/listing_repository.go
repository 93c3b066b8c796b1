package repositories

import (
	"errors"

	"github.com/bozormarket/backend/internal/models"
	"gorm.io/gorm"
)

// ErrListingNotFound is returned when no listing matches the lookup
var ErrListingNotFound = errors.New("listing not found")

// ListingRepository defines the interface for listing operations
type ListingRepository interface {
	CreateListing(listing *models.Listing) error
	GetListingByID(id uint) (*models.Listing, error)
	GetListingBySlug(slug string) (*models.Listing, error)
	GetListingsByUserID(userID uint, page, limit int) ([]models.Listing, int64, error)
	UpdateListing(listing *models.Listing) error
	UpdateSocialPostIDs(listingID uint, telegramID, facebookID, instagramID *string) error
	DeleteListing(id uint) error
}

type postgresListingRepository struct {
	db *gorm.DB
}

func NewPostgresListingRepository(db *gorm.DB) ListingRepository {
	return &postgresListingRepository{db: db}
}

func (r *postgresListingRepository) CreateListing(listing *models.Listing) error {
	return r.db.Create(listing).Error
}

func (r *postgresListingRepository) GetListingByID(id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.First(&listing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

func (r *postgresListingRepository) GetListingBySlug(slug string) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.Where("slug = ?", slug).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

func (r *postgresListingRepository) GetListingsByUserID(userID uint, page, limit int) ([]models.Listing, int64, error) {
	var listings []models.Listing
	var total int64

	r.db.Model(&models.Listing{}).Where("user_id = ?", userID).Count(&total)

	offset := (page - 1) * limit
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&listings).Error

	return listings, total, err
}

func (r *postgresListingRepository) UpdateListing(listing *models.Listing) error {
	return r.db.Save(listing).Error
}

// UpdateSocialPostIDs writes all three external post references in one
// update. Nil values are written as NULL: a platform that failed to
// publish simply has no reference.
func (r *postgresListingRepository) UpdateSocialPostIDs(listingID uint, telegramID, facebookID, instagramID *string) error {
	return r.db.Model(&models.Listing{}).Where("id = ?", listingID).
		Updates(map[string]interface{}{
			"telegram_post_id":  telegramID,
			"facebook_post_id":  facebookID,
			"instagram_post_id": instagramID,
		}).Error
}

func (r *postgresListingRepository) DeleteListing(id uint) error {
	return r.db.Delete(&models.Listing{}, id).Error
}
