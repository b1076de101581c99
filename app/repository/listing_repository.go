package repository

import (
	"github.com/marketmate/marketmate/app/models"
	"gorm.io/gorm"
)

// listingRepository implements the ListingRepository interface
type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository instance
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

// Create creates a new listing in the database
func (r *listingRepository) Create(listing *models.Listing) error {
	return r.db.Create(listing).Error
}

// GetByID retrieves a listing by its ID
func (r *listingRepository) GetByID(id uint) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.Preload("Images").Preload("Category").First(&listing, id).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetByUUID retrieves a listing by its public UUID
func (r *listingRepository) GetByUUID(uuid string) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.Preload("Images").Preload("Category").Where("uuid = ?", uuid).First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetByShareLink retrieves a listing by its short public link
func (r *listingRepository) GetByShareLink(shareLink string) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.Preload("Images").Preload("Category").Where("share_link = ?", shareLink).First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetByUserID retrieves a user's listings, newest first, all states included
func (r *listingRepository) GetByUserID(userID uint, offset, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.Preload("Images").Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&listings).Error
	return listings, err
}

// Update updates an existing listing
func (r *listingRepository) Update(listing *models.Listing) error {
	return r.db.Save(listing).Error
}

// GetActive returns the public browse results plus the total count for paging
func (r *listingRepository) GetActive(filter ListingFilter) ([]models.Listing, int64, error) {
	query := r.db.Model(&models.Listing{}).Where("status = ?", models.ListingStatusActive)

	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if filter.Location != "" {
		query = query.Where("location ILIKE ?", "%"+filter.Location+"%")
	}
	if filter.PriceMin > 0 {
		query = query.Where("price >= ?", filter.PriceMin)
	}
	if filter.PriceMax > 0 {
		query = query.Where("price <= ?", filter.PriceMax)
	}
	if filter.Condition != "" {
		query = query.Where("condition = ?", filter.Condition)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.SortBy {
	case "price_asc":
		query = query.Order("price ASC")
	case "price_desc":
		query = query.Order("price DESC")
	case "popular":
		query = query.Order("view_count DESC")
	default:
		query = query.Order("published_at DESC")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var listings []models.Listing
	err := query.Preload("Images").Offset(filter.Offset).Limit(limit).Find(&listings).Error
	return listings, total, err
}

// GetPendingReview returns the moderation queue, oldest first
func (r *listingRepository) GetPendingReview(offset, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.Preload("Images").Preload("User").
		Where("status = ?", models.ListingStatusPending).
		Order("created_at ASC").Offset(offset).Limit(limit).Find(&listings).Error
	return listings, err
}

// CountByStatus counts listings in one state
func (r *listingRepository) CountByStatus(status models.ListingStatus) (int64, error) {
	var count int64
	err := r.db.Model(&models.Listing{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// CountActiveByUserID counts a user's live listings
func (r *listingRepository) CountActiveByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Listing{}).
		Where("user_id = ? AND status = ?", userID, models.ListingStatusActive).
		Count(&count).Error
	return count, err
}

// GetImages returns the listing's images in display order
func (r *listingRepository) GetImages(listingID uint) ([]models.ListingImage, error) {
	var images []models.ListingImage
	err := r.db.Where("listing_id = ?", listingID).Order("position ASC").Find(&images).Error
	return images, err
}

// AddImage attaches an image record to a listing
func (r *listingRepository) AddImage(image *models.ListingImage) error {
	return r.db.Create(image).Error
}

// DeleteImage removes one image record from a listing
func (r *listingRepository) DeleteImage(listingID uint, imageID uint) error {
	return r.db.Where("listing_id = ? AND id = ?", listingID, imageID).
		Delete(&models.ListingImage{}).Error
}
