package repository

import (
	"github.com/marketmate/marketmate/app/models"
	"gorm.io/gorm"
)

// favoriteRepository implements the FavoriteRepository interface
type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new favorite repository instance
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

// Toggle adds or removes a favorite and returns the new state
func (r *favoriteRepository) Toggle(userID, listingID uint) (bool, error) {
	return models.ToggleFavorite(r.db, userID, listingID)
}

// IsFavorited reports whether the user favorited the listing
func (r *favoriteRepository) IsFavorited(userID, listingID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Favorite{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).Count(&count).Error
	return count > 0, err
}

// GetListingsForUser returns the listings a user saved, newest save first
func (r *favoriteRepository) GetListingsForUser(userID uint, offset, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.Joins("JOIN favorites ON favorites.listing_id = listings.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Preload("Images").
		Offset(offset).Limit(limit).Find(&listings).Error
	return listings, err
}
