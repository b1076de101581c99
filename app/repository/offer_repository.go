package repository

import (
	"github.com/marketmate/marketmate/app/models"
	"gorm.io/gorm"
)

// offerRepository implements the OfferRepository interface. Writes go through
// the negotiation engine; the repository is read-only on purpose.
type offerRepository struct {
	db *gorm.DB
}

// NewOfferRepository creates a new offer repository instance
func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

// GetByUUID retrieves an offer by its public UUID
func (r *offerRepository) GetByUUID(uuid string) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.Where("uuid = ?", uuid).First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// GetByListingID returns all offers on a listing, newest first
func (r *offerRepository) GetByListingID(listingID uint) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.Preload("Buyer").Where("listing_id = ?", listingID).
		Order("created_at DESC").Find(&offers).Error
	return offers, err
}

// GetByBuyerID returns the offers a user made
func (r *offerRepository) GetByBuyerID(buyerID uint, offset, limit int) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.Preload("Listing").Where("buyer_id = ?", buyerID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&offers).Error
	return offers, err
}

// GetBySellerID returns the offers a user received
func (r *offerRepository) GetBySellerID(sellerID uint, offset, limit int) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.Preload("Listing").Preload("Buyer").Where("seller_id = ?", sellerID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&offers).Error
	return offers, err
}

// CountPendingForListing counts unresolved offers on a listing
func (r *offerRepository) CountPendingForListing(listingID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Offer{}).
		Where("listing_id = ? AND status = ?", listingID, models.OfferStatusPending).
		Count(&count).Error
	return count, err
}
