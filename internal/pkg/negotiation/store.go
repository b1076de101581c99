package negotiation

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/internal/pkg/apperrors"
	"github.com/marketmate/marketmate/internal/pkg/database"
)

// gormStore is the production store. Row locks are taken with SELECT ... FOR
// UPDATE so two concurrent resolutions on the same listing serialize on the
// listing row.
type gormStore struct {
	db *gorm.DB
}

func (s *gormStore) Transaction(fn func(tx store) error) error {
	return database.WithConflictRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			return fn(&gormStore{db: tx})
		})
	})
}

func (s *gormStore) ListingByUUIDForUpdate(uuid string) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("uuid = ?", uuid).First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("listing %s", uuid)
		}
		return nil, err
	}
	return &listing, nil
}

func (s *gormStore) ListingByIDForUpdate(id uint) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&listing, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("listing %d", id)
		}
		return nil, err
	}
	return &listing, nil
}

func (s *gormStore) OfferByUUIDForUpdate(uuid string) (*models.Offer, error) {
	var offer models.Offer
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("uuid = ?", uuid).First(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("offer %s", uuid)
		}
		return nil, err
	}
	return &offer, nil
}

func (s *gormStore) HasPendingOfferFromBuyer(listingID, buyerID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.Offer{}).
		Where("listing_id = ? AND buyer_id = ? AND status = ?", listingID, buyerID, models.OfferStatusPending).
		Count(&count).Error
	return count > 0, err
}

func (s *gormStore) CreateOffer(offer *models.Offer) error {
	return s.db.Create(offer).Error
}

func (s *gormStore) SaveOffer(offer *models.Offer) error {
	return s.db.Save(offer).Error
}

func (s *gormStore) SaveListing(listing *models.Listing) error {
	return s.db.Save(listing).Error
}

func (s *gormStore) DeclineSiblingOffers(listingID, exceptOfferID uint, resolvedAt time.Time) error {
	query := s.db.Model(&models.Offer{}).
		Where("listing_id = ? AND status = ?", listingID, models.OfferStatusPending)
	if exceptOfferID != 0 {
		query = query.Where("id <> ?", exceptOfferID)
	}
	return query.Updates(map[string]interface{}{
		"status":      models.OfferStatusDeclined,
		"resolved_at": resolvedAt,
	}).Error
}
