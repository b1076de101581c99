package renewal

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/internal/pkg/apperrors"
	"github.com/marketmate/marketmate/internal/pkg/database"
)

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

func (s *gormStore) SaveListing(listing *models.Listing) error {
	return s.db.Save(listing).Error
}
