package moderation

import (
	"errors"
	"time"

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

func (s *gormStore) ReportByUUIDForUpdate(uuid string) (*models.Report, error) {
	var report models.Report
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("uuid = ?", uuid).First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("report %s", uuid)
		}
		return nil, err
	}
	return &report, nil
}

func (s *gormStore) HasOpenReport(reporterID uint, targetType string, targetID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.Report{}).
		Where("reporter_id = ? AND target_type = ? AND target_id = ? AND status = ?",
			reporterID, targetType, targetID, models.ReportStatusOpen).
		Count(&count).Error
	return count > 0, err
}

func (s *gormStore) TargetExists(targetType string, targetID uint) (bool, error) {
	var count int64
	var err error
	switch targetType {
	case models.ReportTargetListing:
		err = s.db.Model(&models.Listing{}).Where("id = ?", targetID).Count(&count).Error
	case models.ReportTargetUser:
		err = s.db.Model(&models.User{}).Where("id = ?", targetID).Count(&count).Error
	default:
		return false, apperrors.Validationf("unknown report target type %q", targetType)
	}
	return count > 0, err
}

func (s *gormStore) CreateReport(report *models.Report) error {
	return s.db.Create(report).Error
}

func (s *gormStore) SaveReport(report *models.Report) error {
	return s.db.Save(report).Error
}

func (s *gormStore) CreateLogEntry(entry *models.ModerationLog) error {
	return s.db.Create(entry).Error
}

func (s *gormStore) ListingByIDForUpdate(id uint) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("listing %d", id)
		}
		return nil, err
	}
	return &listing, nil
}

func (s *gormStore) SaveListing(listing *models.Listing) error {
	return s.db.Save(listing).Error
}

func (s *gormStore) DeleteListing(listing *models.Listing) error {
	if err := s.db.Where("listing_id = ?", listing.ID).Delete(&models.ListingImage{}).Error; err != nil {
		return err
	}
	return s.db.Unscoped().Delete(listing).Error
}

func (s *gormStore) DeclinePendingOffers(listingID uint, resolvedAt time.Time) error {
	return s.db.Model(&models.Offer{}).
		Where("listing_id = ? AND status = ?", listingID, models.OfferStatusPending).
		Updates(map[string]interface{}{
			"status":      models.OfferStatusDeclined,
			"resolved_at": resolvedAt,
		}).Error
}

func (s *gormStore) SetUserStatus(userID uint, status string) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundf("user %d", userID)
	}
	return nil
}
