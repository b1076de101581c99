package lifecycle

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/internal/pkg/apperrors"
	"github.com/marketmate/marketmate/internal/pkg/database"
)

// Actor is the authenticated principal a transition is performed by.
type Actor struct {
	ID    uint
	Staff bool
}

// Manager owns every listing status transition. Construct one per process and
// inject the site settings; nothing else writes listing statuses.
type Manager struct {
	db       *gorm.DB
	cfg      *models.SiteSettings
	validate *validator.Validate
}

func NewManager(db *gorm.DB, cfg *models.SiteSettings) *Manager {
	return &Manager{db: db, cfg: cfg, validate: validator.New()}
}

// CreateDraftInput carries the owner-supplied fields for a new listing.
type CreateDraftInput struct {
	Title        string   `validate:"required,min=3,max=255"`
	Description  string   `validate:"max=10000"`
	CategoryID   uint     `validate:"required"`
	Condition    string   `validate:"required,oneof=new like_new good acceptable"`
	Price        float64  `validate:"gte=0"`
	Currency     string   `validate:"required,len=3"`
	Negotiable   bool
	Location     string   `validate:"required,max=255"`
	Latitude     *float64 `validate:"omitempty,latitude"`
	Longitude    *float64 `validate:"omitempty,longitude"`
	DurationDays int      `validate:"omitempty,gt=0"`
}

// CreateDraft creates a listing in draft for the owner.
func (m *Manager) CreateDraft(owner Actor, input CreateDraftInput) (*models.Listing, error) {
	if err := m.validate.Struct(input); err != nil {
		return nil, apperrors.Validationf("%v", err)
	}

	var category models.Category
	if err := m.db.Where("id = ? AND is_active = ?", input.CategoryID, true).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Validationf("unknown category %d", input.CategoryID)
		}
		return nil, err
	}

	duration := input.DurationDays
	if duration == 0 {
		duration = m.cfg.DefaultListingDurationDays
	}
	if duration > m.cfg.MaxListingDurationDays {
		duration = m.cfg.MaxListingDurationDays
	}

	listing := &models.Listing{
		UserID:       owner.ID,
		Title:        input.Title,
		Description:  input.Description,
		CategoryID:   input.CategoryID,
		Condition:    input.Condition,
		Price:        input.Price,
		Currency:     input.Currency,
		Negotiable:   input.Negotiable,
		Location:     input.Location,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Status:       models.ListingStatusDraft,
		DurationDays: duration,
	}

	if err := m.db.Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// SubmitForReview publishes a draft, either straight to active or into the
// moderation queue depending on the configured moderation mode.
func (m *Manager) SubmitForReview(listingUUID string, actor Actor) (*models.Listing, error) {
	var listing *models.Listing
	err := database.WithConflictRetry(func() error {
		return m.db.Transaction(func(tx *gorm.DB) error {
			l, err := lockListing(tx, listingUUID)
			if err != nil {
				return err
			}
			if l.UserID != actor.ID {
				return apperrors.Forbiddenf("listing %s does not belong to actor %d", listingUUID, actor.ID)
			}
			if err := ApplySubmit(l, m.cfg.ModerationMode, time.Now(), m.cfg.MaxListingDurationDays); err != nil {
				return err
			}
			listing = l
			return tx.Save(l).Error
		})
	})
	return listing, err
}

// Approve moves a pending listing to active. Moderator only.
func (m *Manager) Approve(listingUUID string, actor Actor) (*models.Listing, error) {
	if !actor.Staff {
		return nil, apperrors.Forbiddenf("approve requires moderator access")
	}

	var listing *models.Listing
	err := database.WithConflictRetry(func() error {
		return m.db.Transaction(func(tx *gorm.DB) error {
			l, err := lockListing(tx, listingUUID)
			if err != nil {
				return err
			}
			if err := ApplyApprove(l, time.Now()); err != nil {
				return err
			}
			listing = l
			return tx.Save(l).Error
		})
	})
	return listing, err
}

// Reject archives a pending listing and records the reason in the moderation
// log. Moderator only.
func (m *Manager) Reject(listingUUID string, actor Actor, reason string) (*models.Listing, error) {
	if !actor.Staff {
		return nil, apperrors.Forbiddenf("reject requires moderator access")
	}

	var listing *models.Listing
	err := database.WithConflictRetry(func() error {
		return m.db.Transaction(func(tx *gorm.DB) error {
			l, err := lockListing(tx, listingUUID)
			if err != nil {
				return err
			}
			if err := ApplyReject(l); err != nil {
				return err
			}
			if err := tx.Save(l).Error; err != nil {
				return err
			}
			raw, err := json.Marshal(map[string]string{"reason": reason})
			if err != nil {
				return err
			}
			details := models.JSON(raw)
			entry := models.ModerationLog{
				AdminID:    actor.ID,
				Action:     models.ModActionRejectListing,
				TargetType: models.ReportTargetListing,
				TargetID:   l.ID,
				Details:    &details,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			listing = l
			return nil
		})
	})
	return listing, err
}

// MarkSold marks a listing sold and declines every pending offer left on it,
// in one transaction. Owner or moderator only.
func (m *Manager) MarkSold(listingUUID string, actor Actor) (*models.Listing, error) {
	var listing *models.Listing
	err := database.WithConflictRetry(func() error {
		return m.db.Transaction(func(tx *gorm.DB) error {
			l, err := lockListing(tx, listingUUID)
			if err != nil {
				return err
			}
			if l.UserID != actor.ID && !actor.Staff {
				return apperrors.Forbiddenf("listing %s does not belong to actor %d", listingUUID, actor.ID)
			}
			if err := ApplyMarkSold(l, time.Now()); err != nil {
				return err
			}
			if err := tx.Save(l).Error; err != nil {
				return err
			}
			if err := declinePendingOffers(tx, l.ID, 0); err != nil {
				return err
			}
			listing = l
			return nil
		})
	})
	return listing, err
}

// Delete hard-deletes a draft or archives any other non-terminal listing.
// Owner or moderator only. Offer and conversation rows follow the listing via
// the store's cascade rules; archived listings keep them for audit.
func (m *Manager) Delete(listingUUID string, actor Actor) error {
	return database.WithConflictRetry(func() error {
		return m.db.Transaction(func(tx *gorm.DB) error {
			l, err := lockListing(tx, listingUUID)
			if err != nil {
				return err
			}
			if l.UserID != actor.ID && !actor.Staff {
				return apperrors.Forbiddenf("listing %s does not belong to actor %d", listingUUID, actor.ID)
			}

			if l.Status == models.ListingStatusDraft {
				if err := tx.Where("listing_id = ?", l.ID).Delete(&models.ListingImage{}).Error; err != nil {
					return err
				}
				return tx.Unscoped().Delete(l).Error
			}

			if err := ApplyArchive(l); err != nil {
				return err
			}
			if err := tx.Save(l).Error; err != nil {
				return err
			}
			return declinePendingOffers(tx, l.ID, 0)
		})
	})
}

// ExpireOverdue transitions every overdue active or pending listing to
// expired. One guarded UPDATE, so concurrent sweeps stay idempotent.
func (m *Manager) ExpireOverdue(now time.Time) (int64, error) {
	result := m.db.Model(&models.Listing{}).
		Where("status IN ?", []models.ListingStatus{models.ListingStatusActive, models.ListingStatusPending}).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Update("status", models.ListingStatusExpired)
	return result.RowsAffected, result.Error
}

// lockListing loads a listing by UUID under a row lock.
func lockListing(tx *gorm.DB, listingUUID string) (*models.Listing, error) {
	var listing models.Listing
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("uuid = ?", listingUUID).First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("listing %s", listingUUID)
		}
		return nil, err
	}
	return &listing, nil
}

// declinePendingOffers resolves every pending offer on the listing except the
// given one. Pass 0 to decline them all.
func declinePendingOffers(tx *gorm.DB, listingID uint, exceptOfferID uint) error {
	now := time.Now()
	query := tx.Model(&models.Offer{}).
		Where("listing_id = ? AND status = ?", listingID, models.OfferStatusPending)
	if exceptOfferID != 0 {
		query = query.Where("id <> ?", exceptOfferID)
	}
	return query.Updates(map[string]interface{}{
		"status":      models.OfferStatusDeclined,
		"resolved_at": now,
	}).Error
}
