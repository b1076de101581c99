package renewal

import (
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/internal/pkg/apperrors"
	"github.com/marketmate/marketmate/internal/pkg/lifecycle"
)

// QuotaCounter bounds how many renewals an owner gets per 24h window. The
// production implementation counts in Redis; tests use an in-memory fake.
type QuotaCounter interface {
	// Take consumes one renewal from the owner's window. It returns false
	// without consuming when the window is exhausted.
	Take(ownerID uint, limit int) (bool, error)
	// Give returns a slot taken by a renewal whose transaction did not
	// commit, so a storage failure never burns quota.
	Give(ownerID uint) error
}

// store is the persistence surface of the policy.
type store interface {
	Transaction(fn func(tx store) error) error
	ListingByUUIDForUpdate(uuid string) (*models.Listing, error)
	SaveListing(listing *models.Listing) error
}

// Policy applies listing renewals: it extends the expiry window, flips
// expired listings back to active, and enforces the daily quota.
type Policy struct {
	store store
	quota QuotaCounter
	cfg   *models.SiteSettings
}

func NewPolicy(db *gorm.DB, quota QuotaCounter, cfg *models.SiteSettings) *Policy {
	return &Policy{store: &gormStore{db: db}, quota: quota, cfg: cfg}
}

// ComputeNewExpiry extends from the later of now and the current expiry, then
// caps the result so the listing never runs longer than the site maximum from
// now.
func ComputeNewExpiry(now time.Time, currentExpiry *time.Time, requestedDays, maxDays int) time.Time {
	base := now
	if currentExpiry != nil && currentExpiry.After(now) {
		base = *currentExpiry
	}
	candidate := base.AddDate(0, 0, requestedDays)
	cap := now.AddDate(0, 0, maxDays)
	if candidate.After(cap) {
		return cap
	}
	return candidate
}

// Renew extends a listing owned by the actor. Quota and duration violations
// are user-facing errors; on any failure nothing changes.
func (p *Policy) Renew(listingUUID string, actorID uint, requestedDays int) (*models.Listing, error) {
	if !p.cfg.RenewalDaysAllowed(requestedDays) {
		return nil, apperrors.Validationf("renewal duration %d days is not offered", requestedDays)
	}

	var listing *models.Listing
	quotaTaken := false
	err := p.store.Transaction(func(tx store) error {
		l, err := tx.ListingByUUIDForUpdate(listingUUID)
		if err != nil {
			return err
		}
		if l.UserID != actorID {
			return apperrors.Forbiddenf("listing %s does not belong to actor %d", listingUUID, actorID)
		}
		now := time.Now()
		newExpiry := ComputeNewExpiry(now, l.ExpiresAt, requestedDays, p.cfg.MaxListingDurationDays)

		// Quota is consumed last, so validation failures never burn a slot.
		// The state check comes first: ApplyRenew rejects anything that is
		// not active or expired.
		probe := *l
		if err := lifecycle.ApplyRenew(&probe, newExpiry); err != nil {
			return err
		}

		ok, err := p.quota.Take(actorID, p.cfg.DailyRenewalQuota)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrQuotaExceeded
		}
		quotaTaken = true

		if err := lifecycle.ApplyRenew(l, newExpiry); err != nil {
			return err
		}
		if err := tx.SaveListing(l); err != nil {
			return err
		}
		listing = l
		return nil
	})
	if err != nil && quotaTaken {
		// The renewal rolled back; hand the consumed slot back so the
		// failure does not count against the daily window.
		if giveErr := p.quota.Give(actorID); giveErr != nil {
			log.Errorf("[Renewal] failed to return quota slot for owner %d: %v", actorID, giveErr)
		}
	}
	return listing, err
}
