package lifecycle

import (
	"time"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/internal/pkg/apperrors"
)

// transitions is the listing lifecycle graph. Status columns are only ever
// written through the Apply* functions below, which consult this table.
var transitions = map[models.ListingStatus][]models.ListingStatus{
	models.ListingStatusDraft:    {models.ListingStatusPending, models.ListingStatusActive},
	models.ListingStatusPending:  {models.ListingStatusActive, models.ListingStatusSold, models.ListingStatusExpired, models.ListingStatusArchived},
	models.ListingStatusActive:   {models.ListingStatusSold, models.ListingStatusExpired, models.ListingStatusArchived},
	models.ListingStatusExpired:  {models.ListingStatusActive, models.ListingStatusArchived},
	models.ListingStatusSold:     {},
	models.ListingStatusArchived: {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to models.ListingStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Statuses returns every status the lifecycle graph knows about.
func Statuses() []models.ListingStatus {
	return []models.ListingStatus{
		models.ListingStatusDraft,
		models.ListingStatusPending,
		models.ListingStatusActive,
		models.ListingStatusSold,
		models.ListingStatusExpired,
		models.ListingStatusArchived,
	}
}

// ComputeExpiry returns now plus the requested duration, capped at the site
// maximum.
func ComputeExpiry(now time.Time, durationDays, maxDays int) time.Time {
	if durationDays > maxDays {
		durationDays = maxDays
	}
	return now.AddDate(0, 0, durationDays)
}

// ApplySubmit moves a draft into review (manual moderation) or straight to
// active (auto moderation), computing the expiry window.
func ApplySubmit(l *models.Listing, moderationMode string, now time.Time, maxDays int) error {
	if l.Status != models.ListingStatusDraft {
		return apperrors.InvalidStatef("listing %s is %s, only drafts can be submitted", l.UUID, l.Status)
	}

	if l.DurationDays <= 0 || l.DurationDays > maxDays {
		l.DurationDays = maxDays
	}
	expiresAt := ComputeExpiry(now, l.DurationDays, maxDays)
	l.ExpiresAt = &expiresAt

	if moderationMode == models.ModerationModeManual {
		l.Status = models.ListingStatusPending
		return nil
	}

	l.Status = models.ListingStatusActive
	l.PublishedAt = &now
	return nil
}

// ApplyApprove moves a pending listing to active.
func ApplyApprove(l *models.Listing, now time.Time) error {
	if l.Status != models.ListingStatusPending {
		return apperrors.InvalidStatef("listing %s is %s, only pending listings can be approved", l.UUID, l.Status)
	}
	l.Status = models.ListingStatusActive
	l.PublishedAt = &now
	return nil
}

// ApplyReject archives a pending listing.
func ApplyReject(l *models.Listing) error {
	if l.Status != models.ListingStatusPending {
		return apperrors.InvalidStatef("listing %s is %s, only pending listings can be rejected", l.UUID, l.Status)
	}
	l.Status = models.ListingStatusArchived
	return nil
}

// ApplyMarkSold marks an active or pending listing as sold. A second call on
// a sold listing reports ErrAlreadyResolved so callers can treat it as an
// idempotency guard rather than a hard failure.
func ApplyMarkSold(l *models.Listing, now time.Time) error {
	if l.Status == models.ListingStatusSold {
		return apperrors.ErrAlreadyResolved
	}
	if !CanTransition(l.Status, models.ListingStatusSold) {
		return apperrors.InvalidStatef("listing %s is %s and cannot be sold", l.UUID, l.Status)
	}
	l.Status = models.ListingStatusSold
	l.SoldAt = &now
	return nil
}

// ApplyArchive archives any non-terminal listing.
func ApplyArchive(l *models.Listing) error {
	if l.Status == models.ListingStatusArchived {
		return apperrors.ErrAlreadyResolved
	}
	if !CanTransition(l.Status, models.ListingStatusArchived) {
		return apperrors.InvalidStatef("listing %s is %s and cannot be archived", l.UUID, l.Status)
	}
	l.Status = models.ListingStatusArchived
	return nil
}

// ApplyRenew extends the expiry window and brings an expired listing back to
// active. Only active and expired listings renew.
func ApplyRenew(l *models.Listing, newExpiry time.Time) error {
	if l.Status != models.ListingStatusActive && l.Status != models.ListingStatusExpired {
		return apperrors.InvalidStatef("listing %s is %s, only active or expired listings renew", l.UUID, l.Status)
	}
	l.ExpiresAt = &newExpiry
	if l.Status == models.ListingStatusExpired {
		l.Status = models.ListingStatusActive
	}
	return nil
}

// ApplyExpire flips an overdue listing to expired. Returns false without an
// error when nothing changed, so sweeps stay idempotent.
func ApplyExpire(l *models.Listing, now time.Time) (bool, error) {
	if l.Status != models.ListingStatusActive && l.Status != models.ListingStatusPending {
		return false, nil
	}
	if l.ExpiresAt == nil || !l.ExpiresAt.Before(now) {
		return false, nil
	}
	l.Status = models.ListingStatusExpired
	return true, nil
}
