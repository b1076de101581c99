package moderation

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/internal/pkg/apperrors"
	"github.com/marketmate/marketmate/internal/pkg/lifecycle"
)

// store is the persistence surface of the workflow.
type store interface {
	Transaction(fn func(tx store) error) error
	ReportByUUIDForUpdate(uuid string) (*models.Report, error)
	HasOpenReport(reporterID uint, targetType string, targetID uint) (bool, error)
	TargetExists(targetType string, targetID uint) (bool, error)
	CreateReport(report *models.Report) error
	SaveReport(report *models.Report) error
	CreateLogEntry(entry *models.ModerationLog) error
	ListingByIDForUpdate(id uint) (*models.Listing, error)
	SaveListing(listing *models.Listing) error
	// DeleteListing removes a listing and its images outright. Drafts only;
	// published listings archive instead so the audit trail survives.
	DeleteListing(listing *models.Listing) error
	DeclinePendingOffers(listingID uint, resolvedAt time.Time) error
	SetUserStatus(userID uint, status string) error
}

// Workflow owns the report lifecycle (open -> closed) and the moderation
// actions applied when a report is resolved. Every action leaves an
// append-only ModerationLog row.
type Workflow struct {
	store store
	cfg   *models.SiteSettings
}

func NewWorkflow(db *gorm.DB, cfg *models.SiteSettings) *Workflow {
	return &Workflow{store: &gormStore{db: db}, cfg: cfg}
}

var validReasons = map[string]bool{
	models.ReportReasonSpam:          true,
	models.ReportReasonScam:          true,
	models.ReportReasonProhibited:    true,
	models.ReportReasonOffensive:     true,
	models.ReportReasonWrongCategory: true,
	models.ReportReasonOther:         true,
}

// FileReport creates an open report. A reporter gets at most one open report
// per target; the guard is an application-level query, not a DB constraint.
func (w *Workflow) FileReport(reporterID uint, targetType string, targetID uint, reason, details string) (*models.Report, error) {
	if targetType != models.ReportTargetListing && targetType != models.ReportTargetUser {
		return nil, apperrors.Validationf("unknown report target type %q", targetType)
	}
	if !validReasons[reason] {
		return nil, apperrors.Validationf("unknown report reason %q", reason)
	}
	if reason == models.ReportReasonOther && len(details) < 5 {
		return nil, apperrors.Validationf("please add a short explanation")
	}

	var report *models.Report
	err := w.store.Transaction(func(tx store) error {
		exists, err := tx.TargetExists(targetType, targetID)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFoundf("%s %d", targetType, targetID)
		}

		open, err := tx.HasOpenReport(reporterID, targetType, targetID)
		if err != nil {
			return err
		}
		if open {
			return apperrors.Validationf("you already have an open report on this %s", targetType)
		}

		report = &models.Report{
			ReporterID: reporterID,
			TargetType: targetType,
			TargetID:   targetID,
			Reason:     reason,
			Details:    details,
			Status:     models.ReportStatusOpen,
		}
		return tx.CreateReport(report)
	})
	return report, err
}

// actionTargets maps each moderation action onto the target type it applies
// to. Warn applies to both.
var actionTargets = map[string]string{
	models.ModActionDeleteListing:  models.ReportTargetListing,
	models.ModActionSuspendListing: models.ReportTargetListing,
	models.ModActionBanUser:        models.ReportTargetUser,
	models.ModActionUnbanUser:      models.ReportTargetUser,
}

// Resolve closes an open report, records the action in the moderation log and
// applies the action's side effect on the target, all in one transaction.
func (w *Workflow) Resolve(reportUUID string, admin lifecycle.Actor, action, details string) (*models.Report, error) {
	if !admin.Staff {
		return nil, apperrors.Forbiddenf("resolving reports requires moderator access")
	}
	if action != models.ModActionWarn {
		if _, known := actionTargets[action]; !known {
			return nil, apperrors.Validationf("unknown moderation action %q", action)
		}
	}

	var report *models.Report
	err := w.store.Transaction(func(tx store) error {
		r, err := tx.ReportByUUIDForUpdate(reportUUID)
		if err != nil {
			return err
		}
		if r.Status == models.ReportStatusClosed {
			return apperrors.ErrAlreadyResolved
		}
		if wanted, ok := actionTargets[action]; ok && wanted != r.TargetType {
			return apperrors.Validationf("action %q does not apply to a %s", action, r.TargetType)
		}

		now := time.Now()
		if err := w.applySideEffect(tx, r, action, now); err != nil {
			return err
		}

		r.Status = models.ReportStatusClosed
		r.ClosedByID = &admin.ID
		r.ClosedAt = &now
		if err := tx.SaveReport(r); err != nil {
			return err
		}

		entry := &models.ModerationLog{
			AdminID:    admin.ID,
			Action:     action,
			TargetType: r.TargetType,
			TargetID:   r.TargetID,
			ReportID:   &r.ID,
		}
		if details != "" {
			raw, err := json.Marshal(map[string]string{"note": details})
			if err != nil {
				return err
			}
			d := models.JSON(raw)
			entry.Details = &d
		}
		if err := tx.CreateLogEntry(entry); err != nil {
			return err
		}

		report = r
		return nil
	})
	return report, err
}

// applySideEffect mutates the report target according to the action. Warn
// touches nothing beyond the log.
func (w *Workflow) applySideEffect(tx store, r *models.Report, action string, now time.Time) error {
	switch action {
	case models.ModActionWarn:
		return nil
	case models.ModActionDeleteListing, models.ModActionSuspendListing:
		listing, err := tx.ListingByIDForUpdate(r.TargetID)
		if err != nil {
			return err
		}
		// A reported draft never published; deleting it removes the row
		// outright, the same way an owner delete would.
		if action == models.ModActionDeleteListing && listing.Status == models.ListingStatusDraft {
			return tx.DeleteListing(listing)
		}
		if err := lifecycle.ApplyArchive(listing); err != nil {
			// Already archived is fine; the report still closes.
			if errors.Is(err, apperrors.ErrAlreadyResolved) {
				return nil
			}
			return err
		}
		if err := tx.SaveListing(listing); err != nil {
			return err
		}
		return tx.DeclinePendingOffers(listing.ID, now)
	case models.ModActionBanUser:
		return tx.SetUserStatus(r.TargetID, models.STATUS_BANNED)
	case models.ModActionUnbanUser:
		return tx.SetUserStatus(r.TargetID, models.STATUS_ACTIVE)
	default:
		return apperrors.Validationf("unknown moderation action %q", action)
	}
}

// ResolveFailure names one report that could not be resolved in a bulk call.
type ResolveFailure struct {
	ReportUUID string `json:"report_uuid"`
	Reason     string `json:"reason"`
}

// ResolveMany resolves each report independently and atomically. Failures
// never abort the batch; every failed id comes back with its reason.
func (w *Workflow) ResolveMany(reportUUIDs []string, admin lifecycle.Actor, action, details string) (resolved []string, failed []ResolveFailure) {
	for _, uid := range reportUUIDs {
		if _, err := w.Resolve(uid, admin, action, details); err != nil {
			failed = append(failed, ResolveFailure{ReportUUID: uid, Reason: err.Error()})
			continue
		}
		resolved = append(resolved, uid)
	}
	return resolved, failed
}
