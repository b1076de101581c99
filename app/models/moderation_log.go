package models

import (
	"time"

	"gorm.io/gorm"
)

// Moderation actions recorded in the audit log. Destructive ones mutate the
// target as a side effect of resolving a report.
const (
	ModActionWarn           = "warn"
	ModActionRejectListing  = "reject_listing"
	ModActionDeleteListing  = "delete_listing"
	ModActionSuspendListing = "suspend_listing"
	ModActionBanUser        = "ban_user"
	ModActionUnbanUser      = "unban_user"
)

// ModerationLog is an append-only audit record. Rows are never updated or
// deleted, hence no UpdatedAt/DeletedAt.
type ModerationLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AdminID    uint      `gorm:"index;not null" json:"admin_id"`
	Admin      *User     `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Action     string    `gorm:"type:varchar(50);not null" json:"action"`
	TargetType string    `gorm:"type:varchar(20);not null" json:"target_type"`
	TargetID   uint      `gorm:"index;not null" json:"target_id"`
	ReportID   *uint     `gorm:"index" json:"report_id,omitempty"`
	Details    *JSON     `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// FindModerationLogsForTarget returns the audit trail for one target, newest first.
func FindModerationLogsForTarget(db *gorm.DB, targetType string, targetID uint) ([]ModerationLog, error) {
	var logs []ModerationLog
	err := db.Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at DESC").Find(&logs).Error
	return logs, err
}
