package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportStatus is a single forward transition: open -> closed.
type ReportStatus string

const (
	ReportStatusOpen   ReportStatus = "open"
	ReportStatusClosed ReportStatus = "closed"
)

const (
	ReportTargetListing = "listing"
	ReportTargetUser    = "user"
)

const (
	ReportReasonSpam       = "spam"
	ReportReasonScam       = "scam"
	ReportReasonProhibited = "prohibited_item"
	ReportReasonOffensive  = "offensive"
	ReportReasonWrongCategory = "wrong_category"
	ReportReasonOther      = "other"
)

type Report struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	UUID       string       `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	ReporterID uint         `gorm:"index;not null" json:"reporter_id"`
	Reporter   *User        `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	TargetType string       `gorm:"type:varchar(20);not null" json:"target_type" validate:"required,oneof=listing user"`
	TargetID   uint         `gorm:"index;not null" json:"target_id" validate:"required"`
	Reason     string       `gorm:"type:varchar(50);not null" json:"reason" validate:"required,oneof=spam scam prohibited_item offensive wrong_category other"`
	Details    string       `gorm:"type:text" json:"details" validate:"max=5000"`
	Status     ReportStatus `gorm:"type:varchar(20);index;default:'open'" json:"status"`
	ClosedByID *uint        `gorm:"index" json:"closed_by_id,omitempty"`
	ClosedBy   *User        `gorm:"foreignKey:ClosedByID" json:"closed_by,omitempty"`
	ClosedAt   *time.Time   `json:"closed_at,omitempty"`
	CreatedAt  time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the public UUID.
func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == "" {
		r.UUID = uuid.New().String()
	}
	return nil
}

// FindReportByUUID finds a report by its public UUID.
func FindReportByUUID(db *gorm.DB, uid string) (*Report, error) {
	var report Report
	result := db.Where("uuid = ?", uid).First(&report)
	return &report, result.Error
}
