package repository

import (
	"github.com/marketmate/marketmate/app/models"
	"gorm.io/gorm"
)

// reportRepository implements the ReportRepository interface. Writes go
// through the moderation workflow; the repository serves the queue views.
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository instance
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// GetByUUID retrieves a report by its public UUID
func (r *reportRepository) GetByUUID(uuid string) (*models.Report, error) {
	var report models.Report
	err := r.db.Preload("Reporter").Where("uuid = ?", uuid).First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// GetOpen returns the moderation queue, oldest report first
func (r *reportRepository) GetOpen(offset, limit int) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.Preload("Reporter").
		Where("status = ?", models.ReportStatusOpen).
		Order("created_at ASC").Offset(offset).Limit(limit).Find(&reports).Error
	return reports, err
}

// CountOpen counts unresolved reports
func (r *reportRepository) CountOpen() (int64, error) {
	var count int64
	err := r.db.Model(&models.Report{}).
		Where("status = ?", models.ReportStatusOpen).Count(&count).Error
	return count, err
}

// GetByTarget returns every report ever filed against one target
func (r *reportRepository) GetByTarget(targetType string, targetID uint) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.Preload("Reporter").Preload("ClosedBy").
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at DESC").Find(&reports).Error
	return reports, err
}

// GetLogForTarget returns the moderation audit trail for one target
func (r *reportRepository) GetLogForTarget(targetType string, targetID uint) ([]models.ModerationLog, error) {
	return models.FindModerationLogsForTarget(r.db, targetType, targetID)
}
