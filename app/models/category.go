package models

import (
	"time"

	"gorm.io/gorm"
)

type Category struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Slug      string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug" validate:"required,min=2,max=100"`
	Name      string         `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Position  int            `gorm:"default:0" json:"position"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// FindActiveCategories returns all active categories ordered for display.
func FindActiveCategories(db *gorm.DB) ([]Category, error) {
	var categories []Category
	err := db.Where("is_active = ?", true).Order("position ASC, name ASC").Find(&categories).Error
	return categories, err
}
