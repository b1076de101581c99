package models

import (
	"time"

	"gorm.io/gorm"
)

// ListingImage references a photo in the external blob store. The backend
// never touches pixel data; it only hands out upload URLs and keeps order.
type ListingImage struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ListingID  uint           `gorm:"index;not null" json:"listing_id"`
	ObjectKey  string         `gorm:"type:varchar(512);not null" json:"object_key"`
	PublicURL  string         `gorm:"type:varchar(1024);not null" json:"public_url"`
	Position   int            `gorm:"default:0" json:"position"`
	UploadedAt *time.Time     `json:"uploaded_at"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
