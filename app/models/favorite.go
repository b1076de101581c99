package models

import (
	"time"

	"gorm.io/gorm"
)

type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_favorites_user_listing;not null" json:"user_id"`
	ListingID uint      `gorm:"uniqueIndex:idx_favorites_user_listing;index;not null" json:"listing_id"`
	Listing   Listing   `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ToggleFavorite adds or removes a favorite and keeps the listing counter in
// step, all inside one transaction.
func ToggleFavorite(db *gorm.DB, userID, listingID uint) (favorited bool, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		var existing Favorite
		result := tx.Where("user_id = ? AND listing_id = ?", userID, listingID).First(&existing)
		if result.Error == nil {
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			favorited = false
			return tx.Model(&Listing{}).Where("id = ? AND favorites_count > 0", listingID).
				UpdateColumn("favorites_count", gorm.Expr("favorites_count - 1")).Error
		}
		if result.Error != gorm.ErrRecordNotFound {
			return result.Error
		}
		if err := tx.Create(&Favorite{UserID: userID, ListingID: listingID}).Error; err != nil {
			return err
		}
		favorited = true
		return tx.Model(&Listing{}).Where("id = ?", listingID).
			UpdateColumn("favorites_count", gorm.Expr("favorites_count + 1")).Error
	})
	return favorited, err
}
