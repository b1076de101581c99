package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketmate/marketmate/internal/pkg/shortener"
)

// ListingStatus is the lifecycle state of a listing. Transitions are owned by
// the lifecycle engine; nothing else writes this column.
type ListingStatus string

const (
	ListingStatusDraft    ListingStatus = "draft"
	ListingStatusPending  ListingStatus = "pending"
	ListingStatusActive   ListingStatus = "active"
	ListingStatusSold     ListingStatus = "sold"
	ListingStatusExpired  ListingStatus = "expired"
	ListingStatusArchived ListingStatus = "archived"
)

const (
	ConditionNew        = "new"
	ConditionLikeNew    = "like_new"
	ConditionGood       = "good"
	ConditionAcceptable = "acceptable"
)

type Listing struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UUID            string        `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	UserID          uint          `gorm:"index;not null" json:"user_id"`
	User            User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title           string        `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=3,max=255"`
	Description     string        `gorm:"type:text" json:"description" validate:"max=10000"`
	CategoryID      uint          `gorm:"index;not null" json:"category_id" validate:"required"`
	Category        Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Condition       string        `gorm:"type:varchar(20);not null" json:"condition" validate:"required,oneof=new like_new good acceptable"`
	Price           float64       `gorm:"type:numeric(12,2);not null" json:"price" validate:"gte=0"`
	Currency        string        `gorm:"type:char(3);not null" json:"currency" validate:"required,len=3"`
	Negotiable      bool          `gorm:"default:true" json:"negotiable"`
	Location        string        `gorm:"type:varchar(255);not null" json:"location" validate:"required,max=255"`
	Latitude        *float64      `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude       *float64      `gorm:"type:decimal(11,8)" json:"longitude"`
	Status          ListingStatus `gorm:"type:varchar(20);index;default:'draft'" json:"status"`
	DurationDays    int           `gorm:"default:30" json:"duration_days"`
	ShareLink       string        `gorm:"type:varchar(255);uniqueIndex" json:"share_link"`
	ViewCount       int           `gorm:"default:0" json:"view_count"`
	FavoritesCount  int           `gorm:"default:0" json:"favorites_count"`
	ExpiresAt       *time.Time    `gorm:"index" json:"expires_at"`
	PublishedAt     *time.Time    `json:"published_at"`
	SoldAt          *time.Time    `json:"sold_at"`
	// relations
	Images    []ListingImage `gorm:"foreignKey:ListingID" json:"images,omitempty"`
	Offers    []Offer        `gorm:"foreignKey:ListingID" json:"offers,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the public UUID before the row exists.
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.UUID == "" {
		l.UUID = uuid.New().String()
	}

	if l.ShareLink == "" {
		// The short link is derived from the numeric ID, which we only have
		// after the insert. Set a placeholder and fix it up in AfterCreate.
		l.ShareLink = "temp-" + l.UUID
	}

	return nil
}

// AfterCreate replaces the placeholder share link with the encoded ID.
func (l *Listing) AfterCreate(tx *gorm.DB) error {
	if l.ShareLink == "temp-"+l.UUID {
		l.ShareLink = shortener.EncodeID(l.ID)

		return tx.Model(l).Update("share_link", l.ShareLink).Error
	}

	return nil
}

// IsTerminal reports whether the listing can never change state again.
func (l *Listing) IsTerminal() bool {
	return l.Status == ListingStatusSold || l.Status == ListingStatusArchived
}

// FindListingByUUID finds a listing by its public UUID.
func FindListingByUUID(db *gorm.DB, uid string) (*Listing, error) {
	var listing Listing
	result := db.Where("uuid = ?", uid).First(&listing)
	return &listing, result.Error
}

// FindListingByShareLink finds a listing by its short public link.
func FindListingByShareLink(db *gorm.DB, shareLink string) (*Listing, error) {
	var listing Listing
	result := db.Where("share_link = ?", shareLink).First(&listing)
	return &listing, result.Error
}
