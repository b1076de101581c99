package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OfferStatus is the negotiation state of a single offer record. A countered
// offer is frozen; its successor carries the negotiation forward.
type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusDeclined  OfferStatus = "declined"
	OfferStatusCountered OfferStatus = "countered"
	OfferStatusSold      OfferStatus = "sold"
)

const (
	OfferTypeOffer  = "offer"
	OfferTypeBuyNow = "buy_now"
)

type Offer struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	UUID     string  `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	ListingID uint   `gorm:"index;not null" json:"listing_id"`
	Listing  Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	// SellerID is denormalized from the listing owner at creation time so a
	// chain keeps its roles even if the listing changes hands later.
	BuyerID  uint  `gorm:"index;not null" json:"buyer_id"`
	Buyer    User  `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	SellerID uint  `gorm:"index;not null" json:"seller_id"`
	Seller   User  `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	// InitiatorID is the party who sent this offer: the buyer for a first
	// offer, whoever countered for a counter. The other party resolves it.
	InitiatorID uint `gorm:"index;not null" json:"initiator_id"`

	Amount   float64     `gorm:"type:numeric(12,2);not null" json:"amount" validate:"gt=0"`
	Currency string      `gorm:"type:char(3);not null" json:"currency"`
	Message  string      `gorm:"type:text" json:"message" validate:"max=2000"`
	Type     string      `gorm:"type:varchar(20);default:'offer'" json:"type" validate:"oneof=offer buy_now"`
	Status   OfferStatus `gorm:"type:varchar(20);index;default:'pending'" json:"status"`

	// CounterOfferID points at the predecessor in a counter chain. Only the
	// back-reference is stored; chains are walked predecessor -> successor.
	CounterOfferID *uint  `gorm:"index" json:"counter_offer_id,omitempty"`
	CounterOffer   *Offer `gorm:"foreignKey:CounterOfferID" json:"counter_offer,omitempty"`

	ResolvedAt *time.Time     `json:"resolved_at"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the public UUID.
func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.UUID == "" {
		o.UUID = uuid.New().String()
	}
	return nil
}

// IsResolved reports whether the offer reached a terminal state.
func (o *Offer) IsResolved() bool {
	return o.Status != OfferStatusPending
}

// IsCounter reports whether this offer supersedes an earlier one.
func (o *Offer) IsCounter() bool {
	return o.CounterOfferID != nil
}

// RecipientID returns the party the offer is waiting on, i.e. whoever did not
// send it.
func (o *Offer) RecipientID() uint {
	if o.InitiatorID == o.BuyerID {
		return o.SellerID
	}
	return o.BuyerID
}

// FindOfferByUUID finds an offer by its public UUID.
func FindOfferByUUID(db *gorm.DB, uid string) (*Offer, error) {
	var offer Offer
	result := db.Where("uuid = ?", uid).First(&offer)
	return &offer, result.Error
}
