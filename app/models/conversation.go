package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is a buyer/seller message thread scoped to one listing.
type Conversation struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UUID      string         `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	ListingID uint           `gorm:"uniqueIndex:idx_conversations_listing_buyer;not null" json:"listing_id"`
	Listing   Listing        `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	BuyerID   uint           `gorm:"uniqueIndex:idx_conversations_listing_buyer;not null" json:"buyer_id"`
	Buyer     User           `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	SellerID  uint           `gorm:"index;not null" json:"seller_id"`
	Seller    User           `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Messages  []Message      `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type Message struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ConversationID uint       `gorm:"index;not null" json:"conversation_id"`
	SenderID       uint       `gorm:"index;not null" json:"sender_id"`
	Sender         User       `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Body           string     `gorm:"type:text;not null" json:"body" validate:"required,max=5000"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeCreate assigns the public UUID.
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == "" {
		c.UUID = uuid.New().String()
	}
	return nil
}

// Participates reports whether the user is one of the two parties.
func (c *Conversation) Participates(userID uint) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// FindConversationByUUID finds a conversation by its public UUID.
func FindConversationByUUID(db *gorm.DB, uid string) (*Conversation, error) {
	var conversation Conversation
	result := db.Where("uuid = ?", uid).First(&conversation)
	return &conversation, result.Error
}

// FindOrCreateConversation returns the thread between a buyer and the listing
// owner, creating it on first contact.
func FindOrCreateConversation(db *gorm.DB, listing *Listing, buyerID uint) (*Conversation, error) {
	var conversation Conversation
	err := db.Where("listing_id = ? AND buyer_id = ?", listing.ID, buyerID).First(&conversation).Error
	if err == nil {
		return &conversation, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	conversation = Conversation{
		ListingID: listing.ID,
		BuyerID:   buyerID,
		SellerID:  listing.UserID,
	}
	if err := db.Create(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}
