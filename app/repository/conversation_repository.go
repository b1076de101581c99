package repository

import (
	"github.com/marketmate/marketmate/app/models"
	"gorm.io/gorm"
)

// conversationRepository implements the ConversationRepository interface
type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a new conversation repository instance
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// FindOrCreate returns the thread between a buyer and the listing owner
func (r *conversationRepository) FindOrCreate(listing *models.Listing, buyerID uint) (*models.Conversation, error) {
	return models.FindOrCreateConversation(r.db, listing, buyerID)
}

// GetByUUID retrieves a conversation by its public UUID
func (r *conversationRepository) GetByUUID(uuid string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.Preload("Listing").Preload("Buyer").Preload("Seller").
		Where("uuid = ?", uuid).First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// GetForUser returns the threads a user takes part in, most recent first
func (r *conversationRepository) GetForUser(userID uint, offset, limit int) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.Preload("Listing").Preload("Buyer").Preload("Seller").
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("updated_at DESC").Offset(offset).Limit(limit).Find(&conversations).Error
	return conversations, err
}

// AddMessage appends a message to a thread
func (r *conversationRepository) AddMessage(message *models.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return err
	}
	// Bump the thread so it sorts to the top of the inbox.
	return r.db.Model(&models.Conversation{}).
		Where("id = ?", message.ConversationID).
		Update("updated_at", message.CreatedAt).Error
}

// GetMessages returns a thread's messages, oldest first
func (r *conversationRepository) GetMessages(conversationID uint, offset, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").Offset(offset).Limit(limit).Find(&messages).Error
	return messages, err
}

// MarkMessagesRead marks the other party's messages as read
func (r *conversationRepository) MarkMessagesRead(conversationID uint, readerID uint) error {
	return r.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", gorm.Expr("NOW()")).Error
}
