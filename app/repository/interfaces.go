package repository

import (
	"github.com/marketmate/marketmate/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
}

// ListingFilter narrows public listing queries. Zero values mean "no filter".
type ListingFilter struct {
	CategoryID uint
	Query      string
	Location   string
	PriceMin   float64
	PriceMax   float64
	Condition  string
	SortBy     string // newest, price_asc, price_desc, popular
	Offset     int
	Limit      int
}

// ListingRepository defines the interface for listing-related database operations
type ListingRepository interface {
	Create(listing *models.Listing) error
	GetByID(id uint) (*models.Listing, error)
	GetByUUID(uuid string) (*models.Listing, error)
	GetByShareLink(shareLink string) (*models.Listing, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Listing, error)
	Update(listing *models.Listing) error
	GetActive(filter ListingFilter) ([]models.Listing, int64, error)
	GetPendingReview(offset, limit int) ([]models.Listing, error)
	CountByStatus(status models.ListingStatus) (int64, error)
	CountActiveByUserID(userID uint) (int64, error)
	GetImages(listingID uint) ([]models.ListingImage, error)
	AddImage(image *models.ListingImage) error
	DeleteImage(listingID uint, imageID uint) error
}

// OfferRepository defines the interface for offer-related database operations
type OfferRepository interface {
	GetByUUID(uuid string) (*models.Offer, error)
	GetByListingID(listingID uint) ([]models.Offer, error)
	GetByBuyerID(buyerID uint, offset, limit int) ([]models.Offer, error)
	GetBySellerID(sellerID uint, offset, limit int) ([]models.Offer, error)
	CountPendingForListing(listingID uint) (int64, error)
}

// ReportRepository defines the interface for report and moderation log queries
type ReportRepository interface {
	GetByUUID(uuid string) (*models.Report, error)
	GetOpen(offset, limit int) ([]models.Report, error)
	CountOpen() (int64, error)
	GetByTarget(targetType string, targetID uint) ([]models.Report, error)
	GetLogForTarget(targetType string, targetID uint) ([]models.ModerationLog, error)
}

// SettingRepository defines the interface for site settings
type SettingRepository interface {
	Get() (*models.SiteSettings, error)
	Save(settings *models.SiteSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// NotificationRepository defines the interface for notification queries
type NotificationRepository interface {
	GetByUserID(userID uint, offset, limit int) ([]models.Notification, error)
	CountUnread(userID uint) (int64, error)
	MarkRead(id uint, userID uint) error
	MarkAllRead(userID uint) error
}

// ConversationRepository defines the interface for messaging operations
type ConversationRepository interface {
	FindOrCreate(listing *models.Listing, buyerID uint) (*models.Conversation, error)
	GetByUUID(uuid string) (*models.Conversation, error)
	GetForUser(userID uint, offset, limit int) ([]models.Conversation, error)
	AddMessage(message *models.Message) error
	GetMessages(conversationID uint, offset, limit int) ([]models.Message, error)
	MarkMessagesRead(conversationID uint, readerID uint) error
}

// CategoryRepository defines the interface for category operations
type CategoryRepository interface {
	Create(category *models.Category) error
	GetByID(id uint) (*models.Category, error)
	GetBySlug(slug string) (*models.Category, error)
	GetActive() ([]models.Category, error)
	GetAll() ([]models.Category, error)
	Update(category *models.Category) error
	Delete(id uint) error
}

// FavoriteRepository defines the interface for favorite operations
type FavoriteRepository interface {
	Toggle(userID, listingID uint) (bool, error)
	IsFavorited(userID, listingID uint) (bool, error)
	GetListingsForUser(userID uint, offset, limit int) ([]models.Listing, error)
}
