package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Repositories bundles all repository instances
type Repositories struct {
	User         UserRepository
	Listing      ListingRepository
	Offer        OfferRepository
	Report       ReportRepository
	Setting      SettingRepository
	Notification NotificationRepository
	Conversation ConversationRepository
	Category     CategoryRepository
	Favorite     FavoriteRepository
}

// NewRepositories creates all repositories backed by the given database
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Listing:      NewListingRepository(db),
		Offer:        NewOfferRepository(db),
		Report:       NewReportRepository(db),
		Setting:      NewSettingRepository(db),
		Notification: NewNotificationRepository(db),
		Conversation: NewConversationRepository(db),
		Category:     NewCategoryRepository(db),
		Favorite:     NewFavoriteRepository(db),
	}
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetListingRepository returns the listing repository instance
func (f *Factory) GetListingRepository() ListingRepository {
	return f.GetRepositories().Listing
}

// GetOfferRepository returns the offer repository instance
func (f *Factory) GetOfferRepository() OfferRepository {
	return f.GetRepositories().Offer
}

// GetReportRepository returns the report repository instance
func (f *Factory) GetReportRepository() ReportRepository {
	return f.GetRepositories().Report
}

// GetSettingRepository returns the setting repository instance
func (f *Factory) GetSettingRepository() SettingRepository {
	return f.GetRepositories().Setting
}

// GetNotificationRepository returns the notification repository instance
func (f *Factory) GetNotificationRepository() NotificationRepository {
	return f.GetRepositories().Notification
}

// GetConversationRepository returns the conversation repository instance
func (f *Factory) GetConversationRepository() ConversationRepository {
	return f.GetRepositories().Conversation
}

// GetCategoryRepository returns the category repository instance
func (f *Factory) GetCategoryRepository() CategoryRepository {
	return f.GetRepositories().Category
}

// GetFavoriteRepository returns the favorite repository instance
func (f *Factory) GetFavoriteRepository() FavoriteRepository {
	return f.GetRepositories().Favorite
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
