package repository

import (
	"sync"

	"github.com/marketmate/marketmate/app/models"
	"gorm.io/gorm"
)

// settingRepository implements the SettingRepository interface with a small
// in-process cache; the settings table changes rarely.
type settingRepository struct {
	db    *gorm.DB
	mu    sync.RWMutex
	cache *models.SiteSettings
}

// NewSettingRepository creates a new setting repository instance
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// Get returns the current site settings
func (r *settingRepository) Get() (*models.SiteSettings, error) {
	r.mu.RLock()
	if r.cache != nil {
		cached := *r.cache
		r.mu.RUnlock()
		return &cached, nil
	}
	r.mu.RUnlock()

	settings, err := models.LoadSiteSettings(r.db)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache = settings
	r.mu.Unlock()

	copied := *settings
	return &copied, nil
}

// Save persists the settings and refreshes the cache
func (r *settingRepository) Save(settings *models.SiteSettings) error {
	if err := models.SaveSiteSettings(r.db, settings); err != nil {
		return err
	}

	r.mu.Lock()
	copied := *settings
	r.cache = &copied
	r.mu.Unlock()
	return nil
}

// GetValue returns a single raw setting value
func (r *settingRepository) GetValue(key string) (string, error) {
	var setting models.Setting
	err := r.db.Where("setting_key = ?", key).First(&setting).Error
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// SetValue writes a single raw setting value and drops the cache
func (r *settingRepository) SetValue(key, value string) error {
	var setting models.Setting
	err := r.db.Where("setting_key = ?", key).First(&setting).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		setting = models.Setting{Key: key, Value: value, Type: "string"}
		err = r.db.Create(&setting).Error
	} else {
		setting.Value = value
		err = r.db.Save(&setting).Error
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.cache = nil
	r.mu.Unlock()
	return nil
}
