package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Setting represents a single site setting row
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer, int_list
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Moderation modes for newly submitted listings.
const (
	ModerationModeAuto   = "auto"
	ModerationModeManual = "manual"
)

// SiteSettings is the site-wide policy configuration. It is loaded once at
// startup and injected into each engine; there is no ambient global.
type SiteSettings struct {
	SiteTitle                  string `json:"site_title" validate:"required,min=1,max=255"`
	MaintenanceMode            bool   `json:"maintenance_mode"`
	ModerationMode             string `json:"moderation_mode" validate:"oneof=auto manual"`
	DefaultListingDurationDays int    `json:"default_listing_duration_days" validate:"gt=0"`
	MaxListingDurationDays     int    `json:"max_listing_duration_days" validate:"gt=0"`
	AllowedRenewalDays         []int  `json:"allowed_renewal_days" validate:"required,min=1"`
	DailyRenewalQuota          int    `json:"daily_renewal_quota" validate:"gt=0"`
}

// DefaultSiteSettings returns the configuration used when the settings table
// is empty.
func DefaultSiteSettings() *SiteSettings {
	return &SiteSettings{
		SiteTitle:                  "MarketMate",
		MaintenanceMode:            false,
		ModerationMode:             ModerationModeAuto,
		DefaultListingDurationDays: 30,
		MaxListingDurationDays:     90,
		AllowedRenewalDays:         []int{30, 60, 90},
		DailyRenewalQuota:          5,
	}
}

// Validate validates the settings
func (s *SiteSettings) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// RenewalDaysAllowed reports whether the requested renewal duration is one of
// the configured options.
func (s *SiteSettings) RenewalDaysAllowed(days int) bool {
	for _, d := range s.AllowedRenewalDays {
		if d == days {
			return true
		}
	}
	return false
}

// LoadSiteSettings reads settings rows from the database on top of the
// defaults.
func LoadSiteSettings(db *gorm.DB) (*SiteSettings, error) {
	s := DefaultSiteSettings()

	var rows []Setting
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	for _, row := range rows {
		switch row.Key {
		case "site_title":
			s.SiteTitle = row.Value
		case "maintenance_mode":
			s.MaintenanceMode = row.Value == "true"
		case "moderation_mode":
			s.ModerationMode = row.Value
		case "default_listing_duration_days":
			if v, err := strconv.Atoi(row.Value); err == nil {
				s.DefaultListingDurationDays = v
			}
		case "max_listing_duration_days":
			if v, err := strconv.Atoi(row.Value); err == nil {
				s.MaxListingDurationDays = v
			}
		case "allowed_renewal_days":
			if v, err := parseIntList(row.Value); err == nil && len(v) > 0 {
				s.AllowedRenewalDays = v
			}
		case "daily_renewal_quota":
			if v, err := strconv.Atoi(row.Value); err == nil {
				s.DailyRenewalQuota = v
			}
		}
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}

	return s, nil
}

// SaveSiteSettings persists the settings back to their key/value rows.
func SaveSiteSettings(db *gorm.DB, s *SiteSettings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	settingsMap := map[string]string{
		"site_title":                    s.SiteTitle,
		"maintenance_mode":              fmt.Sprintf("%t", s.MaintenanceMode),
		"moderation_mode":               s.ModerationMode,
		"default_listing_duration_days": strconv.Itoa(s.DefaultListingDurationDays),
		"max_listing_duration_days":     strconv.Itoa(s.MaxListingDurationDays),
		"allowed_renewal_days":          formatIntList(s.AllowedRenewalDays),
		"daily_renewal_quota":           strconv.Itoa(s.DailyRenewalQuota),
	}

	for key, value := range settingsMap {
		var setting Setting
		result := db.Where("setting_key = ?", key).First(&setting)

		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				setting = Setting{
					Key:   key,
					Value: value,
					Type:  settingType(key),
				}
				if err := db.Create(&setting).Error; err != nil {
					return fmt.Errorf("failed to create setting %s: %w", key, err)
				}
			} else {
				return fmt.Errorf("failed to query setting %s: %w", key, result.Error)
			}
		} else {
			setting.Value = value
			if err := db.Save(&setting).Error; err != nil {
				return fmt.Errorf("failed to update setting %s: %w", key, err)
			}
		}
	}

	return nil
}

// settingType returns the type of a setting based on its key
func settingType(key string) string {
	switch key {
	case "maintenance_mode":
		return "boolean"
	case "default_listing_duration_days", "max_listing_duration_days", "daily_renewal_quota":
		return "integer"
	case "allowed_renewal_days":
		return "int_list"
	default:
		return "string"
	}
}

func parseIntList(value string) ([]int, error) {
	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func formatIntList(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
