package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntList(t *testing.T) {
	got, err := parseIntList("30,60,90")
	require.NoError(t, err)
	assert.Equal(t, []int{30, 60, 90}, got)

	got, err = parseIntList(" 30 , 60 ")
	require.NoError(t, err)
	assert.Equal(t, []int{30, 60}, got)

	got, err = parseIntList("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseIntList("30,x")
	assert.Error(t, err)
}

func TestFormatIntList(t *testing.T) {
	assert.Equal(t, "30,60,90", formatIntList([]int{30, 60, 90}))
	assert.Equal(t, "", formatIntList(nil))
}

func TestSiteSettingsRenewalDaysAllowed(t *testing.T) {
	s := DefaultSiteSettings()

	assert.True(t, s.RenewalDaysAllowed(30))
	assert.True(t, s.RenewalDaysAllowed(90))
	assert.False(t, s.RenewalDaysAllowed(45))
	assert.False(t, s.RenewalDaysAllowed(0))
}

func TestSiteSettingsValidate(t *testing.T) {
	s := DefaultSiteSettings()
	require.NoError(t, s.Validate())

	s.ModerationMode = "sometimes"
	assert.Error(t, s.Validate())

	s = DefaultSiteSettings()
	s.AllowedRenewalDays = nil
	assert.Error(t, s.Validate())

	s = DefaultSiteSettings()
	s.DailyRenewalQuota = 0
	assert.Error(t, s.Validate())
}

func TestSettingType(t *testing.T) {
	assert.Equal(t, "boolean", settingType("maintenance_mode"))
	assert.Equal(t, "integer", settingType("daily_renewal_quota"))
	assert.Equal(t, "int_list", settingType("allowed_renewal_days"))
	assert.Equal(t, "string", settingType("site_title"))
}
