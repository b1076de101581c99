package lifecycle

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/internal/pkg/apperrors"
)

func draftListing() *models.Listing {
	return &models.Listing{
		ID:           1,
		UUID:         "11111111-1111-1111-1111-111111111111",
		UserID:       10,
		Status:       models.ListingStatusDraft,
		DurationDays: 30,
	}
}

func TestCanTransition_Graph(t *testing.T) {
	t.Parallel()

	legal := map[[2]models.ListingStatus]bool{
		{models.ListingStatusDraft, models.ListingStatusPending}:    true,
		{models.ListingStatusDraft, models.ListingStatusActive}:     true,
		{models.ListingStatusPending, models.ListingStatusActive}:   true,
		{models.ListingStatusPending, models.ListingStatusSold}:     true,
		{models.ListingStatusPending, models.ListingStatusExpired}:  true,
		{models.ListingStatusPending, models.ListingStatusArchived}: true,
		{models.ListingStatusActive, models.ListingStatusSold}:      true,
		{models.ListingStatusActive, models.ListingStatusExpired}:   true,
		{models.ListingStatusActive, models.ListingStatusArchived}:  true,
		{models.ListingStatusExpired, models.ListingStatusActive}:   true,
		{models.ListingStatusExpired, models.ListingStatusArchived}: true,
	}

	for _, from := range Statuses() {
		for _, to := range Statuses() {
			expected := legal[[2]models.ListingStatus{from, to}]
			assert.Equal(t, expected, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	t.Parallel()

	for _, to := range Statuses() {
		assert.False(t, CanTransition(models.ListingStatusSold, to))
		assert.False(t, CanTransition(models.ListingStatusArchived, to))
	}
}

// Random transition sequences: every Apply* call either performs a legal edge
// of the graph or reports an invalid-state style error and leaves the listing
// untouched.
func TestApply_RandomSequences(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	now := time.Now()

	type op struct {
		name  string
		apply func(l *models.Listing) error
	}
	ops := []op{
		{"submit", func(l *models.Listing) error {
			return ApplySubmit(l, models.ModerationModeManual, now, 90)
		}},
		{"approve", func(l *models.Listing) error { return ApplyApprove(l, now) }},
		{"reject", func(l *models.Listing) error { return ApplyReject(l) }},
		{"markSold", func(l *models.Listing) error { return ApplyMarkSold(l, now) }},
		{"archive", func(l *models.Listing) error { return ApplyArchive(l) }},
	}

	for seq := 0; seq < 200; seq++ {
		listing := draftListing()
		for step := 0; step < 10; step++ {
			before := listing.Status
			o := ops[rng.Intn(len(ops))]
			err := o.apply(listing)
			if err != nil {
				assert.True(t,
					errors.Is(err, apperrors.ErrInvalidState) || errors.Is(err, apperrors.ErrAlreadyResolved),
					"op %s from %s returned unexpected error %v", o.name, before, err)
				assert.Equal(t, before, listing.Status, "failed op %s must not mutate status", o.name)
				continue
			}
			assert.True(t, CanTransition(before, listing.Status) || before == listing.Status,
				"op %s performed illegal edge %s -> %s", o.name, before, listing.Status)
		}
	}
}

func TestApplySubmit_AutoModeActivates(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	listing := draftListing()

	require.NoError(t, ApplySubmit(listing, models.ModerationModeAuto, now, 90))

	assert.Equal(t, models.ListingStatusActive, listing.Status)
	require.NotNil(t, listing.ExpiresAt)
	assert.Equal(t, now.AddDate(0, 0, 30), *listing.ExpiresAt)
	require.NotNil(t, listing.PublishedAt)
}

func TestApplySubmit_ManualModeQueues(t *testing.T) {
	t.Parallel()

	listing := draftListing()
	require.NoError(t, ApplySubmit(listing, models.ModerationModeManual, time.Now(), 90))
	assert.Equal(t, models.ListingStatusPending, listing.Status)
	assert.Nil(t, listing.PublishedAt)
}

func TestApplySubmit_CapsDuration(t *testing.T) {
	t.Parallel()

	now := time.Now()
	listing := draftListing()
	listing.DurationDays = 365

	require.NoError(t, ApplySubmit(listing, models.ModerationModeAuto, now, 90))
	require.NotNil(t, listing.ExpiresAt)
	assert.False(t, listing.ExpiresAt.After(now.AddDate(0, 0, 90)))
}

func TestApplySubmit_RejectsNonDraft(t *testing.T) {
	t.Parallel()

	listing := draftListing()
	listing.Status = models.ListingStatusActive

	err := ApplySubmit(listing, models.ModerationModeAuto, time.Now(), 90)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestApplyMarkSold_IdempotencyGuard(t *testing.T) {
	t.Parallel()

	now := time.Now()
	listing := draftListing()
	listing.Status = models.ListingStatusActive

	require.NoError(t, ApplyMarkSold(listing, now))
	assert.Equal(t, models.ListingStatusSold, listing.Status)

	err := ApplyMarkSold(listing, now)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyResolved)
	assert.Equal(t, models.ListingStatusSold, listing.Status)
}

func TestApplyExpire_Idempotent(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := now.AddDate(0, 0, -1)
	listing := draftListing()
	listing.Status = models.ListingStatusActive
	listing.ExpiresAt = &past

	changed, err := ApplyExpire(listing, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.ListingStatusExpired, listing.Status)

	changed, err = ApplyExpire(listing, now)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.ListingStatusExpired, listing.Status)
}

func TestApplyExpire_IgnoresFutureExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	future := now.AddDate(0, 0, 5)
	listing := draftListing()
	listing.Status = models.ListingStatusActive
	listing.ExpiresAt = &future

	changed, err := ApplyExpire(listing, now)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.ListingStatusActive, listing.Status)
}

func TestComputeExpiry_Cap(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now.AddDate(0, 0, 60), ComputeExpiry(now, 60, 90))
	assert.Equal(t, now.AddDate(0, 0, 90), ComputeExpiry(now, 180, 90))
}
