package renewal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/internal/pkg/apperrors"
)

type fakeStore struct {
	listings map[string]*models.Listing
	failSave bool
}

func (f *fakeStore) Transaction(fn func(tx store) error) error {
	snapshot := make(map[string]models.Listing, len(f.listings))
	for k, l := range f.listings {
		snapshot[k] = *l
	}
	if err := fn(f); err != nil {
		f.listings = make(map[string]*models.Listing, len(snapshot))
		for k := range snapshot {
			l := snapshot[k]
			f.listings[k] = &l
		}
		return err
	}
	return nil
}

func (f *fakeStore) ListingByUUIDForUpdate(uuid string) (*models.Listing, error) {
	l, ok := f.listings[uuid]
	if !ok {
		return nil, apperrors.NotFoundf("listing %s", uuid)
	}
	copied := *l
	return &copied, nil
}

func (f *fakeStore) SaveListing(listing *models.Listing) error {
	if f.failSave {
		return errors.New("save failed")
	}
	copied := *listing
	f.listings[listing.UUID] = &copied
	return nil
}

type fakeQuota struct {
	taken map[uint]int
}

func (q *fakeQuota) Take(ownerID uint, limit int) (bool, error) {
	if q.taken == nil {
		q.taken = map[uint]int{}
	}
	if q.taken[ownerID] >= limit {
		return false, nil
	}
	q.taken[ownerID]++
	return true, nil
}

func (q *fakeQuota) Give(ownerID uint) error {
	if q.taken[ownerID] > 0 {
		q.taken[ownerID]--
	}
	return nil
}

const ownerID = uint(7)

func expiredListing() *models.Listing {
	past := time.Now().AddDate(0, 0, -3)
	return &models.Listing{
		ID:        1,
		UUID:      "renewal-test-uuid",
		UserID:    ownerID,
		Status:    models.ListingStatusExpired,
		ExpiresAt: &past,
	}
}

func testPolicy(l *models.Listing, quota QuotaCounter) (*Policy, *fakeStore) {
	f := &fakeStore{listings: map[string]*models.Listing{l.UUID: l}}
	return &Policy{store: f, quota: quota, cfg: models.DefaultSiteSettings()}, f
}

// Scenario: renewing an expired listing with 30 days reactivates it and sets
// the expiry 30 days out.
func TestRenew_ReactivatesExpiredListing(t *testing.T) {
	t.Parallel()

	p, f := testPolicy(expiredListing(), &fakeQuota{})

	before := time.Now()
	renewed, err := p.Renew("renewal-test-uuid", ownerID, 30)
	require.NoError(t, err)

	assert.Equal(t, models.ListingStatusActive, renewed.Status)
	require.NotNil(t, renewed.ExpiresAt)
	assert.WithinDuration(t, before.AddDate(0, 0, 30), *renewed.ExpiresAt, 5*time.Second)
	assert.Equal(t, models.ListingStatusActive, f.listings["renewal-test-uuid"].Status)
}

func TestRenew_QuotaExhausted(t *testing.T) {
	t.Parallel()

	quota := &fakeQuota{}
	cfg := models.DefaultSiteSettings()

	listing := expiredListing()
	f := &fakeStore{listings: map[string]*models.Listing{listing.UUID: listing}}
	p := &Policy{store: f, quota: quota, cfg: cfg}

	for i := 0; i < cfg.DailyRenewalQuota; i++ {
		_, err := p.Renew(listing.UUID, ownerID, 30)
		require.NoError(t, err, "renewal %d within quota", i+1)
	}

	stateBefore := *f.listings[listing.UUID]
	_, err := p.Renew(listing.UUID, ownerID, 30)
	assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)
	assert.Equal(t, stateBefore, *f.listings[listing.UUID], "failed renewal must not change the listing")
}

func TestRenew_DisallowedDuration(t *testing.T) {
	t.Parallel()

	p, _ := testPolicy(expiredListing(), &fakeQuota{})

	_, err := p.Renew("renewal-test-uuid", ownerID, 45)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRenew_RequiresOwner(t *testing.T) {
	t.Parallel()

	p, _ := testPolicy(expiredListing(), &fakeQuota{})

	_, err := p.Renew("renewal-test-uuid", ownerID+1, 30)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestRenew_WrongState(t *testing.T) {
	t.Parallel()

	quota := &fakeQuota{}
	listing := expiredListing()
	listing.Status = models.ListingStatusSold
	p, _ := testPolicy(listing, quota)

	_, err := p.Renew("renewal-test-uuid", ownerID, 30)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Empty(t, quota.taken, "state violations must not burn quota")
}

// A renewal whose write fails rolls back and hands the quota slot back; a
// storage hiccup must not count against the daily window.
func TestRenew_FailedSaveReturnsQuotaSlot(t *testing.T) {
	t.Parallel()

	quota := &fakeQuota{}
	listing := expiredListing()
	f := &fakeStore{listings: map[string]*models.Listing{listing.UUID: listing}, failSave: true}
	p := &Policy{store: f, quota: quota, cfg: models.DefaultSiteSettings()}

	_, err := p.Renew(listing.UUID, ownerID, 30)
	require.Error(t, err)

	assert.Equal(t, models.ListingStatusExpired, f.listings[listing.UUID].Status, "rollback keeps the listing untouched")
	assert.Equal(t, 0, quota.taken[ownerID], "failed renewal must not burn quota")

	// With the store healthy again the full quota is still available.
	f.failSave = false
	renewed, err := p.Renew(listing.UUID, ownerID, 30)
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusActive, renewed.Status)
	assert.Equal(t, 1, quota.taken[ownerID])
}

// The cap: renewing an active listing that still has time left never pushes
// the expiry past now + site maximum.
func TestRenew_NeverExceedsMaxDuration(t *testing.T) {
	t.Parallel()

	cfg := models.DefaultSiteSettings()
	future := time.Now().AddDate(0, 0, 80)
	listing := expiredListing()
	listing.Status = models.ListingStatusActive
	listing.ExpiresAt = &future

	p, _ := testPolicy(listing, &fakeQuota{})

	renewed, err := p.Renew(listing.UUID, ownerID, 60)
	require.NoError(t, err)
	require.NotNil(t, renewed.ExpiresAt)
	assert.False(t, renewed.ExpiresAt.After(time.Now().AddDate(0, 0, cfg.MaxListingDurationDays)),
		"expiry must stay within the site maximum")
}

func TestComputeNewExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("expired listing extends from now", func(t *testing.T) {
		past := now.AddDate(0, 0, -10)
		got := ComputeNewExpiry(now, &past, 30, 90)
		assert.Equal(t, now.AddDate(0, 0, 30), got)
	})

	t.Run("active listing extends from current expiry", func(t *testing.T) {
		future := now.AddDate(0, 0, 20)
		got := ComputeNewExpiry(now, &future, 30, 90)
		assert.Equal(t, future.AddDate(0, 0, 30), got)
	})

	t.Run("cap wins", func(t *testing.T) {
		future := now.AddDate(0, 0, 80)
		got := ComputeNewExpiry(now, &future, 60, 90)
		assert.Equal(t, now.AddDate(0, 0, 90), got)
	})

	t.Run("nil expiry extends from now", func(t *testing.T) {
		got := ComputeNewExpiry(now, nil, 30, 90)
		assert.Equal(t, now.AddDate(0, 0, 30), got)
	})
}
