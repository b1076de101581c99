package moderation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/internal/pkg/apperrors"
	"github.com/marketmate/marketmate/internal/pkg/lifecycle"
)

type fakeStore struct {
	reports  map[string]*models.Report
	listings map[uint]*models.Listing
	offers   map[uint]*models.Offer
	users    map[uint]*models.User
	logs     []models.ModerationLog
	nextID   uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reports:  map[string]*models.Report{},
		listings: map[uint]*models.Listing{},
		offers:   map[uint]*models.Offer{},
		users:    map[uint]*models.User{},
		nextID:   1,
	}
}

func (f *fakeStore) snapshot() *fakeStore {
	s := newFakeStore()
	s.nextID = f.nextID
	for k, v := range f.reports {
		c := *v
		s.reports[k] = &c
	}
	for k, v := range f.listings {
		c := *v
		s.listings[k] = &c
	}
	for k, v := range f.offers {
		c := *v
		s.offers[k] = &c
	}
	for k, v := range f.users {
		c := *v
		s.users[k] = &c
	}
	s.logs = append([]models.ModerationLog(nil), f.logs...)
	return s
}

func (f *fakeStore) Transaction(fn func(tx store) error) error {
	before := f.snapshot()
	if err := fn(f); err != nil {
		*f = *before
		return err
	}
	return nil
}

func (f *fakeStore) ReportByUUIDForUpdate(uuid string) (*models.Report, error) {
	r, ok := f.reports[uuid]
	if !ok {
		return nil, apperrors.NotFoundf("report %s", uuid)
	}
	copied := *r
	return &copied, nil
}

func (f *fakeStore) HasOpenReport(reporterID uint, targetType string, targetID uint) (bool, error) {
	for _, r := range f.reports {
		if r.ReporterID == reporterID && r.TargetType == targetType &&
			r.TargetID == targetID && r.Status == models.ReportStatusOpen {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) TargetExists(targetType string, targetID uint) (bool, error) {
	switch targetType {
	case models.ReportTargetListing:
		_, ok := f.listings[targetID]
		return ok, nil
	case models.ReportTargetUser:
		_, ok := f.users[targetID]
		return ok, nil
	}
	return false, nil
}

func (f *fakeStore) CreateReport(report *models.Report) error {
	report.ID = f.nextID
	f.nextID++
	if report.UUID == "" {
		report.UUID = fmt.Sprintf("report-%d", report.ID)
	}
	copied := *report
	f.reports[report.UUID] = &copied
	return nil
}

func (f *fakeStore) SaveReport(report *models.Report) error {
	copied := *report
	f.reports[report.UUID] = &copied
	return nil
}

func (f *fakeStore) CreateLogEntry(entry *models.ModerationLog) error {
	entry.ID = f.nextID
	f.nextID++
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeStore) ListingByIDForUpdate(id uint) (*models.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return nil, apperrors.NotFoundf("listing %d", id)
	}
	copied := *l
	return &copied, nil
}

func (f *fakeStore) SaveListing(listing *models.Listing) error {
	copied := *listing
	f.listings[listing.ID] = &copied
	return nil
}

func (f *fakeStore) DeleteListing(listing *models.Listing) error {
	delete(f.listings, listing.ID)
	return nil
}

func (f *fakeStore) DeclinePendingOffers(listingID uint, resolvedAt time.Time) error {
	for _, o := range f.offers {
		if o.ListingID == listingID && o.Status == models.OfferStatusPending {
			o.Status = models.OfferStatusDeclined
			o.ResolvedAt = &resolvedAt
		}
	}
	return nil
}

func (f *fakeStore) SetUserStatus(userID uint, status string) error {
	u, ok := f.users[userID]
	if !ok {
		return apperrors.NotFoundf("user %d", userID)
	}
	u.Status = status
	return nil
}

var moderator = lifecycle.Actor{ID: 99, Staff: true}

func testWorkflow() (*Workflow, *fakeStore) {
	f := newFakeStore()
	f.users[1] = &models.User{ID: 1, Status: models.STATUS_ACTIVE}
	f.users[2] = &models.User{ID: 2, Status: models.STATUS_ACTIVE}
	f.listings[10] = &models.Listing{ID: 10, UUID: "listing-10", UserID: 2, Status: models.ListingStatusActive}
	return &Workflow{store: f, cfg: models.DefaultSiteSettings()}, f
}

func TestFileReport_CreatesOpenReport(t *testing.T) {
	t.Parallel()

	w, f := testWorkflow()

	report, err := w.FileReport(1, models.ReportTargetListing, 10, models.ReportReasonScam, "asked to pay outside the site")
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusOpen, report.Status)
	assert.Equal(t, uint(1), report.ReporterID)
	require.Contains(t, f.reports, report.UUID)
}

func TestFileReport_Validation(t *testing.T) {
	t.Parallel()

	w, _ := testWorkflow()

	cases := []struct {
		name       string
		targetType string
		targetID   uint
		reason     string
		details    string
		wantErr    error
	}{
		{"unknown target type", "comment", 10, models.ReportReasonSpam, "", apperrors.ErrValidation},
		{"unknown reason", models.ReportTargetListing, 10, "bad", "", apperrors.ErrValidation},
		{"other without details", models.ReportTargetListing, 10, models.ReportReasonOther, "", apperrors.ErrValidation},
		{"missing target", models.ReportTargetListing, 404, models.ReportReasonSpam, "", apperrors.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := w.FileReport(1, tc.targetType, tc.targetID, tc.reason, tc.details)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestFileReport_DuplicateOpenReportRejected(t *testing.T) {
	t.Parallel()

	w, _ := testWorkflow()

	_, err := w.FileReport(1, models.ReportTargetListing, 10, models.ReportReasonSpam, "")
	require.NoError(t, err)

	_, err = w.FileReport(1, models.ReportTargetListing, 10, models.ReportReasonScam, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// A different reporter is still allowed.
	_, err = w.FileReport(2, models.ReportTargetListing, 10, models.ReportReasonSpam, "")
	assert.NoError(t, err)
}

func TestFileReport_AllowedAgainAfterClose(t *testing.T) {
	t.Parallel()

	w, _ := testWorkflow()

	report, err := w.FileReport(1, models.ReportTargetListing, 10, models.ReportReasonSpam, "")
	require.NoError(t, err)

	_, err = w.Resolve(report.UUID, moderator, models.ModActionWarn, "")
	require.NoError(t, err)

	_, err = w.FileReport(1, models.ReportTargetListing, 10, models.ReportReasonSpam, "")
	assert.NoError(t, err, "closing the first report frees the reporter to file again")
}

// Scenario: resolving a report with delete_listing closes the report, archives
// the listing and writes exactly one moderation log row referencing the report.
func TestResolve_DeleteListing(t *testing.T) {
	t.Parallel()

	w, f := testWorkflow()

	report, err := w.FileReport(1, models.ReportTargetListing, 10, models.ReportReasonProhibited, "")
	require.NoError(t, err)

	resolved, err := w.Resolve(report.UUID, moderator, models.ModActionDeleteListing, "counterfeit goods")
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusClosed, resolved.Status)
	require.NotNil(t, resolved.ClosedByID)
	assert.Equal(t, moderator.ID, *resolved.ClosedByID)
	assert.NotNil(t, resolved.ClosedAt)

	assert.Equal(t, models.ListingStatusArchived, f.listings[10].Status)

	require.Len(t, f.logs, 1)
	entry := f.logs[0]
	assert.Equal(t, models.ModActionDeleteListing, entry.Action)
	assert.Equal(t, moderator.ID, entry.AdminID)
	require.NotNil(t, entry.ReportID)
	assert.Equal(t, resolved.ID, *entry.ReportID)
}

// A reported draft never published, so delete_listing removes the row
// instead of archiving; the report still closes with its log entry.
func TestResolve_DeleteDraftListingRemovesIt(t *testing.T) {
	t.Parallel()

	w, f := testWorkflow()
	f.listings[10].Status = models.ListingStatusDraft

	report, err := w.FileReport(1, models.ReportTargetListing, 10, models.ReportReasonProhibited, "")
	require.NoError(t, err)

	resolved, err := w.Resolve(report.UUID, moderator, models.ModActionDeleteListing, "")
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusClosed, resolved.Status)
	assert.NotContains(t, f.listings, uint(10), "the draft is gone, not archived")
	require.Len(t, f.logs, 1)
	assert.Equal(t, models.ModActionDeleteListing, f.logs[0].Action)
}

func TestResolve_DeleteListingDeclinesPendingOffers(t *testing.T) {
	t.Parallel()

	w, f := testWorkflow()
	f.offers[1] = &models.Offer{ID: 1, ListingID: 10, Status: models.OfferStatusPending}

	report, err := w.FileReport(1, models.ReportTargetListing, 10, models.ReportReasonScam, "")
	require.NoError(t, err)

	_, err = w.Resolve(report.UUID, moderator, models.ModActionDeleteListing, "")
	require.NoError(t, err)

	assert.Equal(t, models.OfferStatusDeclined, f.offers[1].Status)
}

func TestResolve_BanAndUnbanUser(t *testing.T) {
	t.Parallel()

	w, f := testWorkflow()

	report, err := w.FileReport(1, models.ReportTargetUser, 2, models.ReportReasonOffensive, "")
	require.NoError(t, err)

	_, err = w.Resolve(report.UUID, moderator, models.ModActionBanUser, "")
	require.NoError(t, err)
	assert.Equal(t, models.STATUS_BANNED, f.users[2].Status)

	report2, err := w.FileReport(1, models.ReportTargetUser, 2, models.ReportReasonOther, "appeal granted")
	require.NoError(t, err)

	_, err = w.Resolve(report2.UUID, moderator, models.ModActionUnbanUser, "")
	require.NoError(t, err)
	assert.Equal(t, models.STATUS_ACTIVE, f.users[2].Status)
}

func TestResolve_WarnLeavesTargetUntouched(t *testing.T) {
	t.Parallel()

	w, f := testWorkflow()

	report, err := w.FileReport(1, models.ReportTargetListing, 10, models.ReportReasonWrongCategory, "")
	require.NoError(t, err)

	_, err = w.Resolve(report.UUID, moderator, models.ModActionWarn, "moved to the right category")
	require.NoError(t, err)

	assert.Equal(t, models.ListingStatusActive, f.listings[10].Status)
	assert.Len(t, f.logs, 1)
}

func TestResolve_Guards(t *testing.T) {
	t.Parallel()

	w, _ := testWorkflow()

	report, err := w.FileReport(1, models.ReportTargetListing, 10, models.ReportReasonSpam, "")
	require.NoError(t, err)

	t.Run("requires staff", func(t *testing.T) {
		_, err := w.Resolve(report.UUID, lifecycle.Actor{ID: 1}, models.ModActionWarn, "")
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := w.Resolve(report.UUID, moderator, "shadowban", "")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("action does not fit target", func(t *testing.T) {
		_, err := w.Resolve(report.UUID, moderator, models.ModActionBanUser, "")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("unknown report", func(t *testing.T) {
		_, err := w.Resolve("nope", moderator, models.ModActionWarn, "")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestResolve_ClosedReportStaysClosed(t *testing.T) {
	t.Parallel()

	w, f := testWorkflow()

	report, err := w.FileReport(1, models.ReportTargetListing, 10, models.ReportReasonSpam, "")
	require.NoError(t, err)

	first, err := w.Resolve(report.UUID, moderator, models.ModActionWarn, "")
	require.NoError(t, err)

	_, err = w.Resolve(report.UUID, moderator, models.ModActionDeleteListing, "")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyResolved)

	// The second attempt must not add a log row or touch the listing.
	assert.Len(t, f.logs, 1)
	assert.Equal(t, models.ListingStatusActive, f.listings[10].Status)
	assert.Equal(t, first.ClosedAt, f.reports[report.UUID].ClosedAt)
}

func TestResolve_AlreadyArchivedListingStillCloses(t *testing.T) {
	t.Parallel()

	w, f := testWorkflow()
	f.listings[10].Status = models.ListingStatusArchived

	report, err := w.FileReport(1, models.ReportTargetListing, 10, models.ReportReasonSpam, "")
	require.NoError(t, err)

	resolved, err := w.Resolve(report.UUID, moderator, models.ModActionDeleteListing, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusClosed, resolved.Status)
}

func TestResolveMany_ReportsPartialFailures(t *testing.T) {
	t.Parallel()

	w, f := testWorkflow()
	f.listings[11] = &models.Listing{ID: 11, UUID: "listing-11", UserID: 2, Status: models.ListingStatusActive}

	r1, err := w.FileReport(1, models.ReportTargetListing, 10, models.ReportReasonSpam, "")
	require.NoError(t, err)
	r2, err := w.FileReport(1, models.ReportTargetListing, 11, models.ReportReasonSpam, "")
	require.NoError(t, err)

	// Close r2 up front so the bulk call hits an already-resolved report.
	_, err = w.Resolve(r2.UUID, moderator, models.ModActionWarn, "")
	require.NoError(t, err)

	resolved, failed := w.ResolveMany([]string{r1.UUID, r2.UUID, "missing"}, moderator, models.ModActionWarn, "")

	assert.Equal(t, []string{r1.UUID}, resolved)
	require.Len(t, failed, 2)
	assert.Equal(t, r2.UUID, failed[0].ReportUUID)
	assert.Equal(t, "missing", failed[1].ReportUUID)

	// The failures did not undo the successful resolution.
	assert.Equal(t, models.ReportStatusClosed, f.reports[r1.UUID].Status)
}
