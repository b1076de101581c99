package negotiation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/internal/pkg/apperrors"
)

// fakeStore keeps listings and offers in memory and rolls a failed
// transaction back by restoring a snapshot.
type fakeStore struct {
	listings map[uint]*models.Listing
	offers   map[uint]*models.Offer
	nextID   uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		listings: map[uint]*models.Listing{},
		offers:   map[uint]*models.Offer{},
		nextID:   1,
	}
}

func (f *fakeStore) snapshot() (map[uint]models.Listing, map[uint]models.Offer, uint) {
	listings := make(map[uint]models.Listing, len(f.listings))
	for id, l := range f.listings {
		listings[id] = *l
	}
	offers := make(map[uint]models.Offer, len(f.offers))
	for id, o := range f.offers {
		offers[id] = *o
	}
	return listings, offers, f.nextID
}

func (f *fakeStore) restore(listings map[uint]models.Listing, offers map[uint]models.Offer, nextID uint) {
	f.listings = make(map[uint]*models.Listing, len(listings))
	for id := range listings {
		l := listings[id]
		f.listings[id] = &l
	}
	f.offers = make(map[uint]*models.Offer, len(offers))
	for id := range offers {
		o := offers[id]
		f.offers[id] = &o
	}
	f.nextID = nextID
}

func (f *fakeStore) Transaction(fn func(tx store) error) error {
	listings, offers, nextID := f.snapshot()
	if err := fn(f); err != nil {
		f.restore(listings, offers, nextID)
		return err
	}
	return nil
}

func (f *fakeStore) ListingByUUIDForUpdate(uuid string) (*models.Listing, error) {
	for _, l := range f.listings {
		if l.UUID == uuid {
			copied := *l
			return &copied, nil
		}
	}
	return nil, apperrors.NotFoundf("listing %s", uuid)
}

func (f *fakeStore) ListingByIDForUpdate(id uint) (*models.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return nil, apperrors.NotFoundf("listing %d", id)
	}
	copied := *l
	return &copied, nil
}

func (f *fakeStore) OfferByUUIDForUpdate(uuid string) (*models.Offer, error) {
	for _, o := range f.offers {
		if o.UUID == uuid {
			copied := *o
			return &copied, nil
		}
	}
	return nil, apperrors.NotFoundf("offer %s", uuid)
}

func (f *fakeStore) HasPendingOfferFromBuyer(listingID, buyerID uint) (bool, error) {
	for _, o := range f.offers {
		if o.ListingID == listingID && o.BuyerID == buyerID && o.Status == models.OfferStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateOffer(offer *models.Offer) error {
	offer.ID = f.nextID
	f.nextID++
	if offer.UUID == "" {
		offer.UUID = uuidFor("offer", offer.ID)
	}
	copied := *offer
	f.offers[offer.ID] = &copied
	return nil
}

func (f *fakeStore) SaveOffer(offer *models.Offer) error {
	copied := *offer
	f.offers[offer.ID] = &copied
	return nil
}

func (f *fakeStore) SaveListing(listing *models.Listing) error {
	copied := *listing
	f.listings[listing.ID] = &copied
	return nil
}

func (f *fakeStore) DeclineSiblingOffers(listingID, exceptOfferID uint, resolvedAt time.Time) error {
	for _, o := range f.offers {
		if o.ListingID == listingID && o.ID != exceptOfferID && o.Status == models.OfferStatusPending {
			o.Status = models.OfferStatusDeclined
			t := resolvedAt
			o.ResolvedAt = &t
		}
	}
	return nil
}

func (f *fakeStore) addListing(l models.Listing) *models.Listing {
	l.ID = f.nextID
	f.nextID++
	if l.UUID == "" {
		l.UUID = uuidFor("listing", l.ID)
	}
	f.listings[l.ID] = &l
	return f.listings[l.ID]
}

func uuidFor(kind string, id uint) string {
	return kind + "-" + string(rune('0'+id%10)) + "-uuid"
}

func testEngine(f *fakeStore) *Engine {
	return &Engine{store: f, cfg: models.DefaultSiteSettings()}
}

const (
	sellerID = uint(1)
	buyerB   = uint(2)
	buyerC   = uint(3)
)

func activeListing(negotiable bool) models.Listing {
	return models.Listing{
		UserID:     sellerID,
		Status:     models.ListingStatusActive,
		Negotiable: negotiable,
		Price:      250,
		Currency:   "EUR",
	}
}

func TestMakeOffer_CreatesPending(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(true))
	e := testEngine(f)

	offer, err := e.MakeOffer(listing.UUID, buyerB, 100, "would you take 100?")
	require.NoError(t, err)

	assert.Equal(t, models.OfferStatusPending, offer.Status)
	assert.Equal(t, models.OfferTypeOffer, offer.Type)
	assert.Equal(t, sellerID, offer.SellerID)
	assert.Equal(t, buyerB, offer.InitiatorID)
	assert.Equal(t, sellerID, offer.RecipientID())
	assert.Equal(t, "EUR", offer.Currency)
}

func TestMakeOffer_Validation(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(true))
	e := testEngine(f)

	_, err := e.MakeOffer(listing.UUID, sellerID, 100, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation, "owner cannot bid on own listing")

	_, err = e.MakeOffer(listing.UUID, buyerB, 0, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation, "amount must be positive")

	_, err = e.MakeOffer("missing-uuid", buyerB, 100, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMakeOffer_RejectsInactiveListing(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	l := activeListing(true)
	l.Status = models.ListingStatusSold
	listing := f.addListing(l)
	e := testEngine(f)

	_, err := e.MakeOffer(listing.UUID, buyerB, 100, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestMakeOffer_SecondPendingFromSameBuyerRejected(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(true))
	e := testEngine(f)

	_, err := e.MakeOffer(listing.UUID, buyerB, 100, "")
	require.NoError(t, err)

	_, err = e.MakeOffer(listing.UUID, buyerB, 120, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

// Scenario: two buyers bid, the seller accepts one. The other pending offer
// must be declined in the same transaction; nothing stays pending on a sold
// listing.
func TestAccept_DeclinesSiblings(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(true))
	e := testEngine(f)

	offerB, err := e.MakeOffer(listing.UUID, buyerB, 100, "")
	require.NoError(t, err)
	offerC, err := e.MakeOffer(listing.UUID, buyerC, 110, "")
	require.NoError(t, err)

	accepted, err := e.Accept(offerC.UUID, sellerID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusAccepted, accepted.Status)

	assert.Equal(t, models.ListingStatusSold, f.listings[listing.ID].Status)
	assert.Equal(t, models.OfferStatusDeclined, f.offers[offerB.ID].Status)
	assert.Equal(t, models.OfferStatusAccepted, f.offers[offerC.ID].Status)

	for _, o := range f.offers {
		assert.NotEqual(t, models.OfferStatusPending, o.Status,
			"no offer may stay pending on a sold listing")
	}
}

func TestAccept_SenderCannotResolveOwnOffer(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(true))
	e := testEngine(f)

	offer, err := e.MakeOffer(listing.UUID, buyerB, 100, "")
	require.NoError(t, err)

	_, err = e.Accept(offer.UUID, buyerB)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = e.Accept(offer.UUID, buyerC)
	assert.ErrorIs(t, err, apperrors.ErrForbidden, "outsiders cannot accept either")

	assert.Equal(t, models.OfferStatusPending, f.offers[offer.ID].Status)
	assert.Equal(t, models.ListingStatusActive, f.listings[listing.ID].Status)
}

// The canonical race: after one accept wins, accepting the sibling fails with
// an invalid-state error and changes nothing.
func TestAccept_SecondResolutionLoses(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(true))
	e := testEngine(f)

	offerB, err := e.MakeOffer(listing.UUID, buyerB, 100, "")
	require.NoError(t, err)
	offerC, err := e.MakeOffer(listing.UUID, buyerC, 110, "")
	require.NoError(t, err)

	_, err = e.Accept(offerB.UUID, sellerID)
	require.NoError(t, err)

	_, err = e.Accept(offerC.UUID, sellerID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, models.OfferStatusDeclined, f.offers[offerC.ID].Status)
}

func TestDecline_NoListingSideEffect(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(true))
	e := testEngine(f)

	offer, err := e.MakeOffer(listing.UUID, buyerB, 100, "")
	require.NoError(t, err)

	declined, err := e.Decline(offer.UUID, sellerID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusDeclined, declined.Status)
	assert.Equal(t, models.ListingStatusActive, f.listings[listing.ID].Status)
}

// Scenario: buy now on a fixed-price listing resolves offer and listing in a
// single transaction.
func TestBuyNow_SingleTransaction(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(false))
	e := testEngine(f)

	offer, err := e.BuyNow(listing.UUID, buyerB)
	require.NoError(t, err)

	assert.Equal(t, models.OfferTypeBuyNow, offer.Type)
	assert.Equal(t, models.OfferStatusSold, offer.Status)
	assert.Equal(t, listing.Price, offer.Amount)
	require.NotNil(t, offer.ResolvedAt)
	assert.Equal(t, models.ListingStatusSold, f.listings[listing.ID].Status)
}

func TestBuyNow_RejectedOnNegotiableListing(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(true))
	e := testEngine(f)

	_, err := e.BuyNow(listing.UUID, buyerB)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, models.ListingStatusActive, f.listings[listing.ID].Status)
	assert.Empty(t, f.offers)
}

func TestBuyNow_SecondBuyerLoses(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(false))
	e := testEngine(f)

	_, err := e.BuyNow(listing.UUID, buyerB)
	require.NoError(t, err)

	_, err = e.BuyNow(listing.UUID, buyerC)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Len(t, f.offers, 1)
}

// Round trip: the seller counters, the buyer accepts the counter. The
// original offer stays countered, exactly one accepted offer exists in the
// chain, and the listing sells.
func TestCounter_ThenBuyerAcceptsSuccessor(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(true))
	e := testEngine(f)

	original, err := e.MakeOffer(listing.UUID, buyerB, 100, "")
	require.NoError(t, err)

	successor, err := e.Counter(original.UUID, sellerID, 150, "can do 150")
	require.NoError(t, err)

	assert.Equal(t, models.OfferStatusCountered, f.offers[original.ID].Status)
	assert.Equal(t, models.OfferStatusPending, successor.Status)
	require.NotNil(t, successor.CounterOfferID)
	assert.Equal(t, original.ID, *successor.CounterOfferID)
	assert.Equal(t, original.BuyerID, successor.BuyerID)
	assert.Equal(t, original.SellerID, successor.SellerID)
	assert.Equal(t, sellerID, successor.InitiatorID, "counter is sent by the seller")
	assert.Equal(t, buyerB, successor.RecipientID(), "and waits on the buyer")

	accepted, err := e.Accept(successor.UUID, buyerB)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusAccepted, accepted.Status)

	var acceptedCount int
	for _, o := range f.offers {
		if o.Status == models.OfferStatusAccepted {
			acceptedCount++
		}
	}
	assert.Equal(t, 1, acceptedCount)
	assert.Equal(t, models.OfferStatusCountered, f.offers[original.ID].Status)
	assert.Equal(t, models.ListingStatusSold, f.listings[listing.ID].Status)
}

func TestCounter_BuyerCanDeclineSellersCounter(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(true))
	e := testEngine(f)

	original, err := e.MakeOffer(listing.UUID, buyerB, 100, "")
	require.NoError(t, err)
	successor, err := e.Counter(original.UUID, sellerID, 150, "")
	require.NoError(t, err)

	declined, err := e.Decline(successor.UUID, buyerB)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusDeclined, declined.Status)
	assert.Equal(t, models.ListingStatusActive, f.listings[listing.ID].Status)
}

// After countering, the seller is the sender again and must wait on the
// buyer; they cannot push their own counter through.
func TestCounter_SenderCannotResolveOwnCounter(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(true))
	e := testEngine(f)

	original, err := e.MakeOffer(listing.UUID, buyerB, 100, "")
	require.NoError(t, err)
	successor, err := e.Counter(original.UUID, sellerID, 150, "")
	require.NoError(t, err)

	_, err = e.Accept(successor.UUID, sellerID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = e.Decline(successor.UUID, sellerID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	assert.Equal(t, models.OfferStatusPending, f.offers[successor.ID].Status)
	assert.Equal(t, models.ListingStatusActive, f.listings[listing.ID].Status)
}

// A buyer counter of a seller counter flips the roles back to the seller.
func TestCounter_RolesFlipEachRound(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(true))
	e := testEngine(f)

	original, err := e.MakeOffer(listing.UUID, buyerB, 100, "")
	require.NoError(t, err)
	round2, err := e.Counter(original.UUID, sellerID, 150, "")
	require.NoError(t, err)
	round3, err := e.Counter(round2.UUID, buyerB, 120, "meet in the middle")
	require.NoError(t, err)

	assert.Equal(t, buyerB, round3.InitiatorID)
	assert.Equal(t, sellerID, round3.RecipientID())

	accepted, err := e.Accept(round3.UUID, sellerID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusAccepted, accepted.Status)
	assert.Equal(t, models.ListingStatusSold, f.listings[listing.ID].Status)
}

func TestCounter_FrozenOfferCannotBeCounteredAgain(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(true))
	e := testEngine(f)

	original, err := e.MakeOffer(listing.UUID, buyerB, 100, "")
	require.NoError(t, err)
	_, err = e.Counter(original.UUID, sellerID, 150, "")
	require.NoError(t, err)

	_, err = e.Counter(original.UUID, buyerB, 120, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestCounter_RejectsOutsiderAndBadAmount(t *testing.T) {
	t.Parallel()

	f := newFakeStore()
	listing := f.addListing(activeListing(true))
	e := testEngine(f)

	original, err := e.MakeOffer(listing.UUID, buyerB, 100, "")
	require.NoError(t, err)

	_, err = e.Counter(original.UUID, buyerC, 150, "")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = e.Counter(original.UUID, sellerID, -5, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, models.OfferStatusPending, f.offers[original.ID].Status)
}
