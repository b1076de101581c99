package negotiation

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/internal/pkg/apperrors"
	"github.com/marketmate/marketmate/internal/pkg/lifecycle"
)

// store is the persistence surface the engine needs. The production
// implementation is GORM-backed; tests swap in an in-memory fake.
type store interface {
	// Transaction runs fn atomically. Every read inside sees locked rows.
	Transaction(fn func(tx store) error) error
	ListingByUUIDForUpdate(uuid string) (*models.Listing, error)
	ListingByIDForUpdate(id uint) (*models.Listing, error)
	OfferByUUIDForUpdate(uuid string) (*models.Offer, error)
	HasPendingOfferFromBuyer(listingID, buyerID uint) (bool, error)
	CreateOffer(offer *models.Offer) error
	SaveOffer(offer *models.Offer) error
	SaveListing(listing *models.Listing) error
	// DeclineSiblingOffers declines every pending offer on the listing except
	// the given one (0 declines all).
	DeclineSiblingOffers(listingID, exceptOfferID uint, resolvedAt time.Time) error
}

// Engine owns every offer transition, including the listing side effects of a
// sale. All cross-entity invariants run inside a single transaction.
type Engine struct {
	store store
	cfg   *models.SiteSettings
}

func NewEngine(db *gorm.DB, cfg *models.SiteSettings) *Engine {
	return &Engine{store: &gormStore{db: db}, cfg: cfg}
}

// MakeOffer creates a pending offer from a buyer against an active listing.
func (e *Engine) MakeOffer(listingUUID string, buyerID uint, amount float64, message string) (*models.Offer, error) {
	var offer *models.Offer
	err := e.store.Transaction(func(tx store) error {
		listing, err := tx.ListingByUUIDForUpdate(listingUUID)
		if err != nil {
			return err
		}
		if listing.Status != models.ListingStatusActive {
			return apperrors.InvalidStatef("listing %s is %s, offers need an active listing", listingUUID, listing.Status)
		}
		if listing.UserID == buyerID {
			return apperrors.Validationf("cannot make an offer on your own listing")
		}
		if amount <= 0 {
			return apperrors.Validationf("offer amount must be positive")
		}

		// One live negotiation per buyer and listing; counters go through
		// Counter instead.
		exists, err := tx.HasPendingOfferFromBuyer(listing.ID, buyerID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Validationf("you already have a pending offer on this listing")
		}

		offer = &models.Offer{
			ListingID:   listing.ID,
			BuyerID:     buyerID,
			SellerID:    listing.UserID,
			InitiatorID: buyerID,
			Amount:      amount,
			Currency:    listing.Currency,
			Message:     message,
			Type:        models.OfferTypeOffer,
			Status:      models.OfferStatusPending,
		}
		return tx.CreateOffer(offer)
	})
	return offer, err
}

// BuyNow resolves a non-negotiable listing at asking price. The offer record
// and the sold listing are written in the same transaction; there is no
// intermediate pending state.
func (e *Engine) BuyNow(listingUUID string, buyerID uint) (*models.Offer, error) {
	var offer *models.Offer
	err := e.store.Transaction(func(tx store) error {
		listing, err := tx.ListingByUUIDForUpdate(listingUUID)
		if err != nil {
			return err
		}
		if listing.Status != models.ListingStatusActive {
			return apperrors.InvalidStatef("listing %s is %s, buy now needs an active listing", listingUUID, listing.Status)
		}
		if listing.Negotiable {
			return apperrors.Validationf("listing %s is negotiable, use an offer instead", listingUUID)
		}
		if listing.UserID == buyerID {
			return apperrors.Validationf("cannot buy your own listing")
		}

		now := time.Now()
		if err := lifecycle.ApplyMarkSold(listing, now); err != nil {
			return soldRace(err, listingUUID)
		}
		if err := tx.SaveListing(listing); err != nil {
			return err
		}
		if err := tx.DeclineSiblingOffers(listing.ID, 0, now); err != nil {
			return err
		}

		offer = &models.Offer{
			ListingID:   listing.ID,
			BuyerID:     buyerID,
			SellerID:    listing.UserID,
			InitiatorID: buyerID,
			Amount:      listing.Price,
			Currency:    listing.Currency,
			Type:        models.OfferTypeBuyNow,
			Status:      models.OfferStatusSold,
			ResolvedAt:  &now,
		}
		return tx.CreateOffer(offer)
	})
	return offer, err
}

// Accept resolves a pending offer: the offer becomes accepted, the listing
// sold, and every sibling pending offer declined, all in one transaction.
// Only the recipient may accept, so after a counter the roles flip: the
// seller resolves buyer offers, the buyer resolves seller counters.
func (e *Engine) Accept(offerUUID string, actorID uint) (*models.Offer, error) {
	var offer *models.Offer
	err := e.store.Transaction(func(tx store) error {
		o, err := tx.OfferByUUIDForUpdate(offerUUID)
		if err != nil {
			return err
		}
		if o.RecipientID() != actorID {
			return apperrors.Forbiddenf("offer %s can only be accepted by the party it was sent to", offerUUID)
		}
		if o.Status != models.OfferStatusPending {
			return apperrors.InvalidStatef("offer %s is %s, only pending offers can be accepted", offerUUID, o.Status)
		}

		listing, err := tx.ListingByIDForUpdate(o.ListingID)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := lifecycle.ApplyMarkSold(listing, now); err != nil {
			return soldRace(err, listing.UUID)
		}
		if err := tx.SaveListing(listing); err != nil {
			return err
		}

		o.Status = models.OfferStatusAccepted
		o.ResolvedAt = &now
		if err := tx.SaveOffer(o); err != nil {
			return err
		}
		if err := tx.DeclineSiblingOffers(listing.ID, o.ID, now); err != nil {
			return err
		}
		offer = o
		return nil
	})
	return offer, err
}

// Decline resolves a pending offer against the sender. No listing side
// effect. Like Accept, only the recipient may decline.
func (e *Engine) Decline(offerUUID string, actorID uint) (*models.Offer, error) {
	var offer *models.Offer
	err := e.store.Transaction(func(tx store) error {
		o, err := tx.OfferByUUIDForUpdate(offerUUID)
		if err != nil {
			return err
		}
		if o.RecipientID() != actorID {
			return apperrors.Forbiddenf("offer %s can only be declined by the party it was sent to", offerUUID)
		}
		if o.Status != models.OfferStatusPending {
			return apperrors.InvalidStatef("offer %s is %s, only pending offers can be declined", offerUUID, o.Status)
		}

		now := time.Now()
		o.Status = models.OfferStatusDeclined
		o.ResolvedAt = &now
		if err := tx.SaveOffer(o); err != nil {
			return err
		}
		offer = o
		return nil
	})
	return offer, err
}

// Counter freezes a pending offer as countered and creates its successor with
// the back-reference set. Exactly one live offer exists per chain: the head.
func (e *Engine) Counter(offerUUID string, actorID uint, newAmount float64, message string) (*models.Offer, error) {
	var successor *models.Offer
	err := e.store.Transaction(func(tx store) error {
		o, err := tx.OfferByUUIDForUpdate(offerUUID)
		if err != nil {
			return err
		}
		if o.BuyerID != actorID && o.SellerID != actorID {
			return apperrors.Forbiddenf("actor %d is not part of offer %s", actorID, offerUUID)
		}
		if o.Status != models.OfferStatusPending {
			return apperrors.InvalidStatef("offer %s is %s, only pending offers can be countered", offerUUID, o.Status)
		}
		if newAmount <= 0 {
			return apperrors.Validationf("counter amount must be positive")
		}

		listing, err := tx.ListingByIDForUpdate(o.ListingID)
		if err != nil {
			return err
		}
		if listing.Status != models.ListingStatusActive {
			return apperrors.InvalidStatef("listing %s is %s, negotiation is closed", listing.UUID, listing.Status)
		}

		now := time.Now()
		o.Status = models.OfferStatusCountered
		o.ResolvedAt = &now
		if err := tx.SaveOffer(o); err != nil {
			return err
		}

		successor = &models.Offer{
			ListingID:      o.ListingID,
			BuyerID:        o.BuyerID,
			SellerID:       o.SellerID,
			InitiatorID:    actorID,
			Amount:         newAmount,
			Currency:       o.Currency,
			Message:        message,
			Type:           models.OfferTypeOffer,
			Status:         models.OfferStatusPending,
			CounterOfferID: &o.ID,
		}
		return tx.CreateOffer(successor)
	})
	return successor, err
}

// soldRace translates the mark-sold idempotency guard into the error the
// losing side of a concurrent resolution should see: the listing is simply no
// longer available.
func soldRace(err error, listingUUID string) error {
	if errors.Is(err, apperrors.ErrAlreadyResolved) {
		return apperrors.InvalidStatef("listing %s is already sold", listingUUID)
	}
	return err
}
