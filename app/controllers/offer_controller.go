package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/app/repository"
	"github.com/marketmate/marketmate/internal/pkg/notify"
	"github.com/marketmate/marketmate/internal/pkg/usercontext"
)

type makeOfferRequest struct {
	Type    string  `json:"type"` // offer (default) or buy_now
	Amount  float64 `json:"amount"`
	Message string  `json:"message"`
}

// HandleMakeOffer creates an offer on a listing, or buys it outright when the
// body asks for buy_now.
func HandleMakeOffer(c *fiber.Ctx) error {
	var req makeOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	buyerID := usercontext.GetUserID(c)
	listingUUID := c.Params("uuid")

	var offer *models.Offer
	var err error
	switch req.Type {
	case models.OfferTypeBuyNow:
		offer, err = engines.Negotiation.BuyNow(listingUUID, buyerID)
	case "", models.OfferTypeOffer:
		offer, err = engines.Negotiation.MakeOffer(listingUUID, buyerID, req.Amount, req.Message)
	default:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "Unknown offer type"})
	}
	if err != nil {
		return renderError(c, err)
	}

	if offer.Type == models.OfferTypeBuyNow {
		engines.Dispatcher.Dispatch(offer.SellerID, notify.TypeListingSold,
			fmt.Sprintf("Your listing sold for %.2f %s", offer.Amount, offer.Currency), offer.ListingID)
	} else {
		engines.Dispatcher.Dispatch(offer.SellerID, notify.TypeOfferReceived,
			fmt.Sprintf("New offer of %.2f %s on your listing", offer.Amount, offer.Currency), offer.ID)
	}

	return c.Status(fiber.StatusCreated).JSON(offer)
}

// HandleAcceptOffer accepts a pending offer. Only the party the offer was
// sent to may accept, so a buyer can take a seller's counter.
func HandleAcceptOffer(c *fiber.Ctx) error {
	offer, err := engines.Negotiation.Accept(c.Params("uuid"), usercontext.GetUserID(c))
	if err != nil {
		return renderError(c, err)
	}

	engines.Dispatcher.Dispatch(offer.InitiatorID, notify.TypeOfferAccepted,
		fmt.Sprintf("Your offer of %.2f %s was accepted", offer.Amount, offer.Currency), offer.ID)
	return c.JSON(offer)
}

// HandleDeclineOffer declines a pending offer. Recipient only, same rule as
// accept.
func HandleDeclineOffer(c *fiber.Ctx) error {
	offer, err := engines.Negotiation.Decline(c.Params("uuid"), usercontext.GetUserID(c))
	if err != nil {
		return renderError(c, err)
	}

	engines.Dispatcher.Dispatch(offer.InitiatorID, notify.TypeOfferDeclined,
		fmt.Sprintf("Your offer of %.2f %s was declined", offer.Amount, offer.Currency), offer.ID)
	return c.JSON(offer)
}

type counterOfferRequest struct {
	Amount  float64 `json:"amount"`
	Message string  `json:"message"`
}

// HandleCounterOffer counters a pending offer with a new amount. Either party
// may counter; the other party gets notified.
func HandleCounterOffer(c *fiber.Ctx) error {
	var req counterOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	actorID := usercontext.GetUserID(c)
	offer, err := engines.Negotiation.Counter(c.Params("uuid"), actorID, req.Amount, req.Message)
	if err != nil {
		return renderError(c, err)
	}

	engines.Dispatcher.Dispatch(offer.RecipientID(), notify.TypeOfferCountered,
		fmt.Sprintf("Counter offer: %.2f %s", offer.Amount, offer.Currency), offer.ID)

	return c.Status(fiber.StatusCreated).JSON(offer)
}

// HandleGetMyOffers returns the offers the user made.
func HandleGetMyOffers(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	offers, err := repository.GetGlobalFactory().GetOfferRepository().
		GetByBuyerID(usercontext.GetUserID(c), offset, limit)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"offers": offers, "offset": offset, "limit": limit})
}

// HandleGetReceivedOffers returns the offers made on the user's listings.
func HandleGetReceivedOffers(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	offers, err := repository.GetGlobalFactory().GetOfferRepository().
		GetBySellerID(usercontext.GetUserID(c), offset, limit)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"offers": offers, "offset": offset, "limit": limit})
}

// HandleGetListingOffers returns every offer on one listing. Owner and staff
// only; buyers follow their own offers instead.
func HandleGetListingOffers(c *fiber.Ctx) error {
	listing, err := repository.GetGlobalFactory().GetListingRepository().GetByUUID(c.Params("uuid"))
	if err != nil {
		return renderError(c, err)
	}
	if listing.UserID != usercontext.GetUserID(c) && !usercontext.IsStaff(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not your listing"})
	}

	offers, err := repository.GetGlobalFactory().GetOfferRepository().GetByListingID(listing.ID)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"offers": offers})
}
