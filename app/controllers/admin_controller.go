package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/app/repository"
	"github.com/marketmate/marketmate/internal/pkg/notify"
	"github.com/marketmate/marketmate/internal/pkg/sweep"
)

// HandleGetSiteSettings returns the current site settings. Staff only.
func HandleGetSiteSettings(c *fiber.Ctx) error {
	settings, err := repository.GetGlobalFactory().GetSettingRepository().Get()
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(settings)
}

// HandleUpdateSiteSettings replaces the site settings. Staff only. Engines
// read their injected copy until the next restart; maintenance mode takes
// effect immediately through the shared pointer.
func HandleUpdateSiteSettings(c *fiber.Ctx) error {
	var settings models.SiteSettings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	if err := repository.GetGlobalFactory().GetSettingRepository().Save(&settings); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	*engines.Settings = settings
	return c.JSON(engines.Settings)
}

// HandleGetReviewQueue returns the listings waiting for manual review.
func HandleGetReviewQueue(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	repo := repository.GetGlobalFactory().GetListingRepository()

	listings, err := repo.GetPendingReview(offset, limit)
	if err != nil {
		return renderError(c, err)
	}
	total, err := repo.CountByStatus(models.ListingStatusPending)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"listings": listings, "total": total, "offset": offset, "limit": limit})
}

// HandleApproveListing moves a pending listing live. Staff only.
func HandleApproveListing(c *fiber.Ctx) error {
	listing, err := engines.Lifecycle.Approve(c.Params("uuid"), actorFromContext(c))
	if err != nil {
		return renderError(c, err)
	}

	engines.Dispatcher.Dispatch(listing.UserID, notify.TypeListingApproved,
		"Your listing \""+listing.Title+"\" is now live", listing.ID)
	return c.JSON(listing)
}

type rejectListingRequest struct {
	Reason string `json:"reason"`
}

// HandleRejectListing rejects a pending listing with a reason. Staff only.
func HandleRejectListing(c *fiber.Ctx) error {
	var req rejectListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.Reason == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "A rejection reason is required"})
	}

	listing, err := engines.Lifecycle.Reject(c.Params("uuid"), actorFromContext(c), req.Reason)
	if err != nil {
		return renderError(c, err)
	}

	engines.Dispatcher.Dispatch(listing.UserID, notify.TypeListingRejected,
		"Your listing \""+listing.Title+"\" was rejected: "+req.Reason, listing.ID)
	return c.JSON(listing)
}

// HandleRunExpirySweep triggers one expiry sweep by hand. Staff only.
func HandleRunExpirySweep(c *fiber.Ctx) error {
	expired, err := sweep.GetManager(engines.Lifecycle).RunExpirySweepOnce()
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"expired": expired})
}

// HandleGetAdminStats returns headline counts for the dashboard. Staff only.
func HandleGetAdminStats(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()

	users, err := repos.User.Count()
	if err != nil {
		return renderError(c, err)
	}
	active, err := repos.Listing.CountByStatus(models.ListingStatusActive)
	if err != nil {
		return renderError(c, err)
	}
	pending, err := repos.Listing.CountByStatus(models.ListingStatusPending)
	if err != nil {
		return renderError(c, err)
	}
	sold, err := repos.Listing.CountByStatus(models.ListingStatusSold)
	if err != nil {
		return renderError(c, err)
	}
	openReports, err := repos.Report.CountOpen()
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"users":            users,
		"active_listings":  active,
		"pending_listings": pending,
		"sold_listings":    sold,
		"open_reports":     openReports,
	})
}
