package controllers

import (
	"path"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/app/repository"
	"github.com/marketmate/marketmate/internal/pkg/lifecycle"
	metrics "github.com/marketmate/marketmate/internal/pkg/metrics/counter"
	"github.com/marketmate/marketmate/internal/pkg/notify"
	"github.com/marketmate/marketmate/internal/pkg/usercontext"
)

type createListingRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	CategoryID   uint     `json:"category_id"`
	Condition    string   `json:"condition"`
	Price        float64  `json:"price"`
	Currency     string   `json:"currency"`
	Negotiable   *bool    `json:"negotiable"`
	Location     string   `json:"location"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	DurationDays int      `json:"duration_days"`
}

// HandleCreateListing creates a draft listing for the authenticated user.
func HandleCreateListing(c *fiber.Ctx) error {
	var req createListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	negotiable := true
	if req.Negotiable != nil {
		negotiable = *req.Negotiable
	}

	listing, err := engines.Lifecycle.CreateDraft(actorFromContext(c), lifecycle.CreateDraftInput{
		Title:        req.Title,
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		Condition:    req.Condition,
		Price:        req.Price,
		Currency:     req.Currency,
		Negotiable:   negotiable,
		Location:     req.Location,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		return renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(listing)
}

// HandleBrowseListings is the public search across active listings.
func HandleBrowseListings(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	categoryID, _ := strconv.Atoi(c.Query("category_id", "0"))
	priceMin, _ := strconv.ParseFloat(c.Query("price_min", "0"), 64)
	priceMax, _ := strconv.ParseFloat(c.Query("price_max", "0"), 64)

	filter := repository.ListingFilter{
		CategoryID: uint(categoryID),
		Query:      c.Query("q"),
		Location:   c.Query("location"),
		PriceMin:   priceMin,
		PriceMax:   priceMax,
		Condition:  c.Query("condition"),
		SortBy:     c.Query("sort"),
		Offset:     offset,
		Limit:      limit,
	}

	listings, total, err := repository.GetGlobalFactory().GetListingRepository().GetActive(filter)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"total":    total,
		"offset":   offset,
		"limit":    limit,
	})
}

// HandleGetListing returns one listing by UUID. Drafts and the moderation
// queue stay private to the owner and staff. Public views bump the counter.
func HandleGetListing(c *fiber.Ctx) error {
	listing, err := repository.GetGlobalFactory().GetListingRepository().GetByUUID(c.Params("uuid"))
	if err != nil {
		return renderError(c, err)
	}

	userCtx := usercontext.GetUserContext(c)
	isOwnerOrStaff := userCtx.UserID == listing.UserID || userCtx.IsStaff
	if (listing.Status == models.ListingStatusDraft || listing.Status == models.ListingStatusPending) && !isOwnerOrStaff {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Resource not found"})
	}

	if listing.Status == models.ListingStatusActive && !isOwnerOrStaff {
		if err := metrics.AddListingView(listing.ID); err != nil {
			log.Warnf("[Listing] view counter for %d: %v", listing.ID, err)
		}
	}

	return c.JSON(listing)
}

// HandleGetListingByShareLink resolves a short share link.
func HandleGetListingByShareLink(c *fiber.Ctx) error {
	listing, err := repository.GetGlobalFactory().GetListingRepository().GetByShareLink(c.Params("link"))
	if err != nil {
		return renderError(c, err)
	}
	if listing.Status != models.ListingStatusActive && listing.Status != models.ListingStatusSold {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Resource not found"})
	}
	return c.Redirect("/api/v1/listings/"+listing.UUID, fiber.StatusFound)
}

// HandleGetMyListings returns the authenticated user's listings in any state.
func HandleGetMyListings(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	userCtx := usercontext.GetUserContext(c)

	listings, err := repository.GetGlobalFactory().GetListingRepository().GetByUserID(userCtx.UserID, offset, limit)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"listings": listings, "offset": offset, "limit": limit})
}

// HandleSubmitListing publishes a draft.
func HandleSubmitListing(c *fiber.Ctx) error {
	listing, err := engines.Lifecycle.SubmitForReview(c.Params("uuid"), actorFromContext(c))
	if err != nil {
		return renderError(c, err)
	}

	if listing.Status == models.ListingStatusActive {
		engines.Dispatcher.Dispatch(listing.UserID, notify.TypeListingApproved, "Your listing \""+listing.Title+"\" is now live", listing.ID)
	}
	return c.JSON(listing)
}

// HandleMarkListingSold marks a listing sold outside the offer flow.
func HandleMarkListingSold(c *fiber.Ctx) error {
	listing, err := engines.Lifecycle.MarkSold(c.Params("uuid"), actorFromContext(c))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(listing)
}

type renewListingRequest struct {
	Days int `json:"days"`
}

// HandleRenewListing extends a listing's expiry.
func HandleRenewListing(c *fiber.Ctx) error {
	var req renewListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	listing, err := engines.Renewal.Renew(c.Params("uuid"), usercontext.GetUserID(c), req.Days)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(listing)
}

// HandleDeleteListing removes a draft or archives anything else.
func HandleDeleteListing(c *fiber.Ctx) error {
	if err := engines.Lifecycle.Delete(c.Params("uuid"), actorFromContext(c)); err != nil {
		return renderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type presignImageRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// HandlePresignListingImage hands the owner a presigned upload slot for one
// image. The record is attached after the client confirms the upload.
func HandlePresignListingImage(c *fiber.Ctx) error {
	if engines.Blob == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "not_implemented", "message": "Image uploads are not configured"})
	}

	var req presignImageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	listing, err := repository.GetGlobalFactory().GetListingRepository().GetByUUID(c.Params("uuid"))
	if err != nil {
		return renderError(c, err)
	}
	if listing.UserID != usercontext.GetUserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not your listing"})
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := engines.Blob.Config().ObjectKey(listing.UUID, uuid.New().String(), path.Ext(req.FileName))
	upload, err := engines.Blob.PresignUpload(c.Context(), key, contentType)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(upload)
}

type attachImageRequest struct {
	ObjectKey string `json:"object_key"`
	Position  int    `json:"position"`
}

// HandleAttachListingImage records an uploaded image on the listing after
// verifying the object actually landed in the bucket.
func HandleAttachListingImage(c *fiber.Ctx) error {
	if engines.Blob == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "not_implemented", "message": "Image uploads are not configured"})
	}

	var req attachImageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetListingRepository()
	listing, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return renderError(c, err)
	}
	if listing.UserID != usercontext.GetUserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not your listing"})
	}

	exists, err := engines.Blob.ObjectExists(c.Context(), req.ObjectKey)
	if err != nil {
		return renderError(c, err)
	}
	if !exists {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "Object was never uploaded"})
	}

	image := &models.ListingImage{
		ListingID: listing.ID,
		ObjectKey: req.ObjectKey,
		PublicURL: engines.Blob.Config().PublicURL(req.ObjectKey),
		Position:  req.Position,
	}
	if err := repo.AddImage(image); err != nil {
		return renderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(image)
}

// HandleDeleteListingImage detaches one image and removes the object.
func HandleDeleteListingImage(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetListingRepository()
	listing, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return renderError(c, err)
	}
	if listing.UserID != usercontext.GetUserID(c) && !usercontext.IsStaff(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not your listing"})
	}

	imageID, err := strconv.Atoi(c.Params("imageID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid image id"})
	}

	images, err := repo.GetImages(listing.ID)
	if err != nil {
		return renderError(c, err)
	}
	var objectKey string
	for _, img := range images {
		if img.ID == uint(imageID) {
			objectKey = img.ObjectKey
			break
		}
	}
	if objectKey == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Resource not found"})
	}

	if err := repo.DeleteImage(listing.ID, uint(imageID)); err != nil {
		return renderError(c, err)
	}
	if engines.Blob != nil {
		if err := engines.Blob.DeleteObject(c.Context(), objectKey); err != nil {
			log.Warnf("[Listing] failed to delete object %s: %v", objectKey, err)
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleToggleFavorite saves or unsaves a listing for the user.
func HandleToggleFavorite(c *fiber.Ctx) error {
	listing, err := repository.GetGlobalFactory().GetListingRepository().GetByUUID(c.Params("uuid"))
	if err != nil {
		return renderError(c, err)
	}
	if listing.Status != models.ListingStatusActive {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid_state", "message": "Only active listings can be saved"})
	}

	favorited, err := repository.GetGlobalFactory().GetFavoriteRepository().Toggle(usercontext.GetUserID(c), listing.ID)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"favorited": favorited})
}

// HandleGetFavorites returns the listings the user saved.
func HandleGetFavorites(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	listings, err := repository.GetGlobalFactory().GetFavoriteRepository().
		GetListingsForUser(usercontext.GetUserID(c), offset, limit)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"listings": listings, "offset": offset, "limit": limit})
}
