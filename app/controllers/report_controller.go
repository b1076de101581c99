package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/app/repository"
	"github.com/marketmate/marketmate/internal/pkg/usercontext"
)

type fileReportRequest struct {
	TargetType string `json:"target_type"` // listing or user
	TargetUUID string `json:"target_uuid"` // for listings
	TargetID   uint   `json:"target_id"`   // for users
	Reason     string `json:"reason"`
	Details    string `json:"details"`
}

// HandleFileReport files a report against a listing or a user.
func HandleFileReport(c *fiber.Ctx) error {
	var req fileReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	targetID := req.TargetID
	if req.TargetType == models.ReportTargetListing && req.TargetUUID != "" {
		listing, err := repository.GetGlobalFactory().GetListingRepository().GetByUUID(req.TargetUUID)
		if err != nil {
			return renderError(c, err)
		}
		targetID = listing.ID
	}

	report, err := engines.Moderation.FileReport(usercontext.GetUserID(c), req.TargetType, targetID, req.Reason, req.Details)
	if err != nil {
		return renderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// HandleGetOpenReports returns the moderation queue. Staff only.
func HandleGetOpenReports(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	repo := repository.GetGlobalFactory().GetReportRepository()

	reports, err := repo.GetOpen(offset, limit)
	if err != nil {
		return renderError(c, err)
	}
	total, err := repo.CountOpen()
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports, "total": total, "offset": offset, "limit": limit})
}

type resolveReportRequest struct {
	Action  string `json:"action"`
	Details string `json:"details"`
}

// HandleResolveReport closes one report with a moderation action. Staff only.
func HandleResolveReport(c *fiber.Ctx) error {
	var req resolveReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	report, err := engines.Moderation.Resolve(c.Params("uuid"), actorFromContext(c), req.Action, req.Details)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(report)
}

type bulkResolveRequest struct {
	ReportUUIDs []string `json:"report_uuids"`
	Action      string   `json:"action"`
	Details     string   `json:"details"`
}

// HandleBulkResolveReports resolves a batch of reports with the same action.
// Each report resolves independently; failed ids come back with reasons.
func HandleBulkResolveReports(c *fiber.Ctx) error {
	var req bulkResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if len(req.ReportUUIDs) == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "No reports given"})
	}

	resolved, failed := engines.Moderation.ResolveMany(req.ReportUUIDs, actorFromContext(c), req.Action, req.Details)
	return c.JSON(fiber.Map{
		"resolved": resolved,
		"failed":   failed,
	})
}

// HandleGetTargetReports returns the report history for one target. Staff only.
func HandleGetTargetReports(c *fiber.Ctx) error {
	targetID, err := strconv.Atoi(c.Params("targetID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid target id"})
	}
	targetType := c.Params("targetType")
	if targetType != models.ReportTargetListing && targetType != models.ReportTargetUser {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid target type"})
	}

	repo := repository.GetGlobalFactory().GetReportRepository()
	reports, err := repo.GetByTarget(targetType, uint(targetID))
	if err != nil {
		return renderError(c, err)
	}
	logs, err := repo.GetLogForTarget(targetType, uint(targetID))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports, "moderation_log": logs})
}
