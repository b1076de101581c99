package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/internal/pkg/apperrors"
	"github.com/marketmate/marketmate/internal/pkg/blob"
	"github.com/marketmate/marketmate/internal/pkg/lifecycle"
	"github.com/marketmate/marketmate/internal/pkg/moderation"
	"github.com/marketmate/marketmate/internal/pkg/negotiation"
	"github.com/marketmate/marketmate/internal/pkg/notify"
	"github.com/marketmate/marketmate/internal/pkg/renewal"
	"github.com/marketmate/marketmate/internal/pkg/usercontext"
)

// Engines holds the domain engines the controllers delegate to. They are
// wired once at startup.
type Engines struct {
	Lifecycle   *lifecycle.Manager
	Negotiation *negotiation.Engine
	Renewal     *renewal.Policy
	Moderation  *moderation.Workflow
	Dispatcher  *notify.Dispatcher
	Blob        *blob.Client
	Settings    *models.SiteSettings
}

var engines Engines

// Setup injects the domain engines into the controller package.
func Setup(e Engines) {
	engines = e
}

// actorFromContext converts the request's user context into a domain actor.
func actorFromContext(c *fiber.Ctx) lifecycle.Actor {
	userCtx := usercontext.GetUserContext(c)
	return lifecycle.Actor{ID: userCtx.UserID, Staff: userCtx.IsStaff}
}

// renderError maps the domain error taxonomy onto HTTP responses.
func renderError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid_state", "message": err.Error()})
	case errors.Is(err, apperrors.ErrAlreadyResolved):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already_resolved", "message": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": err.Error()})
	case errors.Is(err, apperrors.ErrQuotaExceeded):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "quota_exceeded", "message": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Resource not found"})
	case errors.Is(err, apperrors.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "The request clashed with a concurrent update, please retry"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Something went wrong"})
	}
}

// parsePagination reads offset/limit query params with sane bounds.
func parsePagination(c *fiber.Ctx) (offset, limit int) {
	offset, _ = strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	limit, _ = strconv.Atoi(c.Query("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
