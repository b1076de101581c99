package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/internal/pkg/usercontext"
)

// MaintenanceMiddleware rejects mutating requests with 503 while maintenance
// mode is on. Reads stay available, staff keep full access.
func MaintenanceMiddleware(cfg *models.SiteSettings) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cfg.MaintenanceMode {
			return c.Next()
		}
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}
		if usercontext.IsStaff(c) {
			return c.Next()
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":   "maintenance",
			"message": "MarketMate is briefly down for maintenance, please try again soon",
		})
	}
}
