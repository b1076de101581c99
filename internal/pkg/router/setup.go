package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marketmate/marketmate/app/models"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter wires every route group onto the app. The settings pointer is
// shared with the engines so maintenance mode flips take effect immediately.
func InstallRouter(app *fiber.App, settings *models.SiteSettings) {
	setup(app, NewApiRouter(settings))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
