package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/marketmate/marketmate/app/controllers"
	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/internal/pkg/middleware"
)

type ApiRouter struct {
	settings *models.SiteSettings
}

func NewApiRouter(settings *models.SiteSettings) *ApiRouter {
	return &ApiRouter{settings: settings}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{Max: 120}))

	v1 := api.Group("/v1")
	v1.Use(middleware.UserContextMiddleware())
	v1.Use(middleware.MaintenanceMiddleware(h.settings))

	// auth
	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/login", limiter.New(limiter.Config{Max: 10}), controllers.HandleLogin)
	auth.Get("/me", middleware.RequireAuth, controllers.HandleGetMe)

	// categories
	v1.Get("/categories", controllers.HandleGetCategories)

	// listings
	listings := v1.Group("/listings")
	listings.Get("/", controllers.HandleBrowseListings)
	listings.Post("/", middleware.RequireAuth, controllers.HandleCreateListing)
	listings.Get("/mine", middleware.RequireAuth, controllers.HandleGetMyListings)
	listings.Get("/:uuid", controllers.HandleGetListing)
	listings.Delete("/:uuid", middleware.RequireAuth, controllers.HandleDeleteListing)
	listings.Post("/:uuid/submit", middleware.RequireAuth, controllers.HandleSubmitListing)
	listings.Post("/:uuid/sold", middleware.RequireAuth, controllers.HandleMarkListingSold)
	listings.Post("/:uuid/renew", middleware.RequireAuth, controllers.HandleRenewListing)
	listings.Post("/:uuid/images/presign", middleware.RequireAuth, controllers.HandlePresignListingImage)
	listings.Post("/:uuid/images", middleware.RequireAuth, controllers.HandleAttachListingImage)
	listings.Delete("/:uuid/images/:imageID", middleware.RequireAuth, controllers.HandleDeleteListingImage)
	listings.Post("/:uuid/favorite", middleware.RequireAuth, controllers.HandleToggleFavorite)
	listings.Post("/:uuid/offers", middleware.RequireAuth, controllers.HandleMakeOffer)
	listings.Get("/:uuid/offers", middleware.RequireAuth, controllers.HandleGetListingOffers)

	// short share links
	v1.Get("/l/:link", controllers.HandleGetListingByShareLink)

	// offers
	offers := v1.Group("/offers", middleware.RequireAuth)
	offers.Get("/mine", controllers.HandleGetMyOffers)
	offers.Get("/received", controllers.HandleGetReceivedOffers)
	offers.Put("/:uuid/accept", controllers.HandleAcceptOffer)
	offers.Put("/:uuid/decline", controllers.HandleDeclineOffer)
	offers.Post("/:uuid/counter", controllers.HandleCounterOffer)

	// favorites
	v1.Get("/favorites", middleware.RequireAuth, controllers.HandleGetFavorites)

	// conversations
	conversations := v1.Group("/conversations", middleware.RequireAuth)
	conversations.Post("/", controllers.HandleStartConversation)
	conversations.Get("/", controllers.HandleGetConversations)
	conversations.Get("/:uuid/messages", controllers.HandleGetMessages)
	conversations.Post("/:uuid/messages", controllers.HandleSendMessage)

	// notifications
	notifications := v1.Group("/notifications", middleware.RequireAuth)
	notifications.Get("/", controllers.HandleGetNotifications)
	notifications.Put("/:id/read", controllers.HandleMarkNotificationRead)
	notifications.Put("/read-all", controllers.HandleMarkAllNotificationsRead)

	// reports
	v1.Post("/reports", middleware.RequireAuth, controllers.HandleFileReport)

	// moderation and administration
	admin := v1.Group("/admin", middleware.RequireStaff)
	admin.Get("/stats", controllers.HandleGetAdminStats)
	admin.Get("/settings", controllers.HandleGetSiteSettings)
	admin.Put("/settings", controllers.HandleUpdateSiteSettings)
	admin.Get("/review-queue", controllers.HandleGetReviewQueue)
	admin.Post("/listings/:uuid/approve", controllers.HandleApproveListing)
	admin.Post("/listings/:uuid/reject", controllers.HandleRejectListing)
	admin.Get("/reports", controllers.HandleGetOpenReports)
	admin.Put("/reports/:uuid/resolve", controllers.HandleResolveReport)
	admin.Put("/reports/resolve", controllers.HandleBulkResolveReports)
	admin.Get("/reports/:targetType/:targetID", controllers.HandleGetTargetReports)
	admin.Post("/categories", controllers.HandleCreateCategory)
	admin.Put("/categories/:id", controllers.HandleUpdateCategory)
	admin.Post("/sweep/expire", controllers.HandleRunExpirySweep)
}
