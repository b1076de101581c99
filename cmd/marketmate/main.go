package main

import (
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/marketmate/marketmate/app/controllers"
	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/app/repository"
	"github.com/marketmate/marketmate/internal/pkg/blob"
	"github.com/marketmate/marketmate/internal/pkg/cache"
	"github.com/marketmate/marketmate/internal/pkg/database"
	"github.com/marketmate/marketmate/internal/pkg/env"
	"github.com/marketmate/marketmate/internal/pkg/lifecycle"
	"github.com/marketmate/marketmate/internal/pkg/mail"
	"github.com/marketmate/marketmate/internal/pkg/moderation"
	"github.com/marketmate/marketmate/internal/pkg/negotiation"
	"github.com/marketmate/marketmate/internal/pkg/notify"
	"github.com/marketmate/marketmate/internal/pkg/renewal"
	"github.com/marketmate/marketmate/internal/pkg/router"
	"github.com/marketmate/marketmate/internal/pkg/sweep"
)

func main() {
	app, sweeper := NewApplication()

	sweeper.Start()
	defer sweeper.Stop()

	// graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("Shutting down...")
		sweeper.Stop()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
	if err := app.Listen(addr); err != nil {
		stdlog.Fatal(err)
	}
}

// NewApplication wires the whole service: storage, cache, engines, routes.
func NewApplication() (*fiber.App, *sweep.Manager) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	repository.InitializeFactory(db)

	settings, err := models.LoadSiteSettings(db)
	if err != nil {
		stdlog.Fatalf("failed to load site settings: %v", err)
	}

	// Image store is optional; without it the image endpoints answer 501.
	var blobClient *blob.Client
	if blobCfg, err := blob.LoadConfig(); err != nil {
		stdlog.Fatalf("invalid S3 configuration: %v", err)
	} else if blobCfg.IsEnabled() {
		blobClient, err = blob.NewClient(blobCfg)
		if err != nil {
			stdlog.Fatalf("failed to initialize image store: %v", err)
		}
	}

	// The message bus is optional too; notifications still land in the DB.
	var publisher notify.Publisher
	if p, err := notify.NewNATSPublisher(); err != nil {
		log.Warnf("NATS unavailable, notifications stay DB-only: %v", err)
	} else {
		publisher = p
	}
	// Email mirror for accepted offers and sales; skipped when no SMTP relay
	// is configured.
	var mailer notify.Mailer
	if env.GetEnv("SMTP_HOST", "") != "" {
		mailer = mail.Send
	}
	dispatcher := notify.NewDispatcher(db, publisher, mailer)

	lifecycleMgr := lifecycle.NewManager(db, settings)
	controllers.Setup(controllers.Engines{
		Lifecycle:   lifecycleMgr,
		Negotiation: negotiation.NewEngine(db, settings),
		Renewal:     renewal.NewPolicy(db, renewal.NewRedisQuota(), settings),
		Moderation:  moderation.NewWorkflow(db, settings),
		Dispatcher:  dispatcher,
		Blob:        blobClient,
		Settings:    settings,
	})

	app := fiber.New(fiber.Config{
		AppName:   settings.SiteTitle,
		BodyLimit: 1 * 1024 * 1024,
	})

	app.Use(recover.New(), logger.New())

	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}))

	router.InstallRouter(app, settings)

	return app, sweep.GetManager(lifecycleMgr)
}
