package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	controller "leadstream/controllers"
	"leadstream/discovery"
	"leadstream/llm"
	"leadstream/middleware"
	"leadstream/search"
	"leadstream/utils"
)

// Deps bundles the shared services the controllers need. Everything here
// is built once in main and injected.
type Deps struct {
	DB       *gorm.DB
	Logger   *logrus.Logger
	Engine   *discovery.Engine
	Research *llm.PerplexityClient
	Drafter  *llm.Drafter
	Search   *search.GoogleClient
	Mailer   *utils.Mailer
	BaseURL  string
}

func SetupRoutes(app *fiber.App, deps Deps) {
	discoveryController := controller.NewDiscoveryController(deps.DB, deps.Logger, deps.Engine)
	prospectController := controller.NewProspectController(deps.DB, deps.Logger, deps.Research, deps.Search, deps.Engine)
	proposalController := controller.NewProposalController(deps.DB, deps.Logger, deps.Research, deps.Drafter)
	outreachController := controller.NewOutreachController(deps.DB, deps.Logger, deps.Mailer, deps.Drafter, deps.BaseURL)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Discovery and prospecting fan out into SMTP probes and paid API
	// calls, so they carry their own per-IP throttle.
	throttled := api.Group("", middleware.DiscoveryRateLimiter(30))
	throttled.Post("/find-email", discoveryController.FindEmail)
	throttled.Post("/potential-companies", prospectController.PotentialCompanies)
	throttled.Post("/potential-decision-makers", prospectController.DecisionMakers)

	api.Get("/discovery/history", discoveryController.History)

	// Drafting
	api.Post("/email-proposal", proposalController.Proposal)
	api.Post("/email-reminder", outreachController.Reminder)

	// Delivery and tracking
	api.Post("/send-email", outreachController.Send)
	api.Get("/track/open/:tracking_id", outreachController.TrackOpen)
	api.Get("/track/response/:tracking_id", outreachController.TrackResponse)

	// Reporting
	api.Get("/status", outreachController.Status)
	api.Get("/fetch-mail-status", outreachController.MailStatus)
	api.Get("/email-status-check", outreachController.StatusCheck)
	api.Delete("/delete-entity/:id", outreachController.Delete)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
