package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ananth-NQI/aira-gateway/internal/handlers"
	"github.com/Ananth-NQI/aira-gateway/internal/middleware"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Chat     *handlers.ChatHandler
	Support  *handlers.SupportHandler
	FAQ      *handlers.FAQHandler
	WhatsApp *handlers.WhatsAppHandler
	Health   *handlers.HealthHandler

	// TwilioAuthToken enables webhook signature checks when ValidateWebhook is set
	TwilioAuthToken string
	ValidateWebhook bool
	Development     bool
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h Handlers) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to the AIRA support gateway",
			"version": h.Health.Version,
			"endpoints": fiber.Map{
				"health":        "/health",
				"metrics":       "/metrics",
				"start_session": "/start_session",
				"query":         "/query",
				"chat_history":  "/chat_history/:session_id",
				"clear_session": "/clear_session",
				"upload_csv":    "/upload_csv",
				"create_ticket": "/api/create-ticket",
				"webhook":       "/webhook/whatsapp",
			},
		})
	})

	app.Get("/health", h.Health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Chat widget
	app.Post("/start_session", h.Chat.StartSession)
	app.Post("/query", h.Chat.Query)
	app.Get("/chat_history/:session_id", h.Chat.ChatHistory)
	app.Post("/clear_session", h.Chat.ClearSession)

	// Knowledge base
	app.Post("/upload_csv", h.FAQ.UploadCSV)

	api := app.Group("/api")
	api.Post("/create-ticket", h.Support.CreateTicket)

	webhooks := app.Group("/webhook")
	if h.ValidateWebhook {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(h.TwilioAuthToken), h.WhatsApp.HandleWebhook)
	} else {
		log.Println("⚠️  WhatsApp webhook validation DISABLED")
		webhooks.Post("/whatsapp", h.WhatsApp.HandleWebhook)
	}

	if h.Development {
		app.Post("/test/whatsapp", h.WhatsApp.HandleTestWebhook)
	}
}
