package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/services"
)

const whatsAppFailureText = "Sorry, something went wrong. Please try again."

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	gateway *services.Gateway
	sender  services.MessageSender
}

// NewWhatsAppHandler creates a new WhatsApp handler; sender may be nil when Twilio is not configured
func NewWhatsAppHandler(gateway *services.Gateway, sender services.MessageSender) *WhatsAppHandler {
	return &WhatsAppHandler{
		gateway: gateway,
		sender:  sender,
	}
}

// TwilioWebhookPayload represents incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid string `form:"MessageSid"`
	AccountSid string `form:"AccountSid"`
	From       string `form:"From"` // whatsapp:+919876543210
	To         string `form:"To"`
	Body       string `form:"Body"`
	NumMedia   string `form:"NumMedia"`
}

// TestWebhookPayload drives the bot without Twilio
type TestWebhookPayload struct {
	From    string `json:"from" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// HandleWebhook processes incoming WhatsApp messages
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// Status callbacks carry no body
	if payload.Body == "" || payload.From == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	from := services.StripWhatsAppPrefix(payload.From)
	log.Printf("📱 WhatsApp message from %s", from)

	response := h.reply(c.UserContext(), from, payload.Body)
	if h.sender == nil {
		log.Printf("📤 Response not sent, Twilio not configured")
		return c.SendStatus(fiber.StatusOK)
	}
	if err := h.sender.SendWhatsAppMessage(from, response); err != nil {
		log.Printf("❌ Failed to send WhatsApp response: %v", err)
	}

	// Acknowledge webhook receipt
	return c.SendStatus(fiber.StatusOK)
}

// HandleTestWebhook processes test WhatsApp messages (for development)
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if ok, err := parseAndValidate(c, &payload); !ok {
		return err
	}

	log.Printf("🧪 Test webhook received from %s", payload.From)
	response := h.reply(c.UserContext(), services.StripWhatsAppPrefix(payload.From), payload.Message)

	return c.JSON(fiber.Map{
		"success":  true,
		"response": response,
	})
}

// reply runs one turn on the sender's open WhatsApp session
func (h *WhatsAppHandler) reply(ctx context.Context, from, body string) string {
	session, err := h.gateway.SessionForClient(ctx, from, models.ChannelWhatsApp)
	if err != nil {
		log.Printf("Error resolving WhatsApp session for %s: %v", from, err)
		return whatsAppFailureText
	}

	result, err := h.gateway.ProcessQuery(ctx, services.QueryInput{
		SessionID: session.ID,
		ClientID:  from,
		Query:     body,
	})
	if err != nil {
		log.Printf("Error processing message: %v", err)
		return whatsAppFailureText
	}
	if result.IsError() {
		if strings.TrimSpace(result.Error) == "" {
			return whatsAppFailureText
		}
		return result.Error
	}
	return result.Response
}
