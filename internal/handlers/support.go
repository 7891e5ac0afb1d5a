package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/aira-gateway/internal/services"
)

type SupportHandler struct {
	escalations *services.EscalationService
}

func NewSupportHandler(escalations *services.EscalationService) *SupportHandler {
	return &SupportHandler{escalations: escalations}
}

// CreateTicketRequest is the escalation payload sent by the chat widget
type CreateTicketRequest struct {
	SessionID           string `json:"session_id"`
	Email               string `json:"email" validate:"required,email"`
	ConversationHistory string `json:"conversation_history"`
	Query               string `json:"query" validate:"required"`
	Type                string `json:"type" validate:"required,oneof=frustrating vip"`
}

func (h *SupportHandler) CreateTicket(c *fiber.Ctx) error {
	var req CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": validationMessage(err),
		})
	}

	ticket, err := h.escalations.CreateTicket(c.UserContext(), services.TicketRequest{
		SessionID:           req.SessionID,
		Email:               req.Email,
		ConversationHistory: req.ConversationHistory,
		Query:               req.Query,
		Type:                req.Type,
	})
	if err != nil {
		log.Printf("Ticket creation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to create ticket",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":    "success",
		"message":   "Ticket created successfully",
		"ticket_id": ticket.TicketID,
		"category":  ticket.Category,
		"priority":  ticket.Priority,
	})
}
