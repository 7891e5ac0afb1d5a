package handlers

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/services"
)

// ChatHandler serves the web chat widget
type ChatHandler struct {
	gateway *services.Gateway
}

// NewChatHandler creates a new chat handler
func NewChatHandler(gateway *services.Gateway) *ChatHandler {
	return &ChatHandler{gateway: gateway}
}

// StartSessionRequest opens a conversation
type StartSessionRequest struct {
	ClientID string `json:"client_id" validate:"required"`
}

// QueryRequest is one customer message
type QueryRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	ClientID  string `json:"client_id" validate:"required"`
	Query     string `json:"query"`
	OrderID   string `json:"order_id,omitempty"`
}

// ClearSessionRequest closes a conversation
type ClearSessionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// HistoryMessage is one message of the chat history response
type HistoryMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// StartSession creates a session for the client
func (h *ChatHandler) StartSession(c *fiber.Ctx) error {
	var req StartSessionRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}

	session, err := h.gateway.StartSession(c.UserContext(), req.ClientID, models.ChannelWeb)
	if err != nil {
		log.Printf("Session creation failed: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, err.Error(), models.ErrCodeSessionCreationFailed)
	}
	return c.JSON(fiber.Map{"session_id": session.ID})
}

// Query answers one customer message
func (h *ChatHandler) Query(c *fiber.Ctx) error {
	var req QueryRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}
	if strings.TrimSpace(req.Query) == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Query cannot be empty", models.ErrCodeEmptyQuery)
	}

	result, err := h.gateway.ProcessQuery(c.UserContext(), services.QueryInput{
		SessionID: req.SessionID,
		ClientID:  req.ClientID,
		Query:     req.Query,
	})
	if services.IsSessionNotFound(err) {
		return errorResponse(c, fiber.StatusNotFound, "Session not found or deleted", models.ErrCodeSessionNotFound)
	}
	if err != nil {
		log.Printf("Unexpected error in query processing: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, err.Error(), models.ErrCodeUnexpected)
	}

	if result.IsError() {
		status := fiber.StatusInternalServerError
		switch result.ErrorCode {
		case models.ErrCodeInvalidSession, models.ErrCodeEmptyQuery:
			status = fiber.StatusBadRequest
		}
		log.Printf("Query processing error: %s", result.Error)
		return errorResponse(c, status, result.Error, result.ErrorCode)
	}

	response := fiber.Map{"response": result.Response}
	if result.SQLQuery != "" {
		response["sql_query"] = result.SQLQuery
		response["sql_response"] = result.SQLResponse
	}
	if req.OrderID != "" {
		response["order_id"] = req.OrderID
	}
	return c.JSON(response)
}

// ChatHistory returns the ordered messages of a session
func (h *ChatHandler) ChatHistory(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")
	messages, err := h.gateway.History(c.UserContext(), sessionID)
	if services.IsSessionNotFound(err) {
		return errorResponse(c, fiber.StatusNotFound, "Session not found or deleted", models.ErrCodeInvalidSession)
	}
	if err != nil {
		log.Printf("Chat history retrieval error: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, err.Error(), models.ErrCodeHistoryFailed)
	}

	out := make([]HistoryMessage, len(messages))
	for i, msg := range messages {
		out[i] = HistoryMessage{Role: msg.Role, Content: msg.Message, Timestamp: msg.Timestamp}
	}
	return c.JSON(fiber.Map{"messages": out})
}

// ClearSession soft deletes a session
func (h *ChatHandler) ClearSession(c *fiber.Ctx) error {
	var req ClearSessionRequest
	if ok, err := parseAndValidate(c, &req); !ok {
		return err
	}

	if err := h.gateway.ClearSession(c.UserContext(), req.SessionID); err != nil {
		log.Printf("Clear session error: %v", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to clear session", models.ErrCodeSessionClearFailed)
	}
	return c.JSON(fiber.Map{"message": "Session cleared successfully"})
}
