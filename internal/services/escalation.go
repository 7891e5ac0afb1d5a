package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Ananth-NQI/aira-gateway/internal/metrics"
	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/storage"
)

// TicketRequest is an escalation raised by the chat widget
type TicketRequest struct {
	SessionID           string
	Email               string
	ConversationHistory string
	Query               string
	Type                string
}

// EscalationService records support tickets and alerts the support desk
type EscalationService struct {
	store     storage.Store
	sender    MessageSender
	supportTo string
	now       func() time.Time
}

// NewEscalationService creates the service; sender may be nil when WhatsApp is not configured
func NewEscalationService(store storage.Store, sender MessageSender, supportTo string) *EscalationService {
	return &EscalationService{
		store:     store,
		sender:    sender,
		supportTo: supportTo,
		now:       time.Now,
	}
}

// CreateTicket stores the ticket and notifies support; a failed notification does not fail the ticket
func (s *EscalationService) CreateTicket(ctx context.Context, req TicketRequest) (*models.SupportTicket, error) {
	ticket, err := s.store.CreateSupportTicket(ctx, &models.SupportTicket{
		SessionID:    req.SessionID,
		Email:        req.Email,
		Query:        req.Query,
		Type:         req.Type,
		Category:     models.TicketCategoryFor(req.Type),
		Priority:     "URGENT",
		Conversation: req.ConversationHistory,
	})
	if err != nil {
		return nil, err
	}
	metrics.TicketsCreated.WithLabelValues(ticket.Type).Inc()
	log.Printf("Support ticket %s created (%s)", ticket.TicketID, ticket.Category)

	if s.sender == nil || s.supportTo == "" {
		return ticket, nil
	}
	if err := s.sender.SendWhatsAppMessage(s.supportTo, ticketAlert(ticket)); err != nil {
		log.Printf("Failed to notify support about ticket %s: %v", ticket.TicketID, err)
		return ticket, nil
	}
	at := s.now()
	if err := s.store.MarkTicketNotified(ctx, ticket.TicketID, at); err != nil {
		log.Printf("Failed to mark ticket %s notified: %v", ticket.TicketID, err)
	} else {
		ticket.NotifiedAt = &at
	}
	return ticket, nil
}

func ticketAlert(ticket *models.SupportTicket) string {
	return fmt.Sprintf("New %s ticket %s\nPriority: %s\nSubject: %s", ticket.Category, ticket.TicketID, ticket.Priority, ticket.Subject())
}
