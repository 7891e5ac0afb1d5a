package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SupportTicket is an escalation raised from a conversation
type SupportTicket struct {
	gorm.Model
	TicketID     string     `gorm:"uniqueIndex;not null" json:"ticket_id"`
	SessionID    string     `gorm:"index" json:"session_id,omitempty"`
	Email        string     `gorm:"index;not null" json:"email"`
	Query        string     `json:"query"`
	Type         string     `json:"type"`                                  // frustrating or vip
	Category     string     `json:"category"`                              // PRODUCT_ISSUE or BILLING_ISSUE
	Priority     string     `gorm:"default:'URGENT'" json:"priority"`      // LOW, MEDIUM, HIGH, URGENT
	Status       string     `gorm:"default:'open'" json:"status"`          // open, in_progress, resolved, closed
	Conversation string     `gorm:"type:text" json:"conversation_history"` // transcript at the time of escalation
	NotifiedAt   *time.Time `json:"notified_at,omitempty"`
}

// Ticket types sent by the chat widget
const (
	TicketTypeFrustrating = "frustrating"
	TicketTypeVIP         = "vip"
)

// Ticket categories
const (
	TicketCategoryProduct = "PRODUCT_ISSUE"
	TicketCategoryBilling = "BILLING_ISSUE"
)

// BeforeCreate fills the ticket id, category and priority
func (st *SupportTicket) BeforeCreate(tx *gorm.DB) error {
	if st.TicketID == "" {
		st.TicketID = fmt.Sprintf("TK%d", time.Now().UnixNano())
	}
	if st.Category == "" {
		st.Category = TicketCategoryFor(st.Type)
	}
	if st.Priority == "" {
		st.Priority = "URGENT"
	}
	if st.Status == "" {
		st.Status = "open"
	}
	return nil
}

// TicketCategoryFor maps a ticket type onto its category
func TicketCategoryFor(ticketType string) string {
	if ticketType == TicketTypeFrustrating {
		return TicketCategoryProduct
	}
	return TicketCategoryBilling
}

// Subject builds the ticket subject line
func (st *SupportTicket) Subject() string {
	return fmt.Sprintf("%s : %s", st.Email, st.Query)
}
