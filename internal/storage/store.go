package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
)

var (
	// ErrSessionNotFound is returned when no non-deleted session row exists
	ErrSessionNotFound = errors.New("session not found or deleted")
	// ErrOrderNotFound is returned when the order id is unknown
	ErrOrderNotFound = errors.New("order not found")
	// ErrNotEligible is returned when an order mutation is not permitted
	ErrNotEligible = errors.New("order not eligible for this change")
)

// SessionState is the slice of session context written through to chat_sessions.
// A nil field leaves the stored column untouched.
type SessionState struct {
	LastOrderID *string
	LastIntent  *string
	WaitingFor  *string
}

// OrderLookup selects rows from the orders table for the lookup handler
type OrderLookup struct {
	Kind    models.LookupKind
	OrderID string
	Email   string
}

// Store defines the interface for storage operations
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, clientID, channel string) (*models.ChatSession, error)
	GetSession(ctx context.Context, sessionID string) (*models.ChatSession, error)
	FindActiveSessionByClient(ctx context.Context, clientID, channel string) (*models.ChatSession, error)
	MarkSessionDeleted(ctx context.Context, sessionID string) error
	SaveSessionState(ctx context.Context, sessionID string, state SessionState) error
	ClearLastOrderID(ctx context.Context, sessionID string) error

	// Message operations
	SaveMessage(ctx context.Context, sessionID, role, message string) (*models.ChatMessage, error)
	GetMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error)

	// Order operations
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	UpsertOrder(ctx context.Context, order *models.Order) error
	RescheduleDelivery(ctx context.Context, orderID string, newDate time.Time) error
	ChangeDeliveryAddress(ctx context.Context, orderID, address string) error
	LookupOrder(ctx context.Context, lookup OrderLookup) (string, []map[string]interface{}, error)

	// Support operations
	CreateSupportTicket(ctx context.Context, ticket *models.SupportTicket) (*models.SupportTicket, error)
	MarkTicketNotified(ctx context.Context, ticketID string, at time.Time) error

	// Ping checks that the backing store is reachable
	Ping(ctx context.Context) error
}

const shipmentColumns = "customer_name, email, shipment_status, expected_delivery, delivery_address"

// LookupStatement builds the parametrized read for a lookup; the key is bound to the single placeholder
func LookupStatement(lookup OrderLookup) (string, string) {
	var columns string
	switch lookup.Kind {
	case models.LookupInvoice:
		columns = "invoice_url"
	case models.LookupShipment:
		columns = shipmentColumns
	default:
		columns = "*"
	}

	if lookup.OrderID != "" {
		return fmt.Sprintf("SELECT %s FROM orders WHERE order_id = ?", columns), lookup.OrderID
	}
	return fmt.Sprintf("SELECT %s FROM orders WHERE email = ?", columns), lookup.Email
}

// FormatRows renders lookup rows as text for logs and the summarization prompt
func FormatRows(rows []map[string]interface{}) string {
	if len(rows) == 0 {
		return "[]"
	}
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", k, formatValue(row[k])))
		}
		b.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
	return b.String()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(models.DateLayout)
	default:
		return fmt.Sprint(val)
	}
}
