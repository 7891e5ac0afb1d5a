package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
)

// MemoryStore holds all data in memory for local runs and tests
type MemoryStore struct {
	sessions map[string]*models.ChatSession
	messages map[string][]models.ChatMessage
	orders   map[string]*models.Order
	tickets  map[string]*models.SupportTicket

	// Mutexes for thread safety
	sessionMu sync.RWMutex
	messageMu sync.RWMutex
	orderMu   sync.RWMutex
	ticketMu  sync.RWMutex

	ticketCounter int
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.ChatSession),
		messages: make(map[string][]models.ChatMessage),
		orders:   make(map[string]*models.Order),
		tickets:  make(map[string]*models.SupportTicket),
	}
}

// Session operations
func (m *MemoryStore) CreateSession(ctx context.Context, clientID, channel string) (*models.ChatSession, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	if channel == "" {
		channel = models.ChannelWeb
	}
	now := time.Now()
	session := &models.ChatSession{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		Channel:   channel,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[session.ID] = session
	return copySession(session), nil
}

func (m *MemoryStore) GetSession(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	session, exists := m.sessions[sessionID]
	if !exists || session.Deleted {
		return nil, ErrSessionNotFound
	}
	return copySession(session), nil
}

func (m *MemoryStore) FindActiveSessionByClient(ctx context.Context, clientID, channel string) (*models.ChatSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	var latest *models.ChatSession
	for _, session := range m.sessions {
		if session.Deleted || session.ClientID != clientID || session.Channel != channel {
			continue
		}
		if latest == nil || session.CreatedAt.After(latest.CreatedAt) {
			latest = session
		}
	}
	if latest == nil {
		return nil, ErrSessionNotFound
	}
	return copySession(latest), nil
}

func (m *MemoryStore) MarkSessionDeleted(ctx context.Context, sessionID string) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	session, exists := m.sessions[sessionID]
	if !exists || session.Deleted {
		return ErrSessionNotFound
	}
	session.Deleted = true
	session.LastOrderID = nil
	session.WaitingFor = nil
	session.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) SaveSessionState(ctx context.Context, sessionID string, state SessionState) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	session, exists := m.sessions[sessionID]
	if !exists || session.Deleted {
		return nil
	}
	if state.LastOrderID != nil {
		session.LastOrderID = stringPtr(*state.LastOrderID)
	}
	if state.LastIntent != nil {
		session.LastIntent = stringPtr(*state.LastIntent)
	}
	if state.WaitingFor != nil {
		if *state.WaitingFor == "" {
			session.WaitingFor = nil
		} else {
			session.WaitingFor = stringPtr(*state.WaitingFor)
		}
	}
	session.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) ClearLastOrderID(ctx context.Context, sessionID string) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	if session, exists := m.sessions[sessionID]; exists {
		session.LastOrderID = nil
		session.UpdatedAt = time.Now()
	}
	return nil
}

// Message operations
func (m *MemoryStore) SaveMessage(ctx context.Context, sessionID, role, message string) (*models.ChatMessage, error) {
	m.messageMu.Lock()
	defer m.messageMu.Unlock()

	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		ChatID:    sessionID,
		Role:      role,
		Message:   message,
		Timestamp: time.Now(),
	}
	m.messages[sessionID] = append(m.messages[sessionID], msg)
	return &msg, nil
}

func (m *MemoryStore) GetMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	if _, err := m.GetSession(ctx, sessionID); err != nil {
		return []models.ChatMessage{}, nil
	}

	m.messageMu.RLock()
	defer m.messageMu.RUnlock()

	history := make([]models.ChatMessage, len(m.messages[sessionID]))
	copy(history, m.messages[sessionID])
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.Before(history[j].Timestamp)
	})
	return history, nil
}

// Order operations
func (m *MemoryStore) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	order, exists := m.orders[orderID]
	if !exists {
		return nil, ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (m *MemoryStore) UpsertOrder(ctx context.Context, order *models.Order) error {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	cp := *order
	m.orders[order.OrderID] = &cp
	return nil
}

func (m *MemoryStore) RescheduleDelivery(ctx context.Context, orderID string, newDate time.Time) error {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	order, exists := m.orders[orderID]
	if !exists {
		return ErrOrderNotFound
	}
	if !order.RescheduleEligible {
		return ErrNotEligible
	}
	order.ExpectedDelivery = newDate
	return nil
}

func (m *MemoryStore) ChangeDeliveryAddress(ctx context.Context, orderID, address string) error {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	order, exists := m.orders[orderID]
	if !exists {
		return ErrOrderNotFound
	}
	if !order.AddressChangeEligible {
		return ErrNotEligible
	}
	order.DeliveryAddress = address
	return nil
}

func (m *MemoryStore) LookupOrder(ctx context.Context, lookup OrderLookup) (string, []map[string]interface{}, error) {
	statement, key := LookupStatement(lookup)

	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	ids := make([]string, 0, len(m.orders))
	for id := range m.orders {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := []map[string]interface{}{}
	for _, id := range ids {
		order := m.orders[id]
		if lookup.OrderID != "" && order.OrderID != key {
			continue
		}
		if lookup.OrderID == "" && order.Email != key {
			continue
		}
		rows = append(rows, projectOrder(order, lookup.Kind))
	}
	return statement, rows, nil
}

// projectOrder mirrors the column list LookupStatement selects
func projectOrder(order *models.Order, kind models.LookupKind) map[string]interface{} {
	switch kind {
	case models.LookupInvoice:
		return map[string]interface{}{"invoice_url": order.InvoiceURL}
	case models.LookupShipment:
		return map[string]interface{}{
			"customer_name":     order.CustomerName,
			"email":             order.Email,
			"shipment_status":   order.ShipmentStatus,
			"expected_delivery": order.ExpectedDelivery,
			"delivery_address":  order.DeliveryAddress,
		}
	default:
		return map[string]interface{}{
			"order_id":                order.OrderID,
			"customer_name":           order.CustomerName,
			"email":                   order.Email,
			"shipment_status":         order.ShipmentStatus,
			"expected_delivery":       order.ExpectedDelivery,
			"delivery_address":        order.DeliveryAddress,
			"reschedule_eligible":     order.RescheduleEligible,
			"address_change_eligible": order.AddressChangeEligible,
			"invoice_url":             order.InvoiceURL,
		}
	}
}

// Support operations
func (m *MemoryStore) CreateSupportTicket(ctx context.Context, ticket *models.SupportTicket) (*models.SupportTicket, error) {
	m.ticketMu.Lock()
	defer m.ticketMu.Unlock()

	m.ticketCounter++
	if ticket.TicketID == "" {
		ticket.TicketID = fmt.Sprintf("TK%05d", m.ticketCounter)
	}
	if ticket.Category == "" {
		ticket.Category = models.TicketCategoryFor(ticket.Type)
	}
	if ticket.Priority == "" {
		ticket.Priority = "URGENT"
	}
	if ticket.Status == "" {
		ticket.Status = "open"
	}
	ticket.ID = uint(m.ticketCounter)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt

	m.tickets[ticket.TicketID] = ticket
	return ticket, nil
}

func (m *MemoryStore) MarkTicketNotified(ctx context.Context, ticketID string, at time.Time) error {
	m.ticketMu.Lock()
	defer m.ticketMu.Unlock()

	ticket, exists := m.tickets[ticketID]
	if !exists {
		return fmt.Errorf("ticket %s not found", ticketID)
	}
	ticket.NotifiedAt = &at
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func copySession(s *models.ChatSession) *models.ChatSession {
	cp := *s
	if s.LastOrderID != nil {
		cp.LastOrderID = stringPtr(*s.LastOrderID)
	}
	if s.LastIntent != nil {
		cp.LastIntent = stringPtr(*s.LastIntent)
	}
	if s.WaitingFor != nil {
		cp.WaitingFor = stringPtr(*s.WaitingFor)
	}
	return &cp
}

func stringPtr(s string) *string {
	return &s
}
