package models

import (
	"sort"
	"strings"
	"time"
)

// SessionContext is the conversational state carried between turns of a session
type SessionContext struct {
	SessionID     string              `json:"session_id"`
	OrderIDs      map[string]struct{} `json:"-"`
	LastOrderID   string              `json:"last_order_id,omitempty"`
	Email         string              `json:"email,omitempty"`
	LastIntent    Intent              `json:"last_intent,omitempty"`
	WaitingFor    WaitingFor          `json:"waiting_for,omitempty"`
	LastQueryTime time.Time           `json:"last_query_time"`
}

// NewSessionContext returns an empty context for a session
func NewSessionContext(sessionID string, now time.Time) *SessionContext {
	return &SessionContext{
		SessionID:     sessionID,
		OrderIDs:      make(map[string]struct{}),
		LastQueryTime: now,
	}
}

// Clone returns a deep copy so callers never share the cached order set
func (c *SessionContext) Clone() *SessionContext {
	if c == nil {
		return nil
	}
	cp := *c
	cp.OrderIDs = make(map[string]struct{}, len(c.OrderIDs))
	for id := range c.OrderIDs {
		cp.OrderIDs[id] = struct{}{}
	}
	return &cp
}

// AddOrderID records an order id and makes it the most recent one
func (c *SessionContext) AddOrderID(orderID string) {
	if orderID == "" {
		return
	}
	if c.OrderIDs == nil {
		c.OrderIDs = make(map[string]struct{})
	}
	c.OrderIDs[orderID] = struct{}{}
	c.LastOrderID = orderID
}

// OrderIDList returns the known order ids sorted for stable prompts
func (c *SessionContext) OrderIDList() []string {
	ids := make([]string, 0, len(c.OrderIDs))
	for id := range c.OrderIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OrderIDsCSV joins the known order ids or returns "None"
func (c *SessionContext) OrderIDsCSV() string {
	ids := c.OrderIDList()
	if len(ids) == 0 {
		return "None"
	}
	return strings.Join(ids, ", ")
}

// LastIntentOrNone returns the last intent label or "None"
func (c *SessionContext) LastIntentOrNone() string {
	if c.LastIntent == "" {
		return "None"
	}
	return string(c.LastIntent)
}

// WaitingForOrNone returns the pending slot or "None"
func (c *SessionContext) WaitingForOrNone() string {
	if c.WaitingFor == WaitingNone {
		return "None"
	}
	return string(c.WaitingFor)
}
