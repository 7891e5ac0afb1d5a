package services

import (
	"context"
	"log"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/storage"
)

const (
	msgLookupFailed  = "Sorry, I encountered an error. Please try again or refine your question."
	msgSummaryFailed = "An error occurred while generating the response."
	historyTurns     = 5
)

// LookupHandler answers invoice and shipment questions from the orders table
type LookupHandler struct {
	*responder
	slots  *SlotExtractor
	oracle LanguageOracle
}

// NewLookupHandler creates the mysql handler
func NewLookupHandler(store storage.Store, contexts *ContextStore, slots *SlotExtractor, o LanguageOracle) *LookupHandler {
	return &LookupHandler{
		responder: &responder{store: store, contexts: contexts},
		slots:     slots,
		oracle:    o,
	}
}

func (h *LookupHandler) Handle(ctx context.Context, turn *Turn) models.QueryResult {
	orderID := h.slots.OrderID(ctx, turn.Query, turn.Context.LastOrderID)
	email := turn.Context.Email
	if orderID == "" && email == "" {
		return h.askOrderID(ctx, turn)
	}

	lookup := storage.OrderLookup{OrderID: orderID, Email: email}
	contextInfo := "Order ID: " + orderID
	if orderID == "" {
		contextInfo = "Email: " + email
	}

	history := turn.FormattedHistory(historyTurns)
	kind, err := h.oracle.ClassifyLookup(ctx, turn.Query, history, contextInfo)
	if err != nil {
		log.Printf("Lookup classification failed, using shipment: %v", err)
	}
	lookup.Kind = kind

	statement, rows, err := h.store.LookupOrder(ctx, lookup)
	if err != nil {
		log.Printf("Order lookup failed for session %s: %v", turn.SessionID, err)
		result := h.reply(ctx, turn, msgLookupFailed, nil)
		result.SQLQuery = statement
		result.SQLResponse = err.Error()
		return result
	}

	rendered := storage.FormatRows(rows)
	summary, err := h.oracle.SummarizeLookup(ctx, turn.Query, history, statement, rendered)
	if err != nil || summary == "" {
		summary = msgSummaryFailed
	}

	result := h.reply(ctx, turn, summary, &ContextUpdate{OrderID: orderID, WaitingFor: models.WaitingNone})
	result.SQLQuery = statement
	result.SQLResponse = rendered
	return result
}
