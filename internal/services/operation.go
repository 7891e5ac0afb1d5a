package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/storage"
)

// Shared replies
const (
	msgAskOrderID     = "Could you please share your valid order ID, so I can check the details for you?"
	msgProcessingFail = "An error occurred while processing your request. Please try again or contact support."
	msgDBUnavailable  = "Database connection failed"
)

// Turn is one customer message on its way through a handler
type Turn struct {
	SessionID string
	Query     string
	Intent    models.Intent
	Context   *models.SessionContext
	History   []models.ChatMessage
	Now       time.Time
}

// FormattedHistory renders the last few messages as "Human:"/"AI:" lines
func (t *Turn) FormattedHistory(limit int) string {
	history := t.History
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	var b strings.Builder
	for _, msg := range history {
		role := "AI"
		if msg.Role == models.RoleUser {
			role = "Human"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, msg.Message)
	}
	return b.String()
}

// OperationHandler answers a turn for one intent
type OperationHandler interface {
	Handle(ctx context.Context, turn *Turn) models.QueryResult
}

// responder records assistant replies and context updates for handlers
type responder struct {
	store    storage.Store
	contexts *ContextStore
}

// reply saves the assistant message and updates the context.
// A nil upd keeps the pending slot and only refreshes intent and query time.
func (r *responder) reply(ctx context.Context, turn *Turn, text string, upd *ContextUpdate) models.QueryResult {
	if _, err := r.store.SaveMessage(ctx, turn.SessionID, models.RoleAssistant, text); err != nil {
		log.Printf("Failed to save assistant message for session %s: %v", turn.SessionID, err)
	}
	r.update(ctx, turn, upd)
	return models.Reply(text)
}

// touch refreshes the context on a turn that ends in a failure result
func (r *responder) touch(ctx context.Context, turn *Turn, result models.QueryResult) models.QueryResult {
	r.update(ctx, turn, nil)
	return result
}

func (r *responder) update(ctx context.Context, turn *Turn, upd *ContextUpdate) {
	if upd == nil {
		upd = &ContextUpdate{}
		if turn.Context != nil {
			upd.WaitingFor = turn.Context.WaitingFor
		}
	}
	upd.Query = turn.Query
	if upd.Intent == "" {
		upd.Intent = turn.Intent
	}
	if err := r.contexts.Update(ctx, turn.SessionID, *upd); err != nil {
		log.Printf("Context write-through failed for session %s: %v", turn.SessionID, err)
	}
}

// askOrderID prompts for an order id and blocks on it
func (r *responder) askOrderID(ctx context.Context, turn *Turn) models.QueryResult {
	return r.reply(ctx, turn, msgAskOrderID, &ContextUpdate{WaitingFor: models.WaitingOrderID})
}

// failed records the generic apology after an infrastructure error
func (r *responder) failed(ctx context.Context, turn *Turn, orderID string, err error) models.QueryResult {
	log.Printf("%s handler failed for session %s: %v", turn.Intent, turn.SessionID, err)
	return r.reply(ctx, turn, msgProcessingFail, &ContextUpdate{OrderID: orderID})
}
