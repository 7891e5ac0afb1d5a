package services

import (
	"context"
	"log"

	"github.com/Ananth-NQI/aira-gateway/internal/metrics"
	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/oracle"
	"github.com/Ananth-NQI/aira-gateway/internal/retrieval"
)

// DefaultFAQThreshold is the distance below which a query goes straight to the FAQ handler
const DefaultFAQThreshold = 0.8

// IntentRouter decides which operation handles a turn
type IntentRouter struct {
	oracle    LanguageOracle
	retriever retrieval.Retriever
	contexts  *ContextStore
	threshold float64
}

// NewIntentRouter creates a router; retriever may be nil when no FAQ index exists
func NewIntentRouter(o LanguageOracle, retriever retrieval.Retriever, contexts *ContextStore, threshold float64) *IntentRouter {
	if threshold <= 0 {
		threshold = DefaultFAQThreshold
	}
	return &IntentRouter{
		oracle:    o,
		retriever: retriever,
		contexts:  contexts,
		threshold: threshold,
	}
}

// Classify returns the intent of the query. Close FAQ matches skip the model entirely.
func (r *IntentRouter) Classify(ctx context.Context, query string, sessCtx *models.SessionContext) models.Intent {
	if r.faqFastPath(ctx, query) {
		metrics.FAQFastPath.Inc()
		return models.IntentFAQ
	}

	label, err := r.oracle.ClassifyIntent(ctx, oracle.IntentInput{
		Query:      query,
		OrderIDs:   sessCtx.OrderIDsCSV(),
		LastIntent: sessCtx.LastIntentOrNone(),
		WaitingFor: sessCtx.WaitingForOrNone(),
	})
	if err != nil {
		log.Printf("Intent classification failed, falling back to general: %v", err)
		return models.IntentGeneral
	}

	intent, ok := models.ParseIntent(label)
	if !ok {
		log.Printf("Unknown intent label %q, falling back to general", label)
	}
	return intent
}

func (r *IntentRouter) faqFastPath(ctx context.Context, query string) bool {
	if r.retriever == nil {
		return false
	}
	matches, err := r.retriever.SimilaritySearch(ctx, query, 1)
	if err != nil {
		log.Printf("FAQ similarity check skipped: %v", err)
		return false
	}
	return len(matches) > 0 && matches[0].Distance < r.threshold
}

// CheckContinuation asks whether the turn continues the previous topic.
// On a topic change the remembered order id is forgotten; the intent is never changed.
func (r *IntentRouter) CheckContinuation(ctx context.Context, sessionID, query string, intent models.Intent, sessCtx *models.SessionContext) bool {
	if sessCtx.LastIntent == "" {
		return true
	}

	continuing, err := r.oracle.CheckContinuation(ctx, oracle.ContinuationInput{
		LastIntent:    sessCtx.LastIntentOrNone(),
		CurrentIntent: string(intent),
		Query:         query,
		OrderIDs:      sessCtx.OrderIDsCSV(),
		WaitingFor:    sessCtx.WaitingForOrNone(),
	})
	if err != nil {
		log.Printf("Continuation check failed for session %s, treating as continuing: %v", sessionID, err)
		return true
	}
	if continuing {
		return true
	}

	if err := r.contexts.ClearLastOrderID(ctx, sessionID); err != nil {
		log.Printf("Failed to reset last order for session %s: %v", sessionID, err)
	} else {
		log.Printf("Topic changed in session %s, last order id cleared", sessionID)
	}
	sessCtx.LastOrderID = ""
	return false
}
