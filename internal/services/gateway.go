package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Ananth-NQI/aira-gateway/internal/metrics"
	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/storage"
)

// DefaultJanitorTrigger is the cache size above which a turn also sweeps stale contexts
const DefaultJanitorTrigger = 100

// QueryInput is one customer message addressed to a session
type QueryInput struct {
	SessionID string
	ClientID  string
	Query     string
}

// Gateway runs a customer turn end to end
type Gateway struct {
	store          storage.Store
	contexts       *ContextStore
	router         *IntentRouter
	handlers       map[models.Intent]OperationHandler
	janitorTrigger int
	now            func() time.Time
}

// GatewayConfig wires the gateway's collaborators
type GatewayConfig struct {
	Store          storage.Store
	Contexts       *ContextStore
	Router         *IntentRouter
	Handlers       map[models.Intent]OperationHandler
	JanitorTrigger int
	Clock          func() time.Time
}

// NewGateway creates a gateway; intents without a handler fall back to general
func NewGateway(cfg GatewayConfig) *Gateway {
	if cfg.JanitorTrigger <= 0 {
		cfg.JanitorTrigger = DefaultJanitorTrigger
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Gateway{
		store:          cfg.Store,
		contexts:       cfg.Contexts,
		router:         cfg.Router,
		handlers:       cfg.Handlers,
		janitorTrigger: cfg.JanitorTrigger,
		now:            cfg.Clock,
	}
}

// StartSession opens a new conversation for a client
func (g *Gateway) StartSession(ctx context.Context, clientID, channel string) (*models.ChatSession, error) {
	session, err := g.store.CreateSession(ctx, clientID, channel)
	if err != nil {
		return nil, err
	}
	log.Printf("Created new session %s for client %s", session.ID, clientID)
	return session, nil
}

// SessionForClient returns the open session of a client on a channel, creating one when needed
func (g *Gateway) SessionForClient(ctx context.Context, clientID, channel string) (*models.ChatSession, error) {
	session, err := g.store.FindActiveSessionByClient(ctx, clientID, channel)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, storage.ErrSessionNotFound) {
		return nil, err
	}
	return g.StartSession(ctx, clientID, channel)
}

// History returns the ordered messages of a non-deleted session
func (g *Gateway) History(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	if _, err := g.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return g.store.GetMessages(ctx, sessionID)
}

// ClearSession soft deletes the session and forgets its cached context
func (g *Gateway) ClearSession(ctx context.Context, sessionID string) error {
	unlock := g.contexts.Lock(sessionID)
	defer unlock()

	if err := g.store.MarkSessionDeleted(ctx, sessionID); err != nil {
		return err
	}
	g.contexts.Delete(sessionID)
	log.Printf("Session cleared: %s", sessionID)
	return nil
}

// ProcessQuery answers one customer message. Only a missing session is returned as an error.
func (g *Gateway) ProcessQuery(ctx context.Context, in QueryInput) (models.QueryResult, error) {
	started := g.now()
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return models.Failure("Query cannot be empty", models.ErrCodeEmptyQuery), nil
	}

	session, err := g.store.GetSession(ctx, in.SessionID)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return models.QueryResult{}, err
	}
	if err != nil {
		log.Printf("Session lookup failed for %s: %v", in.SessionID, err)
		return models.Failure(msgDBUnavailable, models.ErrCodeDBConnectionFailed), nil
	}
	if in.ClientID != "" && session.ClientID != in.ClientID {
		log.Printf("Invalid client_id for session: %s", in.SessionID)
		return models.Failure("Invalid session or client ID", models.ErrCodeInvalidSession), nil
	}

	unlock := g.contexts.Lock(in.SessionID)
	defer unlock()

	log.Printf("Processing query for session %s", in.SessionID)
	if _, err := g.store.SaveMessage(ctx, in.SessionID, models.RoleUser, query); err != nil {
		log.Printf("Failed to save user message for session %s: %v", in.SessionID, err)
	}

	sessCtx, history, err := g.contexts.Load(ctx, in.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return models.QueryResult{}, err
		}
		log.Printf("Context load failed for session %s: %v", in.SessionID, err)
		return models.Failure(msgDBUnavailable, models.ErrCodeDBConnectionFailed), nil
	}

	if g.contexts.Len() > g.janitorTrigger {
		g.contexts.EvictStale(g.now())
	}

	intent := g.router.Classify(ctx, query, sessCtx)
	g.router.CheckContinuation(ctx, in.SessionID, query, intent, sessCtx)
	log.Printf("Session %s routed to %s", in.SessionID, intent)

	handler, ok := g.handlers[intent]
	if !ok {
		handler = g.handlers[models.IntentGeneral]
	}
	if handler == nil {
		return models.Failure("No handler configured", models.ErrCodeUnexpected), nil
	}

	result := handler.Handle(ctx, &Turn{
		SessionID: in.SessionID,
		Query:     query,
		Intent:    intent,
		Context:   sessCtx,
		History:   history,
		Now:       g.now(),
	})

	metrics.TurnsTotal.WithLabelValues(string(intent)).Inc()
	metrics.TurnDuration.Observe(g.now().Sub(started).Seconds())
	return result, nil
}

// Ping checks that storage is reachable
func (g *Gateway) Ping(ctx context.Context) error {
	return g.store.Ping(ctx)
}

// StandardHandlers builds the handler table for every intent
func StandardHandlers(store storage.Store, contexts *ContextStore, slots *SlotExtractor, o LanguageOracle, faq *FAQHandler, windowDays int) map[models.Intent]OperationHandler {
	return map[models.Intent]OperationHandler{
		models.IntentFAQ:          faq,
		models.IntentOrderLookup:  NewLookupHandler(store, contexts, slots, o),
		models.IntentReschedule:   NewRescheduleHandler(store, contexts, slots, windowDays),
		models.IntentAddress:      NewAddressHandler(store, contexts, slots),
		models.IntentGeneral:      NewStaticHandler(store, contexts, CapabilitiesText),
		models.IntentCapabilities: NewStaticHandler(store, contexts, CapabilitiesOnlyText),
		models.IntentSmallTalk:    NewSmallTalkHandler(store, contexts, o),
		models.IntentFrustration:  NewStaticHandler(store, contexts, FrustrationText),
		models.IntentVIP:          NewStaticHandler(store, contexts, VIPText),
	}
}
