package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/oracle"
	"github.com/Ananth-NQI/aira-gateway/internal/retrieval"
	"github.com/Ananth-NQI/aira-gateway/internal/storage"
)

var errOracleDown = errors.New("oracle unavailable")

// fakeOracle returns canned answers; a set err field makes that operation fail
type fakeOracle struct {
	mu sync.Mutex

	intent       string
	intentErr    error
	continuing   bool
	continueErr  error
	orderID      string
	orderIDErr   error
	date         string
	dateErr      error
	address      string
	addressErr   error
	email        string
	lookupKind   models.LookupKind
	summary      string
	summaryErr   error
	faqAnswer    string
	faqErr       error
	smallTalk    string
	smallTalkErr error

	intentCalls       int
	continuationCalls int
	faqPassages       string
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{intent: "general", continuing: true, lookupKind: models.LookupShipment}
}

func (f *fakeOracle) ClassifyIntent(ctx context.Context, in oracle.IntentInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intentCalls++
	return f.intent, f.intentErr
}

func (f *fakeOracle) CheckContinuation(ctx context.Context, in oracle.ContinuationInput) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.continuationCalls++
	if f.continueErr != nil {
		return true, f.continueErr
	}
	return f.continuing, nil
}

func (f *fakeOracle) ExtractOrderID(ctx context.Context, query, sessionOrderID string) (string, error) {
	if f.orderIDErr != nil {
		return "", f.orderIDErr
	}
	if f.orderID == "" {
		return sessionOrderID, nil
	}
	return f.orderID, nil
}

func (f *fakeOracle) ExtractDate(ctx context.Context, query string, now time.Time) (string, error) {
	return f.date, f.dateErr
}

func (f *fakeOracle) ExtractAddress(ctx context.Context, query string) (string, error) {
	return f.address, f.addressErr
}

func (f *fakeOracle) ExtractEmail(ctx context.Context, query string) (string, error) {
	return f.email, nil
}

func (f *fakeOracle) ClassifyLookup(ctx context.Context, query, history, contextInfo string) (models.LookupKind, error) {
	return f.lookupKind, nil
}

func (f *fakeOracle) SummarizeLookup(ctx context.Context, query, history, sqlQuery, sqlResponse string) (string, error) {
	return f.summary, f.summaryErr
}

func (f *fakeOracle) AnswerFAQ(ctx context.Context, query, passages string) (string, error) {
	f.mu.Lock()
	f.faqPassages = passages
	f.mu.Unlock()
	return f.faqAnswer, f.faqErr
}

func (f *fakeOracle) SmallTalk(ctx context.Context, query string) (string, error) {
	return f.smallTalk, f.smallTalkErr
}

// fakeRetriever returns fixed matches
type fakeRetriever struct {
	matches []retrieval.Match
	err     error
	calls   int
}

func (f *fakeRetriever) SimilaritySearch(ctx context.Context, query string, k int) ([]retrieval.Match, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.matches) {
		return f.matches[:k], nil
	}
	return f.matches, nil
}

// memoryCache is an in-process AnswerCache
type memoryCache struct {
	answers map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{answers: make(map[string]string)}
}

func (c *memoryCache) Get(ctx context.Context, question string) (string, bool, error) {
	a, ok := c.answers[retrieval.QuestionKey(question)]
	return a, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, question, answer string) error {
	c.answers[retrieval.QuestionKey(question)] = answer
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context) error {
	c.answers = make(map[string]string)
	return nil
}

// recordingSender collects outbound WhatsApp messages
type recordingSender struct {
	mu   sync.Mutex
	to   []string
	body []string
	err  error
}

func (s *recordingSender) SendWhatsAppMessage(to, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.to = append(s.to, to)
	s.body = append(s.body, message)
	return nil
}

// fixture wires a memory store, context store and slot extractor around a fake oracle
type fixture struct {
	store    *storage.MemoryStore
	oracle   *fakeOracle
	slots    *SlotExtractor
	contexts *ContextStore
	session  *models.ChatSession
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemoryStore()
	o := newFakeOracle()
	slots := NewSlotExtractor(o)
	contexts := NewContextStore(store, slots, time.Hour)

	session, err := store.CreateSession(context.Background(), "client-1", models.ChannelWeb)
	require.NoError(t, err)

	return &fixture{
		store:    store,
		oracle:   o,
		slots:    slots,
		contexts: contexts,
		session:  session,
		now:      time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

// turn loads the session context and builds a turn for query
func (f *fixture) turn(t *testing.T, query string, intent models.Intent) *Turn {
	t.Helper()
	sessCtx, history, err := f.contexts.Load(context.Background(), f.session.ID)
	require.NoError(t, err)
	return &Turn{
		SessionID: f.session.ID,
		Query:     query,
		Intent:    intent,
		Context:   sessCtx,
		History:   history,
		Now:       f.now,
	}
}

func (f *fixture) addOrder(t *testing.T, order *models.Order) {
	t.Helper()
	require.NoError(t, f.store.UpsertOrder(context.Background(), order))
}

func (f *fixture) sessionRow(t *testing.T) *models.ChatSession {
	t.Helper()
	session, err := f.store.GetSession(context.Background(), f.session.ID)
	require.NoError(t, err)
	return session
}

func eligibleOrder(id string) *models.Order {
	return &models.Order{
		OrderID:               id,
		CustomerName:          "Asha Rao",
		Email:                 "asha@example.com",
		ShipmentStatus:        models.ShipmentStatusInTransit,
		ExpectedDelivery:      time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		DeliveryAddress:       "12 Harbour Road, Chennai",
		RescheduleEligible:    true,
		AddressChangeEligible: true,
		InvoiceURL:            "https://invoices.example.com/" + id,
	}
}
