package services

import (
	"context"
	"errors"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Ananth-NQI/aira-gateway/internal/metrics"
	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/storage"
)

const shardCount = 16

// DefaultContextTTL is how long an idle session context stays cached
const DefaultContextTTL = 2 * time.Hour

// EmailMiner finds an email address in free text
type EmailMiner interface {
	Email(ctx context.Context, query string) string
}

// ContextUpdate is applied to a session context after each turn
type ContextUpdate struct {
	Intent     models.Intent
	Query      string
	OrderID    string
	Email      string
	WaitingFor models.WaitingFor
}

type contextShard struct {
	mu      sync.RWMutex
	entries map[string]*models.SessionContext
}

// ContextStore caches conversational state per session and writes the durable parts through to storage
type ContextStore struct {
	store  storage.Store
	emails EmailMiner
	shards [shardCount]*contextShard
	locks  *turnLocks
	loads  singleflight.Group
	ttl    time.Duration
	now    func() time.Time
}

// NewContextStore creates a context store; emails may be nil
func NewContextStore(store storage.Store, emails EmailMiner, ttl time.Duration) *ContextStore {
	if ttl <= 0 {
		ttl = DefaultContextTTL
	}
	cs := &ContextStore{
		store:  store,
		emails: emails,
		locks:  newTurnLocks(),
		ttl:    ttl,
		now:    time.Now,
	}
	for i := range cs.shards {
		cs.shards[i] = &contextShard{entries: make(map[string]*models.SessionContext)}
	}
	return cs
}

// SetClock replaces the time source
func (cs *ContextStore) SetClock(now func() time.Time) {
	cs.now = now
}

func (cs *ContextStore) shard(sessionID string) *contextShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return cs.shards[h.Sum32()%shardCount]
}

// Lock serializes turns of one session; call the returned func to release
func (cs *ContextStore) Lock(sessionID string) func() {
	return cs.locks.lock(sessionID)
}

// Load returns a copy of the session context and the ordered chat history.
// A missing cache entry is rebuilt from the durable session row.
func (cs *ContextStore) Load(ctx context.Context, sessionID string) (*models.SessionContext, []models.ChatMessage, error) {
	sessCtx, ok := cs.cached(sessionID)
	if !ok {
		v, err, _ := cs.loads.Do(sessionID, func() (interface{}, error) {
			return cs.rebuild(ctx, sessionID)
		})
		if err != nil {
			return nil, nil, err
		}
		sessCtx = v.(*models.SessionContext).Clone()
	}

	history, err := cs.store.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return sessCtx, history, nil
}

// Get returns a copy of the cached context without touching storage
func (cs *ContextStore) Get(sessionID string) (*models.SessionContext, bool) {
	return cs.cached(sessionID)
}

func (cs *ContextStore) cached(sessionID string) (*models.SessionContext, bool) {
	sh := cs.shard(sessionID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	sessCtx, ok := sh.entries[sessionID]
	if !ok {
		return nil, false
	}
	return sessCtx.Clone(), true
}

func (cs *ContextStore) rebuild(ctx context.Context, sessionID string) (*models.SessionContext, error) {
	session, err := cs.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sessCtx := models.NewSessionContext(sessionID, cs.now())
	if session.LastOrderID != nil {
		sessCtx.AddOrderID(*session.LastOrderID)
	}
	if session.LastIntent != nil {
		if intent, ok := models.ParseIntent(*session.LastIntent); ok {
			sessCtx.LastIntent = intent
		}
	}
	if session.WaitingFor != nil {
		sessCtx.WaitingFor = models.ParseWaitingFor(*session.WaitingFor)
	}

	sh := cs.shard(sessionID)
	sh.mu.Lock()
	if existing, ok := sh.entries[sessionID]; ok {
		sessCtx = existing
	} else {
		sh.entries[sessionID] = sessCtx
		metrics.ContextsCached.Inc()
	}
	sh.mu.Unlock()

	return sessCtx.Clone(), nil
}

// Update merges one turn into the session context and persists the durable fields
func (cs *ContextStore) Update(ctx context.Context, sessionID string, upd ContextUpdate) error {
	email := upd.Email
	if email == "" && cs.emails != nil {
		email = cs.emails.Email(ctx, upd.Query)
	}

	sh := cs.shard(sessionID)
	sh.mu.Lock()
	current, ok := sh.entries[sessionID]
	var next *models.SessionContext
	if ok {
		next = current.Clone()
	} else {
		next = models.NewSessionContext(sessionID, cs.now())
		metrics.ContextsCached.Inc()
	}
	next.AddOrderID(upd.OrderID)
	if email != "" {
		next.Email = email
	}
	next.LastIntent = upd.Intent
	next.WaitingFor = upd.WaitingFor
	next.LastQueryTime = cs.now()
	sh.entries[sessionID] = next
	sh.mu.Unlock()

	intent := string(upd.Intent)
	waiting := string(upd.WaitingFor)
	state := storage.SessionState{LastIntent: &intent, WaitingFor: &waiting}
	if next.LastOrderID != "" {
		lastOrderID := next.LastOrderID
		state.LastOrderID = &lastOrderID
	}
	if err := cs.store.SaveSessionState(ctx, sessionID, state); err != nil {
		log.Printf("Failed to persist context for session %s: %v", sessionID, err)
		return err
	}
	return nil
}

// ClearLastOrderID forgets the most recent order in storage and in the cache
func (cs *ContextStore) ClearLastOrderID(ctx context.Context, sessionID string) error {
	if err := cs.store.ClearLastOrderID(ctx, sessionID); err != nil {
		return err
	}

	sh := cs.shard(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if current, ok := sh.entries[sessionID]; ok {
		next := current.Clone()
		next.LastOrderID = ""
		sh.entries[sessionID] = next
	}
	return nil
}

// Delete drops the cached context of a session
func (cs *ContextStore) Delete(sessionID string) {
	sh := cs.shard(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.entries[sessionID]; ok {
		delete(sh.entries, sessionID)
		metrics.ContextsCached.Dec()
	}
}

// EvictStale drops contexts idle for longer than the TTL and returns how many went.
// Sessions with a turn in progress are kept.
func (cs *ContextStore) EvictStale(now time.Time) int {
	evicted := 0
	for _, sh := range cs.shards {
		sh.mu.Lock()
		for id, sessCtx := range sh.entries {
			if now.Sub(sessCtx.LastQueryTime) <= cs.ttl {
				continue
			}
			if cs.locks.held(id) {
				continue
			}
			delete(sh.entries, id)
			evicted++
		}
		sh.mu.Unlock()
	}
	if evicted > 0 {
		metrics.ContextsCached.Sub(float64(evicted))
		metrics.ContextsEvicted.Add(float64(evicted))
		log.Printf("Evicted %d stale session contexts", evicted)
	}
	return evicted
}

// Len returns the number of cached contexts
func (cs *ContextStore) Len() int {
	n := 0
	for _, sh := range cs.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// IsSessionNotFound reports whether err means the session is missing or deleted
func IsSessionNotFound(err error) bool {
	return errors.Is(err, storage.ErrSessionNotFound)
}

// turnLocks is a keyed mutex that forgets keys nobody holds
type turnLocks struct {
	mu    sync.Mutex
	locks map[string]*turnLock
}

type turnLock struct {
	mu   sync.Mutex
	refs int
}

func newTurnLocks() *turnLocks {
	return &turnLocks{locks: make(map[string]*turnLock)}
}

func (t *turnLocks) lock(key string) func() {
	t.mu.Lock()
	l, ok := t.locks[key]
	if !ok {
		l = &turnLock{}
		t.locks[key] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			t.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(t.locks, key)
			}
			t.mu.Unlock()
		})
	}
}

func (t *turnLocks) held(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.locks[key]
	return ok
}
