package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/storage"
)

func TestLoadUnknownSession(t *testing.T) {
	contexts := NewContextStore(storage.NewMemoryStore(), nil, 0)
	_, _, err := contexts.Load(context.Background(), "missing")
	assert.True(t, IsSessionNotFound(err))
}

func TestLoadRebuildsFromDurableRow(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	session, err := store.CreateSession(ctx, "client-1", models.ChannelWeb)
	require.NoError(t, err)

	orderID, intent, waiting := "ORD123", "reschedule_delivery", "date"
	require.NoError(t, store.SaveSessionState(ctx, session.ID, storage.SessionState{
		LastOrderID: &orderID, LastIntent: &intent, WaitingFor: &waiting,
	}))
	_, err = store.SaveMessage(ctx, session.ID, models.RoleUser, "reschedule ORD123")
	require.NoError(t, err)

	// a fresh store models a process restart
	contexts := NewContextStore(store, nil, time.Hour)
	sessCtx, history, err := contexts.Load(ctx, session.ID)
	require.NoError(t, err)

	assert.Equal(t, "ORD123", sessCtx.LastOrderID)
	assert.Contains(t, sessCtx.OrderIDs, "ORD123")
	assert.Equal(t, models.IntentReschedule, sessCtx.LastIntent)
	assert.Equal(t, models.WaitingDate, sessCtx.WaitingFor)
	assert.Empty(t, sessCtx.Email)
	require.Len(t, history, 1)
	assert.Equal(t, 1, contexts.Len())
}

func TestLoadReturnsCopies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.contexts.Update(ctx, f.session.ID, ContextUpdate{Intent: models.IntentOrderLookup, OrderID: "ORD1"}))

	sessCtx, _, err := f.contexts.Load(ctx, f.session.ID)
	require.NoError(t, err)
	sessCtx.LastOrderID = "tampered"
	sessCtx.OrderIDs["ORD999"] = struct{}{}

	again, ok := f.contexts.Get(f.session.ID)
	require.True(t, ok)
	assert.Equal(t, "ORD1", again.LastOrderID)
	assert.NotContains(t, again.OrderIDs, "ORD999")
}

func TestUpdateMergesOrdersAndMinesEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.oracle.email = "asha@example.com"
	require.NoError(t, f.contexts.Update(ctx, f.session.ID, ContextUpdate{
		Intent: models.IntentOrderLookup, Query: "I'm asha@example.com, where is ORD1", OrderID: "ORD1",
	}))

	f.oracle.email = "not an email"
	require.NoError(t, f.contexts.Update(ctx, f.session.ID, ContextUpdate{
		Intent: models.IntentReschedule, Query: "and ORD2", OrderID: "ORD2", WaitingFor: models.WaitingDate,
	}))

	sessCtx, ok := f.contexts.Get(f.session.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"ORD1", "ORD2"}, sessCtx.OrderIDList())
	assert.Equal(t, "ORD2", sessCtx.LastOrderID)
	assert.Equal(t, "asha@example.com", sessCtx.Email)
	assert.Equal(t, models.IntentReschedule, sessCtx.LastIntent)
	assert.Equal(t, models.WaitingDate, sessCtx.WaitingFor)

	row := f.sessionRow(t)
	require.NotNil(t, row.LastOrderID)
	assert.Equal(t, "ORD2", *row.LastOrderID)
}

func TestClearLastOrderID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.contexts.Update(ctx, f.session.ID, ContextUpdate{Intent: models.IntentOrderLookup, OrderID: "ORD1"}))

	require.NoError(t, f.contexts.ClearLastOrderID(ctx, f.session.ID))

	sessCtx, _ := f.contexts.Get(f.session.ID)
	assert.Empty(t, sessCtx.LastOrderID)
	assert.Contains(t, sessCtx.OrderIDs, "ORD1")
	assert.Nil(t, f.sessionRow(t).LastOrderID)
}

func TestEvictStale(t *testing.T) {
	store := storage.NewMemoryStore()
	contexts := NewContextStore(store, nil, 2*time.Hour)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	clock := base
	contexts.SetClock(func() time.Time { return clock })

	var ids []string
	for i := 0; i < 3; i++ {
		session, err := store.CreateSession(ctx, fmt.Sprintf("client-%d", i), models.ChannelWeb)
		require.NoError(t, err)
		ids = append(ids, session.ID)
	}
	require.NoError(t, contexts.Update(ctx, ids[0], ContextUpdate{Intent: models.IntentGeneral}))
	require.NoError(t, contexts.Update(ctx, ids[1], ContextUpdate{Intent: models.IntentGeneral}))
	clock = base.Add(90 * time.Minute)
	require.NoError(t, contexts.Update(ctx, ids[2], ContextUpdate{Intent: models.IntentGeneral}))

	// ids[1] has a turn in flight and must survive
	unlock := contexts.Lock(ids[1])
	evicted := contexts.EvictStale(base.Add(2*time.Hour + time.Minute))
	unlock()

	assert.Equal(t, 1, evicted)
	_, ok := contexts.Get(ids[0])
	assert.False(t, ok)
	_, ok = contexts.Get(ids[1])
	assert.True(t, ok)
	_, ok = contexts.Get(ids[2])
	assert.True(t, ok)
	assert.Equal(t, 2, contexts.Len())

	// evicted sessions come back from storage on the next load
	sessCtx, _, err := contexts.Load(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.IntentGeneral, sessCtx.LastIntent)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.contexts.Update(context.Background(), f.session.ID, ContextUpdate{Intent: models.IntentGeneral}))
	f.contexts.Delete(f.session.ID)
	_, ok := f.contexts.Get(f.session.ID)
	assert.False(t, ok)
	f.contexts.Delete(f.session.ID)
}

func TestTurnLockSerializesSession(t *testing.T) {
	contexts := NewContextStore(storage.NewMemoryStore(), nil, 0)

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := contexts.Lock("session-1")
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.False(t, contexts.locks.held("session-1"), "released keys are forgotten")
}

func TestConcurrentUpdatesAcrossSessions(t *testing.T) {
	store := storage.NewMemoryStore()
	contexts := NewContextStore(store, nil, 0)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 50; i++ {
		session, err := store.CreateSession(ctx, fmt.Sprintf("client-%d", i), models.ChannelWeb)
		require.NoError(t, err)
		ids = append(ids, session.ID)
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			unlock := contexts.Lock(id)
			defer unlock()
			_, _, err := contexts.Load(ctx, id)
			assert.NoError(t, err)
			assert.NoError(t, contexts.Update(ctx, id, ContextUpdate{
				Intent:  models.IntentOrderLookup,
				OrderID: fmt.Sprintf("ORD%d", i),
			}))
		}(i, id)
	}
	wg.Wait()

	assert.Equal(t, 50, contexts.Len())
	for i, id := range ids {
		sessCtx, ok := contexts.Get(id)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("ORD%d", i), sessCtx.LastOrderID)
	}
}

func TestEvictStaleDuringTurns(t *testing.T) {
	store := storage.NewMemoryStore()
	contexts := NewContextStore(store, nil, time.Minute)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	contexts.SetClock(func() time.Time { return base })

	var ids []string
	for i := 0; i < 8; i++ {
		session, err := store.CreateSession(ctx, fmt.Sprintf("client-%d", i), models.ChannelWeb)
		require.NoError(t, err)
		ids = append(ids, session.ID)
	}

	// every context is already past its TTL from the sweepers' point of view
	later := base.Add(time.Hour)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(2)
		go func(i int, id string) {
			defer wg.Done()
			for n := 0; n < 50; n++ {
				unlock := contexts.Lock(id)
				_, _, err := contexts.Load(ctx, id)
				assert.NoError(t, err)
				assert.NoError(t, contexts.Update(ctx, id, ContextUpdate{
					Intent:  models.IntentOrderLookup,
					OrderID: fmt.Sprintf("ORD%d", i),
				}))
				_, ok := contexts.Get(id)
				assert.True(t, ok, "a locked session survives a sweep")
				unlock()
			}
		}(i, id)
		go func() {
			defer wg.Done()
			for n := 0; n < 50; n++ {
				contexts.EvictStale(later)
			}
		}()
	}
	wg.Wait()

	contexts.EvictStale(later)
	assert.Equal(t, 0, contexts.Len())

	for i, id := range ids {
		sessCtx, _, err := contexts.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("ORD%d", i), sessCtx.LastOrderID)
	}
}
