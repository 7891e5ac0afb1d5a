package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
)

func TestRescheduleAsksForOrderID(t *testing.T) {
	f := newFixture(t)
	h := NewRescheduleHandler(f.store, f.contexts, f.slots, 0)

	result := h.Handle(context.Background(), f.turn(t, "I want to reschedule", models.IntentReschedule))

	assert.Equal(t, msgAskOrderID, result.Response)
	sessCtx, ok := f.contexts.Get(f.session.ID)
	require.True(t, ok)
	assert.Equal(t, models.WaitingOrderID, sessCtx.WaitingFor)
	assert.Equal(t, models.IntentReschedule, sessCtx.LastIntent)
}

func TestRescheduleFullConversation(t *testing.T) {
	f := newFixture(t)
	f.addOrder(t, eligibleOrder("ORD123"))
	h := NewRescheduleHandler(f.store, f.contexts, f.slots, 30)
	ctx := context.Background()

	// order id given, no date yet
	f.oracle.orderID = "ORD123"
	result := h.Handle(ctx, f.turn(t, "reschedule ORD123", models.IntentReschedule))
	assert.Contains(t, result.Response, "current date: 2025-06-05")
	sessCtx, _ := f.contexts.Get(f.session.ID)
	assert.Equal(t, models.WaitingDate, sessCtx.WaitingFor)
	assert.Equal(t, "ORD123", sessCtx.LastOrderID)

	row := f.sessionRow(t)
	require.NotNil(t, row.LastOrderID)
	assert.Equal(t, "ORD123", *row.LastOrderID)
	require.NotNil(t, row.WaitingFor)
	assert.Equal(t, "date", *row.WaitingFor)

	// date outside the window is refused without touching the order
	f.oracle.orderID = ""
	f.oracle.date = "2025-08-01"
	result = h.Handle(ctx, f.turn(t, "make it August 1st", models.IntentReschedule))
	assert.Contains(t, result.Response, "within the next 30 days")
	order, err := f.store.GetOrder(ctx, "ORD123")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-05", order.ExpectedDelivery.Format(models.DateLayout))
	sessCtx, _ = f.contexts.Get(f.session.ID)
	assert.Equal(t, models.WaitingDate, sessCtx.WaitingFor)

	// valid date commits and clears the pending slot
	f.oracle.date = `"2025-06-10"`
	result = h.Handle(ctx, f.turn(t, "the 10th then", models.IntentReschedule))
	assert.Contains(t, result.Response, "rescheduled to 2025-06-10")
	order, err = f.store.GetOrder(ctx, "ORD123")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-10", order.ExpectedDelivery.Format(models.DateLayout))
	sessCtx, _ = f.contexts.Get(f.session.ID)
	assert.Equal(t, models.WaitingNone, sessCtx.WaitingFor)
	assert.Nil(t, f.sessionRow(t).WaitingFor)
}

func TestRescheduleRejectsPastAndToday(t *testing.T) {
	f := newFixture(t)
	f.addOrder(t, eligibleOrder("ORD123"))
	f.oracle.orderID = "ORD123"
	h := NewRescheduleHandler(f.store, f.contexts, f.slots, 30)

	for _, date := range []string{"2025-06-01", "2025-05-20"} {
		f.oracle.date = date
		result := h.Handle(context.Background(), f.turn(t, "move it", models.IntentReschedule))
		assert.Contains(t, result.Response, "only possible for future dates", date)
	}

	order, err := f.store.GetOrder(context.Background(), "ORD123")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-05", order.ExpectedDelivery.Format(models.DateLayout))
}

func TestRescheduleWindowEdge(t *testing.T) {
	h := NewRescheduleHandler(nil, nil, nil, 30)
	now := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)

	_, ok := h.checkWindow(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), now)
	assert.True(t, ok, "exactly 30 days ahead is allowed")
	_, ok = h.checkWindow(time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), now)
	assert.False(t, ok)
	_, ok = h.checkWindow(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), now)
	assert.True(t, ok, "tomorrow is allowed")
}

func TestRescheduleIneligible(t *testing.T) {
	f := newFixture(t)
	order := eligibleOrder("ORD9")
	order.RescheduleEligible = false
	f.addOrder(t, order)
	f.oracle.orderID = "ORD9"
	f.oracle.date = "2025-06-10"
	h := NewRescheduleHandler(f.store, f.contexts, f.slots, 30)

	result := h.Handle(context.Background(), f.turn(t, "move ORD9 to the 10th", models.IntentReschedule))
	assert.Contains(t, result.Response, "can no longer be rescheduled")

	got, err := f.store.GetOrder(context.Background(), "ORD9")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-05", got.ExpectedDelivery.Format(models.DateLayout))
}

func TestRescheduleUnknownOrder(t *testing.T) {
	f := newFixture(t)
	f.oracle.orderID = "ORD404"
	h := NewRescheduleHandler(f.store, f.contexts, f.slots, 30)

	result := h.Handle(context.Background(), f.turn(t, "reschedule ORD404", models.IntentReschedule))
	assert.Contains(t, result.Response, "Order ORD404 not found")

	history, err := f.store.GetMessages(context.Background(), f.session.ID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, models.RoleAssistant, history[len(history)-1].Role)
}

func TestRescheduleIgnoresInvalidOrderID(t *testing.T) {
	f := newFixture(t)
	f.oracle.orderID = "12345"
	h := NewRescheduleHandler(f.store, f.contexts, f.slots, 30)

	result := h.Handle(context.Background(), f.turn(t, "reschedule 12345", models.IntentReschedule))
	assert.Equal(t, msgAskOrderID, result.Response)
}
