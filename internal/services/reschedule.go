package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Ananth-NQI/aira-gateway/internal/metrics"
	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/storage"
)

// DefaultRescheduleWindowDays is how far ahead a delivery may be moved
const DefaultRescheduleWindowDays = 30

// RescheduleHandler moves the expected delivery date of an eligible order
type RescheduleHandler struct {
	*responder
	slots      *SlotExtractor
	windowDays int
}

// NewRescheduleHandler creates the reschedule_delivery handler
func NewRescheduleHandler(store storage.Store, contexts *ContextStore, slots *SlotExtractor, windowDays int) *RescheduleHandler {
	if windowDays <= 0 {
		windowDays = DefaultRescheduleWindowDays
	}
	return &RescheduleHandler{
		responder:  &responder{store: store, contexts: contexts},
		slots:      slots,
		windowDays: windowDays,
	}
}

func (h *RescheduleHandler) Handle(ctx context.Context, turn *Turn) models.QueryResult {
	orderID := h.slots.OrderID(ctx, turn.Query, turn.Context.LastOrderID)
	if orderID == "" {
		return h.askOrderID(ctx, turn)
	}

	order, err := h.store.GetOrder(ctx, orderID)
	if errors.Is(err, storage.ErrOrderNotFound) {
		return h.reply(ctx, turn, orderNotFound(orderID), nil)
	}
	if err != nil {
		log.Printf("Order lookup failed for reschedule of %s: %v", orderID, err)
		return h.touch(ctx, turn, models.Failure(msgDBUnavailable, models.ErrCodeDBConnectionFailed))
	}

	if !order.RescheduleEligible {
		metrics.OrderMutations.WithLabelValues("reschedule", "ineligible").Inc()
		return h.reply(ctx, turn, rescheduleIneligible(orderID), &ContextUpdate{OrderID: orderID})
	}

	newDate, ok := h.slots.DeliveryDate(ctx, turn.Query, turn.Now)
	if !ok {
		text := fmt.Sprintf("Please provide the new delivery date for order %s (current date: %s).",
			orderID, order.ExpectedDelivery.Format(models.DateLayout))
		return h.reply(ctx, turn, text, &ContextUpdate{OrderID: orderID, WaitingFor: models.WaitingDate})
	}

	if text, ok := h.checkWindow(newDate, turn.Now); !ok {
		metrics.OrderMutations.WithLabelValues("reschedule", "out_of_window").Inc()
		return h.reply(ctx, turn, text, &ContextUpdate{OrderID: orderID, WaitingFor: models.WaitingDate})
	}

	err = h.store.RescheduleDelivery(ctx, orderID, newDate)
	switch {
	case errors.Is(err, storage.ErrNotEligible):
		metrics.OrderMutations.WithLabelValues("reschedule", "ineligible").Inc()
		return h.reply(ctx, turn, rescheduleIneligible(orderID), &ContextUpdate{OrderID: orderID})
	case errors.Is(err, storage.ErrOrderNotFound):
		return h.reply(ctx, turn, orderNotFound(orderID), nil)
	case err != nil:
		metrics.OrderMutations.WithLabelValues("reschedule", "error").Inc()
		return h.failed(ctx, turn, orderID, err)
	}

	metrics.OrderMutations.WithLabelValues("reschedule", "committed").Inc()
	log.Printf("Order %s rescheduled to %s", orderID, newDate.Format(models.DateLayout))
	text := fmt.Sprintf("The delivery for Order %s has been rescheduled to %s.\nIs there anything else I can help you with?",
		orderID, newDate.Format(models.DateLayout))
	return h.reply(ctx, turn, text, &ContextUpdate{OrderID: orderID, WaitingFor: models.WaitingNone})
}

// checkWindow accepts dates strictly after today and at most windowDays ahead
func (h *RescheduleHandler) checkWindow(newDate, now time.Time) (string, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(newDate.Year(), newDate.Month(), newDate.Day(), 0, 0, 0, 0, time.UTC)

	if !day.After(today) {
		return "I'm sorry, but rescheduling is only possible for future dates. Could you please provide a valid future date?", false
	}
	if days := int(day.Sub(today).Hours() / 24); days > h.windowDays {
		return fmt.Sprintf("To ensure timely processing, rescheduling is limited to dates within the next %d days. Please choose a date within that range.", h.windowDays), false
	}
	return "", true
}

func orderNotFound(orderID string) string {
	return fmt.Sprintf("Order %s not found. Please verify the order ID and try again.", orderID)
}

func rescheduleIneligible(orderID string) string {
	return fmt.Sprintf("Order %s can no longer be rescheduled.\nIf you need further assistance, please contact our support team.", orderID)
}
