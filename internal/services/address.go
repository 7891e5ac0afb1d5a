package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Ananth-NQI/aira-gateway/internal/metrics"
	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/storage"
)

// AddressHandler replaces the delivery address of an eligible order
type AddressHandler struct {
	*responder
	slots *SlotExtractor
}

// NewAddressHandler creates the address_change handler
func NewAddressHandler(store storage.Store, contexts *ContextStore, slots *SlotExtractor) *AddressHandler {
	return &AddressHandler{
		responder: &responder{store: store, contexts: contexts},
		slots:     slots,
	}
}

func (h *AddressHandler) Handle(ctx context.Context, turn *Turn) models.QueryResult {
	orderID := h.slots.OrderID(ctx, turn.Query, turn.Context.LastOrderID)
	if orderID == "" {
		return h.askOrderID(ctx, turn)
	}

	order, err := h.store.GetOrder(ctx, orderID)
	if errors.Is(err, storage.ErrOrderNotFound) {
		return h.reply(ctx, turn, orderNotFound(orderID), nil)
	}
	if err != nil {
		log.Printf("Order lookup failed for address change of %s: %v", orderID, err)
		return h.touch(ctx, turn, models.Failure(msgDBUnavailable, models.ErrCodeDBConnectionFailed))
	}

	if !order.AddressChangeEligible {
		metrics.OrderMutations.WithLabelValues("address_change", "ineligible").Inc()
		return h.reply(ctx, turn, addressIneligible(orderID), &ContextUpdate{OrderID: orderID})
	}

	address := h.slots.DeliveryAddress(ctx, turn.Query)
	if address == "" {
		text := fmt.Sprintf("Please share the new delivery address for Order %s. The current address on record is: %s.",
			orderID, order.DeliveryAddress)
		return h.reply(ctx, turn, text, &ContextUpdate{OrderID: orderID, WaitingFor: models.WaitingAddress})
	}

	err = h.store.ChangeDeliveryAddress(ctx, orderID, address)
	switch {
	case errors.Is(err, storage.ErrNotEligible):
		metrics.OrderMutations.WithLabelValues("address_change", "ineligible").Inc()
		return h.reply(ctx, turn, addressIneligible(orderID), &ContextUpdate{OrderID: orderID})
	case errors.Is(err, storage.ErrOrderNotFound):
		return h.reply(ctx, turn, orderNotFound(orderID), nil)
	case err != nil:
		metrics.OrderMutations.WithLabelValues("address_change", "error").Inc()
		return h.failed(ctx, turn, orderID, err)
	}

	metrics.OrderMutations.WithLabelValues("address_change", "committed").Inc()
	log.Printf("Delivery address of order %s updated", orderID)
	text := fmt.Sprintf("The address for %s has been updated to:\n  %s.\nIs there anything else I can help you with?", orderID, address)
	return h.reply(ctx, turn, text, &ContextUpdate{OrderID: orderID, WaitingFor: models.WaitingNone})
}

func addressIneligible(orderID string) string {
	return fmt.Sprintf("Order %s isn't eligible for an address change at this stage.\nIf you need further assistance, please contact our support team.", orderID)
}
