package services

import (
	"context"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/storage"
)

// Canned replies
const (
	CapabilitiesText = `Hi! I'm **AIRA**.

I can help you with the following:
- Track your shipment
- Reschedule a delivery
- Update your address
- Get your invoice
- Answer common questions

Just tell me what you'd like help with!`

	CapabilitiesOnlyText = `I can help you with the following:
- Track your shipment
- Reschedule a delivery
- Update your address
- Get your invoice
- Answer common questions

Just tell me what you'd like help with!`

	SmallTalkFallback = "Nice to chat! How can I assist with your logistics needs?"
	FrustrationText   = "I'm really sorry you're facing this. I completely understand how frustrating it can be.\nLet me help by creating a support ticket so our team can review and get back to you as soon as possible."
	VIPText           = "Thank you for your interest in shipping with us.\nI've flagged this as a priority inquiry. Our sales team will connect with you shortly to help you explore the best options."
)

// StaticHandler answers with a fixed text
type StaticHandler struct {
	*responder
	text string
}

// NewStaticHandler creates a handler that always replies with text
func NewStaticHandler(store storage.Store, contexts *ContextStore, text string) *StaticHandler {
	return &StaticHandler{
		responder: &responder{store: store, contexts: contexts},
		text:      text,
	}
}

func (h *StaticHandler) Handle(ctx context.Context, turn *Turn) models.QueryResult {
	return h.reply(ctx, turn, h.text, &ContextUpdate{})
}

// SmallTalkHandler replies conversationally through the oracle
type SmallTalkHandler struct {
	*responder
	oracle LanguageOracle
}

// NewSmallTalkHandler creates the small_talks handler
func NewSmallTalkHandler(store storage.Store, contexts *ContextStore, o LanguageOracle) *SmallTalkHandler {
	return &SmallTalkHandler{
		responder: &responder{store: store, contexts: contexts},
		oracle:    o,
	}
}

func (h *SmallTalkHandler) Handle(ctx context.Context, turn *Turn) models.QueryResult {
	text, err := h.oracle.SmallTalk(ctx, turn.Query)
	if err != nil || text == "" {
		text = SmallTalkFallback
	}
	return h.reply(ctx, turn, text, &ContextUpdate{})
}
