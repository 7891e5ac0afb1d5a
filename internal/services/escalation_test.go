package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/storage"
)

func ticketRequest(ticketType string) TicketRequest {
	return TicketRequest{
		SessionID:           "session-1",
		Email:               "asha@example.com",
		ConversationHistory: "Human: my parcel is late\nAI: sorry to hear that",
		Query:               "parcel three days late",
		Type:                ticketType,
	}
}

func TestCreateTicketNotifiesSupport(t *testing.T) {
	sender := &recordingSender{}
	svc := NewEscalationService(storage.NewMemoryStore(), sender, "+911234567890")
	notifiedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return notifiedAt }

	ticket, err := svc.CreateTicket(context.Background(), ticketRequest(models.TicketTypeFrustrating))
	require.NoError(t, err)

	assert.NotEmpty(t, ticket.TicketID)
	assert.Equal(t, models.TicketCategoryProduct, ticket.Category)
	assert.Equal(t, "URGENT", ticket.Priority)
	require.NotNil(t, ticket.NotifiedAt)
	assert.Equal(t, notifiedAt, *ticket.NotifiedAt)

	require.Len(t, sender.to, 1)
	assert.Equal(t, "+911234567890", sender.to[0])
	assert.Contains(t, sender.body[0], ticket.TicketID)
	assert.Contains(t, sender.body[0], "asha@example.com : parcel three days late")
}

func TestCreateTicketWithoutSender(t *testing.T) {
	svc := NewEscalationService(storage.NewMemoryStore(), nil, "")

	ticket, err := svc.CreateTicket(context.Background(), ticketRequest(models.TicketTypeVIP))
	require.NoError(t, err)
	assert.Equal(t, models.TicketCategoryBilling, ticket.Category)
	assert.Nil(t, ticket.NotifiedAt)
}

func TestCreateTicketSurvivesSendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("twilio: 503")}
	svc := NewEscalationService(storage.NewMemoryStore(), sender, "+911234567890")

	ticket, err := svc.CreateTicket(context.Background(), ticketRequest(models.TicketTypeVIP))
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.TicketID)
	assert.Nil(t, ticket.NotifiedAt)
}
