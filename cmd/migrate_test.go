package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/storage"
)

const seedCSV = `order_id,customer_name,email,shipment_status,expected_delivery,delivery_address,reschedule_eligible,address_change_eligible,invoice_url
ORD1,Asha Rao,asha@example.com,processing,2025-06-05,"12 Harbour Road, Chennai",true,true,https://invoices.example.com/ORD1
ORD2,Ravi Kumar,ravi@example.com,delivered,2025-05-20,"7 MG Road, Pune",false,false,
`

func TestSeedOrders(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	count, err := seedOrders(ctx, store, strings.NewReader(seedCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	order, err := store.GetOrder(ctx, "ORD1")
	require.NoError(t, err)
	assert.Equal(t, "12 Harbour Road, Chennai", order.DeliveryAddress)
	assert.Equal(t, "2025-06-05", order.ExpectedDelivery.Format("2006-01-02"))
	assert.True(t, order.RescheduleEligible)
	assert.Equal(t, models.ShipmentStatusProcessing, order.ShipmentStatus)

	order, err = store.GetOrder(ctx, "ORD2")
	require.NoError(t, err)
	assert.Equal(t, models.ShipmentStatusDelivered, order.ShipmentStatus)
	assert.False(t, order.AddressChangeEligible)
	assert.Empty(t, order.InvoiceURL)
}

func TestSeedOrdersRejectsBadInput(t *testing.T) {
	store := storage.NewMemoryStore()

	_, err := seedOrders(context.Background(), store, strings.NewReader("order_id,email\nORD1,a@b.c\n"))
	assert.ErrorContains(t, err, `missing column "customer_name"`)

	bad := strings.Replace(seedCSV, "2025-06-05", "05/06/2025", 1)
	count, err := seedOrders(context.Background(), store, strings.NewReader(bad))
	assert.ErrorContains(t, err, "row 1: expected_delivery")
	assert.Equal(t, 0, count)

	bad = strings.Replace(seedCSV, "false,false", "no,false", 1)
	count, err = seedOrders(context.Background(), store, strings.NewReader(bad))
	assert.ErrorContains(t, err, "row 2: reschedule_eligible")
	assert.Equal(t, 1, count)
}
