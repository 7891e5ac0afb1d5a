package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidOrderID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ORD123", "ORD123"},
		{`"ORD123"`, "ORD123"},
		{"  'ORD9' ", "ORD9"},
		{"12345", ""},
		{"ord123", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidOrderID(tt.in), tt.in)
	}
}

func TestParseDeliveryDate(t *testing.T) {
	date, ok := ParseDeliveryDate("2025-06-10")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), date)

	_, ok = ParseDeliveryDate(`"2025-06-10"`)
	assert.True(t, ok)

	for _, in := range []string{"", `""`, "next Tuesday", "10/06/2025", "2025-13-01"} {
		_, ok := ParseDeliveryDate(in)
		assert.False(t, ok, in)
	}
}

func TestValidAddress(t *testing.T) {
	assert.Equal(t, "45 Park Street, Kolkata", ValidAddress("45 Park Street, Kolkata"))
	assert.Equal(t, "45 Park Street", ValidAddress(`"45 Park Street"`))
	assert.Empty(t, ValidAddress("Park Street, Kolkata"), "no digit")
	assert.Empty(t, ValidAddress("Flat 4"), "too short")
	assert.Empty(t, ValidAddress(""))
}

func TestValidEmail(t *testing.T) {
	assert.Equal(t, "asha@example.com", ValidEmail("asha@example.com"))
	assert.Equal(t, "asha@example.com", ValidEmail("'asha@example.com'"))
	assert.Empty(t, ValidEmail("none"))
}

func TestSlotExtractorTreatsOracleErrorsAsAbsent(t *testing.T) {
	o := newFakeOracle()
	o.orderIDErr = errOracleDown
	o.dateErr = errOracleDown
	o.addressErr = errOracleDown
	slots := NewSlotExtractor(o)
	ctx := context.Background()

	assert.Empty(t, slots.OrderID(ctx, "ORD1 please", "ORD0"))
	_, ok := slots.DeliveryDate(ctx, "tomorrow", time.Now())
	assert.False(t, ok)
	assert.Empty(t, slots.DeliveryAddress(ctx, "45 Park Street, Kolkata"))
}

func TestSlotExtractorFallsBackToSessionOrder(t *testing.T) {
	o := newFakeOracle()
	slots := NewSlotExtractor(o)

	assert.Equal(t, "ORD42", slots.OrderID(context.Background(), "what about it?", "ORD42"))
	assert.Empty(t, slots.OrderID(context.Background(), "what about it?", ""))
}
