package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusProcessing, true},
		{StatusConfirmed, StatusProcessing, true},
		{StatusConfirmed, StatusShipped, true},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusDelivered, true},
		{StatusShipped, StatusDelivered, true},

		{StatusPending, StatusDelivered, false},
		{StatusConfirmed, StatusPending, false},
		{StatusShipped, StatusPending, false},
		{StatusDelivered, StatusShipped, false},
		{StatusCancelled, StatusPending, false},
		{StatusPending, StatusPending, false},
		{StatusPending, "bogus", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, IsTerminalStatus(StatusDelivered))
	assert.True(t, IsTerminalStatus(StatusCancelled))
	for _, s := range []string{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped} {
		assert.False(t, IsTerminalStatus(s), s)
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.True(t, IsValidStatus(s), s)
	}
	assert.False(t, IsValidStatus("returned"))
	assert.False(t, IsValidStatus(""))
}

func TestIsValidPaymentMethod(t *testing.T) {
	for _, m := range []string{PaymentCOD, PaymentVNPay, PaymentMomo, PaymentBanking, PaymentZaloPay} {
		assert.True(t, IsValidPaymentMethod(m), m)
	}
	assert.False(t, IsValidPaymentMethod("CRYPTO"))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Order placed", StatusLabel(StatusPending))
	assert.Equal(t, "Cancelled", StatusLabel(StatusCancelled))
	assert.Equal(t, "weird", StatusLabel("weird"))
}
