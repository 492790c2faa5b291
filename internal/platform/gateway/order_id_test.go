package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOrderID_RoundTrip(t *testing.T) {
	userID := "018f3c2a-9d4e-7c1b-8a2f-3e5d6c7b8a90"
	orderID := BuildOrderID(userID, time.Now())

	got, err := ParseOrderUserID(orderID)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestBuildOrderID_UniquePerAttempt(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := BuildOrderID("user-1", now)
		assert.False(t, seen[id], "duplicate order id: %s", id)
		seen[id] = true
	}
}

func TestParseOrderUserID_Malformed(t *testing.T) {
	for _, in := range []string{"", "order", "order__123_ab", "nope_u1_123_ab", "order_u1_123", "order_u1_123_ab_extra"} {
		_, err := ParseOrderUserID(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestSuccessfulPayment(t *testing.T) {
	assert.Nil(t, SuccessfulPayment(nil))
	assert.Nil(t, SuccessfulPayment([]Payment{{PaymentStatus: PaymentStatusPending}}))

	p := SuccessfulPayment([]Payment{
		{PaymentID: "p1", PaymentStatus: PaymentStatusFailed},
		{PaymentID: "p2", PaymentStatus: PaymentStatusSuccess},
	})
	require.NotNil(t, p)
	assert.Equal(t, "p2", p.PaymentID)
}

func TestAllFailed(t *testing.T) {
	assert.False(t, AllFailed(nil), "no attempts is not a failure")
	assert.False(t, AllFailed([]Payment{{PaymentStatus: PaymentStatusFailed}, {PaymentStatus: PaymentStatusPending}}))
	assert.True(t, AllFailed([]Payment{{PaymentStatus: PaymentStatusFailed}, {PaymentStatus: PaymentStatusFailed}}))
}
