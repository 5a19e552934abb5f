package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{StatusAwaitingPayment, StatusPendingAdmin, true},
		{StatusAwaitingPayment, StatusConfirmed, true},
		{StatusAwaitingPayment, StatusRejected, true},
		{StatusAwaitingPayment, StatusCancelled, true},
		{StatusPending, StatusPendingAdmin, true},
		{StatusPending, StatusCancelled, true},
		{StatusPendingAdmin, StatusConfirmed, true},
		{StatusPendingAdmin, StatusRejected, true},
		{StatusPendingAdmin, StatusCancelled, true},
		{StatusPendingAdmin, StatusAwaitingPayment, false},
		{StatusConfirmed, StatusPendingAdmin, true},
		{StatusConfirmed, StatusCancelled, false},
		{StatusRejected, StatusPendingAdmin, true},
		{StatusRejected, StatusConfirmed, false},
		{StatusCancelled, StatusPendingAdmin, false},
		{StatusCancelled, StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusAwaitingPayment.IsTerminal())
	assert.False(t, StatusPendingAdmin.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())
}

func TestIsActive(t *testing.T) {
	assert.True(t, StatusAwaitingPayment.IsActive())
	assert.True(t, StatusPendingAdmin.IsActive())
	assert.True(t, StatusConfirmed.IsActive())
	assert.False(t, StatusRejected.IsActive())
	assert.False(t, StatusCancelled.IsActive())
	assert.False(t, BookingStatus("bogus").IsActive())
}

func TestLegacyPendingBehavesLikeAwaitingPayment(t *testing.T) {
	assert.True(t, StatusPending.AwaitsPayment())
	assert.True(t, StatusPending.IsReviewable())
	assert.True(t, StatusPending.CanBeCancelled())
	assert.True(t, StatusPending.IsActive())
}

func TestCanBeReset(t *testing.T) {
	assert.True(t, StatusConfirmed.CanBeReset())
	assert.True(t, StatusRejected.CanBeReset())
	assert.False(t, StatusCancelled.CanBeReset())
	assert.False(t, StatusPendingAdmin.CanBeReset())
	assert.False(t, StatusAwaitingPayment.CanBeReset())
}

func TestParseBookingStatus(t *testing.T) {
	status, err := ParseBookingStatus("awaiting_manual_payment")
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingPayment, status)

	_, err = ParseBookingStatus("unknown")
	assert.Error(t, err)
}

func TestAllStatusesCoversTransitionTable(t *testing.T) {
	require.Len(t, AllStatuses, len(validTransitions))
	for _, s := range AllStatuses {
		assert.True(t, s.IsValid(), "status %s missing from transition table", s)
	}
}
