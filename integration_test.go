//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	protoevents "github.com/unistay-housing/service-booking/pkg/events"
)

// TestPaymentReceived_QueuesBookingForAdmin verifies that when a
// PaymentReceivedEvent is published to payment.events, the booking
// service picks it up and moves the booking from awaiting_manual_payment
// into pending_admin_confirmation.
func TestPaymentReceived_QueuesBookingForAdmin(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	// Seed a booking that is still waiting on its reservation fee.
	bookingID := uuid.New()
	tenantID := uuid.New()
	reference := "BK-INT234"
	seedBookingAwaitingPayment(t, infra.DB, bookingID, tenantID, reference)

	// Start the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	// Publish PaymentReceivedEvent.
	evt := protoevents.PaymentReceivedEvent{
		TransID:    "SBK12XYZ99",
		BookingID:  bookingID,
		Reference:  reference,
		Amount:     decimal.NewFromInt(10000),
		MSISDN:     "254712345678",
		OccurredAt: time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, protoevents.TopicPaymentEvents,
		"service-booking", protoevents.PaymentReceived, evt)

	// Assert: booking transitions into the admin queue.
	model := waitForBookingStatus(t, infra.DB, bookingID, "pending_admin_confirmation", 15*time.Second)
	require.NotNil(t, model.PaymentConfirmedAt, "payment_confirmed_at should be set")
	assert.Equal(t, "SBK12XYZ99", model.PaymentReceipt)

	// Assert: BookingPaymentConfirmedEvent on booking.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, protoevents.TopicBookingEvents,
		protoevents.BookingPaymentConfirmed, 15*time.Second)

	var confirmed protoevents.BookingPaymentConfirmedEvent
	require.NoError(t, ce.ParseData(&confirmed))
	assert.Equal(t, bookingID, confirmed.BookingID)
	assert.Equal(t, reference, confirmed.Reference)
	assert.Equal(t, tenantID, confirmed.TenantID)
	assert.Equal(t, "SBK12XYZ99", confirmed.Receipt)
}
