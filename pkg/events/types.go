package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kafka topics this service produces to and consumes from.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Event types on the booking topic.
const (
	BookingRequested        = "booking.requested"
	BookingPaymentConfirmed = "booking.payment_confirmed"
	BookingConfirmed        = "booking.confirmed"
	BookingRejected         = "booking.rejected"
	BookingReset            = "booking.reset"
	BookingCancelled        = "booking.cancelled"
)

// Event types on the payment topic.
const (
	PaymentReceived = "payment.received"
)

// BookingRequestedEvent is published when a tenant submits a booking.
type BookingRequestedEvent struct {
	BookingID   uuid.UUID       `json:"booking_id"`
	Reference   string          `json:"reference"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	ListingID   uuid.UUID       `json:"listing_id"`
	ListingName string          `json:"listing_name"`
	BookingFee  decimal.Decimal `json:"booking_fee"`
	Currency    string          `json:"currency"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// BookingPaymentConfirmedEvent is published when the reservation fee is
// confirmed and the booking enters the admin queue.
type BookingPaymentConfirmedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	Reference  string    `json:"reference"`
	TenantID   uuid.UUID `json:"tenant_id"`
	Receipt    string    `json:"receipt"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingReviewedEvent is published on admin approve, reject and reset.
type BookingReviewedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	Reference  string    `json:"reference"`
	TenantID   uuid.UUID `json:"tenant_id"`
	AdminID    uuid.UUID `json:"admin_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when the tenant cancels.
type BookingCancelledEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	Reference  string    `json:"reference"`
	TenantID   uuid.UUID `json:"tenant_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentReceivedEvent is published by the payment gate when an M-Pesa
// notification arrives, and consumed to apply the payment-confirmed
// transition.
type PaymentReceivedEvent struct {
	TransID    string          `json:"trans_id"`
	BookingID  uuid.UUID       `json:"booking_id"`
	Reference  string          `json:"reference"`
	Amount     decimal.Decimal `json:"amount"`
	MSISDN     string          `json:"msisdn"`
	OccurredAt time.Time       `json:"occurred_at"`
}
