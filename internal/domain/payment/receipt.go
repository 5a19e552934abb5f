package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt is the record of one M-Pesa payment notification received for
// a booking fee.
type Receipt struct {
	id         uuid.UUID
	transID    string
	bookingRef string
	bookingID  uuid.UUID
	amount     decimal.Decimal
	msisdn     string
	receivedAt time.Time
	raw        json.RawMessage
}

// NewReceipt records an incoming payment notification.
func NewReceipt(transID, bookingRef string, bookingID uuid.UUID, amount decimal.Decimal, msisdn string, raw json.RawMessage) (*Receipt, error) {
	if transID == "" {
		return nil, fmt.Errorf("transaction ID is required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("payment amount must be positive")
	}

	return &Receipt{
		id:         uuid.New(),
		transID:    transID,
		bookingRef: bookingRef,
		bookingID:  bookingID,
		amount:     amount,
		msisdn:     msisdn,
		receivedAt: time.Now().UTC(),
		raw:        raw,
	}, nil
}

// Reconstruct rebuilds a Receipt from persistence.
func Reconstruct(id uuid.UUID, transID, bookingRef string, bookingID uuid.UUID, amount decimal.Decimal, msisdn string, receivedAt time.Time, raw json.RawMessage) *Receipt {
	return &Receipt{
		id:         id,
		transID:    transID,
		bookingRef: bookingRef,
		bookingID:  bookingID,
		amount:     amount,
		msisdn:     msisdn,
		receivedAt: receivedAt,
		raw:        raw,
	}
}

// Getters.
func (r *Receipt) ID() uuid.UUID           { return r.id }
func (r *Receipt) TransID() string         { return r.transID }
func (r *Receipt) BookingRef() string      { return r.bookingRef }
func (r *Receipt) BookingID() uuid.UUID    { return r.bookingID }
func (r *Receipt) Amount() decimal.Decimal { return r.amount }
func (r *Receipt) MSISDN() string          { return r.msisdn }
func (r *Receipt) ReceivedAt() time.Time   { return r.receivedAt }
func (r *Receipt) Raw() json.RawMessage    { return r.raw }
