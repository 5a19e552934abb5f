package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/unistay-housing/service-booking/pkg/domain"
)

const referenceChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// MaxTenants is the most tenants a single booking request may cover.
const MaxTenants = 2

// Booking is the aggregate root for the booking domain: one tenant's
// reservation request against a listing, tracked through its status
// lifecycle.
type Booking struct {
	id          uuid.UUID
	reference   string
	tenantID    uuid.UUID
	tenantEmail string
	listing     ListingSnapshot
	moveInDate  time.Time
	tenantCount int

	bookingFee decimal.Decimal
	totalRent  decimal.Decimal
	status     BookingStatus

	requestedAt        time.Time
	paymentConfirmedAt *time.Time
	paymentReceipt     string
	adminConfirmedAt   *time.Time
	adminRejectedAt    *time.Time
	userCancelledAt    *time.Time

	version   int64
	updatedAt time.Time
}

// generateReference creates a booking reference in the format "BK-XXXXXX".
// The reference doubles as the M-Pesa account reference, so it stays short
// and unambiguous (no 0/O, 1/I).
func generateReference() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referenceChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking reference: %w", err)
		}
		result[i] = referenceChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a new Booking aggregate in awaiting_manual_payment.
// Every new request funnels through the payment step before an admin
// sees it.
func NewBooking(
	tenantID uuid.UUID,
	tenantEmail string,
	listing ListingSnapshot,
	moveInDate time.Time,
	tenantCount int,
	bookingFee decimal.Decimal,
) (*Booking, error) {
	if tenantID == uuid.Nil {
		return nil, domain.NewValidationError("tenant ID is required")
	}
	if tenantEmail == "" {
		return nil, domain.NewValidationError("tenant email is required")
	}
	if listing.ListingID == uuid.Nil {
		return nil, domain.NewValidationError("listing ID is required")
	}
	if listing.Rent.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("listing rent must be positive")
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if moveInDate.Before(today) {
		return nil, domain.NewValidationError("move-in date cannot be in the past")
	}
	if tenantCount < 1 || tenantCount > MaxTenants {
		return nil, domain.NewValidationError(fmt.Sprintf("tenant count must be between 1 and %d", MaxTenants))
	}
	if bookingFee.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewValidationError("booking fee must be positive")
	}

	reference, err := generateReference()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:          uuid.New(),
		reference:   reference,
		tenantID:    tenantID,
		tenantEmail: tenantEmail,
		listing:     listing,
		moveInDate:  moveInDate,
		tenantCount: tenantCount,
		bookingFee:  bookingFee,
		totalRent:   listing.Rent,
		status:      StatusAwaitingPayment,
		requestedAt: now,
		version:     1,
		updatedAt:   now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no
// validation).
func ReconstructBooking(
	id uuid.UUID,
	reference string,
	tenantID uuid.UUID,
	tenantEmail string,
	listing ListingSnapshot,
	moveInDate time.Time,
	tenantCount int,
	bookingFee decimal.Decimal,
	totalRent decimal.Decimal,
	status BookingStatus,
	requestedAt time.Time,
	paymentConfirmedAt *time.Time,
	paymentReceipt string,
	adminConfirmedAt *time.Time,
	adminRejectedAt *time.Time,
	userCancelledAt *time.Time,
	version int64,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                 id,
		reference:          reference,
		tenantID:           tenantID,
		tenantEmail:        tenantEmail,
		listing:            listing,
		moveInDate:         moveInDate,
		tenantCount:        tenantCount,
		bookingFee:         bookingFee,
		totalRent:          totalRent,
		status:             status,
		requestedAt:        requestedAt,
		paymentConfirmedAt: paymentConfirmedAt,
		paymentReceipt:     paymentReceipt,
		adminConfirmedAt:   adminConfirmedAt,
		adminRejectedAt:    adminRejectedAt,
		userCancelledAt:    userCancelledAt,
		version:            version,
		updatedAt:          updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// Reference returns the human-readable booking reference.
func (b *Booking) Reference() string { return b.reference }

// TenantID returns the requesting tenant's user ID.
func (b *Booking) TenantID() uuid.UUID { return b.tenantID }

// TenantEmail returns the requesting tenant's contact email.
func (b *Booking) TenantEmail() string { return b.tenantEmail }

// Listing returns the listing snapshot frozen at request time.
func (b *Booking) Listing() ListingSnapshot { return b.listing }

// MoveInDate returns the requested move-in date.
func (b *Booking) MoveInDate() time.Time { return b.moveInDate }

// TenantCount returns the number of tenants on the request.
func (b *Booking) TenantCount() int { return b.tenantCount }

// BookingFee returns the up-front reservation fee (50% of rent).
func (b *Booking) BookingFee() decimal.Decimal { return b.bookingFee }

// TotalRent returns the monthly rent at request time.
func (b *Booking) TotalRent() decimal.Decimal { return b.totalRent }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// RequestedAt returns the request timestamp.
func (b *Booking) RequestedAt() time.Time { return b.requestedAt }

// PaymentConfirmedAt returns when the fee payment was confirmed, or nil.
func (b *Booking) PaymentConfirmedAt() *time.Time { return b.paymentConfirmedAt }

// PaymentReceipt returns the payment receipt reference, if any.
func (b *Booking) PaymentReceipt() string { return b.paymentReceipt }

// AdminConfirmedAt returns when an admin approved the booking, or nil.
func (b *Booking) AdminConfirmedAt() *time.Time { return b.adminConfirmedAt }

// AdminRejectedAt returns when an admin rejected the booking, or nil.
func (b *Booking) AdminRejectedAt() *time.Time { return b.adminRejectedAt }

// UserCancelledAt returns when the tenant cancelled the booking, or nil.
func (b *Booking) UserCancelledAt() *time.Time { return b.userCancelledAt }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// ConfirmPayment records the fee payment and moves the booking into the
// admin review queue. Only bookings still awaiting payment accept this,
// so a repeated confirmation fails without touching the first stamp.
func (b *Booking) ConfirmPayment(receipt string) error {
	if !b.status.AwaitsPayment() {
		return domain.NewInvalidStateError(string(b.status), string(StatusPendingAdmin))
	}
	now := time.Now().UTC()
	b.status = StatusPendingAdmin
	b.paymentConfirmedAt = &now
	b.paymentReceipt = receipt
	b.updatedAt = now
	return nil
}

// Approve confirms the booking. Admins may approve before the payment
// step completes; the approval clears any prior rejection stamp so the
// two admin timestamps are never both set.
func (b *Booking) Approve() error {
	if !b.status.IsReviewable() {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	now := time.Now().UTC()
	b.status = StatusConfirmed
	b.adminConfirmedAt = &now
	b.adminRejectedAt = nil
	b.updatedAt = now
	return nil
}

// Reject declines the booking, clearing any prior approval stamp.
func (b *Booking) Reject() error {
	if !b.status.IsReviewable() {
		return domain.NewInvalidStateError(string(b.status), string(StatusRejected))
	}
	now := time.Now().UTC()
	b.status = StatusRejected
	b.adminRejectedAt = &now
	b.adminConfirmedAt = nil
	b.updatedAt = now
	return nil
}

// Reset returns a confirmed or rejected booking to the review queue,
// clearing both admin stamps. The payment confirmation stamp survives so
// a reset booking does not pay again.
func (b *Booking) Reset() error {
	if !b.status.CanBeReset() {
		return domain.NewInvalidStateError(string(b.status), string(StatusPendingAdmin))
	}
	now := time.Now().UTC()
	b.status = StatusPendingAdmin
	b.adminConfirmedAt = nil
	b.adminRejectedAt = nil
	b.updatedAt = now
	return nil
}

// Cancel is the tenant-initiated cancellation. Confirmed and terminal
// bookings refuse it.
func (b *Booking) Cancel() error {
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.userCancelledAt = &now
	b.updatedAt = now
	return nil
}

// CanBePurged reports whether the tenant may permanently remove this
// booking from their history (terminal statuses only).
func (b *Booking) CanBePurged() bool {
	return b.status.IsTerminal()
}

// BelongsTo reports whether the booking was requested by the given user.
func (b *Booking) BelongsTo(userID uuid.UUID) bool {
	return b.tenantID == userID
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
