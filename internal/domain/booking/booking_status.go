package booking

import "fmt"

// BookingStatus represents the current state of a booking request in its
// lifecycle.
type BookingStatus string

const (
	// StatusPending is a legacy initial state. The creation path no longer
	// produces it, but records in this state still exist and every guard
	// that accepts StatusAwaitingPayment accepts it too.
	StatusPending BookingStatus = "pending"

	StatusAwaitingPayment BookingStatus = "awaiting_manual_payment"
	StatusPendingAdmin    BookingStatus = "pending_admin_confirmation"
	StatusConfirmed       BookingStatus = "confirmed"
	StatusRejected        BookingStatus = "rejected"
	StatusCancelled       BookingStatus = "cancelled"
)

// AllStatuses lists every status in reporting order. Dashboards iterate
// this slice so counts always come out in the same order.
var AllStatuses = []BookingStatus{
	StatusPending,
	StatusAwaitingPayment,
	StatusPendingAdmin,
	StatusConfirmed,
	StatusRejected,
	StatusCancelled,
}

// validTransitions defines the state machine for booking status
// transitions. Payment confirmation moves a request into the admin
// queue; admins may also approve or reject before payment is confirmed.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:         {StatusPendingAdmin, StatusConfirmed, StatusRejected, StatusCancelled},
	StatusAwaitingPayment: {StatusPendingAdmin, StatusConfirmed, StatusRejected, StatusCancelled},
	StatusPendingAdmin:    {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed:       {StatusPendingAdmin},
	StatusRejected:        {StatusPendingAdmin},
	StatusCancelled:       {},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the
// target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true for rejected and cancelled bookings. Note that
// rejected still accepts an admin reset back to the review queue, so
// terminality cannot be derived from the transition table.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// IsActive returns true while the booking blocks the requester from
// opening another one.
func (s BookingStatus) IsActive() bool {
	return s.IsValid() && !s.IsTerminal()
}

// AwaitsPayment returns true while the reservation fee has not been
// confirmed.
func (s BookingStatus) AwaitsPayment() bool {
	return s == StatusPending || s == StatusAwaitingPayment
}

// IsReviewable returns true if an admin may approve or reject from this
// status.
func (s BookingStatus) IsReviewable() bool {
	return s == StatusPending || s == StatusAwaitingPayment || s == StatusPendingAdmin
}

// CanBeCancelled returns true if the tenant may still cancel from this
// status. Confirmed bookings cannot be cancelled by the tenant.
func (s BookingStatus) CanBeCancelled() bool {
	return s == StatusPending || s == StatusAwaitingPayment || s == StatusPendingAdmin
}

// CanBeReset returns true if an admin may return this booking to the
// review queue.
func (s BookingStatus) CanBeReset() bool {
	return s == StatusConfirmed || s == StatusRejected
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an
// error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}
