package booking

import (
	"context"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking
// aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByReference retrieves a booking by its human-readable reference.
	FindByReference(ctx context.Context, reference string) (*Booking, error)

	// FindByTenantID retrieves a tenant's bookings, newest request first,
	// with pagination.
	FindByTenantID(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindActiveByTenantID returns the tenant's booking in a non-terminal
	// status, or nil when every booking is resolved. At most one such
	// booking exists per tenant.
	FindActiveByTenantID(ctx context.Context, tenantID uuid.UUID) (*Booking, error)

	// ListAll retrieves all bookings, newest request first, with
	// pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic
	// locking.
	Update(ctx context.Context, booking *Booking) error

	// Delete permanently removes a booking.
	Delete(ctx context.Context, id uuid.UUID) error
}
