package listing

import (
	"context"

	"github.com/google/uuid"
)

// ListingDirectory is the read-only lookup the booking flow uses to
// snapshot a listing at request time.
type ListingDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	List(ctx context.Context, page, limit int) ([]*Listing, int64, error)
}
