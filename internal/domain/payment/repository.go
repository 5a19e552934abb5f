package payment

import (
	"context"

	"github.com/google/uuid"
)

// ReceiptRepository defines persistence operations for payment receipts.
type ReceiptRepository interface {
	Save(ctx context.Context, receipt *Receipt) error
	FindByTransID(ctx context.Context, transID string) (*Receipt, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Receipt, error)
}
