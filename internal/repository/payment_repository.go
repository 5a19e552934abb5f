package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	paymentDomain "github.com/unistay-housing/service-booking/internal/domain/payment"
	"github.com/unistay-housing/service-booking/pkg/domain"
)

// PaymentModel is the GORM model for the payments table.
type PaymentModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TransID    string          `gorm:"uniqueIndex;not null;size:30"`
	BookingRef string          `gorm:"index;size:20"`
	BookingID  uuid.UUID       `gorm:"type:uuid;index"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	MSISDN     string          `gorm:"size:15"`
	ReceivedAt time.Time       `gorm:"not null"`
	Raw        json.RawMessage `gorm:"type:jsonb"`
}

// TableName returns the table name for the GORM model.
func (PaymentModel) TableName() string {
	return "payments"
}

// GormReceiptRepository is the GORM-based implementation of
// ReceiptRepository.
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository.
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// Save persists a payment receipt.
func (r *GormReceiptRepository) Save(ctx context.Context, receipt *paymentDomain.Receipt) error {
	model := &PaymentModel{
		ID:         receipt.ID(),
		TransID:    receipt.TransID(),
		BookingRef: receipt.BookingRef(),
		BookingID:  receipt.BookingID(),
		Amount:     receipt.Amount(),
		MSISDN:     receipt.MSISDN(),
		ReceivedAt: receipt.ReceivedAt(),
		Raw:        receipt.Raw(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save payment receipt: %w", err)
	}
	return nil
}

// FindByTransID retrieves a receipt by M-Pesa transaction ID.
func (r *GormReceiptRepository) FindByTransID(ctx context.Context, transID string) (*paymentDomain.Receipt, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("trans_id = ?", transID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Payment", transID)
		}
		return nil, fmt.Errorf("failed to find payment by transaction ID: %w", err)
	}
	return toDomainReceipt(&model), nil
}

// FindByBookingID retrieves all receipts recorded for a booking.
func (r *GormReceiptRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*paymentDomain.Receipt, error) {
	var models []PaymentModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("received_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find payments for booking: %w", err)
	}

	receipts := make([]*paymentDomain.Receipt, len(models))
	for i, m := range models {
		receipts[i] = toDomainReceipt(&m)
	}
	return receipts, nil
}

func toDomainReceipt(m *PaymentModel) *paymentDomain.Receipt {
	return paymentDomain.Reconstruct(
		m.ID,
		m.TransID,
		m.BookingRef,
		m.BookingID,
		m.Amount,
		m.MSISDN,
		m.ReceivedAt,
		m.Raw,
	)
}
