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

	bookingDomain "github.com/unistay-housing/service-booking/internal/domain/booking"
	"github.com/unistay-housing/service-booking/pkg/domain"
)

// activeStatuses are the statuses that block a tenant from opening
// another booking.
var activeStatuses = []string{
	string(bookingDomain.StatusPending),
	string(bookingDomain.StatusAwaitingPayment),
	string(bookingDomain.StatusPendingAdmin),
	string(bookingDomain.StatusConfirmed),
}

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Reference          string          `gorm:"uniqueIndex;not null;size:20"`
	TenantID           uuid.UUID       `gorm:"type:uuid;index;not null"`
	TenantEmail        string          `gorm:"not null;size:255"`
	ListingSnapshot    json.RawMessage `gorm:"type:jsonb;not null"`
	MoveInDate         time.Time       `gorm:"not null"`
	TenantCount        int             `gorm:"not null"`
	BookingFee         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalRent          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status             string          `gorm:"not null;size:40;index"`
	RequestedAt        time.Time       `gorm:"not null;index"`
	PaymentConfirmedAt *time.Time      `gorm:""`
	PaymentReceipt     string          `gorm:"size:50"`
	AdminConfirmedAt   *time.Time      `gorm:""`
	AdminRejectedAt    *time.Time      `gorm:""`
	UserCancelledAt    *time.Time      `gorm:""`
	Version            int64           `gorm:"not null;default:1"`
	UpdatedAt          time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of
// BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByReference retrieves a booking by its human-readable reference.
func (r *GormBookingRepository) FindByReference(ctx context.Context, reference string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", reference)
		}
		return nil, fmt.Errorf("failed to find booking by reference: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByTenantID retrieves a tenant's bookings, newest request first.
func (r *GormBookingRepository) FindByTenantID(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("tenant_id = ?", tenantID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tenant bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("requested_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find tenant bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// FindActiveByTenantID returns the tenant's non-terminal booking, or nil.
func (r *GormBookingRepository) FindActiveByTenantID(ctx context.Context, tenantID uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status IN ?", tenantID, activeStatuses).
		Order("requested_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active booking: %w", err)
	}
	return toDomainBooking(&model)
}

// ListAll retrieves all bookings, newest request first (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("requested_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking. The write is guarded
// by the pre-increment version so interleaved writers lose cleanly
// instead of overwriting each other.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":               model.Status,
			"payment_confirmed_at": model.PaymentConfirmedAt,
			"payment_receipt":      model.PaymentReceipt,
			"admin_confirmed_at":   model.AdminConfirmedAt,
			"admin_rejected_at":    model.AdminRejectedAt,
			"user_cancelled_at":    model.UserCancelledAt,
			"version":              model.Version,
			"updated_at":           model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConcurrentModificationError("booking was modified by another transaction")
	}

	return nil
}

// Delete permanently removes a booking.
func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&BookingModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Booking", id.String())
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	snapshotJSON, err := json.Marshal(bk.Listing())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal listing snapshot: %w", err)
	}

	return &BookingModel{
		ID:                 bk.ID(),
		Reference:          bk.Reference(),
		TenantID:           bk.TenantID(),
		TenantEmail:        bk.TenantEmail(),
		ListingSnapshot:    snapshotJSON,
		MoveInDate:         bk.MoveInDate(),
		TenantCount:        bk.TenantCount(),
		BookingFee:         bk.BookingFee(),
		TotalRent:          bk.TotalRent(),
		Status:             string(bk.Status()),
		RequestedAt:        bk.RequestedAt(),
		PaymentConfirmedAt: bk.PaymentConfirmedAt(),
		PaymentReceipt:     bk.PaymentReceipt(),
		AdminConfirmedAt:   bk.AdminConfirmedAt(),
		AdminRejectedAt:    bk.AdminRejectedAt(),
		UserCancelledAt:    bk.UserCancelledAt(),
		Version:            bk.Version(),
		UpdatedAt:          bk.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var snapshot bookingDomain.ListingSnapshot
	if err := json.Unmarshal(m.ListingSnapshot, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal listing snapshot: %w", err)
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.Reference,
		m.TenantID,
		m.TenantEmail,
		snapshot,
		m.MoveInDate,
		m.TenantCount,
		m.BookingFee,
		m.TotalRent,
		status,
		m.RequestedAt,
		m.PaymentConfirmedAt,
		m.PaymentReceipt,
		m.AdminConfirmedAt,
		m.AdminRejectedAt,
		m.UserCancelledAt,
		m.Version,
		m.UpdatedAt,
	), nil
}
