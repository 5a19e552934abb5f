package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/unistay-housing/service-booking/internal/cache"
	bookingDomain "github.com/unistay-housing/service-booking/internal/domain/booking"
	listingDomain "github.com/unistay-housing/service-booking/internal/domain/listing"
	"github.com/unistay-housing/service-booking/pkg/auth"
	"github.com/unistay-housing/service-booking/pkg/domain"
	"github.com/unistay-housing/service-booking/pkg/events"
	"github.com/unistay-housing/service-booking/pkg/kafka"
)

// EventPublisher abstracts the Kafka producer for testability.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ListingID   uuid.UUID `json:"listing_id" binding:"required"`
	MoveInDate  time.Time `json:"move_in_date" binding:"required"`
	TenantCount int       `json:"tenant_count" binding:"required"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                 uuid.UUID                     `json:"id"`
	Reference          string                        `json:"reference"`
	TenantID           uuid.UUID                     `json:"tenant_id"`
	TenantEmail        string                        `json:"tenant_email"`
	Listing            bookingDomain.ListingSnapshot `json:"listing"`
	MoveInDate         time.Time                     `json:"move_in_date"`
	TenantCount        int                           `json:"tenant_count"`
	BookingFee         decimal.Decimal               `json:"booking_fee"`
	TotalRent          decimal.Decimal               `json:"total_rent"`
	Currency           string                        `json:"currency"`
	Status             string                        `json:"status"`
	RequestedAt        time.Time                     `json:"requested_at"`
	PaymentConfirmedAt *time.Time                    `json:"payment_confirmed_at,omitempty"`
	PaymentReceipt     string                        `json:"payment_receipt,omitempty"`
	AdminConfirmedAt   *time.Time                    `json:"admin_confirmed_at,omitempty"`
	AdminRejectedAt    *time.Time                    `json:"admin_rejected_at,omitempty"`
	UserCancelledAt    *time.Time                    `json:"user_cancelled_at,omitempty"`
	Version            int64                         `json:"version"`
	UpdatedAt          time.Time                     `json:"updated_at"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	listings  listingDomain.ListingDirectory
	fees      bookingDomain.FeePolicy
	publisher EventPublisher
	stats     *cache.StatsCache
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	listings listingDomain.ListingDirectory,
	fees bookingDomain.FeePolicy,
	publisher EventPublisher,
	stats *cache.StatsCache,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:      repo,
		listings:  listings,
		fees:      fees,
		publisher: publisher,
		stats:     stats,
		logger:    logger,
	}
}

// CreateBooking creates a new booking for the given tenant. A tenant may
// hold at most one booking that is not cancelled or rejected.
func (s *BookingService) CreateBooking(ctx context.Context, tenantID uuid.UUID, tenantEmail string, req CreateBookingRequest) (*BookingDTO, error) {
	active, err := s.repo.FindActiveByTenantID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active bookings: %w", err)
	}
	if active != nil {
		return nil, domain.NewConflictError(fmt.Sprintf(
			"you already have an active booking for %s (status: %s)",
			active.Listing().Name, active.Status(),
		))
	}

	lst, err := s.listings.FindByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}

	// Snapshot the listing so later edits never alter existing bookings.
	snapshot := bookingDomain.ListingSnapshot{
		ListingID:  lst.ID(),
		Name:       lst.Name(),
		Address:    lst.Address(),
		Rent:       lst.Rent(),
		AgentName:  lst.AgentName(),
		AgentPhone: lst.AgentPhone(),
	}

	fee, err := s.fees.Fee(snapshot.Rent)
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("fee calculation error: %v", err))
	}

	bk, err := bookingDomain.NewBooking(
		tenantID,
		tenantEmail,
		snapshot,
		req.MoveInDate,
		req.TenantCount,
		fee,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.stats.Invalidate(ctx)
	s.publishBookingRequested(ctx, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// ConfirmPayment records the reservation fee payment and moves the booking
// into the admin confirmation queue.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, receipt string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := bk.ConfirmPayment(receipt); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.stats.Invalidate(ctx)

	evt := events.BookingPaymentConfirmedEvent{
		BookingID:  bk.ID(),
		Reference:  bk.Reference(),
		TenantID:   bk.TenantID(),
		Receipt:    receipt,
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingPaymentConfirmed, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// ConfirmPaymentByReference is the same transition keyed by the short
// booking reference carried in payment notifications.
func (s *BookingService) ConfirmPaymentByReference(ctx context.Context, reference, receipt string) (*BookingDTO, error) {
	bk, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.ConfirmPayment(ctx, bk.ID(), receipt)
}

// ApproveBooking confirms a booking on behalf of an admin.
func (s *BookingService) ApproveBooking(ctx context.Context, bookingID, adminID uuid.UUID, role string) (*BookingDTO, error) {
	return s.review(ctx, bookingID, adminID, role, func(bk *bookingDomain.Booking) error {
		return bk.Approve()
	}, events.BookingConfirmed)
}

// RejectBooking rejects a booking on behalf of an admin.
func (s *BookingService) RejectBooking(ctx context.Context, bookingID, adminID uuid.UUID, role string) (*BookingDTO, error) {
	return s.review(ctx, bookingID, adminID, role, func(bk *bookingDomain.Booking) error {
		return bk.Reject()
	}, events.BookingRejected)
}

// ResetBooking returns a confirmed or rejected booking to the admin queue.
func (s *BookingService) ResetBooking(ctx context.Context, bookingID, adminID uuid.UUID, role string) (*BookingDTO, error) {
	return s.review(ctx, bookingID, adminID, role, func(bk *bookingDomain.Booking) error {
		return bk.Reset()
	}, events.BookingReset)
}

func (s *BookingService) review(
	ctx context.Context,
	bookingID, adminID uuid.UUID,
	role string,
	apply func(*bookingDomain.Booking) error,
	eventType string,
) (*BookingDTO, error) {
	if role != auth.RoleAdmin {
		return nil, domain.NewForbiddenError("admin role required")
	}

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := apply(bk); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.stats.Invalidate(ctx)

	evt := events.BookingReviewedEvent{
		BookingID:  bk.ID(),
		Reference:  bk.Reference(),
		TenantID:   bk.TenantID(),
		AdminID:    adminID,
		Status:     string(bk.Status()),
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, eventType, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a tenant's own booking before it is confirmed.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, tenantID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !bk.BelongsTo(tenantID) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}

	if err := bk.Cancel(); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.stats.Invalidate(ctx)

	evt := events.BookingCancelledEvent{
		BookingID:  bk.ID(),
		Reference:  bk.Reference(),
		TenantID:   bk.TenantID(),
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// PurgeBooking removes a tenant's own terminal booking from their history.
func (s *BookingService) PurgeBooking(ctx context.Context, bookingID, tenantID uuid.UUID) error {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if !bk.BelongsTo(tenantID) {
		return domain.NewForbiddenError("booking does not belong to this user")
	}

	if !bk.CanBePurged() {
		return &domain.Error{
			Type:    domain.ErrorTypeInvalidState,
			Message: "only cancelled or rejected bookings can be removed",
		}
	}

	if err := s.repo.Delete(ctx, bookingID); err != nil {
		return err
	}

	s.stats.Invalidate(ctx)
	return nil
}

// DeleteBooking removes a booking in any status (admin).
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID uuid.UUID) error {
	if err := s.repo.Delete(ctx, bookingID); err != nil {
		return err
	}
	s.stats.Invalidate(ctx)
	return nil
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetTenantBookings retrieves paginated bookings for a specific tenant.
func (s *BookingService) GetTenantBookings(ctx context.Context, tenantID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByTenantID(ctx, tenantID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, total, nil
}

// GetBookingStats returns aggregate booking statistics (admin). The counts
// are served from the cache when fresh and recomputed from the database
// otherwise; every status appears with at least a zero count.
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, ok := s.stats.Get(ctx)
	if !ok {
		var err error
		counts, err = s.repo.CountByStatus(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get booking stats: %w", err)
		}
		s.stats.Set(ctx, counts)
	}

	byStatus := make(map[string]int64, len(bookingDomain.AllStatuses))
	var total int64
	for _, st := range bookingDomain.AllStatuses {
		c := counts[string(st)]
		byStatus[string(st)] = c
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      byStatus,
	}, nil
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:                 bk.ID(),
		Reference:          bk.Reference(),
		TenantID:           bk.TenantID(),
		TenantEmail:        bk.TenantEmail(),
		Listing:            bk.Listing(),
		MoveInDate:         bk.MoveInDate(),
		TenantCount:        bk.TenantCount(),
		BookingFee:         bk.BookingFee(),
		TotalRent:          bk.TotalRent(),
		Currency:           domain.CurrencyKES,
		Status:             string(bk.Status()),
		RequestedAt:        bk.RequestedAt(),
		PaymentConfirmedAt: bk.PaymentConfirmedAt(),
		PaymentReceipt:     bk.PaymentReceipt(),
		AdminConfirmedAt:   bk.AdminConfirmedAt(),
		AdminRejectedAt:    bk.AdminRejectedAt(),
		UserCancelledAt:    bk.UserCancelledAt(),
		Version:            bk.Version(),
		UpdatedAt:          bk.UpdatedAt(),
	}
}

func (s *BookingService) publishBookingRequested(ctx context.Context, bk *bookingDomain.Booking) {
	evt := events.BookingRequestedEvent{
		BookingID:   bk.ID(),
		Reference:   bk.Reference(),
		TenantID:    bk.TenantID(),
		ListingID:   bk.Listing().ListingID,
		ListingName: bk.Listing().Name,
		BookingFee:  bk.BookingFee(),
		Currency:    domain.CurrencyKES,
		OccurredAt:  time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingRequested, evt)
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent("service-booking", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
