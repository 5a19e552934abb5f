package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unistay-housing/service-booking/internal/cache"
	bookingDomain "github.com/unistay-housing/service-booking/internal/domain/booking"
	listingDomain "github.com/unistay-housing/service-booking/internal/domain/listing"
	"github.com/unistay-housing/service-booking/pkg/auth"
	"github.com/unistay-housing/service-booking/pkg/domain"
	protoevents "github.com/unistay-housing/service-booking/pkg/events"
	"github.com/unistay-housing/service-booking/pkg/kafka"
)

// --- test doubles ---

type fakeBookingRepo struct {
	bookings map[uuid.UUID]*bookingDomain.Booking
	order    []uuid.UUID
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return bk, nil
}

func (r *fakeBookingRepo) FindByReference(_ context.Context, reference string) (*bookingDomain.Booking, error) {
	for _, bk := range r.bookings {
		if bk.Reference() == reference {
			return bk, nil
		}
	}
	return nil, domain.NewNotFoundError("Booking", reference)
}

func (r *fakeBookingRepo) FindByTenantID(_ context.Context, tenantID uuid.UUID, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	var out []*bookingDomain.Booking
	for _, id := range r.order {
		if r.bookings[id].TenantID() == tenantID {
			out = append(out, r.bookings[id])
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) FindActiveByTenantID(_ context.Context, tenantID uuid.UUID) (*bookingDomain.Booking, error) {
	for _, bk := range r.bookings {
		if bk.TenantID() == tenantID && bk.Status().IsActive() {
			return bk, nil
		}
	}
	return nil, nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	out := make([]*bookingDomain.Booking, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.bookings[id])
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.bookings[bk.ID()] = bk
	r.order = append(r.order, bk.ID())
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	if _, ok := r.bookings[bk.ID()]; !ok {
		return domain.NewNotFoundError("Booking", bk.ID().String())
	}
	r.bookings[bk.ID()] = bk
	return nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.bookings[id]; !ok {
		return domain.NewNotFoundError("Booking", id.String())
	}
	delete(r.bookings, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

type fakeDirectory struct {
	listings map[uuid.UUID]*listingDomain.Listing
}

func (d *fakeDirectory) FindByID(_ context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	lst, ok := d.listings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Listing", id.String())
	}
	return lst, nil
}

func (d *fakeDirectory) List(_ context.Context, _, _ int) ([]*listingDomain.Listing, int64, error) {
	out := make([]*listingDomain.Listing, 0, len(d.listings))
	for _, lst := range d.listings {
		out = append(out, lst)
	}
	return out, int64(len(out)), nil
}

type capturedEvent struct {
	Topic string
	Event kafka.CloudEvent
}

type capturePublisher struct {
	events []capturedEvent
}

func (p *capturePublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.events = append(p.events, capturedEvent{Topic: topic, Event: event})
	return nil
}

func (p *capturePublisher) lastEventType() string {
	if len(p.events) == 0 {
		return ""
	}
	return p.events[len(p.events)-1].Event.Type
}

// --- fixture ---

type serviceFixture struct {
	service   *BookingService
	repo      *fakeBookingRepo
	dir       *fakeDirectory
	publisher *capturePublisher
	redisMock redismock.ClientMock
	listingID uuid.UUID
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	listingID := uuid.New()
	dir := &fakeDirectory{listings: map[uuid.UUID]*listingDomain.Listing{
		listingID: listingDomain.Reconstruct(
			listingID,
			"Qwetu Wilson View",
			"Wilson Airport Rd, Nairobi",
			decimal.NewFromInt(20000),
			"Jane Agent",
			"0712345678",
			time.Now().UTC(),
		),
	}}

	client, redisMock := redismock.NewClientMock()
	// Cache failures are swallowed by the read-through layer, so tests
	// that do not assert cache traffic leave the mock unprimed.
	redisMock.MatchExpectationsInOrder(false)

	repo := newFakeBookingRepo()
	publisher := &capturePublisher{}
	service := NewBookingService(
		repo,
		dir,
		bookingDomain.NewHalfRentFeePolicy(),
		publisher,
		cache.NewStatsCache(client, time.Minute, zap.NewNop()),
		zap.NewNop(),
	)

	return &serviceFixture{
		service:   service,
		repo:      repo,
		dir:       dir,
		publisher: publisher,
		redisMock: redisMock,
		listingID: listingID,
	}
}

func (f *serviceFixture) createBooking(t *testing.T, tenantID uuid.UUID) *BookingDTO {
	t.Helper()
	dto, err := f.service.CreateBooking(context.Background(), tenantID, "tenant@example.com", CreateBookingRequest{
		ListingID:   f.listingID,
		MoveInDate:  time.Now().UTC().Add(30 * 24 * time.Hour),
		TenantCount: 1,
	})
	require.NoError(t, err)
	return dto
}

// --- tests ---

func TestCreateBooking(t *testing.T) {
	f := newServiceFixture(t)
	tenantID := uuid.New()

	dto := f.createBooking(t, tenantID)

	assert.Equal(t, string(bookingDomain.StatusAwaitingPayment), dto.Status)
	assert.True(t, dto.BookingFee.Equal(decimal.NewFromInt(10000)), "fee was %s", dto.BookingFee)
	assert.True(t, dto.TotalRent.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, "Qwetu Wilson View", dto.Listing.Name)
	assert.Equal(t, protoevents.BookingRequested, f.publisher.lastEventType())
}

func TestCreateBooking_SecondActiveBookingRejected(t *testing.T) {
	f := newServiceFixture(t)
	tenantID := uuid.New()
	f.createBooking(t, tenantID)

	_, err := f.service.CreateBooking(context.Background(), tenantID, "tenant@example.com", CreateBookingRequest{
		ListingID:   f.listingID,
		MoveInDate:  time.Now().UTC().Add(30 * 24 * time.Hour),
		TenantCount: 1,
	})

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConflict))
	assert.Contains(t, err.Error(), "Qwetu Wilson View")
	assert.Contains(t, err.Error(), string(bookingDomain.StatusAwaitingPayment))
}

func TestCreateBooking_AllowedAfterTerminalBooking(t *testing.T) {
	f := newServiceFixture(t)
	tenantID := uuid.New()
	first := f.createBooking(t, tenantID)

	_, err := f.service.CancelBooking(context.Background(), first.ID, tenantID)
	require.NoError(t, err)

	second := f.createBooking(t, tenantID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateBooking_UnknownListing(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.CreateBooking(context.Background(), uuid.New(), "tenant@example.com", CreateBookingRequest{
		ListingID:   uuid.New(),
		MoveInDate:  time.Now().UTC().Add(24 * time.Hour),
		TenantCount: 1,
	})

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeNotFound))
}

func TestConfirmPayment(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, uuid.New())

	updated, err := f.service.ConfirmPayment(context.Background(), dto.ID, "SBK12XYZ")
	require.NoError(t, err)

	assert.Equal(t, string(bookingDomain.StatusPendingAdmin), updated.Status)
	assert.NotNil(t, updated.PaymentConfirmedAt)
	assert.Equal(t, "SBK12XYZ", updated.PaymentReceipt)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, protoevents.BookingPaymentConfirmed, f.publisher.lastEventType())
}

func TestConfirmPaymentByReference(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, uuid.New())

	updated, err := f.service.ConfirmPaymentByReference(context.Background(), dto.Reference, "SBK12XYZ")
	require.NoError(t, err)
	assert.Equal(t, dto.ID, updated.ID)
	assert.Equal(t, string(bookingDomain.StatusPendingAdmin), updated.Status)
}

func TestApproveBooking(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, uuid.New())
	_, err := f.service.ConfirmPayment(context.Background(), dto.ID, "RCPT")
	require.NoError(t, err)

	updated, err := f.service.ApproveBooking(context.Background(), dto.ID, uuid.New(), auth.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, string(bookingDomain.StatusConfirmed), updated.Status)
	assert.NotNil(t, updated.AdminConfirmedAt)
	assert.Nil(t, updated.AdminRejectedAt)
}

func TestApproveBooking_NonAdminForbidden(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, uuid.New())

	_, err := f.service.ApproveBooking(context.Background(), dto.ID, uuid.New(), auth.RoleTenant)

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeForbidden))
}

func TestRejectBooking(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, uuid.New())

	updated, err := f.service.RejectBooking(context.Background(), dto.ID, uuid.New(), auth.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, string(bookingDomain.StatusRejected), updated.Status)
	assert.NotNil(t, updated.AdminRejectedAt)
}

func TestResetBooking(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, uuid.New())
	_, err := f.service.ConfirmPayment(context.Background(), dto.ID, "RCPT")
	require.NoError(t, err)
	_, err = f.service.ApproveBooking(context.Background(), dto.ID, uuid.New(), auth.RoleAdmin)
	require.NoError(t, err)

	updated, err := f.service.ResetBooking(context.Background(), dto.ID, uuid.New(), auth.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, string(bookingDomain.StatusPendingAdmin), updated.Status)
	assert.Nil(t, updated.AdminConfirmedAt)
	assert.Nil(t, updated.AdminRejectedAt)
	assert.NotNil(t, updated.PaymentConfirmedAt)
}

func TestCancelBooking_WrongTenantForbidden(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, uuid.New())

	_, err := f.service.CancelBooking(context.Background(), dto.ID, uuid.New())

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeForbidden))
}

func TestPurgeBooking(t *testing.T) {
	f := newServiceFixture(t)
	tenantID := uuid.New()
	dto := f.createBooking(t, tenantID)
	_, err := f.service.CancelBooking(context.Background(), dto.ID, tenantID)
	require.NoError(t, err)

	require.NoError(t, f.service.PurgeBooking(context.Background(), dto.ID, tenantID))

	_, err = f.service.GetBooking(context.Background(), dto.ID)
	assert.True(t, domain.IsType(err, domain.ErrorTypeNotFound))
}

func TestPurgeBooking_ActiveBookingRefused(t *testing.T) {
	f := newServiceFixture(t)
	tenantID := uuid.New()
	dto := f.createBooking(t, tenantID)

	err := f.service.PurgeBooking(context.Background(), dto.ID, tenantID)

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeInvalidState))
}

func TestPurgeBooking_ConfirmedBookingRefused(t *testing.T) {
	f := newServiceFixture(t)
	tenantID := uuid.New()
	dto := f.createBooking(t, tenantID)
	_, err := f.service.ConfirmPayment(context.Background(), dto.ID, "RCPT")
	require.NoError(t, err)
	_, err = f.service.ApproveBooking(context.Background(), dto.ID, uuid.New(), auth.RoleAdmin)
	require.NoError(t, err)

	err = f.service.PurgeBooking(context.Background(), dto.ID, tenantID)

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeInvalidState))
}

func TestDeleteBooking_AnyStatus(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, uuid.New())
	_, err := f.service.ConfirmPayment(context.Background(), dto.ID, "RCPT")
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteBooking(context.Background(), dto.ID))

	_, err = f.service.GetBooking(context.Background(), dto.ID)
	assert.True(t, domain.IsType(err, domain.ErrorTypeNotFound))
}

func TestGetTenantBookings(t *testing.T) {
	f := newServiceFixture(t)
	tenantID := uuid.New()
	f.createBooking(t, tenantID)

	result, err := f.service.GetTenantBookings(context.Background(), tenantID, 1, 20)
	require.NoError(t, err)

	assert.Len(t, result.Items, 1)
	assert.Equal(t, int64(1), result.Total)
}

func TestGetBookingStats_CacheMiss(t *testing.T) {
	f := newServiceFixture(t)
	f.createBooking(t, uuid.New())

	stats, err := f.service.GetBookingStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.ByStatus[string(bookingDomain.StatusAwaitingPayment)])
	// Every status is reported, with zeroes for empty buckets.
	assert.Len(t, stats.ByStatus, len(bookingDomain.AllStatuses))
	assert.Equal(t, int64(0), stats.ByStatus[string(bookingDomain.StatusConfirmed)])
}

func TestGetBookingStats_CacheHit(t *testing.T) {
	f := newServiceFixture(t)

	cached, err := json.Marshal(map[string]int64{
		string(bookingDomain.StatusConfirmed): 7,
	})
	require.NoError(t, err)
	f.redisMock.ExpectGet("bookings:stats:by_status").SetVal(string(cached))

	stats, err := f.service.GetBookingStats(context.Background())
	require.NoError(t, err)

	// Served from the cache: the repository holds no bookings.
	assert.Equal(t, int64(7), stats.TotalBookings)
	assert.Equal(t, int64(7), stats.ByStatus[string(bookingDomain.StatusConfirmed)])
}
