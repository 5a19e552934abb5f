package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	bookingDomain "github.com/unistay-housing/service-booking/internal/domain/booking"
	paymentDomain "github.com/unistay-housing/service-booking/internal/domain/payment"
	"github.com/unistay-housing/service-booking/pkg/domain"
	protoevents "github.com/unistay-housing/service-booking/pkg/events"
	"github.com/unistay-housing/service-booking/pkg/kafka"
)

// EventPublisher abstracts the Kafka producer for testability.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// C2BNotification is the payment notification Safaricom posts to the
// registered confirmation URL.
type C2BNotification struct {
	TransactionType string `json:"TransactionType"`
	TransID         string `json:"TransID"`
	TransTime       string `json:"TransTime"`
	TransAmount     string `json:"TransAmount"`
	BillRefNumber   string `json:"BillRefNumber"`
	MSISDN          string `json:"MSISDN"`
	FirstName       string `json:"FirstName"`
}

// Gate sits between the booking engine and M-Pesa. It initiates STK
// pushes for reservation fees and turns inbound C2B notifications into
// payment events on the bus.
type Gate struct {
	mpesa     *MpesaClient
	receipts  paymentDomain.ReceiptRepository
	bookings  bookingDomain.BookingRepository
	publisher EventPublisher
	logger    *zap.Logger
}

// NewGate creates a new payment Gate.
func NewGate(
	mpesa *MpesaClient,
	receipts paymentDomain.ReceiptRepository,
	bookings bookingDomain.BookingRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) *Gate {
	return &Gate{
		mpesa:     mpesa,
		receipts:  receipts,
		bookings:  bookings,
		publisher: publisher,
		logger:    logger,
	}
}

// InitiatePayment starts an STK push for the booking's reservation fee.
// Only the booking's tenant can pay, and only while payment is pending.
func (g *Gate) InitiatePayment(ctx context.Context, bookingID, tenantID uuid.UUID, phone string) (*STKPushResponse, error) {
	bk, err := g.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !bk.BelongsTo(tenantID) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}

	if !bk.Status().AwaitsPayment() {
		return nil, domain.NewConflictError(fmt.Sprintf(
			"booking is not awaiting payment (status: %s)", bk.Status(),
		))
	}

	return g.mpesa.InitiateSTKPush(ctx, phone, bk.BookingFee(), bk.Reference(), "Booking Payment")
}

// HandleNotification records an inbound C2B payment and publishes a
// payment received event. Duplicate notifications for the same TransID
// are acknowledged without effect. The caller always replies to
// Safaricom with ResultCode 0, whatever this returns.
func (g *Gate) HandleNotification(ctx context.Context, raw json.RawMessage) error {
	var note C2BNotification
	if err := json.Unmarshal(raw, &note); err != nil {
		return fmt.Errorf("failed to parse C2B notification: %w", err)
	}
	if note.TransID == "" {
		return fmt.Errorf("C2B notification missing TransID")
	}

	existing, err := g.receipts.FindByTransID(ctx, note.TransID)
	if err != nil && !domain.IsType(err, domain.ErrorTypeNotFound) {
		return err
	}
	if existing != nil {
		g.logger.Info("duplicate payment notification ignored",
			zap.String("trans_id", note.TransID),
		)
		return nil
	}

	amount, err := decimal.NewFromString(note.TransAmount)
	if err != nil {
		return fmt.Errorf("invalid TransAmount %q: %w", note.TransAmount, err)
	}

	// Notifications for unknown references are still recorded so the
	// money trail survives reconciliation.
	var bookingID uuid.UUID
	if bk, err := g.bookings.FindByReference(ctx, note.BillRefNumber); err == nil {
		bookingID = bk.ID()
	} else {
		g.logger.Warn("payment notification for unknown booking reference",
			zap.String("bill_ref", note.BillRefNumber),
			zap.String("trans_id", note.TransID),
		)
	}

	rcpt, err := paymentDomain.NewReceipt(note.TransID, note.BillRefNumber, bookingID, amount, note.MSISDN, raw)
	if err != nil {
		return err
	}
	if err := g.receipts.Save(ctx, rcpt); err != nil {
		return fmt.Errorf("failed to save receipt: %w", err)
	}

	if bookingID == uuid.Nil {
		return nil
	}

	evt := protoevents.PaymentReceivedEvent{
		TransID:    note.TransID,
		BookingID:  bookingID,
		Reference:  note.BillRefNumber,
		Amount:     amount,
		MSISDN:     note.MSISDN,
		OccurredAt: time.Now().UTC(),
	}

	cloudEvent, err := kafka.NewCloudEvent("service-booking", protoevents.PaymentReceived, evt)
	if err != nil {
		return fmt.Errorf("failed to create payment event: %w", err)
	}
	if err := g.publisher.PublishEvent(ctx, protoevents.TopicPaymentEvents, cloudEvent); err != nil {
		return fmt.Errorf("failed to publish payment event: %w", err)
	}

	g.logger.Info("payment notification recorded",
		zap.String("trans_id", note.TransID),
		zap.String("bill_ref", note.BillRefNumber),
		zap.String("amount", amount.String()),
	)
	return nil
}
