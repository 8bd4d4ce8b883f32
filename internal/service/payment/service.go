package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/repository"
	postgresrepo "github.com/BlackAll2225/ZenoBus-sub000/internal/repository/postgres"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/booking"
)

// Gateway statuses this adapter understands.
const (
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
	StatusExpired   = "EXPIRED"
)

type WebhookData struct {
	OrderCode        int64  `json:"orderCode"`
	Status           string `json:"status"`
	PaymentRequestID string `json:"paymentRequestId"`
}

type WebhookPayload struct {
	Data      WebhookData `json:"data"`
	Signature string      `json:"signature"`
}

type Config struct {
	ChecksumKey string
}

// Service bridges asynchronous gateway notifications to the booking
// lifecycle. It owns no state transitions itself: every mutation goes
// through the booking service's transactional operations, which are
// idempotent, so the webhook and the browser return callback may arrive in
// either order, twice, or not at all.
type Service struct {
	store    *postgresrepo.Store
	bookings *booking.Service
	cfg      Config
}

func New(store *postgresrepo.Store, bookings *booking.Service, cfg Config) *Service {
	return &Service{
		store:    store,
		bookings: bookings,
		cfg:      cfg,
	}
}

// HandleWebhook verifies the payload signature and applies the reported
// status. The signature check fails closed: nothing is looked up, nothing is
// mutated on a mismatch.
//
// Returns:
//   - error: ErrInvalidSignature on checksum mismatch.
//   - error: ErrOrderNotFound when no booking matches the order code.
//   - error: booking.ErrStaleConfirmation for PAID on a non-pending booking.
//   - error: ErrUnknownStatus for statuses outside the gateway contract.
func (s *Service) HandleWebhook(ctx context.Context, p WebhookPayload) error {
	const op = "service.payment.HandleWebhook"

	if !Verify(s.cfg.ChecksumKey, signatureData(p.Data), p.Signature) {
		return fmt.Errorf("%s:%w", op, ErrInvalidSignature)
	}

	if err := s.apply(ctx, p.Data.OrderCode, p.Data.Status, p.Data.PaymentRequestID); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// HandleReturnCallback is the synchronous browser-redirect path. It is
// best-effort UX: the webhook remains authoritative, and the operations
// behind both are idempotent, so applying here is safe regardless of whether
// the webhook already ran.
func (s *Service) HandleReturnCallback(
	ctx context.Context,
	orderCode int64,
	status string,
	paymentRequestID string,
) error {
	const op = "service.payment.HandleReturnCallback"

	if err := s.apply(ctx, orderCode, status, paymentRequestID); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Service) apply(ctx context.Context, orderCode int64, status, paymentRequestID string) error {
	b, err := s.store.Bookings().GetByOrderCode(ctx, orderCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	switch strings.ToUpper(status) {
	case StatusPaid:
		_, err := s.bookings.MarkPaid(ctx, domain.SystemActor, b.ID, paymentRequestID)
		return err

	case StatusCancelled, StatusExpired:
		_, err := s.bookings.CancelBooking(ctx, domain.SystemActor, b.ID, "gateway-cancelled")
		if err != nil {
			// A cancel that races the sweeper, or a duplicate delivery, finds
			// the booking already cancelled. Same end state, nothing to do.
			var ise *booking.InvalidStateError
			if errors.As(err, &ise) && ise.Current == domain.BookingCancelled {
				return nil
			}
		}
		return err

	default:
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
}

func signatureData(d WebhookData) map[string]string {
	return map[string]string{
		"orderCode":        strconv.FormatInt(d.OrderCode, 10),
		"paymentRequestId": d.PaymentRequestID,
		"status":           d.Status,
	}
}
