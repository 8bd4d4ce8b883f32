package booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/queue"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/repository"
	postgresrepo "github.com/BlackAll2225/ZenoBus-sub000/internal/repository/postgres"
	redisrepo "github.com/BlackAll2225/ZenoBus-sub000/internal/repository/redis"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/uow"
)

// EventPublisher forwards committed booking transitions to the audit queue.
// May be nil when the broker is not configured.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error
}

type Service struct {
	store   *postgresrepo.Store
	cache   *redisrepo.Cache
	pubsub  *redisrepo.SchedulesPubSub
	limiter *redisrepo.SlidingWindowLimiter
	events  EventPublisher
	uow     *uow.UoW
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.SchedulesPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	events EventPublisher,
) *Service {
	return &Service{
		store:   store,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		events:  events,
		uow:     uow.NewUoW(store),
	}
}

type CreateBookingInput struct {
	ScheduleID    int64
	SeatIDs       []int64
	PickupStopID  *int64
	DropoffStopID *int64
	PaymentMethod domain.PaymentMethod
}

// CreateBooking reserves the requested seats and persists a pending booking,
// all inside one transaction: either the booking row exists and every seat is
// pending, or nothing changed.
//
// Returns:
//   - error: ErrScheduleNotFound / ErrScheduleNotBookable for schedule problems.
//   - error: *SeatsNotFoundError if any seat does not belong to the schedule.
//   - error: *SeatConflictError naming the conflicting seats.
//   - error: *RateLimitedError when the caller exceeded the booking rate.
func (s *Service) CreateBooking(
	ctx context.Context,
	actor domain.Actor,
	in CreateBookingInput,
	rlKey string,
) (*domain.Booking, error) {
	const op = "service.booking.CreateBooking"

	if len(in.SeatIDs) == 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrNoSeatsSelected)
	}

	if in.PaymentMethod != domain.PaymentGateway && in.PaymentMethod != domain.PaymentCash {
		return nil, fmt.Errorf("%s: unknown payment method %q", op, in.PaymentMethod)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s:%w", op, &RateLimitedError{RetryAfter: retry})
		}
	}

	now := time.Now()
	b := &domain.Booking{
		ID:            uuid.New(),
		UserID:        actor.UserID,
		ScheduleID:    in.ScheduleID,
		SeatIDs:       in.SeatIDs,
		PickupStopID:  in.PickupStopID,
		DropoffStopID: in.DropoffStopID,
		Status:        domain.BookingPending,
		PaymentMethod: in.PaymentMethod,
		BookedAt:      now,
	}

	if in.PaymentMethod == domain.PaymentGateway {
		oc := newOrderCode(now)
		b.OrderCode = &oc
	}

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		sched, err := s.store.Schedules().With(tx).Get(ctx, in.ScheduleID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrScheduleNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if !sched.Bookable(now) {
			return fmt.Errorf("%s:%w", op, ErrScheduleNotBookable)
		}

		seats, err := s.store.Seats().With(tx).TryReserve(ctx, in.ScheduleID, in.SeatIDs, now)
		if err != nil {
			var conflict *repository.SeatConflictError
			if errors.As(err, &conflict) {
				return fmt.Errorf("%s:%w", op, &SeatConflictError{SeatIDs: conflict.SeatIDs})
			}

			var missing *repository.SeatsNotFoundError
			if errors.As(err, &missing) {
				return fmt.Errorf("%s:%w", op, &SeatsNotFoundError{SeatIDs: missing.SeatIDs})
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		b.TotalPrice = TotalPrice(seats, sched.SeatPrice)

		if err := s.store.Bookings().With(tx).Create(ctx, b); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateSchedule(ctx, in.ScheduleID)
			_ = s.pubsub.PublishScheduleChanged(ctx, in.ScheduleID)
			s.publish(ctx, queue.NewBookingEvent(queue.TypeBookingCreated, b, ""))
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// CancelBooking transitions a booking to cancelled and releases its seats.
//
// Customers may cancel their own pending bookings; the sweeper and the
// gateway (RoleSystem) cancel pending bookings; admins may also cancel paid
// bookings, with an explicit reason.
//
// Returns:
//   - error: ErrBookingNotFound, ErrForbidden, ErrReasonRequired.
//   - error: *InvalidStateError naming the status blocking the cancel.
func (s *Service) CancelBooking(
	ctx context.Context,
	actor domain.Actor,
	bookingID uuid.UUID,
	reason string,
) (*domain.Booking, error) {
	const op = "service.booking.CancelBooking"

	if actor.Role == domain.RoleAdmin && reason == "" {
		return nil, fmt.Errorf("%s:%w", op, ErrReasonRequired)
	}
	if reason == "" {
		reason = "user-cancelled"
	}

	var out *domain.Booking

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		b, err := s.store.Bookings().With(tx).GetForUpdate(ctx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrBookingNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if actor.Role == domain.RoleCustomer && b.UserID != actor.UserID {
			return fmt.Errorf("%s:%w", op, ErrForbidden)
		}

		if !CanTransition(actor.Role, b.Status, domain.BookingCancelled) {
			return fmt.Errorf("%s:%w", op, &InvalidStateError{Current: b.Status})
		}

		now := time.Now()
		if err := s.store.Bookings().With(tx).
			MarkCancelled(ctx, bookingID, reason, now, cancellableFrom(actor.Role)); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.store.Seats().With(tx).Release(ctx, b.ScheduleID, b.SeatIDs); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		b.Status = domain.BookingCancelled
		b.CancelledAt = &now
		b.CancelReason = &reason
		out = b

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateSchedule(ctx, b.ScheduleID)
			_ = s.pubsub.PublishScheduleChanged(ctx, b.ScheduleID)
			s.publish(ctx, queue.NewBookingEvent(queue.TypeBookingCancelled, b, reason))
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// MarkPaid transitions a pending booking to paid and confirms its seats.
//
// Idempotent for duplicate gateway deliveries: a booking already paid under
// the same payment reference returns success without touching the seats.
// A paid event for a cancelled or completed booking is a conflict and
// surfaces ErrStaleConfirmation; it never re-activates the booking.
func (s *Service) MarkPaid(
	ctx context.Context,
	actor domain.Actor,
	bookingID uuid.UUID,
	paymentRequestID string,
) (*domain.Booking, error) {
	const op = "service.booking.MarkPaid"

	var out *domain.Booking

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		b, err := s.store.Bookings().With(tx).GetForUpdate(ctx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrBookingNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		switch b.Status {
		case domain.BookingPaid:
			if samePaymentRef(b.PaymentRequestID, paymentRequestID) {
				out = b
				return nil
			}
			return fmt.Errorf("%s:%w", op, ErrStaleConfirmation)

		case domain.BookingCancelled, domain.BookingCompleted:
			return fmt.Errorf("%s:%w", op, ErrStaleConfirmation)
		}

		if !CanTransition(actor.Role, b.Status, domain.BookingPaid) {
			return fmt.Errorf("%s:%w", op, ErrForbidden)
		}

		now := time.Now()
		var ref *string
		if paymentRequestID != "" {
			ref = &paymentRequestID
		}

		if err := s.store.Bookings().With(tx).MarkPaid(ctx, bookingID, ref, now); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.store.Seats().With(tx).Confirm(ctx, b.ScheduleID, b.SeatIDs); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		b.Status = domain.BookingPaid
		b.PaidAt = &now
		if ref != nil {
			b.PaymentRequestID = ref
		}
		out = b

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateSchedule(ctx, b.ScheduleID)
			_ = s.pubsub.PublishScheduleChanged(ctx, b.ScheduleID)
			s.publish(ctx, queue.NewBookingEvent(queue.TypeBookingConfirmed, b, ""))
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// CompleteSchedule marks a departed schedule completed and flips its paid
// bookings to completed. Pending and cancelled bookings are untouched.
func (s *Service) CompleteSchedule(ctx context.Context, scheduleID int64) (int64, error) {
	const op = "service.booking.CompleteSchedule"

	var completed int64

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		err := s.store.Admin().With(tx).
			SetScheduleStatus(ctx, scheduleID, domain.ScheduleScheduled, domain.ScheduleCompleted)
		if err != nil {
			if errors.Is(err, repository.ErrInvalidState) {
				return fmt.Errorf("%s:%w", op, ErrInvalidState)
			}
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrScheduleNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		completed, err = s.store.Bookings().With(tx).CompleteForSchedule(ctx, scheduleID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateSchedule(ctx, scheduleID)
			_ = s.pubsub.PublishScheduleChanged(ctx, scheduleID)
		})

		return nil
	})

	return completed, err
}

func (s *Service) publish(ctx context.Context, ev queue.BookingEvent) {
	if s.events == nil {
		return
	}
	_ = s.events.PublishBookingEvent(ctx, ev)
}

func samePaymentRef(stored *string, incoming string) bool {
	if incoming == "" {
		return true
	}
	return stored != nil && *stored == incoming
}

// newOrderCode derives a gateway order code that is unique enough for
// reconciliation: millisecond timestamp plus a random tail.
func newOrderCode(now time.Time) int64 {
	return now.UnixMilli()*1000 + rand.Int64N(1000)
}
