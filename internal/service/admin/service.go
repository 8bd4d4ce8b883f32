package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/repository"
	postgresrepo "github.com/BlackAll2225/ZenoBus-sub000/internal/repository/postgres"
	redisrepo "github.com/BlackAll2225/ZenoBus-sub000/internal/repository/redis"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/booking"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/uow"
)

// Service is the privileged surface: schedule and seat administration plus
// the booking overrides. Overrides relax who may call a transition and from
// which status, but still run through the booking service's transactional
// operations, never around the seat ledger.
type Service struct {
	store    *postgresrepo.Store
	cache    *redisrepo.Cache
	pubsub   *redisrepo.SchedulesPubSub
	bookings *booking.Service
	uow      *uow.UoW
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.SchedulesPubSub,
	bookings *booking.Service,
) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		pubsub:   pubsub,
		bookings: bookings,
		uow:      uow.NewUoW(store),
	}
}

type SeatLayout struct {
	SeatNumber    string
	Floor         domain.Floor
	PriceOverride *int64
}

// CreateSchedule creates a schedule and initializes its seat layout in one
// transaction.
func (s *Service) CreateSchedule(
	ctx context.Context,
	routeID, busID, driverID int64,
	departureAt time.Time,
	seatPrice int64,
	layout []SeatLayout,
) (int64, error) {
	const op = "service.admin.CreateSchedule"

	var id int64

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		var err error
		id, err = s.store.Admin().With(tx).
			CreateSchedule(ctx, routeID, busID, driverID, departureAt, seatPrice)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrScheduleConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		seats := make([]domain.Seat, 0, len(layout))
		for _, l := range layout {
			seats = append(seats, domain.Seat{
				ScheduleID:    id,
				SeatNumber:    l.SeatNumber,
				Floor:         l.Floor,
				PriceOverride: l.PriceOverride,
			})
		}

		if len(seats) > 0 {
			if err := s.store.Admin().With(tx).BatchCreateSeats(ctx, id, seats); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		return nil
	})

	return id, err
}

// SetScheduleEnabled toggles whether a schedule accepts new bookings.
// Existing bookings are untouched; a disabled schedule simply stops being
// bookable.
func (s *Service) SetScheduleEnabled(ctx context.Context, scheduleID int64, enabled bool) error {
	const op = "service.admin.SetScheduleEnabled"

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Admin().With(tx).SetScheduleEnabled(ctx, scheduleID, enabled); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrScheduleNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateSchedule(ctx, scheduleID)
			_ = s.pubsub.PublishScheduleChanged(ctx, scheduleID)
		})

		return nil
	})

	return err
}

// SetSeatBlocked blocks or unblocks one seat. A seat under a live booking
// cannot be blocked; the booking owns it until it resolves.
func (s *Service) SetSeatBlocked(ctx context.Context, seatID int64, blocked bool) error {
	const op = "service.admin.SetSeatBlocked"

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		scheduleID, err := s.store.Seats().With(tx).SetBlocked(ctx, seatID, blocked)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, ErrSeatNotFound)
			}
			if errors.Is(err, repository.ErrInvalidState) {
				return fmt.Errorf("%s: %w", op, ErrSeatInUse)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateSchedule(ctx, scheduleID)
			_ = s.pubsub.PublishScheduleChanged(ctx, scheduleID)
		})

		return nil
	})

	return err
}

// ForceMarkPaid records an out-of-band payment (cash at the counter) for a
// pending booking.
func (s *Service) ForceMarkPaid(ctx context.Context, actor domain.Actor, bookingID uuid.UUID) (*domain.Booking, error) {
	return s.bookings.MarkPaid(ctx, actor, bookingID, "")
}

// ForceCancel cancels a pending or paid booking with an explicit reason
// (refund narrative lives in the reason).
func (s *Service) ForceCancel(ctx context.Context, actor domain.Actor, bookingID uuid.UUID, reason string) (*domain.Booking, error) {
	return s.bookings.CancelBooking(ctx, actor, bookingID, reason)
}

// CompleteSchedule closes out a departed schedule.
func (s *Service) CompleteSchedule(ctx context.Context, scheduleID int64) (int64, error) {
	return s.bookings.CompleteSchedule(ctx, scheduleID)
}
