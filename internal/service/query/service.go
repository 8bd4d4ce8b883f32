package query

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
)

type Config struct {
	ScheduleSummaryTTL time.Duration
	AvailabilityTTL    time.Duration
	SeatMapTTL         time.Duration
	DefaultSeatsPage   int
	MaxSeatsPage       int
}

type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.ScheduleSummaryTTL <= 0 {
		cfg.ScheduleSummaryTTL = 60 * time.Second
	}

	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 15 * time.Second
	}

	if cfg.SeatMapTTL <= 0 {
		cfg.SeatMapTTL = 15 * time.Second
	}

	if cfg.DefaultSeatsPage <= 0 {
		cfg.DefaultSeatsPage = 100
	}

	if cfg.MaxSeatsPage <= 0 {
		cfg.MaxSeatsPage = 500
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// GetSchedule retrieves a schedule through the cache layer.
//
// Returns:
//   - error: query.ErrScheduleNotFound if the schedule does not exist.
func (s *Service) GetSchedule(ctx context.Context, id int64) (*domain.Schedule, error) {
	const op = "service.query.GetSchedule"

	key := redisrepo.KeyScheduleSummary(id)

	sched, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.ScheduleSummaryTTL,
		func(ctx context.Context) (domain.Schedule, error) {
			sc, err := s.store.Schedules().Get(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Schedule{}, ErrScheduleNotFound
				}
				return domain.Schedule{}, err
			}
			return *sc, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &sched, nil
}

// CountsByStatus returns the cached per-status seat counters of a schedule.
func (s *Service) CountsByStatus(ctx context.Context, scheduleID int64) (*domain.ScheduleCounts, error) {
	const op = "service.query.CountsByStatus"

	key := redisrepo.KeyScheduleAvailability(scheduleID)

	counts, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.AvailabilityTTL,
		func(ctx context.Context) (domain.ScheduleCounts, error) {
			c, err := s.store.Schedules().CountsByStatus(ctx, scheduleID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.ScheduleCounts{}, ErrScheduleNotFound
				}
				return domain.ScheduleCounts{}, err
			}
			return *c, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &counts, nil
}

// ListScheduleSeats returns a page of a schedule's seat map. Only the full
// first page of the complete map goes through the cache; filtered and paged
// variants hit the store directly.
func (s *Service) ListScheduleSeats(
	ctx context.Context,
	scheduleID int64,
	onlyAvailable bool,
	limit, offset int,
) ([]domain.Seat, error) {
	const op = "service.query.ListScheduleSeats"

	if limit <= 0 {
		limit = s.cfg.DefaultSeatsPage
	}
	if limit > s.cfg.MaxSeatsPage {
		limit = s.cfg.MaxSeatsPage
	}
	if offset < 0 {
		offset = 0
	}

	if !onlyAvailable && offset == 0 && limit == s.cfg.DefaultSeatsPage {
		key := redisrepo.KeyScheduleSeatMap(scheduleID)
		seats, err := redisrepo.GetOrSetJSON(
			ctx,
			s.cache,
			key,
			s.cfg.SeatMapTTL,
			func(ctx context.Context) ([]domain.Seat, error) {
				return s.store.Schedules().ListSeats(ctx, scheduleID, false, limit, 0)
			},
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return seats, nil
	}

	seats, err := s.store.Schedules().ListSeats(ctx, scheduleID, onlyAvailable, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return seats, nil
}

// GetBooking retrieves a booking with its seat ids. Not cached: booking state
// is what the caller is polling for.
func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "service.query.GetBooking"

	b, err := s.store.Bookings().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrBookingNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

// ListUserBookings returns a page of the user's bookings, newest first.
func (s *Service) ListUserBookings(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	const op = "service.query.ListUserBookings"

	if limit <= 0 || limit > s.cfg.MaxSeatsPage {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	out, err := s.store.Bookings().ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
