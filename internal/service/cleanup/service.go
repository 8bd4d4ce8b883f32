package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
	postgresrepo "github.com/BlackAll2225/ZenoBus-sub000/internal/repository/postgres"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/booking"
)

type Config struct {
	// PendingTimeout is how long a booking may sit in pending before the
	// sweeper cancels it and releases its seats.
	PendingTimeout time.Duration
	// ExpiringSoonAfter is the age at which a pending booking counts as
	// expiring soon in the stats.
	ExpiringSoonAfter time.Duration
	SweepInterval     time.Duration
	BatchLimit        int
}

// Service is the expiry sweeper: the sole timeout authority for pending
// bookings. Cancellations go through the booking service so seat release uses
// the same transactional path as a user cancel.
type Service struct {
	store    *postgresrepo.Store
	bookings *booking.Service
	logger   *slog.Logger
	cfg      Config

	mu sync.Mutex // serializes sweeps within one process
}

func New(store *postgresrepo.Store, bookings *booking.Service, logger *slog.Logger, cfg Config) *Service {
	if cfg.PendingTimeout <= 0 {
		cfg.PendingTimeout = 5 * time.Minute
	}

	if cfg.ExpiringSoonAfter <= 0 || cfg.ExpiringSoonAfter > cfg.PendingTimeout {
		cfg.ExpiringSoonAfter = 3 * time.Minute
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}

	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 500
	}

	return &Service{
		store:    store,
		bookings: bookings,
		logger:   logger,
		cfg:      cfg,
	}
}

// Sweep cancels every pending booking older than the timeout. Each booking is
// processed independently: a failure is logged and the sweep moves on. A
// sweep that finds another one in flight is a no-op; the next tick catches
// whatever was missed.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	const op = "service.cleanup.Sweep"

	if !s.mu.TryLock() {
		return 0, nil
	}
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.cfg.PendingTimeout)

	ids, err := s.store.Bookings().ListExpiredPending(ctx, cutoff, s.cfg.BatchLimit)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, id := range ids {
		if _, err := s.bookings.CancelBooking(ctx, domain.SystemActor, id, "expired"); err != nil {
			// Already cancelled or paid between the select and the cancel:
			// someone else won the race, nothing leaked.
			if errors.Is(err, booking.ErrInvalidState) || errors.Is(err, booking.ErrBookingNotFound) {
				continue
			}
			s.logger.Error("sweep: cancel failed", "op", op, "booking_id", id, "error", err)
			continue
		}
		processed++
	}

	if processed > 0 {
		s.logger.Info("sweep: cancelled expired bookings", "count", processed)
	}

	return processed, nil
}

// PendingStats reports the pending backlog for admin dashboards. Read-only.
func (s *Service) PendingStats(ctx context.Context) (*domain.PendingStats, error) {
	const op = "service.cleanup.PendingStats"

	now := time.Now()
	total, soon, expired, err := s.store.Bookings().PendingCounts(
		ctx,
		now.Add(-s.cfg.ExpiringSoonAfter),
		now.Add(-s.cfg.PendingTimeout),
	)
	if err != nil {
		return nil, err
	}

	return &domain.PendingStats{
		TotalPending:   total,
		ExpiringSoon:   soon,
		Expired:        expired,
		TimeoutMinutes: int(s.cfg.PendingTimeout / time.Minute),
	}, nil
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep failed", "error", err)
			}
		}
	}
}
