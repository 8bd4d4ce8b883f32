package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/repository"
)

// SeatRepo is the seat ledger: the authoritative per-schedule seat state.
// TryReserve and Confirm must run inside the caller's transaction (via With)
// so the booking row and the seat rows commit or roll back together.
type SeatRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *SeatRepo) With(db DB) *SeatRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *SeatRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// TryReserve marks the requested seats pending, all-or-nothing.
//
// The seat rows are locked with SELECT ... FOR UPDATE before the check, so two
// overlapping reservations serialize on the row locks and at most one sees
// every seat available. A plain read-then-update here would race.
//
// Returns:
//   - []domain.Seat: the reserved seats, with their price overrides, on success.
//   - error: *repository.SeatsNotFoundError if any seat id does not belong to
//     the schedule.
//   - error: *repository.SeatConflictError naming every seat that is not
//     currently available.
func (r *SeatRepo) TryReserve(
	ctx context.Context,
	scheduleID int64,
	seatIDs []int64,
	now time.Time,
) ([]domain.Seat, error) {
	const op = "postgres.SeatRepo.TryReserve"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, schedule_id, seat_number, floor, status, price_override, pending_since
       	 FROM seats
      	 WHERE schedule_id = $1 AND id = ANY($2)
      	 ORDER BY id
        FOR UPDATE`,
		scheduleID, seatIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	found := make(map[int64]bool, len(seatIDs))
	var seats []domain.Seat
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(
			&s.ID, &s.ScheduleID, &s.SeatNumber, &s.Floor,
			&s.Status, &s.PriceOverride, &s.PendingSince,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		found[s.ID] = true
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	var missing []int64
	for _, id := range seatIDs {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s:%w", op, &repository.SeatsNotFoundError{SeatIDs: missing})
	}

	var conflicting []int64
	for _, s := range seats {
		if s.Status != domain.SeatAvailable {
			conflicting = append(conflicting, s.ID)
		}
	}
	if len(conflicting) > 0 {
		return nil, fmt.Errorf("%s:%w", op, &repository.SeatConflictError{SeatIDs: conflicting})
	}

	if _, err := db.Exec(ctx,
		`UPDATE seats
        	SET status = 'pending', pending_since = $2
      	 WHERE id = ANY($1)`,
		seatIDs, now,
	); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	for i := range seats {
		seats[i].Status = domain.SeatPending
		ts := now
		seats[i].PendingSince = &ts
	}

	return seats, nil
}

// Release puts seats back to available. Seats already available are left
// alone, so release is safe to repeat; blocked seats stay blocked.
func (r *SeatRepo) Release(ctx context.Context, scheduleID int64, seatIDs []int64) error {
	const op = "postgres.SeatRepo.Release"

	db := r.handle()

	_, err := db.Exec(ctx,
		`UPDATE seats
        	SET status = 'available', pending_since = NULL
      	 WHERE schedule_id = $1
        	AND id = ANY($2)
        	AND status IN ('pending', 'booked')`,
		scheduleID, seatIDs,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Confirm flips pending seats to booked.
//
// Returns repository.ErrInvalidState if any seat is not currently pending:
// a confirm must only ever land on the seats its booking holds.
func (r *SeatRepo) Confirm(ctx context.Context, scheduleID int64, seatIDs []int64) error {
	const op = "postgres.SeatRepo.Confirm"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE seats
        	SET status = 'booked', pending_since = NULL
      	 WHERE schedule_id = $1
        	AND id = ANY($2)
        	AND status = 'pending'`,
		scheduleID, seatIDs,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if int(tag.RowsAffected()) != len(seatIDs) {
		return fmt.Errorf("%s:%w", op, repository.ErrInvalidState)
	}

	return nil
}

// SetBlocked blocks or unblocks one seat. Blocking is only legal from
// available, unblocking only from blocked; anything else means a live booking
// holds the seat. Returns the seat's schedule id for cache invalidation.
func (r *SeatRepo) SetBlocked(ctx context.Context, seatID int64, blocked bool) (int64, error) {
	const op = "postgres.SeatRepo.SetBlocked"

	db := r.handle()

	from, to := domain.SeatAvailable, domain.SeatBlocked
	if !blocked {
		from, to = domain.SeatBlocked, domain.SeatAvailable
	}

	var scheduleID int64
	err := db.QueryRow(ctx,
		`UPDATE seats
        	SET status = $3
      	 WHERE id = $1 AND status = $2
      	 RETURNING schedule_id`,
		seatID, from, to,
	).Scan(&scheduleID)
	if err == nil {
		return scheduleID, nil
	}

	if translateDBErr(err) != repository.ErrNotFound {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	// Distinguish a missing seat from one in the wrong state.
	var status domain.SeatStatus
	if err := db.QueryRow(ctx,
		`SELECT status FROM seats WHERE id = $1`, seatID,
	).Scan(&status); err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return 0, fmt.Errorf("%s:%w", op, repository.ErrInvalidState)
}
