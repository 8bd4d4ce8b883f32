package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
)

type ScheduleRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *ScheduleRepo) With(db DB) *ScheduleRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ScheduleRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Get retrieves a schedule by its ID.
//
// Returns:
//   - *domain.Schedule: the schedule when found.
//   - error: repository.ErrNotFound if the schedule does not exist.
func (r *ScheduleRepo) Get(ctx context.Context, id int64) (*domain.Schedule, error) {
	const op = "postgres.ScheduleRepo.Get"

	db := r.handle()

	var s domain.Schedule
	err := db.QueryRow(ctx,
		`SELECT id, route_id, bus_id, driver_id, departure_at, seat_price, status, enabled
       	 FROM schedules WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.RouteID, &s.BusID, &s.DriverID, &s.DepartureAt, &s.SeatPrice, &s.Status, &s.Enabled)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &s, nil
}

// ListSeats returns the seat map of a schedule, ordered by seat number.
func (r *ScheduleRepo) ListSeats(
	ctx context.Context,
	scheduleID int64,
	onlyAvailable bool,
	limit, offset int,
) ([]domain.Seat, error) {
	const op = "postgres.ScheduleRepo.ListSeats"

	db := r.handle()

	q := `SELECT id, schedule_id, seat_number, floor, status, price_override, pending_since
       	 FROM seats
      	 WHERE schedule_id = $1`
	if onlyAvailable {
		q += ` AND status = 'available'`
	}
	q += ` ORDER BY seat_number LIMIT $2 OFFSET $3`

	rows, err := db.Query(ctx, q, scheduleID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var seats []domain.Seat
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(
			&s.ID, &s.ScheduleID, &s.SeatNumber, &s.Floor,
			&s.Status, &s.PriceOverride, &s.PendingSince,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return seats, nil
}

// CountsByStatus returns the per-status seat counters of a schedule.
//
// Returns repository.ErrNotFound when the schedule has no seats and does not
// exist.
func (r *ScheduleRepo) CountsByStatus(ctx context.Context, scheduleID int64) (*domain.ScheduleCounts, error) {
	const op = "postgres.ScheduleRepo.CountsByStatus"

	db := r.handle()

	var c domain.ScheduleCounts
	err := db.QueryRow(ctx,
		`SELECT count(*) FILTER (WHERE status = 'available'),
            count(*) FILTER (WHERE status = 'pending'),
            count(*) FILTER (WHERE status = 'booked'),
            count(*) FILTER (WHERE status = 'blocked'),
            count(*)
       	 FROM seats WHERE schedule_id = $1`,
		scheduleID,
	).Scan(&c.Available, &c.Pending, &c.Booked, &c.Blocked, &c.Total)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if c.Total == 0 {
		if _, err := r.Get(ctx, scheduleID); err != nil {
			return nil, err
		}
	}

	return &c, nil
}
