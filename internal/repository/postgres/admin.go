package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/domain"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/repository"
)

type AdminRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *AdminRepo) With(db DB) *AdminRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *AdminRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// CreateSchedule inserts a schedule and returns its id.
//
// Returns:
//   - error: repository.ErrConflict if an identical departure already exists
//     for the bus.
func (r *AdminRepo) CreateSchedule(
	ctx context.Context,
	routeID, busID, driverID int64,
	departureAt time.Time,
	seatPrice int64,
) (int64, error) {
	const op = "postgres.AdminRepo.CreateSchedule"

	db := r.handle()

	var id int64
	err := db.QueryRow(ctx,
		`INSERT INTO schedules(route_id, bus_id, driver_id, departure_at, seat_price, status, enabled)
       	 VALUES ($1, $2, $3, $4, $5, 'scheduled', true)
      	 RETURNING id`,
		routeID, busID, driverID, departureAt, seatPrice,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

// BatchCreateSeats initializes the seat layout of a schedule.
func (r *AdminRepo) BatchCreateSeats(ctx context.Context, scheduleID int64, seats []domain.Seat) error {
	const op = "postgres.AdminRepo.BatchCreateSeats"

	db := r.handle()

	batch := &pgx.Batch{}
	for _, s := range seats {
		batch.Queue(
			`INSERT INTO seats(schedule_id, seat_number, floor, status, price_override)
         	 VALUES ($1, $2, $3, 'available', $4)`,
			scheduleID, s.SeatNumber, s.Floor, s.PriceOverride,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *AdminRepo) SetScheduleEnabled(ctx context.Context, scheduleID int64, enabled bool) error {
	const op = "postgres.AdminRepo.SetScheduleEnabled"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE schedules SET enabled = $2 WHERE id = $1`,
		scheduleID, enabled,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// SetScheduleStatus moves a schedule between lifecycle states. The from guard
// keeps the transition a compare-and-set.
func (r *AdminRepo) SetScheduleStatus(
	ctx context.Context,
	scheduleID int64,
	from, to domain.ScheduleStatus,
) error {
	const op = "postgres.AdminRepo.SetScheduleStatus"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE schedules SET status = $3 WHERE id = $1 AND status = $2`,
		scheduleID, from, to,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrInvalidState)
	}

	return nil
}
